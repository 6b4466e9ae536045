package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)

	pair, err := m.IssuePair("4f1c2d0e-0000-4000-8000-000000000001", "student01")
	require.NoError(t, err)

	claims, err := m.Parse(pair.Access, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "4f1c2d0e-0000-4000-8000-000000000001", claims.ID)
	assert.Equal(t, "student01", claims.Username)

	_, err = m.Parse(pair.Refresh, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token must not authenticate requests")

	_, err = m.Parse(pair.Access, TypeRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Refresh(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	pair, err := m.IssuePair("id-1", "student01")
	require.NoError(t, err)

	access, err := m.Refresh(pair.Refresh)
	require.NoError(t, err)

	claims, err := m.Parse(access, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "id-1", claims.ID)

	_, err = m.Refresh(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	pair, err := m.IssuePair("id-1", "student01")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Parse(pair.Access, TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewManager("other-secret", time.Minute, time.Hour)
	_, err = other.Parse(pair.Refresh, TypeRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token", TypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

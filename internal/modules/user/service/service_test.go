package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/internal/modules/student/repository"
	"anoa.com/studentmanager/internal/modules/user/dto"
	"anoa.com/studentmanager/internal/testutil"
	"anoa.com/studentmanager/pkg/apperror"
	"anoa.com/studentmanager/pkg/token"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const password = "Secret@123"

type fixture struct {
	svc     AuthService
	tokens  *token.Manager
	student *entity.Student
}

func newFixture(t *testing.T, rdb *redis.Client) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	repo := repository.NewStudentRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	class := testutil.CreateClass(t, db, "10A1", 50)
	student := &entity.Student{
		FullName:     "Nguyen Van A",
		Gender:       entity.GenderMale,
		ClassID:      &class.ID,
		PhoneNumber:  "+84912345678",
		Email:        "a@example.com",
		Username:     "nguyenvana",
		PasswordHash: string(hash),
	}
	require.NoError(t, repo.Create(context.Background(), student))

	tokens := token.NewManager("test-secret", 5*time.Minute, time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAuthService(repo, tokens, NewLoginThrottle(rdb, 2, time.Minute), nil, logger)

	return &fixture{svc: svc, tokens: tokens, student: student}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperror.MapErrorToStatus(err)
}

func TestLogin_IssuesTokenPair(t *testing.T) {
	f := newFixture(t, nil)

	pair, err := f.svc.Login(context.Background(), dto.LoginInput{Username: "nguyenvana", Password: password})
	require.NoError(t, err)

	claims, err := f.tokens.Parse(pair.Access, token.TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, f.student.ID.String(), claims.ID)

	_, err = f.tokens.Parse(pair.Refresh, token.TypeRefresh)
	assert.NoError(t, err)
}

func TestLogin_UnknownUsernameIsUnauthorized(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Login(context.Background(), dto.LoginInput{Username: "ghost", Password: password})
	assert.Equal(t, 401, statusOf(t, err))
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestLogin_WrongPasswordIsBadRequest(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Login(context.Background(), dto.LoginInput{Username: "nguyenvana", Password: "Wrong@123"})
	assert.Equal(t, 400, statusOf(t, err))
}

func TestLogin_ThrottledAfterFailures(t *testing.T) {
	_, rdb := newRedis(t)
	f := newFixture(t, rdb)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Login(ctx, dto.LoginInput{Username: "nguyenvana", Password: "Wrong@123"})
		assert.Equal(t, 400, statusOf(t, err))
	}

	_, err := f.svc.Login(ctx, dto.LoginInput{Username: "nguyenvana", Password: password})
	assert.Equal(t, 429, statusOf(t, err))
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
}

func TestLogin_RedisDownFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	f := newFixture(t, rdb)
	mr.Close()

	_, err := f.svc.Login(context.Background(), dto.LoginInput{Username: "nguyenvana", Password: password})
	assert.NoError(t, err)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	pair, err := f.svc.Login(ctx, dto.LoginInput{Username: "nguyenvana", Password: password})
	require.NoError(t, err)

	res, err := f.svc.Refresh(ctx, dto.RefreshInput{Refresh: pair.Refresh})
	require.NoError(t, err)
	_, err = f.tokens.Parse(res.Access, token.TypeAccess)
	assert.NoError(t, err)

	_, err = f.svc.Refresh(ctx, dto.RefreshInput{Refresh: pair.Access})
	assert.Equal(t, 401, statusOf(t, err))
}

func TestGetDetails(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.GetDetails(context.Background(), f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "User details", res.Message)
	assert.Equal(t, "nguyenvana", res.Data.Username)
	assert.Equal(t, "10A1", res.Data.ClassName)

	_, err = f.svc.GetDetails(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

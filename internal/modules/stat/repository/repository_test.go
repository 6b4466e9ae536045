package repository

import (
	"context"
	"testing"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotals_Empty(t *testing.T) {
	repo := NewStatRepository(testutil.NewDB(t))

	totals, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Zero(t, *totals)
}

func TestTotals(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateClass(t, db, "10A1", 50)
	testutil.CreateClass(t, db, "10A2", 60)
	require.NoError(t, db.Model(a).UpdateColumn("current_students", 1).Error)

	students := []*entity.Student{
		{FullName: "Nguyen Van A", Gender: entity.GenderMale, ClassID: &a.ID, PhoneNumber: "+84912345671", Email: "a@example.com", Username: "studenta", PasswordHash: "hash"},
		{FullName: "Tran Thi B", Gender: entity.GenderFemale, PhoneNumber: "+84912345672", Email: "b@example.com", Username: "studentb", PasswordHash: "hash"},
	}
	for _, s := range students {
		require.NoError(t, db.Create(s).Error)
	}

	totals, err := NewStatRepository(db).Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.Students)
	assert.Equal(t, int64(1), totals.Unassigned)
	assert.Equal(t, int64(2), totals.Classes)
	assert.Equal(t, int64(1), totals.SeatsTaken)
	assert.Equal(t, int64(110), totals.SeatsTotal)
	assert.Equal(t, int64(0), totals.Books)
}

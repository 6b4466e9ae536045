package class

import (
	"context"
	"testing"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/internal/modules/class/dto"
	"anoa.com/studentmanager/internal/modules/class/repository"
	"anoa.com/studentmanager/internal/testutil"
	"anoa.com/studentmanager/pkg/apperror"
	commonDto "anoa.com/studentmanager/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (ClassService, *gorm.DB) {
	db := testutil.NewDB(t)
	return NewClassService(repository.NewClassRepository(db)), db
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestCreateClass_StartsEmpty(t *testing.T) {
	svc, _ := newService(t)

	res, err := svc.CreateClass(context.Background(), dto.CreateClassRequest{Name: " 10A1 ", MaxStudents: 55})
	require.NoError(t, err)
	assert.Equal(t, "10A1", res.Name)
	assert.Equal(t, 0, res.CurrentStudents)
	assert.Equal(t, "10A1 (0/55)", res.Display)
}

func TestCreateClass_DuplicateName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateClass(ctx, dto.CreateClassRequest{Name: "10A1", MaxStudents: 50})
	require.NoError(t, err)

	_, err = svc.CreateClass(ctx, dto.CreateClassRequest{Name: "10A1", MaxStudents: 60})
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestGetAllClasses_SearchAndPaging(t *testing.T) {
	svc, db := newService(t)
	for _, name := range []string{"10A1", "10A2", "11B1"} {
		testutil.CreateClass(t, db, name, 50)
	}

	res, err := svc.GetAllClasses(context.Background(), commonDto.ListFilter{Search: "10a"})
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "10A1", res.Data[0].Name)
	assert.Equal(t, int64(2), res.Meta.TotalItems)

	res, err = svc.GetAllClasses(context.Background(), commonDto.ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "11B1", res.Data[0].Name)
	assert.Equal(t, 2, res.Meta.TotalPages)
}

func TestUpdateClass_CannotShrinkBelowHeadCount(t *testing.T) {
	svc, db := newService(t)
	class := testutil.CreateClass(t, db, "10A1", 80)
	require.NoError(t, db.Model(class).UpdateColumn("current_students", 60).Error)

	_, err := svc.UpdateClass(context.Background(), class.ID, dto.UpdateClassRequest{MaxStudents: intPtr(55)})
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "max_students")

	res, err := svc.UpdateClass(context.Background(), class.ID, dto.UpdateClassRequest{Name: strPtr("10B1"), MaxStudents: intPtr(60)})
	require.NoError(t, err)
	assert.Equal(t, "10B1", res.Name)
	assert.Equal(t, 60, res.MaxStudents)
	assert.Equal(t, 60, res.CurrentStudents)
}

func TestDeleteClass(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	class := testutil.CreateClass(t, db, "10A1", 50)

	student := &entity.Student{
		FullName:     "Nguyen Van A",
		Gender:       entity.GenderMale,
		ClassID:      &class.ID,
		PhoneNumber:  "+84912345678",
		Email:        "a@example.com",
		Username:     "nguyenvana",
		PasswordHash: "hash",
	}
	require.NoError(t, db.Create(student).Error)

	err := svc.DeleteClass(ctx, class.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, db.Delete(student).Error)
	require.NoError(t, svc.DeleteClass(ctx, class.ID))

	err = svc.DeleteClass(ctx, class.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

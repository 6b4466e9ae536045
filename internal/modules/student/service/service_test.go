package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"anoa.com/studentmanager/internal/entity"
	classRepo "anoa.com/studentmanager/internal/modules/class/repository"
	"anoa.com/studentmanager/internal/modules/student/dto"
	"anoa.com/studentmanager/internal/modules/student/repository"
	"anoa.com/studentmanager/internal/testutil"
	"anoa.com/studentmanager/pkg/apperror"
	commonDto "anoa.com/studentmanager/pkg/dto"
	"anoa.com/studentmanager/pkg/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) IndexStudent(student *entity.Student) error {
	return m.Called(student).Error(0)
}

func (m *MockSearchService) DeleteStudent(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockSearchService) IndexBook(book *entity.Book) error {
	return m.Called(book).Error(0)
}

func (m *MockSearchService) DeleteBook(id string) error {
	return m.Called(id).Error(0)
}

func (m *MockSearchService) SearchStudents(query string, limit int) ([]string, error) {
	args := m.Called(query, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockSearchService) SearchBooks(query string, limit int) ([]string, error) {
	args := m.Called(query, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockSearchService) Enabled() bool {
	return m.Called().Bool(0)
}

type fixture struct {
	svc    StudentService
	db     *gorm.DB
	search *MockSearchService
	root   string
}

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	root := t.TempDir()
	imageStorage, err := storage.NewLocalStorage(root, "/media/")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assets := storage.NewAssetManager(imageStorage, logger, entity.DefaultAvatar)

	searchSvc := new(MockSearchService)
	searchSvc.On("IndexStudent", mock.Anything).Return(nil).Maybe()
	searchSvc.On("DeleteStudent", mock.Anything).Return(nil).Maybe()

	svc := NewStudentService(
		repository.NewStudentRepository(db),
		classRepo.NewClassRepository(db),
		imageStorage,
		assets,
		searchSvc,
		logger,
	)
	svc.(*studentService).now = func() time.Time { return fixedNow }

	// the shared placeholder exists on disk like in a real deployment
	placeholder := filepath.Join(root, filepath.FromSlash(entity.DefaultAvatar))
	require.NoError(t, os.MkdirAll(filepath.Dir(placeholder), 0o755))
	require.NoError(t, os.WriteFile(placeholder, []byte("default"), 0o644))

	return &fixture{svc: svc, db: db, search: searchSvc, root: root}
}

func (f *fixture) exists(ref string) bool {
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(ref)))
	return err == nil
}

func classID(c *entity.Class) *string {
	id := strconv.FormatUint(uint64(c.ID), 10)
	return &id
}

func createRequest(n string) dto.CreateStudentRequest {
	return dto.CreateStudentRequest{
		FullName:    "Nguyen Van " + n,
		DateOfBirth: "2008-05-01",
		Gender:      "M",
		PhoneNumber: "09123456" + n,
		Email:       "student" + n + "@example.com",
		Username:    "student" + n,
		Password:    "Secret@123",
	}
}

func png(name string) *commonDto.ImageFile {
	return &commonDto.ImageFile{Reader: bytes.NewReader([]byte("png-bytes")), FileName: name}
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestCreateStudent_EnrollsAndStoresAvatar(t *testing.T) {
	f := newFixture(t)
	class := testutil.CreateClass(t, f.db, "10A1", 50)

	req := createRequest("01")
	req.StudentClass = classID(class)
	res, err := f.svc.CreateStudent(context.Background(), req, png("me.PNG"))
	require.NoError(t, err)

	assert.Equal(t, "+84912345601", res.PhoneNumber)
	assert.Equal(t, "10A1", res.ClassName)
	assert.Equal(t, "2008-05-01", *res.DateOfBirth)
	assert.True(t, strings.HasPrefix(res.Avatar, "avatars/2025/03/"))
	assert.Equal(t, "/media/"+res.Avatar, res.AvatarURL)
	assert.True(t, f.exists(res.Avatar))
	assert.Equal(t, 1, testutil.ReloadClass(t, f.db, class.ID).CurrentStudents)

	var stored entity.Student
	require.NoError(t, f.db.First(&stored, "id = ?", res.ID).Error)
	assert.NotEqual(t, "Secret@123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Secret@123")))

	f.search.AssertCalled(t, "IndexStudent", mock.Anything)
}

func TestCreateStudent_DefaultAvatar(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CreateStudent(context.Background(), createRequest("01"), nil)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultAvatar, res.Avatar)
	assert.Nil(t, res.StudentClass)
}

func TestCreateStudent_RejectsAvatarExtension(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateStudent(context.Background(), createRequest("01"), png("me.gif"))
	assert.Contains(t, fieldErrors(t, err), "avatar")

	entries, _ := os.ReadDir(filepath.Join(f.root, "avatars"))
	assert.Empty(t, entries)
}

func TestCreateStudent_AcceptsAvatarExtensions(t *testing.T) {
	f := newFixture(t)

	for i, name := range []string{"a.jpg", "b.JPEG", "c.png"} {
		res, err := f.svc.CreateStudent(context.Background(), createRequest("1"+strconv.Itoa(i)), png(name))
		require.NoError(t, err, name)
		assert.NotEqual(t, entity.DefaultAvatar, res.Avatar)
		assert.True(t, f.exists(res.Avatar), name)
	}
}

func TestCreateStudent_FullClass(t *testing.T) {
	f := newFixture(t)
	class := testutil.CreateClass(t, f.db, "10A1", 50)
	require.NoError(t, f.db.Model(class).UpdateColumn("current_students", 50).Error)

	req := createRequest("01")
	req.StudentClass = classID(class)
	_, err := f.svc.CreateStudent(context.Background(), req, nil)

	assert.Contains(t, fieldErrors(t, err), "student_class")
	assert.Equal(t, 50, testutil.ReloadClass(t, f.db, class.ID).CurrentStudents)

	var count int64
	require.NoError(t, f.db.Model(&entity.Student{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateStudent_DuplicateFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateStudent(ctx, createRequest("01"), nil)
	require.NoError(t, err)

	req := createRequest("02")
	req.Username = "student01"
	req.Email = "STUDENT01@example.com"
	req.PhoneNumber = "+84912345601"
	_, err = f.svc.CreateStudent(ctx, req, nil)

	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone_number")
}

func TestUpdateStudent_ReplacesAvatarButKeepsDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateStudent(ctx, createRequest("01"), nil)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	first, err := f.svc.UpdateStudent(ctx, id, dto.UpdateStudentRequest{}, png("a.png"))
	require.NoError(t, err)
	assert.True(t, f.exists(entity.DefaultAvatar))
	assert.True(t, f.exists(first.Avatar))

	second, err := f.svc.UpdateStudent(ctx, id, dto.UpdateStudentRequest{}, png("b.jpg"))
	require.NoError(t, err)
	assert.False(t, f.exists(first.Avatar))
	assert.True(t, f.exists(second.Avatar))

	name := "Renamed"
	third, err := f.svc.UpdateStudent(ctx, id, dto.UpdateStudentRequest{FullName: &name}, nil)
	require.NoError(t, err)
	assert.Equal(t, second.Avatar, third.Avatar)
	assert.True(t, f.exists(second.Avatar))
}

func TestUpdateStudent_ClassCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	from := testutil.CreateClass(t, f.db, "10A1", 50)
	to := testutil.CreateClass(t, f.db, "10A2", 50)

	req := createRequest("01")
	req.StudentClass = classID(from)
	created, err := f.svc.CreateStudent(ctx, req, nil)
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	_, err = f.svc.UpdateStudent(ctx, id, dto.UpdateStudentRequest{StudentClass: classID(from)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.ReloadClass(t, f.db, from.ID).CurrentStudents)

	moved, err := f.svc.UpdateStudent(ctx, id, dto.UpdateStudentRequest{StudentClass: classID(to)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "10A2", moved.ClassName)
	assert.Equal(t, 0, testutil.ReloadClass(t, f.db, from.ID).CurrentStudents)
	assert.Equal(t, 1, testutil.ReloadClass(t, f.db, to.ID).CurrentStudents)

	empty := ""
	_, err = f.svc.UpdateStudent(ctx, id, dto.UpdateStudentRequest{StudentClass: &empty}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.ReloadClass(t, f.db, to.ID).CurrentStudents)
}

func TestUpdateStudent_PasswordRehashed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateStudent(ctx, createRequest("01"), nil)
	require.NoError(t, err)

	password := "N3w!password"
	_, err = f.svc.UpdateStudent(ctx, uuid.MustParse(created.ID), dto.UpdateStudentRequest{Password: &password}, nil)
	require.NoError(t, err)

	var stored entity.Student
	require.NoError(t, f.db.First(&stored, "id = ?", created.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)))
}

func TestDeleteStudent_ReleasesAvatarAndSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := testutil.CreateClass(t, f.db, "10A1", 50)

	req := createRequest("01")
	req.StudentClass = classID(class)
	created, err := f.svc.CreateStudent(ctx, req, png("me.jpeg"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteStudent(ctx, uuid.MustParse(created.ID)))

	assert.False(t, f.exists(created.Avatar))
	assert.Equal(t, 0, testutil.ReloadClass(t, f.db, class.ID).CurrentStudents)
	f.search.AssertCalled(t, "DeleteStudent", created.ID)

	err = f.svc.DeleteStudent(ctx, uuid.MustParse(created.ID))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteStudent_KeepsDefaultAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateStudent(ctx, createRequest("01"), nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteStudent(ctx, uuid.MustParse(created.ID)))

	assert.True(t, f.exists(entity.DefaultAvatar))
}

func TestGetAllStudents_UsesSearchIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateStudent(ctx, createRequest("01"), nil)
	require.NoError(t, err)
	_, err = f.svc.CreateStudent(ctx, createRequest("02"), nil)
	require.NoError(t, err)

	f.search.On("Enabled").Return(true)
	f.search.On("SearchStudents", "van", maxSearchHits).Return([]string{first.ID}, nil)

	res, err := f.svc.GetAllStudents(ctx, dto.StudentFilter{ListFilter: commonDto.ListFilter{Search: "van"}})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, first.ID, res.Data[0].ID)
	assert.Equal(t, int64(1), res.Meta.TotalItems)
}

func TestExportStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	class := testutil.CreateClass(t, f.db, "10A1", 50)

	req := createRequest("01")
	req.StudentClass = classID(class)
	_, err := f.svc.CreateStudent(ctx, req, nil)
	require.NoError(t, err)

	data, err := f.svc.ExportStudents(ctx)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Full name", rows[0][1])
	assert.Equal(t, "Nguyen Van 01", rows[1][1])
	assert.Equal(t, "10A1", rows[1][3])
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"anoa.com/studentmanager/internal/entity"
	classRepo "anoa.com/studentmanager/internal/modules/class/repository"
	search "anoa.com/studentmanager/internal/modules/search/service"
	"anoa.com/studentmanager/internal/modules/student/dto"
	"anoa.com/studentmanager/internal/modules/student/repository"
	"anoa.com/studentmanager/pkg/apperror"
	commonDto "anoa.com/studentmanager/pkg/dto"
	"anoa.com/studentmanager/pkg/storage"
	"anoa.com/studentmanager/pkg/textclean"
	"anoa.com/studentmanager/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxSearchHits   = 1000
	avatarFolder    = "avatars"
)

var avatarExtensions = []string{"jpg", "jpeg", "png"}

type StudentService interface {
	CreateStudent(ctx context.Context, req dto.CreateStudentRequest, avatar *commonDto.ImageFile) (*dto.StudentResponse, error)
	GetAllStudents(ctx context.Context, filter dto.StudentFilter) (*dto.PaginatedStudentResponse, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*dto.StudentResponse, error)
	UpdateStudent(ctx context.Context, id uuid.UUID, req dto.UpdateStudentRequest, avatar *commonDto.ImageFile) (*dto.StudentResponse, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) error
	ListEnrollments(ctx context.Context) ([]dto.EnrollmentRow, error)
	ExportStudents(ctx context.Context) ([]byte, error)
}

type studentService struct {
	repo         repository.StudentRepository
	classRepo    classRepo.ClassRepository
	imageStorage storage.ImageStorage
	assets       *storage.AssetManager
	search       search.SearchService
	logger       *slog.Logger
	now          func() time.Time
}

func NewStudentService(
	repo repository.StudentRepository,
	classRepo classRepo.ClassRepository,
	imageStorage storage.ImageStorage,
	assets *storage.AssetManager,
	searchService search.SearchService,
	logger *slog.Logger,
) StudentService {
	return &studentService{
		repo:         repo,
		classRepo:    classRepo,
		imageStorage: imageStorage,
		assets:       assets,
		search:       searchService,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *studentService) CreateStudent(ctx context.Context, req dto.CreateStudentRequest, avatar *commonDto.ImageFile) (*dto.StudentResponse, error) {
	phone, err := validator.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, apperror.NewValidationError().Add("phone_number", "Phone number is not a valid phone number")
	}

	student := &entity.Student{
		FullName:    textclean.Plain(req.FullName),
		Gender:      entity.Gender(req.Gender),
		PhoneNumber: phone,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Address:     textclean.Plain(req.Address),
		Username:    strings.TrimSpace(req.Username),
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(validator.DateLayout, req.DateOfBirth)
		if err != nil {
			return nil, apperror.NewValidationError().Add("date_of_birth", "Date of birth must be a date in YYYY-MM-DD format")
		}
		student.DateOfBirth = &dob
	}

	verr := apperror.NewValidationError()
	if req.StudentClass != nil && *req.StudentClass != "" {
		classID, err := s.checkClass(ctx, *req.StudentClass, verr)
		if err != nil {
			return nil, err
		}
		student.ClassID = classID
	}
	if err := s.checkUnique(ctx, student, verr); err != nil {
		return nil, err
	}
	checkAvatar(avatar, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	student.PasswordHash = string(hash)

	if avatar != nil {
		ref, err := s.uploadAvatar(ctx, avatar)
		if err != nil {
			return nil, err
		}
		student.Avatar = ref
	}

	if err := s.repo.Create(ctx, student); err != nil {
		if avatar != nil {
			s.assets.Release(ctx, student.Avatar)
		}
		return nil, s.mapPersistError(err)
	}

	return s.reloadAndIndex(ctx, student.ID)
}

func (s *studentService) GetAllStudents(ctx context.Context, filter dto.StudentFilter) (*dto.PaginatedStudentResponse, error) {
	filter.Normalize(defaultPageSize)

	if query := strings.TrimSpace(filter.Search); query != "" && s.search.Enabled() {
		ids, err := s.search.SearchStudents(query, maxSearchHits)
		if err != nil {
			s.logger.Warn("student search failed, falling back to database", "error", err)
		} else {
			filter.IDs = ids
		}
	}

	students, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		data = append(data, s.toResponse(student))
	}

	return &dto.PaginatedStudentResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(filter.ListFilter, total),
	}, nil
}

func (s *studentService) GetStudent(ctx context.Context, id uuid.UUID) (*dto.StudentResponse, error) {
	student, err := s.findStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.toResponse(student)
	return &res, nil
}

func (s *studentService) UpdateStudent(ctx context.Context, id uuid.UUID, req dto.UpdateStudentRequest, avatar *commonDto.ImageFile) (*dto.StudentResponse, error) {
	student, err := s.findStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := apperror.NewValidationError()
	if req.FullName != nil {
		student.FullName = textclean.Plain(*req.FullName)
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			student.DateOfBirth = nil
		} else {
			dob, err := time.Parse(validator.DateLayout, *req.DateOfBirth)
			if err != nil {
				verr.Add("date_of_birth", "Date of birth must be a date in YYYY-MM-DD format")
			} else {
				student.DateOfBirth = &dob
			}
		}
	}
	if req.Gender != nil {
		student.Gender = entity.Gender(*req.Gender)
	}
	if req.PhoneNumber != nil {
		phone, err := validator.NormalizePhone(*req.PhoneNumber)
		if err != nil {
			verr.Add("phone_number", "Phone number is not a valid phone number")
		} else {
			student.PhoneNumber = phone
		}
	}
	if req.Email != nil {
		student.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Address != nil {
		student.Address = textclean.Plain(*req.Address)
	}
	if req.Username != nil {
		student.Username = strings.TrimSpace(*req.Username)
	}
	if req.StudentClass != nil {
		if *req.StudentClass == "" {
			student.ClassID = nil
		} else if !sameClassID(student.ClassID, *req.StudentClass) {
			classID, err := s.checkClass(ctx, *req.StudentClass, verr)
			if err != nil {
				return nil, err
			}
			student.ClassID = classID
		}
	}
	if err := s.checkUnique(ctx, student, verr); err != nil {
		return nil, err
	}
	checkAvatar(avatar, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		student.PasswordHash = string(hash)
	}

	previousAvatar := student.Avatar
	if avatar != nil {
		ref, err := s.uploadAvatar(ctx, avatar)
		if err != nil {
			return nil, err
		}
		student.Avatar = ref
	}
	student.Class = nil

	if err := s.repo.Update(ctx, student); err != nil {
		if avatar != nil {
			s.assets.Release(ctx, student.Avatar)
		}
		return nil, s.mapPersistError(err)
	}

	s.assets.Replace(ctx, previousAvatar, student.Avatar)

	return s.reloadAndIndex(ctx, student.ID)
}

func (s *studentService) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	student, err := s.findStudent(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(http.StatusNotFound, "student not found", apperror.ErrNotFound)
		}
		return err
	}

	s.assets.Release(ctx, student.Avatar)
	if err := s.search.DeleteStudent(id.String()); err != nil {
		s.logger.Warn("failed to remove student from search index", "student_id", id, "error", err)
	}
	return nil
}

func (s *studentService) ListEnrollments(ctx context.Context) ([]dto.EnrollmentRow, error) {
	return s.repo.ListEnrollments(ctx)
}

func (s *studentService) findStudent(ctx context.Context, id uuid.UUID) (*entity.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "student not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	return student, nil
}

// checkClass resolves a class id and reports a missing or full class on verr.
// It does not reserve a seat; the repository does that atomically.
func (s *studentService) checkClass(ctx context.Context, raw string, verr *apperror.ValidationError) (*uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		verr.Add("student_class", "Class does not exist")
		return nil, nil
	}

	class, err := s.classRepo.FindByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr.Add("student_class", "Class does not exist")
			return nil, nil
		}
		return nil, err
	}
	if !class.HasCapacity() {
		verr.Add("student_class", "Class "+class.Name+" is already full")
	}

	classID := class.ID
	return &classID, nil
}

func (s *studentService) checkUnique(ctx context.Context, student *entity.Student, verr *apperror.ValidationError) error {
	checks := []struct {
		field   string
		message string
		find    func(context.Context, string) (*entity.Student, error)
		value   string
	}{
		{"username", "A student with this username already exists", s.repo.FindByUsername, student.Username},
		{"email", "A student with this email already exists", s.repo.FindByEmail, student.Email},
		{"phone_number", "A student with this phone number already exists", s.repo.FindByPhone, student.PhoneNumber},
	}

	for _, check := range checks {
		existing, err := check.find(ctx, check.value)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if existing.ID != student.ID {
			verr.Add(check.field, check.message)
		}
	}
	return nil
}

func checkAvatar(avatar *commonDto.ImageFile, verr *apperror.ValidationError) {
	if avatar != nil && !storage.HasAllowedExtension(avatar.FileName, avatarExtensions...) {
		verr.Add("avatar", "Avatar must be a jpg, jpeg or png file")
	}
}

func (s *studentService) uploadAvatar(ctx context.Context, avatar *commonDto.ImageFile) (string, error) {
	folder := storage.DatedFolder(avatarFolder, s.now())
	ref, err := s.imageStorage.UploadImage(ctx, avatar.Reader, folder, avatar.FileName)
	if err != nil {
		return "", apperror.New(http.StatusInternalServerError, "failed to store avatar", err)
	}
	return ref, nil
}

func (s *studentService) mapPersistError(err error) error {
	var verr *apperror.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr
	case errors.Is(err, apperror.ErrClassFull):
		return apperror.NewValidationError().Add("student_class", "Class is already full")
	case errors.Is(err, apperror.ErrNotFound):
		return apperror.NewValidationError().Add("student_class", "Class does not exist")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.New(http.StatusNotFound, "student not found", apperror.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.New(http.StatusConflict, "a student with the same username, email or phone number already exists", apperror.ErrConflict)
	}
	return err
}

func (s *studentService) reloadAndIndex(ctx context.Context, id uuid.UUID) (*dto.StudentResponse, error) {
	student, err := s.findStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.search.IndexStudent(student); err != nil {
		s.logger.Warn("failed to index student", "student_id", id, "error", err)
	}
	res := s.toResponse(student)
	return &res, nil
}

func (s *studentService) toResponse(student *entity.Student) dto.StudentResponse {
	return dto.NewStudentResponse(student, s.assets.URL(student.Avatar))
}

func sameClassID(current *uint, raw string) bool {
	if current == nil {
		return false
	}
	return strconv.FormatUint(uint64(*current), 10) == raw
}

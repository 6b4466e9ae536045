package class

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/internal/modules/class/dto"
	"anoa.com/studentmanager/internal/modules/class/repository"
	"anoa.com/studentmanager/pkg/apperror"
	commonDto "anoa.com/studentmanager/pkg/dto"
	"anoa.com/studentmanager/pkg/textclean"
	"gorm.io/gorm"
)

const defaultPageSize = 20

type ClassService interface {
	CreateClass(ctx context.Context, req dto.CreateClassRequest) (*dto.ClassResponse, error)
	GetAllClasses(ctx context.Context, filter commonDto.ListFilter) (*dto.PaginatedClassResponse, error)
	GetClass(ctx context.Context, id uint) (*dto.ClassResponse, error)
	UpdateClass(ctx context.Context, id uint, req dto.UpdateClassRequest) (*dto.ClassResponse, error)
	DeleteClass(ctx context.Context, id uint) error
}

type classService struct {
	repo repository.ClassRepository
}

func NewClassService(repo repository.ClassRepository) ClassService {
	return &classService{repo: repo}
}

func (s *classService) CreateClass(ctx context.Context, req dto.CreateClassRequest) (*dto.ClassResponse, error) {
	name := textclean.Plain(req.Name)
	if err := s.ensureNameAvailable(ctx, name, 0); err != nil {
		return nil, err
	}

	class := &entity.Class{
		Name:        name,
		MaxStudents: req.MaxStudents,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewValidationError().Add("name", "Class with this name already exists")
		}
		return nil, err
	}

	res := dto.NewClassResponse(class)
	return &res, nil
}

func (s *classService) GetAllClasses(ctx context.Context, filter commonDto.ListFilter) (*dto.PaginatedClassResponse, error) {
	filter.Normalize(defaultPageSize)

	classes, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ClassResponse, 0, len(classes))
	for _, c := range classes {
		data = append(data, dto.NewClassResponse(c))
	}

	return &dto.PaginatedClassResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(filter, total),
	}, nil
}

func (s *classService) GetClass(ctx context.Context, id uint) (*dto.ClassResponse, error) {
	class, err := s.findClass(ctx, id)
	if err != nil {
		return nil, err
	}
	res := dto.NewClassResponse(class)
	return &res, nil
}

func (s *classService) UpdateClass(ctx context.Context, id uint, req dto.UpdateClassRequest) (*dto.ClassResponse, error) {
	class, err := s.findClass(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := textclean.Plain(*req.Name)
		if name != class.Name {
			if err := s.ensureNameAvailable(ctx, name, class.ID); err != nil {
				return nil, err
			}
		}
		class.Name = name
	}
	if req.MaxStudents != nil {
		if *req.MaxStudents < class.CurrentStudents {
			return nil, apperror.NewValidationError().Add("max_students", "Maximum students cannot be lower than the current number of students")
		}
		class.MaxStudents = *req.MaxStudents
	}

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, err
	}

	// reload so the response carries the live counter
	updated, err := s.findClass(ctx, id)
	if err != nil {
		return nil, err
	}
	res := dto.NewClassResponse(updated)
	return &res, nil
}

func (s *classService) DeleteClass(ctx context.Context, id uint) error {
	if _, err := s.findClass(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.New(http.StatusConflict, "class still has enrolled students", apperror.ErrConflict)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return apperror.New(http.StatusConflict, "class still has enrolled students", apperror.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *classService) findClass(ctx context.Context, id uint) (*entity.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "class not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	return class, nil
}

func (s *classService) ensureNameAvailable(ctx context.Context, name string, selfID uint) error {
	existing, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return apperror.NewValidationError().Add("name", "Class with this name already exists")
	}
	return nil
}

package repository

import (
	"context"
	"strings"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/pkg/apperror"
	commonDto "anoa.com/studentmanager/pkg/dto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClassRepository interface {
	Create(ctx context.Context, class *entity.Class) error
	FindByID(ctx context.Context, id uint) (*entity.Class, error)
	FindByName(ctx context.Context, name string) (*entity.Class, error)
	FindAll(ctx context.Context, filter commonDto.ListFilter) ([]*entity.Class, int64, error)
	Update(ctx context.Context, class *entity.Class) error
	Delete(ctx context.Context, id uint) error
	CountStudents(ctx context.Context, id uint) (int64, error)
	ReconcileCounts(ctx context.Context) ([]CountFix, error)
}

// CountFix records a class whose stored counter disagreed with its students.
type CountFix struct {
	ClassID uint
	Name    string
	Stored  int
	Actual  int
}

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(ctx context.Context, class *entity.Class) error {
	class.CurrentStudents = 0
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) FindByID(ctx context.Context, id uint) (*entity.Class, error) {
	var class entity.Class
	if err := r.db.WithContext(ctx).First(&class, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) FindByName(ctx context.Context, name string) (*entity.Class, error) {
	var class entity.Class
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepository) FindAll(ctx context.Context, filter commonDto.ListFilter) ([]*entity.Class, int64, error) {
	var classes []*entity.Class
	query := r.db.WithContext(ctx).Model(&entity.Class{})

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ? OR CAST(id AS TEXT) = ?", "%"+strings.ToLower(search)+"%", search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name ASC").Offset(filter.Offset()).Limit(filter.Limit).Find(&classes).Error; err != nil {
		return nil, 0, err
	}
	return classes, total, nil
}

// Update writes name and capacity only. The student counter is owned by
// enrollment and is never written from here; a capacity below the current
// head count is rejected.
func (r *classRepository) Update(ctx context.Context, class *entity.Class) error {
	res := r.db.WithContext(ctx).
		Model(class).
		Where("current_students <= ?", class.MaxStudents).
		Select("Name", "MaxStudents").
		Updates(class)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.New(409, "max_students cannot be lower than the current number of students", apperror.ErrConflict)
	}
	return nil
}

func (r *classRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&entity.Class{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *classRepository) CountStudents(ctx context.Context, id uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Student{}).Where("class_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReconcileCounts recomputes current_students from the students table. Class
// rows stay locked until commit so concurrent enrollments wait for the recount.
func (r *classRepository) ReconcileCounts(ctx context.Context) ([]CountFix, error) {
	var fixes []CountFix
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var classes []entity.Class
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Order("id ASC").Find(&classes).Error; err != nil {
			return err
		}

		for _, class := range classes {
			var actual int64
			if err := tx.Model(&entity.Student{}).Where("class_id = ?", class.ID).Count(&actual).Error; err != nil {
				return err
			}
			if int(actual) == class.CurrentStudents {
				continue
			}
			if err := tx.Model(&entity.Class{}).
				Where("id = ?", class.ID).
				UpdateColumn("current_students", actual).Error; err != nil {
				return err
			}
			fixes = append(fixes, CountFix{
				ClassID: class.ID,
				Name:    class.Name,
				Stored:  class.CurrentStudents,
				Actual:  int(actual),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixes, nil
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/internal/modules/student/dto"
	"anoa.com/studentmanager/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository interface {
	Create(ctx context.Context, student *entity.Student) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Student, error)
	FindByUsername(ctx context.Context, username string) (*entity.Student, error)
	FindByEmail(ctx context.Context, email string) (*entity.Student, error)
	FindByPhone(ctx context.Context, phone string) (*entity.Student, error)
	FindAll(ctx context.Context, filter dto.StudentFilter) ([]*entity.Student, int64, error)
	FindAllOrdered(ctx context.Context) ([]*entity.Student, error)
	Update(ctx context.Context, student *entity.Student) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListEnrollments(ctx context.Context) ([]dto.EnrollmentRow, error)
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// Create enrolls the student into their class and inserts the row in one
// transaction. A full class fails with apperror.ErrClassFull and nothing is
// written.
func (r *studentRepository) Create(ctx context.Context, student *entity.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if student.ClassID != nil {
			if err := enroll(tx, *student.ClassID); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(student).Error
	})
}

func (r *studentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Student, error) {
	var student entity.Student
	if err := r.db.WithContext(ctx).Preload("Class").First(&student, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindByUsername(ctx context.Context, username string) (*entity.Student, error) {
	return r.findOneBy(ctx, "username = ?", username)
}

func (r *studentRepository) FindByEmail(ctx context.Context, email string) (*entity.Student, error) {
	return r.findOneBy(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *studentRepository) FindByPhone(ctx context.Context, phone string) (*entity.Student, error) {
	return r.findOneBy(ctx, "phone_number = ?", phone)
}

func (r *studentRepository) findOneBy(ctx context.Context, query string, arg any) (*entity.Student, error) {
	var student entity.Student
	if err := r.db.WithContext(ctx).Preload("Class").Where(query, arg).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) FindAll(ctx context.Context, filter dto.StudentFilter) ([]*entity.Student, int64, error) {
	var students []*entity.Student
	query := r.db.WithContext(ctx).Model(&entity.Student{}).
		Joins("LEFT JOIN classes ON classes.id = students.class_id")

	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []*entity.Student{}, 0, nil
		}
		query = query.Where("students.id IN ?", filter.IDs)
	} else if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"CAST(students.id AS TEXT) LIKE ? OR LOWER(students.full_name) LIKE ? OR LOWER(students.username) LIKE ? OR LOWER(students.email) LIKE ? OR students.phone_number LIKE ? OR LOWER(students.gender) = ?",
			like, like, like, like, "%"+search+"%", strings.ToLower(search),
		)
	}

	if class := strings.TrimSpace(filter.Class); class != "" {
		query = query.Where("LOWER(classes.name) = ?", strings.ToLower(class))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Class").
		Order("students.class_id ASC").
		Order("students.full_name ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&students).Error
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (r *studentRepository) FindAllOrdered(ctx context.Context) ([]*entity.Student, error) {
	var students []*entity.Student
	err := r.db.WithContext(ctx).
		Preload("Class").
		Order("class_id ASC").
		Order("full_name ASC").
		Find(&students).Error
	return students, err
}

// Update persists the student. When the class changed the previous class is
// released and the new one enrolled in the same transaction; keeping the
// class leaves both counters untouched.
func (r *studentRepository) Update(ctx context.Context, student *entity.Student) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entity.Student
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "class_id").
			First(&current, "id = ?", student.ID).Error; err != nil {
			return err
		}

		if !sameClass(current.ClassID, student.ClassID) {
			if current.ClassID != nil {
				if err := unenroll(tx, *current.ClassID); err != nil {
					return err
				}
			}
			if student.ClassID != nil {
				if err := enroll(tx, *student.ClassID); err != nil {
					return err
				}
			}
		}

		return tx.Omit(clause.Associations).Save(student).Error
	})
}

// Delete removes the student and releases their seat in the class.
func (r *studentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entity.Student
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "class_id").
			First(&current, "id = ?", id).Error; err != nil {
			return err
		}

		if err := tx.Delete(&entity.Student{}, "id = ?", id).Error; err != nil {
			return err
		}

		if current.ClassID != nil {
			return unenroll(tx, *current.ClassID)
		}
		return nil
	})
}

func (r *studentRepository) ListEnrollments(ctx context.Context) ([]dto.EnrollmentRow, error) {
	var rows []dto.EnrollmentRow
	err := r.db.WithContext(ctx).
		Table("students").
		Select("students.full_name AS full_name, COALESCE(classes.name, '') AS class_name").
		Joins("LEFT JOIN classes ON classes.id = students.class_id").
		Order("students.class_id ASC").
		Order("students.full_name ASC").
		Scan(&rows).Error
	return rows, err
}

// enroll takes one seat in the class. The capacity check and the increment
// are a single conditional UPDATE so concurrent enrollments cannot overfill.
func enroll(tx *gorm.DB, classID uint) error {
	res := tx.Model(&entity.Class{}).
		Where("id = ? AND current_students < max_students", classID).
		UpdateColumn("current_students", gorm.Expr("current_students + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&entity.Class{}).Where("id = ?", classID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("class %d: %w", classID, apperror.ErrNotFound)
	}
	return apperror.ErrClassFull
}

func unenroll(tx *gorm.DB, classID uint) error {
	return tx.Model(&entity.Class{}).
		Where("id = ? AND current_students > 0", classID).
		UpdateColumn("current_students", gorm.Expr("current_students - ?", 1)).Error
}

func sameClass(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

package repository

import (
	"context"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/internal/modules/stat/dto"
	"gorm.io/gorm"
)

type StatRepository interface {
	Totals(ctx context.Context) (*dto.Totals, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) Totals(ctx context.Context) (*dto.Totals, error) {
	db := r.db.WithContext(ctx)
	var totals dto.Totals

	if err := db.Model(&entity.Student{}).Count(&totals.Students).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Student{}).Where("class_id IS NULL").Count(&totals.Unassigned).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Book{}).Count(&totals.Books).Error; err != nil {
		return nil, err
	}

	var seats struct {
		Classes int64
		Taken   int64
		Total   int64
	}
	if err := db.Model(&entity.Class{}).
		Select("COUNT(*) AS classes, COALESCE(SUM(current_students), 0) AS taken, COALESCE(SUM(max_students), 0) AS total").
		Scan(&seats).Error; err != nil {
		return nil, err
	}
	totals.Classes = seats.Classes
	totals.SeatsTaken = seats.Taken
	totals.SeatsTotal = seats.Total

	return &totals, nil
}

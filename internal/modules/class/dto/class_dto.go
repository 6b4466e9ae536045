package dto

import (
	"time"

	"anoa.com/studentmanager/internal/entity"
	commonDto "anoa.com/studentmanager/pkg/dto"
)

type CreateClassRequest struct {
	Name        string `json:"name" binding:"required,notblank,max=10"`
	MaxStudents int    `json:"max_students" binding:"required,min=50,max=80"`
}

type UpdateClassRequest struct {
	Name        *string `json:"name" binding:"omitempty,notblank,max=10"`
	MaxStudents *int    `json:"max_students" binding:"omitempty,min=50,max=80"`
}

type ClassIDRequest struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

type ClassResponse struct {
	ID              uint      `json:"id"`
	Name            string    `json:"name"`
	MaxStudents     int       `json:"max_students"`
	CurrentStudents int       `json:"current_students"`
	Display         string    `json:"display"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type PaginatedClassResponse struct {
	Data []ClassResponse         `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

func NewClassResponse(c *entity.Class) ClassResponse {
	return ClassResponse{
		ID:              c.ID,
		Name:            c.Name,
		MaxStudents:     c.MaxStudents,
		CurrentStudents: c.CurrentStudents,
		Display:         c.String(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

package dto

import (
	"time"

	"anoa.com/studentmanager/internal/entity"
	commonDto "anoa.com/studentmanager/pkg/dto"
	"anoa.com/studentmanager/pkg/validator"
)

// CreateStudentRequest is bound from multipart form or JSON. StudentClass is
// a class id; empty means no class.
type CreateStudentRequest struct {
	FullName     string  `form:"full_name" json:"full_name" binding:"required,notblank,max=150"`
	DateOfBirth  string  `form:"date_of_birth" json:"date_of_birth" binding:"omitempty,datetime=2006-01-02,notfuture"`
	Gender       string  `form:"gender" json:"gender" binding:"required,oneof=M F O"`
	StudentClass *string `form:"student_class" json:"student_class" binding:"omitempty,numeric"`
	PhoneNumber  string  `form:"phone_number" json:"phone_number" binding:"required,vnphone"`
	Email        string  `form:"email" json:"email" binding:"required,email,max=254"`
	Address      string  `form:"address" json:"address" binding:"max=255"`
	Username     string  `form:"username" json:"username" binding:"required,min=5,max=20"`
	Password     string  `form:"password" json:"password" binding:"required,strongpassword"`
}

// UpdateStudentRequest is a partial update; nil fields are left unchanged.
// An empty StudentClass removes the student from their class.
type UpdateStudentRequest struct {
	FullName     *string `form:"full_name" json:"full_name" binding:"omitempty,notblank,max=150"`
	DateOfBirth  *string `form:"date_of_birth" json:"date_of_birth" binding:"omitempty,datetime=2006-01-02,notfuture"`
	Gender       *string `form:"gender" json:"gender" binding:"omitempty,oneof=M F O"`
	StudentClass *string `form:"student_class" json:"student_class" binding:"omitempty,numeric"`
	PhoneNumber  *string `form:"phone_number" json:"phone_number" binding:"omitempty,vnphone"`
	Email        *string `form:"email" json:"email" binding:"omitempty,email,max=254"`
	Address      *string `form:"address" json:"address" binding:"omitempty,max=255"`
	Username     *string `form:"username" json:"username" binding:"omitempty,min=5,max=20"`
	Password     *string `form:"password" json:"password" binding:"omitempty,strongpassword"`
}

type StudentFilter struct {
	commonDto.ListFilter
	Class string `form:"class"`
	// IDs restricts results to a search-index hit list when non-nil.
	IDs []string `form:"-"`
}

type StudentResponse struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	DateOfBirth  *string   `json:"date_of_birth"`
	Gender       string    `json:"gender"`
	StudentClass *uint     `json:"student_class"`
	ClassName    string    `json:"class_name"`
	PhoneNumber  string    `json:"phone_number"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar"`
	AvatarURL    string    `json:"avatar_url"`
	Display      string    `json:"display"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PaginatedStudentResponse struct {
	Data []StudentResponse         `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

// EnrollmentRow is one line of the public student listing.
type EnrollmentRow struct {
	FullName  string
	ClassName string
}

func NewStudentResponse(s *entity.Student, avatarURL string) StudentResponse {
	res := StudentResponse{
		ID:           s.ID.String(),
		FullName:     s.FullName,
		Gender:       string(s.Gender),
		StudentClass: s.ClassID,
		PhoneNumber:  s.PhoneNumber,
		Email:        s.Email,
		Address:      s.Address,
		Username:     s.Username,
		Avatar:       s.Avatar,
		AvatarURL:    avatarURL,
		Display:      s.String(),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.DateOfBirth != nil {
		dob := s.DateOfBirth.Format(validator.DateLayout)
		res.DateOfBirth = &dob
	}
	if s.Class != nil {
		res.ClassName = s.Class.Name
	}
	return res
}

package dto

import (
	studentDto "anoa.com/studentmanager/internal/modules/student/dto"
)

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshInput struct {
	Refresh string `json:"refresh" binding:"required"`
}

type AccessResponse struct {
	Access string `json:"access"`
}

type DetailsResponse struct {
	Message string                     `json:"message"`
	Data    studentDto.StudentResponse `json:"data"`
}

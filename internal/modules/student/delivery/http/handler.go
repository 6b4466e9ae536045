package handler

import (
	"net/http"

	"anoa.com/studentmanager/internal/modules/student/dto"
	studentService "anoa.com/studentmanager/internal/modules/student/service"
	"anoa.com/studentmanager/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StudentHandler struct {
	service studentService.StudentService
}

func NewStudentHandler(service studentService.StudentService) *StudentHandler {
	return &StudentHandler{service: service}
}

func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	avatar, closeFn, ok := response.FormImage(c, "avatar")
	if !ok {
		return
	}
	defer closeFn()

	res, err := h.service.CreateStudent(c.Request.Context(), req, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *StudentHandler) GetAllStudents(c *gin.Context) {
	var filter dto.StudentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.GetAllStudents(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *StudentHandler) GetStudent(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}

	res, err := h.service.GetStudent(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	avatar, closeFn, ok := response.FormImage(c, "avatar")
	if !ok {
		return
	}
	defer closeFn()

	res, err := h.service.UpdateStudent(c.Request.Context(), id, req, avatar)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	id, ok := studentID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteStudent(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "student deleted successfully"})
}

func (h *StudentHandler) ExportStudents(c *gin.Context) {
	data, err := h.service.ExportStudents(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="students.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func studentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return uuid.Nil, false
	}
	return id, true
}

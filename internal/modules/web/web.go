package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strings"

	studentDto "anoa.com/studentmanager/internal/modules/student/dto"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates for gin's HTML renderer.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

type EnrollmentLister interface {
	ListEnrollments(ctx context.Context) ([]studentDto.EnrollmentRow, error)
}

type Handler struct {
	students EnrollmentLister
}

func NewHandler(students EnrollmentLister) *Handler {
	return &Handler{students: students}
}

// Index lists every student with their class name.
func (h *Handler) Index(c *gin.Context) {
	rows, err := h.students.ListEnrollments(c.Request.Context())
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"ErrorCode":    "500",
			"ErrorTitle":   "Something went wrong",
			"ErrorMessage": "The student list could not be loaded.",
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":    "Students",
		"Students": rows,
	})
}

// NotFound answers unmatched routes; API paths get JSON.
func (h *Handler) NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.HTML(http.StatusNotFound, "error.html", gin.H{
		"ErrorCode":    "404",
		"ErrorTitle":   "Page Not Found",
		"ErrorMessage": "The page you are looking for does not exist.",
	})
}

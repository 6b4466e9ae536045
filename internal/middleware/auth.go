package middleware

import (
	"net/http"
	"strings"

	studentRepo "anoa.com/studentmanager/internal/modules/student/repository"
	"anoa.com/studentmanager/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	studentRepo studentRepo.StudentRepository
	tokens      *token.Manager
}

func NewAuthMiddleware(studentRepo studentRepo.StudentRepository, tokens *token.Manager) *AuthMiddleware {
	return &AuthMiddleware{
		studentRepo: studentRepo,
		tokens:      tokens,
	}
}

// RequireStudent accepts a Bearer access token whose subject is an existing
// student, and stores the id under "user_id" and the record under "student".
func (m *AuthMiddleware) RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		claims, err := m.tokens.Parse(tokenString, token.TypeAccess)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		studentID, err := uuid.Parse(claims.ID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		student, err := m.studentRepo.FindByID(c.Request.Context(), studentID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			c.Abort()
			return
		}

		c.Set("user_id", student.ID.String())
		c.Set("student", student)
		c.Next()
	}
}

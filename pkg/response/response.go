package response

import (
	"errors"
	"log/slog"
	"net/http"

	"anoa.com/studentmanager/pkg/apperror"
	"anoa.com/studentmanager/pkg/dto"
	"anoa.com/studentmanager/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetUserID retrieves the authenticated student ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	var verr *apperror.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
		return
	}

	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		slog.Error("internal error", "path", c.Request.URL.Path, "error", err)
		c.JSON(code, gin.H{"error": apperror.ErrInternal.Error()})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// BindError reports a request binding failure. Field validation failures are
// keyed by field; malformed payloads get a plain 400.
func BindError(c *gin.Context, err error) {
	converted := validator.ToValidationError(err)
	var verr *apperror.ValidationError
	if errors.As(converted, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// FormImage opens an optional uploaded file. ok is false when an error
// response has already been written.
func FormImage(c *gin.Context, field string) (image *dto.ImageFile, closeFn func(), ok bool) {
	closeFn = func() {}

	fileHeader, err := c.FormFile(field)
	if err != nil || fileHeader == nil {
		return nil, closeFn, true
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + field})
		return nil, closeFn, false
	}

	return &dto.ImageFile{Reader: file, FileName: fileHeader.Filename}, func() { file.Close() }, true
}

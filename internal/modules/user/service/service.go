package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"anoa.com/studentmanager/internal/entity"
	studentDto "anoa.com/studentmanager/internal/modules/student/dto"
	"anoa.com/studentmanager/internal/modules/student/repository"
	"anoa.com/studentmanager/internal/modules/user/dto"
	"anoa.com/studentmanager/pkg/apperror"
	"anoa.com/studentmanager/pkg/storage"
	"anoa.com/studentmanager/pkg/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*token.Pair, error)
	Refresh(ctx context.Context, input dto.RefreshInput) (*dto.AccessResponse, error)
	GetDetails(ctx context.Context, studentID uuid.UUID) (*dto.DetailsResponse, error)
}

type authService struct {
	repo     repository.StudentRepository
	tokens   *token.Manager
	throttle *LoginThrottle
	assets   *storage.AssetManager
	logger   *slog.Logger
}

func NewAuthService(
	repo repository.StudentRepository,
	tokens *token.Manager,
	throttle *LoginThrottle,
	assets *storage.AssetManager,
	logger *slog.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		tokens:   tokens,
		throttle: throttle,
		assets:   assets,
		logger:   logger,
	}
}

// Login checks the student's credentials. An unknown username is reported as
// unauthorized, a wrong password for a known username as a bad request.
func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*token.Pair, error) {
	locked, retryAfter, err := s.throttle.Locked(ctx, input.Username)
	if err != nil {
		s.logger.Warn("login throttle unavailable", "error", err)
	}
	if locked {
		return nil, apperror.New(http.StatusTooManyRequests,
			fmt.Sprintf("too many failed login attempts, try again in %s", retryAfter.Round(time.Second)),
			apperror.ErrRateLimitExceeded)
	}

	student, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailure(ctx, input.Username)
			return nil, apperror.New(http.StatusUnauthorized, apperror.ErrInvalidCredentials.Error(), apperror.ErrInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(input.Password)); err != nil {
		s.recordFailure(ctx, input.Username)
		return nil, apperror.New(http.StatusBadRequest, apperror.ErrInvalidCredentials.Error(), apperror.ErrInvalidCredentials)
	}

	if err := s.throttle.Clear(ctx, input.Username); err != nil {
		s.logger.Warn("failed to clear login attempts", "username", input.Username, "error", err)
	}

	return s.tokens.IssuePair(student.ID.String(), student.Username)
}

func (s *authService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.AccessResponse, error) {
	access, err := s.tokens.Refresh(input.Refresh)
	if err != nil {
		return nil, apperror.New(http.StatusUnauthorized, err.Error(), apperror.ErrUnauthorized)
	}
	return &dto.AccessResponse{Access: access}, nil
}

func (s *authService) GetDetails(ctx context.Context, studentID uuid.UUID) (*dto.DetailsResponse, error) {
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "student not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	return &dto.DetailsResponse{
		Message: "User details",
		Data:    studentDto.NewStudentResponse(student, s.avatarURL(student)),
	}, nil
}

func (s *authService) avatarURL(student *entity.Student) string {
	if s.assets == nil {
		return student.Avatar
	}
	return s.assets.URL(student.Avatar)
}

func (s *authService) recordFailure(ctx context.Context, username string) {
	if err := s.throttle.Fail(ctx, username); err != nil {
		s.logger.Warn("failed to record login attempt", "username", username, "error", err)
	}
}

package users

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/employeevirtual/backend/internal/storage/database"
	"github.com/employeevirtual/backend/internal/storage/models"
	"github.com/employeevirtual/backend/pkg/apperr"
	"github.com/employeevirtual/backend/pkg/logger"
	"github.com/employeevirtual/backend/pkg/utils"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service struct {
	store *database.Client
}

func NewService(store *database.Client) *Service {
	return &Service{store: store}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateInput struct {
	Name     *string         `json:"name"`
	Password *string         `json:"password"`
	Status   *string         `json:"status"`
	Settings *map[string]any `json:"settings"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if name == "" || len(name) > 120 {
		return nil, apperr.Validation("name", "must be between 1 and 120 characters")
	}
	if !emailPattern.MatchString(email) {
		return nil, apperr.Validation("email", "must be a valid email address")
	}
	if len(input.Password) < 8 {
		return nil, apperr.Validation("password", "must be at least 8 characters")
	}

	taken, err := s.store.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Validation("email", "already registered")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       models.UserActive,
		Plan:         models.PlanFree,
		Settings:     map[string]any{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("User registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

// GetVisible resolves a user id on behalf of a caller. Only the caller's
// own record is visible; any other id reads as not-found.
func (s *Service) GetVisible(ctx context.Context, callerID, id string) (*models.User, error) {
	if callerID != id {
		return nil, apperr.ErrNotFound
	}
	return s.store.GetUser(ctx, id)
}

func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 120 {
			return nil, apperr.Validation("name", "must be between 1 and 120 characters")
		}
		user.Name = name
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, apperr.Validation("password", "must be at least 8 characters")
		}
		hash, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if input.Status != nil {
		status := models.UserStatus(*input.Status)
		switch status {
		case models.UserActive, models.UserInactive, models.UserSuspended:
			user.Status = status
		default:
			return nil, apperr.Validation("status", "must be active, inactive, or suspended")
		}
	}
	if input.Settings != nil {
		user.Settings = *input.Settings
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	logger.Info("User deleted", zap.String("user_id", userID))
	return nil
}

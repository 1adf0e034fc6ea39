package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/repositories"
)

// UserService defines the interface for user operations.
type UserService interface {
	GetByID(ctx context.Context, userID int64) (*models.User, error)
}

// userService implements UserService.
type userService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service with dependencies.
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetByID returns the user or an ErrNotFound-wrapped error.
func (s *userService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

var _ UserService = (*userService)(nil)

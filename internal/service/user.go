package service

import (
	"context"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/repository"
)

// UserService handles business logic for users
type UserService struct {
	db    repository.DBTX
	users repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(db repository.DBTX, users repository.UserRepository) *UserService {
	return &UserService{
		db:    db,
		users: users,
	}
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, s.db, userID)
}

// ListByTeam returns all users of a team
func (s *UserService) ListByTeam(ctx context.Context, teamID string) ([]*domain.User, error) {
	return s.users.ListByTeam(ctx, s.db, teamID)
}

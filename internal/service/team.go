package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/repository"
)

// CreateTeamInput carries the fields accepted on team creation
type CreateTeamInput struct {
	Name        string
	Description *string
}

// TeamService handles business logic for teams
type TeamService struct {
	db    repository.DBTX
	teams repository.TeamRepository
	users repository.UserRepository
}

// NewTeamService creates a new TeamService
func NewTeamService(db repository.DBTX, teams repository.TeamRepository, users repository.UserRepository) *TeamService {
	return &TeamService{
		db:    db,
		teams: teams,
		users: users,
	}
}

// Create creates a new team
func (s *TeamService) Create(ctx context.Context, input CreateTeamInput) (*domain.Team, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	team := &domain.Team{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.teams.Insert(ctx, s.db, team); err != nil {
		return nil, err
	}

	return team, nil
}

// GetByID retrieves a team by ID
func (s *TeamService) GetByID(ctx context.Context, teamID string) (*domain.Team, error) {
	return s.teams.GetByID(ctx, s.db, teamID)
}

// GetMembers returns all users of a team
func (s *TeamService) GetMembers(ctx context.Context, teamID string) ([]*domain.User, error) {
	exists, err := s.teams.Exists(ctx, s.db, teamID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrTeamNotFound
	}
	return s.users.ListByTeam(ctx, s.db, teamID)
}

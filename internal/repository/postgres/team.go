package postgres

import (
	"context"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/repository"
)

// TeamRepository реализует repository.TeamRepository для PostgreSQL
type TeamRepository struct{}

// NewTeamRepository создает новый экземпляр TeamRepository
func NewTeamRepository() *TeamRepository {
	return &TeamRepository{}
}

// Insert вставляет новую команду
func (r *TeamRepository) Insert(ctx context.Context, db repository.DBTX, team *domain.Team) error {
	query := `
		INSERT INTO teams (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := db.Exec(ctx, query,
		team.ID,
		team.Name,
		team.Description,
		team.CreatedAt,
		team.UpdatedAt,
	)
	return err
}

// GetByID получает команду по ID
func (r *TeamRepository) GetByID(ctx context.Context, db repository.DBTX, id string) (*domain.Team, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM teams
		WHERE id = $1 AND deleted_at IS NULL
	`

	var team domain.Team
	err := db.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if isNotFoundScan(err) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}

	return &team, nil
}

// Exists проверяет существование команды
func (r *TeamRepository) Exists(ctx context.Context, db repository.DBTX, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		if isNotFoundScan(err) {
			return false, nil
		}
		return false, err
	}

	return exists, nil
}

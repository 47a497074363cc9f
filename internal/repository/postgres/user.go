package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/repository"
)

// UserRepository реализует repository.UserRepository для PostgreSQL
type UserRepository struct{}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Insert вставляет нового пользователя
func (r *UserRepository) Insert(ctx context.Context, db repository.DBTX, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, roles, team_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		joinList(user.Roles),
		user.TeamID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrUserExists
		}
		return err
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, db repository.DBTX, id string) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, roles, team_id, created_at, updated_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanUser(db.QueryRow(ctx, query, id))
}

// GetByEmail получает пользователя по email
func (r *UserRepository) GetByEmail(ctx context.Context, db repository.DBTX, email string) (*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, roles, team_id, created_at, updated_at
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`

	return r.scanUser(db.QueryRow(ctx, query, email))
}

// ExistsByEmail проверяет занятость email
func (r *UserRepository) ExistsByEmail(ctx context.Context, db repository.DBTX, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// ListByTeam возвращает всех пользователей команды
func (r *UserRepository) ListByTeam(ctx context.Context, db repository.DBTX, teamID string) ([]*domain.User, error) {
	query := `
		SELECT id, username, email, password_hash, roles, team_id, created_at, updated_at
		FROM users
		WHERE team_id = $1 AND deleted_at IS NULL
		ORDER BY id
	`

	rows, err := db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		var roles *string
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&roles,
			&user.TeamID,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		user.Roles = splitList(roles)
		users = append(users, &user)
	}

	return users, rows.Err()
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var roles *string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&roles,
		&user.TeamID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if isNotFoundScan(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	user.Roles = splitList(roles)
	return &user, nil
}

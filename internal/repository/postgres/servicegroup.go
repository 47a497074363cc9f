package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/repository"
)

// Коды ошибок PostgreSQL
const (
	pgUniqueViolation     = "23505" // unique_violation
	pgForeignKeyViolation = "23503" // foreign_key_violation
	pgInvalidTextRep      = "22P02" // invalid_text_representation (не-uuid в uuid параметре)
)

// ServiceGroupRepository реализует repository.ServiceGroupRepository для PostgreSQL.
// Исполнитель запросов (pool или транзакция) передается в каждый метод явно.
type ServiceGroupRepository struct{}

// NewServiceGroupRepository создает новый экземпляр ServiceGroupRepository
func NewServiceGroupRepository() *ServiceGroupRepository {
	return &ServiceGroupRepository{}
}

// Insert вставляет новую группу сервисов
func (r *ServiceGroupRepository) Insert(ctx context.Context, db repository.DBTX, group *domain.ServiceGroup) error {
	query := `
		INSERT INTO service_groups (id, name, description, owner_user_id, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := db.Exec(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.OwnerUserID,
		joinList(group.Tags),
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return domain.ErrUserNotFound
		}
		return err
	}

	return nil
}

// InsertVersion вставляет новую запись версии.
// Частичный уникальный индекс (service_group_id, is_active) WHERE is_active = true
// является последней линией защиты от гонки двух конкурентных обновлений:
// проигравшая транзакция получает ErrConflict и никогда не повторяется молча.
func (r *ServiceGroupRepository) InsertVersion(ctx context.Context, db repository.DBTX, version *domain.Version) error {
	changelog, err := json.Marshal(version.Changelog)
	if err != nil {
		return fmt.Errorf("failed to encode changelog: %w", err)
	}

	query := `
		INSERT INTO versions (id, service_group_id, version, is_active, changelog, release_date, documentation_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	_, err = db.Exec(ctx, query,
		version.ID,
		version.ServiceGroupID,
		version.VersionNumber,
		version.IsActive,
		changelog,
		version.ReleaseDate,
		version.DocumentationURL,
		version.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrConflict
		}
		return err
	}

	return nil
}

// UpdateScalars сохраняет скалярные поля группы.
// owner_user_id намеренно не входит в запрос: владелец назначается при создании
// и никогда не переназначается.
func (r *ServiceGroupRepository) UpdateScalars(ctx context.Context, db repository.DBTX, group *domain.ServiceGroup) error {
	query := `
		UPDATE service_groups
		SET name = $1, description = $2, tags = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`

	result, err := db.Exec(ctx, query,
		group.Name,
		group.Description,
		joinList(group.Tags),
		group.UpdatedAt,
		group.ID,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// DeactivateVersion снимает флаг is_active с указанной версии
func (r *ServiceGroupRepository) DeactivateVersion(ctx context.Context, db repository.DBTX, versionID string) error {
	query := `
		UPDATE versions
		SET is_active = false, updated_at = NOW()
		WHERE id = $1
	`

	result, err := db.Exec(ctx, query, versionID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// GetByID получает группу вместе со всеми версиями.
// Мягко удаленные группы считаются несуществующими.
func (r *ServiceGroupRepository) GetByID(ctx context.Context, db repository.DBTX, id string) (*domain.ServiceGroup, error) {
	query := `
		SELECT id, name, description, owner_user_id, tags, created_at, updated_at
		FROM service_groups
		WHERE id = $1 AND deleted_at IS NULL
	`

	var group domain.ServiceGroup
	var tags *string
	err := db.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.OwnerUserID,
		&tags,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		if isNotFoundScan(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	group.Tags = splitList(tags)
	group.State = domain.StateActive

	versions, err := r.getVersions(ctx, db, id)
	if err != nil {
		return nil, err
	}
	group.Versions = versions

	return &group, nil
}

// getVersions загружает все неудаленные версии группы по возрастанию номера
func (r *ServiceGroupRepository) getVersions(ctx context.Context, db repository.DBTX, groupID string) ([]*domain.Version, error) {
	query := `
		SELECT id, service_group_id, version, is_active, changelog, release_date, documentation_url, created_at
		FROM versions
		WHERE service_group_id = $1 AND deleted_at IS NULL
		ORDER BY version
	`

	rows, err := db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*domain.Version
	for rows.Next() {
		var v domain.Version
		var changelog []byte
		if err := rows.Scan(
			&v.ID,
			&v.ServiceGroupID,
			&v.VersionNumber,
			&v.IsActive,
			&changelog,
			&v.ReleaseDate,
			&v.DocumentationURL,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(changelog, &v.Changelog); err != nil {
			return nil, fmt.Errorf("failed to decode changelog of version %s: %w", v.ID, err)
		}
		versions = append(versions, &v)
	}

	return versions, rows.Err()
}

// SoftDelete помечает группу удаленной; записи версий остаются нетронутыми
func (r *ServiceGroupRepository) SoftDelete(ctx context.Context, db repository.DBTX, id string) error {
	query := `
		UPDATE service_groups
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := db.Exec(ctx, query, id)
	if err != nil {
		if isNotFoundScan(err) {
			return domain.ErrNotFound
		}
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// List возвращает страницу групп и общее число совпадений до пагинации
func (r *ServiceGroupRepository) List(ctx context.Context, db repository.DBTX, filter domain.ServiceGroupFilter, ownerIDs []string) ([]*domain.ServiceGroupSummary, int, error) {
	pageSQL, countSQL, pageArgs, countArgs := buildListQuery(filter, ownerIDs)

	var total int
	if err := db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var groups []*domain.ServiceGroupSummary
	for rows.Next() {
		var g domain.ServiceGroupSummary
		var tags *string
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerUserID, &tags, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, 0, err
		}
		g.Tags = splitList(tags)
		g.VersionIDs = []string{}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.fillVersionIDs(ctx, db, groups); err != nil {
		return nil, 0, err
	}

	// Return empty array instead of nil if no groups found
	if groups == nil {
		groups = []*domain.ServiceGroupSummary{}
	}

	return groups, total, nil
}

// fillVersionIDs подгружает идентификаторы версий для страницы групп одним запросом
func (r *ServiceGroupRepository) fillVersionIDs(ctx context.Context, db repository.DBTX, groups []*domain.ServiceGroupSummary) error {
	if len(groups) == 0 {
		return nil
	}

	byID := make(map[string]*domain.ServiceGroupSummary, len(groups))
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
		ids = append(ids, g.ID)
	}

	query := `
		SELECT id, service_group_id
		FROM versions
		WHERE service_group_id = ANY($1::uuid[]) AND deleted_at IS NULL
		ORDER BY service_group_id, version
	`

	rows, err := db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var versionID, groupID string
		if err := rows.Scan(&versionID, &groupID); err != nil {
			return err
		}
		if g, ok := byID[groupID]; ok {
			g.VersionIDs = append(g.VersionIDs, versionID)
		}
	}

	return rows.Err()
}

// isNotFoundScan распознает отсутствие строки, включая запрос с не-uuid идентификатором
func isNotFoundScan(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRep
}

// joinList сериализует список строк в текстовую колонку через запятую.
// Пустой список хранится как NULL.
func joinList(items []string) *string {
	if len(items) == 0 {
		return nil
	}
	joined := strings.Join(items, ",")
	return &joined
}

// splitList разбирает текстовую колонку обратно в список строк
func splitList(value *string) []string {
	if value == nil || *value == "" {
		return []string{}
	}
	return strings.Split(*value, ",")
}

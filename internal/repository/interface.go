package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aidar/service-catalog/internal/domain"
)

// DBTX это минимальный интерфейс исполнителя запросов.
// Ему удовлетворяют и pgxpool.Pool, и pgx.Tx, поэтому каждый метод репозитория
// получает единицу работы явно параметром — без неявного транзакционного состояния.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager управляет границами транзакций
type TxManager interface {
	// WithinTx выполняет fn в одной транзакции: commit при nil, иначе rollback
	WithinTx(ctx context.Context, fn func(db DBTX) error) error
}

// ServiceGroupRepository определяет методы для работы с группами сервисов и их версиями
type ServiceGroupRepository interface {
	// Insert вставляет новую группу сервисов
	Insert(ctx context.Context, db DBTX, group *domain.ServiceGroup) error

	// InsertVersion вставляет новую запись версии.
	// Нарушение частичного уникального индекса активной версии возвращается как ErrConflict.
	InsertVersion(ctx context.Context, db DBTX, version *domain.Version) error

	// UpdateScalars сохраняет скалярные поля группы (name, description, tags, updated_at)
	UpdateScalars(ctx context.Context, db DBTX, group *domain.ServiceGroup) error

	// DeactivateVersion снимает флаг is_active с указанной версии
	DeactivateVersion(ctx context.Context, db DBTX, versionID string) error

	// GetByID получает группу вместе со всеми версиями; удаленные группы не находятся
	GetByID(ctx context.Context, db DBTX, id string) (*domain.ServiceGroup, error)

	// SoftDelete помечает группу удаленной; история версий не затрагивается
	SoftDelete(ctx context.Context, db DBTX, id string) error

	// List возвращает страницу групп и общее число совпадений до пагинации.
	// Непустой ownerIDs ограничивает выборку группами указанных владельцев.
	List(ctx context.Context, db DBTX, filter domain.ServiceGroupFilter, ownerIDs []string) ([]*domain.ServiceGroupSummary, int, error)
}

// UserRepository определяет методы для работы с данными пользователей
type UserRepository interface {
	// Insert вставляет нового пользователя
	Insert(ctx context.Context, db DBTX, user *domain.User) error

	// GetByID получает пользователя по ID
	GetByID(ctx context.Context, db DBTX, id string) (*domain.User, error)

	// GetByEmail получает пользователя по email
	GetByEmail(ctx context.Context, db DBTX, email string) (*domain.User, error)

	// ExistsByEmail проверяет занятость email
	ExistsByEmail(ctx context.Context, db DBTX, email string) (bool, error)

	// ListByTeam возвращает всех пользователей команды
	ListByTeam(ctx context.Context, db DBTX, teamID string) ([]*domain.User, error)
}

// TeamRepository определяет методы для работы с данными команд
type TeamRepository interface {
	// Insert вставляет новую команду
	Insert(ctx context.Context, db DBTX, team *domain.Team) error

	// GetByID получает команду по ID
	GetByID(ctx context.Context, db DBTX, id string) (*domain.Team, error)

	// Exists проверяет существование команды
	Exists(ctx context.Context, db DBTX, id string) (bool, error)
}

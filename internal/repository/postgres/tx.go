package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/service-catalog/internal/repository"
)

// TxManager реализует repository.TxManager поверх pgxpool
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager создает новый экземпляр TxManager
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx выполняет fn в одной транзакции.
// Ошибка fn приводит к rollback и возвращается вызывающему без изменений.
func (m *TxManager) WithinTx(ctx context.Context, fn func(db repository.DBTX) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/repository"
)

// NewRepositories wires every postgres repository against the shared
// connection pool.
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return newRepositories(db, logger)
}

func newRepositories(db DBTX, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Users:       NewUserRepository(db, logger),
		Products:    NewProductRepository(db, logger),
		Carts:       NewCartRepository(db, logger),
		Orders:      NewOrderRepository(db, logger),
		Wholesale:   NewWholesaleRepository(db, logger),
		Payments:    NewPaymentRepository(db, logger),
		Idempotency: NewIdempotencyRepository(db, logger),
		OrderEvents: NewOrderEventRepository(db, logger),
	}
}

type txManager struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTxManager creates a transaction manager over the connection pool
func NewTxManager(db *sql.DB, logger *zap.Logger) repository.TxManager {
	return &txManager{db: db, logger: logger}
}

// RunInTx executes fn against transaction-scoped repositories. The
// transaction commits when fn returns nil and rolls back otherwise.
func (m *txManager) RunInTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	repos := newRepositories(tx, m.logger)

	if err := fn(ctx, repos); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			m.logger.Warn("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

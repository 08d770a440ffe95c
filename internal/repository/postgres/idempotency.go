package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/pkg/errors"
)

type idempotencyRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewIdempotencyRepository creates a new idempotency key repository
func NewIdempotencyRepository(db DBTX, logger *zap.Logger) *idempotencyRepository {
	return &idempotencyRepository{db: db, logger: logger}
}

func (r *idempotencyRepository) Get(ctx context.Context, key string, userID uuid.UUID) (*domain.IdempotencyKey, error) {
	query := `
		SELECT key, user_id, order_id, request_hash, created_at
		FROM idempotency_keys
		WHERE key = $1 AND user_id = $2
	`

	var ik domain.IdempotencyKey
	err := r.db.QueryRowContext(ctx, query, key, userID).Scan(
		&ik.Key,
		&ik.UserID,
		&ik.OrderID,
		&ik.RequestHash,
		&ik.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "idempotency key", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get idempotency key", zap.Error(err))
		return nil, err
	}

	return &ik, nil
}

func (r *idempotencyRepository) Create(ctx context.Context, idempotencyKey *domain.IdempotencyKey) error {
	query := `
		INSERT INTO idempotency_keys (key, user_id, order_id, request_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if idempotencyKey.CreatedAt.IsZero() {
		idempotencyKey.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		idempotencyKey.Key,
		idempotencyKey.UserID,
		idempotencyKey.OrderID,
		idempotencyKey.RequestHash,
		idempotencyKey.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create idempotency key", zap.Error(err))
		return err
	}

	return nil
}

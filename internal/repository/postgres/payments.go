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

type paymentRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db DBTX, logger *zap.Logger) *paymentRepository {
	return &paymentRepository{db: db, logger: logger}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, amount, status, transaction_id, auth_code,
			card_brand, card_last4, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.Amount,
		payment.Status,
		payment.TransactionID,
		payment.AuthCode,
		payment.CardBrand,
		payment.CardLast4,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create payment", zap.Error(err))
		return err
	}

	return nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, amount, status, transaction_id, auth_code,
		       card_brand, card_last4, created_at, updated_at
		FROM payments
		WHERE order_id = $1
	`

	var (
		payment       domain.Payment
		amount        string
		transactionID sql.NullString
		authCode      sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&payment.ID,
		&payment.OrderID,
		&amount,
		&payment.Status,
		&transactionID,
		&authCode,
		&payment.CardBrand,
		&payment.CardLast4,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "payment", ID: orderID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get payment", zap.Error(err))
		return nil, err
	}

	if payment.Amount, err = parseMoney(amount); err != nil {
		return nil, err
	}
	if transactionID.Valid {
		payment.TransactionID = &transactionID.String
	}
	if authCode.Valid {
		payment.AuthCode = &authCode.String
	}

	return &payment, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	query := `UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update payment status", zap.Error(err))
	}
	return err
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/pkg/errors"
)

type wholesaleRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewWholesaleRepository creates a new wholesale order request repository
func NewWholesaleRepository(db DBTX, logger *zap.Logger) *wholesaleRepository {
	return &wholesaleRepository{db: db, logger: logger}
}

func (r *wholesaleRepository) Create(ctx context.Context, req *domain.WholesaleOrderRequest) error {
	query := `
		INSERT INTO wholesale_order_requests (id, user_id, request_number, status,
			subtotal, tax, shipping, discount, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.UserID,
		req.RequestNumber,
		req.Status,
		req.Subtotal,
		req.Tax,
		req.Shipping,
		req.Discount,
		req.Total,
		req.CreatedAt,
		req.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateReference
		}
		r.logger.Error("Failed to create wholesale request", zap.Error(err))
		return err
	}

	for i := range req.Items {
		item := &req.Items[i]
		item.RequestID = req.ID
		if err := r.createItem(ctx, item); err != nil {
			return err
		}
	}

	return nil
}

func (r *wholesaleRepository) createItem(ctx context.Context, item *domain.WholesaleOrderItem) error {
	query := `
		INSERT INTO wholesale_order_items (id, request_id, product_id, product_name,
			requested_boxes, units_per_carton, wholesale_price,
			effective_price_per_carton, total_units, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.RequestID,
		item.ProductID,
		item.ProductName,
		item.RequestedBoxes,
		item.UnitsPerCarton,
		item.WholesalePrice,
		item.EffectivePricePerCarton,
		item.TotalUnits,
		item.Total,
	)

	if err != nil {
		r.logger.Error("Failed to create wholesale item", zap.Error(err))
		return err
	}
	return nil
}

const wholesaleColumns = `
	id, user_id, request_number, status, subtotal, tax, shipping, discount, total,
	created_at, updated_at
`

func (r *wholesaleRepository) scanRequest(scan func(dest ...interface{}) error) (*domain.WholesaleOrderRequest, error) {
	var (
		req      domain.WholesaleOrderRequest
		subtotal string
		tax      string
		shipping string
		discount string
		total    string
	)

	err := scan(
		&req.ID,
		&req.UserID,
		&req.RequestNumber,
		&req.Status,
		&subtotal,
		&tax,
		&shipping,
		&discount,
		&total,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if req.Subtotal, err = parseMoney(subtotal); err != nil {
		return nil, err
	}
	if req.Tax, err = parseMoney(tax); err != nil {
		return nil, err
	}
	if req.Shipping, err = parseMoney(shipping); err != nil {
		return nil, err
	}
	if req.Discount, err = parseMoney(discount); err != nil {
		return nil, err
	}
	if req.Total, err = parseMoney(total); err != nil {
		return nil, err
	}

	return &req, nil
}

func (r *wholesaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WholesaleOrderRequest, error) {
	query := `SELECT ` + wholesaleColumns + ` FROM wholesale_order_requests WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	req, err := r.scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "wholesale order request", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get wholesale request", zap.Error(err))
		return nil, err
	}

	items, err := r.getItems(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Items = items

	return req, nil
}

func (r *wholesaleRepository) getItems(ctx context.Context, requestID uuid.UUID) ([]domain.WholesaleOrderItem, error) {
	query := `
		SELECT id, request_id, product_id, product_name, requested_boxes,
		       units_per_carton, wholesale_price, effective_price_per_carton,
		       total_units, total
		FROM wholesale_order_items
		WHERE request_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to query wholesale items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.WholesaleOrderItem
	for rows.Next() {
		var (
			item           domain.WholesaleOrderItem
			unitsPerCarton sql.NullInt64
			wholesalePrice sql.NullString
			effectivePrice string
			totalUnits     sql.NullInt64
			total          string
		)
		err := rows.Scan(
			&item.ID,
			&item.RequestID,
			&item.ProductID,
			&item.ProductName,
			&item.RequestedBoxes,
			&unitsPerCarton,
			&wholesalePrice,
			&effectivePrice,
			&totalUnits,
			&total,
		)
		if err != nil {
			return nil, err
		}
		if unitsPerCarton.Valid {
			n := int(unitsPerCarton.Int64)
			item.UnitsPerCarton = &n
		}
		if item.WholesalePrice, err = parseNullMoney(wholesalePrice); err != nil {
			return nil, err
		}
		if item.EffectivePricePerCarton, err = parseMoney(effectivePrice); err != nil {
			return nil, err
		}
		if totalUnits.Valid {
			n := int(totalUnits.Int64)
			item.TotalUnits = &n
		}
		if item.Total, err = parseMoney(total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *wholesaleRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.WholesaleOrderRequest, error) {
	query := `SELECT ` + wholesaleColumns + ` FROM wholesale_order_requests WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *wholesaleRepository) ListByStatus(ctx context.Context, status domain.WholesaleStatus, limit, offset int) ([]*domain.WholesaleOrderRequest, error) {
	query := `SELECT ` + wholesaleColumns + ` FROM wholesale_order_requests WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, status, limit, offset)
}

func (r *wholesaleRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.WholesaleOrderRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list wholesale requests", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.WholesaleOrderRequest
	for rows.Next() {
		req, err := r.scanRequest(rows.Scan)
		if err != nil {
			r.logger.Error("Failed to scan wholesale request", zap.Error(err))
			return nil, err
		}
		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}

func (r *wholesaleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WholesaleStatus) error {
	query := `UPDATE wholesale_order_requests SET status = $2, updated_at = $3 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update wholesale status", zap.Error(err))
	}
	return err
}

func (r *wholesaleRepository) LatestRequestNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT request_number
		FROM wholesale_order_requests
		WHERE request_number LIKE $1
		ORDER BY request_number DESC
		LIMIT 1
	`

	var number string
	err := r.db.QueryRowContext(ctx, query, prefix+"%").Scan(&number)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest request number", zap.Error(err))
		return "", err
	}
	return number, nil
}

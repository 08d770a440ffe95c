package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/pkg/errors"
)

type orderRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db DBTX, logger *zap.Logger) *orderRepository {
	return &orderRepository{db: db, logger: logger}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, order_number, subtotal, tax, shipping, total,
			status, payment_status, shipping_address, billing_address, transaction_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	shippingAddr, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return err
	}
	billingAddr, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.OrderNumber,
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Total,
		order.Status,
		order.PaymentStatus,
		shippingAddr,
		billingAddr,
		order.TransactionID,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateReference
		}
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := r.createItem(ctx, item); err != nil {
			return err
		}
	}

	return nil
}

func (r *orderRepository) createItem(ctx context.Context, item *domain.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, product_images,
			quantity, price, discounted_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.OrderID,
		item.ProductID,
		item.ProductName,
		pq.Array(item.ProductImages),
		item.Quantity,
		item.Price,
		item.DiscountedPrice,
		item.Total,
	)

	if err != nil {
		r.logger.Error("Failed to create order item", zap.Error(err))
		return err
	}
	return nil
}

const orderColumns = `
	id, user_id, order_number, subtotal, tax, shipping, total,
	status, payment_status, shipping_address, billing_address, transaction_id,
	created_at, updated_at
`

func (r *orderRepository) scanOrder(scan func(dest ...interface{}) error) (*domain.Order, error) {
	var (
		order         domain.Order
		subtotal      string
		tax           string
		shipping      string
		total         string
		shippingAddr  []byte
		billingAddr   []byte
		transactionID sql.NullString
	)

	err := scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&subtotal,
		&tax,
		&shipping,
		&total,
		&order.Status,
		&order.PaymentStatus,
		&shippingAddr,
		&billingAddr,
		&transactionID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.Subtotal, err = parseMoney(subtotal); err != nil {
		return nil, err
	}
	if order.Tax, err = parseMoney(tax); err != nil {
		return nil, err
	}
	if order.Shipping, err = parseMoney(shipping); err != nil {
		return nil, err
	}
	if order.Total, err = parseMoney(total); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(shippingAddr, &order.ShippingAddress); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(billingAddr, &order.BillingAddress); err != nil {
		return nil, err
	}
	if transactionID.Valid {
		order.TransactionID = &transactionID.String
	}

	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	order, err := r.scanOrder(row.Scan)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	items, err := r.getItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) getItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, product_images,
		       quantity, price, discounted_price, total
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to query order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item            domain.OrderItem
			price           string
			discountedPrice sql.NullString
			total           string
		)
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			pq.Array(&item.ProductImages),
			&item.Quantity,
			&price,
			&discountedPrice,
			&total,
		)
		if err != nil {
			return nil, err
		}
		if item.Price, err = parseMoney(price); err != nil {
			return nil, err
		}
		if item.DiscountedPrice, err = parseNullMoney(discountedPrice); err != nil {
			return nil, err
		}
		if item.Total, err = parseMoney(total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, status, limit, offset)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows.Scan)
		if err != nil {
			r.logger.Error("Failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) error {
	if paymentStatus != nil {
		query := `UPDATE orders SET status = $2, payment_status = $3, updated_at = $4 WHERE id = $1`
		_, err := r.db.ExecContext(ctx, query, id, status, *paymentStatus, time.Now())
		if err != nil {
			r.logger.Error("Failed to update order status", zap.Error(err))
		}
		return err
	}

	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
	}
	return err
}

func (r *orderRepository) LatestOrderNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT order_number
		FROM orders
		WHERE order_number LIKE $1
		ORDER BY order_number DESC
		LIMIT 1
	`

	var number string
	err := r.db.QueryRowContext(ctx, query, prefix+"%").Scan(&number)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest order number", zap.Error(err))
		return "", err
	}
	return number, nil
}

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

type cartRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db DBTX, logger *zap.Logger) *cartRepository {
	return &cartRepository{db: db, logger: logger}
}

func (r *cartRepository) GetByUserAndType(ctx context.Context, userID uuid.UUID, cartType domain.CartType) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, cart_type, total, items_count,
		       wholesale_subtotal, wholesale_discount, wholesale_shipping, wholesale_total,
		       created_at, updated_at
		FROM carts
		WHERE user_id = $1 AND cart_type = $2
	`

	var (
		cart              domain.Cart
		total             string
		wholesaleSubtotal string
		wholesaleDiscount string
		wholesaleShipping string
		wholesaleTotal    string
	)

	err := r.db.QueryRowContext(ctx, query, userID, cartType).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.Type,
		&total,
		&cart.ItemsCount,
		&wholesaleSubtotal,
		&wholesaleDiscount,
		&wholesaleShipping,
		&wholesaleTotal,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: userID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get cart", zap.Error(err))
		return nil, err
	}

	if cart.Total, err = parseMoney(total); err != nil {
		return nil, err
	}
	if cart.WholesaleSubtotal, err = parseMoney(wholesaleSubtotal); err != nil {
		return nil, err
	}
	if cart.WholesaleDiscount, err = parseMoney(wholesaleDiscount); err != nil {
		return nil, err
	}
	if cart.WholesaleShipping, err = parseMoney(wholesaleShipping); err != nil {
		return nil, err
	}
	if cart.WholesaleTotal, err = parseMoney(wholesaleTotal); err != nil {
		return nil, err
	}

	items, err := r.getItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return &cart, nil
}

func (r *cartRepository) getItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, price, added_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at
	`

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		r.logger.Error("Failed to query cart items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var (
			item  domain.CartItem
			price string
		)
		err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&price,
			&item.AddedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if item.Price, err = parseMoney(price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *cartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	query := `
		INSERT INTO carts (id, user_id, cart_type, total, items_count,
			wholesale_subtotal, wholesale_discount, wholesale_shipping, wholesale_total,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		cart.ID,
		cart.UserID,
		cart.Type,
		cart.Total,
		cart.ItemsCount,
		cart.WholesaleSubtotal,
		cart.WholesaleDiscount,
		cart.WholesaleShipping,
		cart.WholesaleTotal,
		cart.CreatedAt,
		cart.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create cart", zap.Error(err))
		return err
	}

	return nil
}

func (r *cartRepository) GetItem(ctx context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, price, added_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`

	var (
		item  domain.CartItem
		price string
	)

	err := r.db.QueryRowContext(ctx, query, cartID, productID).Scan(
		&item.ID,
		&item.CartID,
		&item.ProductID,
		&item.Quantity,
		&price,
		&item.AddedAt,
		&item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "cart item", ID: productID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get cart item", zap.Error(err))
		return nil, err
	}

	if item.Price, err = parseMoney(price); err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *cartRepository) CreateItem(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, price, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = now
	}
	item.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.CartID,
		item.ProductID,
		item.Quantity,
		item.Price,
		item.AddedAt,
		item.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create cart item", zap.Error(err))
		return err
	}

	return nil
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *domain.CartItem) error {
	query := `
		UPDATE cart_items
		SET quantity = $2, price = $3, updated_at = $4
		WHERE id = $1
	`

	item.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, item.ID, item.Quantity, item.Price, item.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update cart item", zap.Error(err))
		return err
	}

	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	res, err := r.db.ExecContext(ctx, query, cartID, productID)
	if err != nil {
		r.logger.Error("Failed to delete cart item", zap.Error(err))
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *cartRepository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	if _, err := r.db.ExecContext(ctx, query, cartID); err != nil {
		r.logger.Error("Failed to clear cart items", zap.Error(err))
		return err
	}
	return nil
}

func (r *cartRepository) SaveTotals(ctx context.Context, cart *domain.Cart) error {
	query := `
		UPDATE carts
		SET total = $2, items_count = $3,
		    wholesale_subtotal = $4, wholesale_discount = $5,
		    wholesale_shipping = $6, wholesale_total = $7,
		    updated_at = $8
		WHERE id = $1
	`

	cart.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		cart.ID,
		cart.Total,
		cart.ItemsCount,
		cart.WholesaleSubtotal,
		cart.WholesaleDiscount,
		cart.WholesaleShipping,
		cart.WholesaleTotal,
		cart.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to save cart totals", zap.Error(err))
		return err
	}

	return nil
}

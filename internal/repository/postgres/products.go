package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/pkg/errors"
)

type productRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewProductRepository creates a new product repository. The catalog is
// read-only from this service's perspective.
func NewProductRepository(db DBTX, logger *zap.Logger) *productRepository {
	return &productRepository{db: db, logger: logger}
}

const productColumns = `
	id, title, images, price, discount_price, wholesale_price,
	quantity, units_per_carton, wholesale_order_quantity, in_stock,
	created_at, updated_at
`

func (r *productRepository) scanProduct(scan func(dest ...interface{}) error) (*domain.Product, error) {
	var (
		p                   domain.Product
		price               string
		discountPrice       sql.NullString
		wholesalePrice      sql.NullString
		unitsPerCarton      sql.NullInt64
		wholesaleOrderQty   sql.NullString
	)

	err := scan(
		&p.ID,
		&p.Title,
		pq.Array(&p.Images),
		&price,
		&discountPrice,
		&wholesalePrice,
		&p.Quantity,
		&unitsPerCarton,
		&wholesaleOrderQty,
		&p.InStock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Price, err = parseMoney(price); err != nil {
		return nil, err
	}
	if p.DiscountPrice, err = parseNullMoney(discountPrice); err != nil {
		return nil, err
	}
	if p.WholesalePrice, err = parseNullMoney(wholesalePrice); err != nil {
		return nil, err
	}
	if unitsPerCarton.Valid {
		n := int(unitsPerCarton.Int64)
		p.UnitsPerCarton = &n
	}
	if wholesaleOrderQty.Valid {
		p.WholesaleOrderQuantity = &wholesaleOrderQty.String
	}

	return &p, nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)
	p, err := r.scanProduct(row.Scan)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Error(err))
		return nil, err
	}

	return p, nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	products := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		r.logger.Error("Failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := r.scanProduct(rows.Scan)
		if err != nil {
			r.logger.Error("Failed to scan product", zap.Error(err))
			return nil, err
		}
		products[p.ID] = p
	}

	return products, rows.Err()
}

func (r *productRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := r.scanProduct(rows.Scan)
		if err != nil {
			r.logger.Error("Failed to scan product", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

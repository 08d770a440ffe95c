package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/greenmart/groceryapi/internal/domain"
)

// ErrDuplicateReference is returned when persisting an order or
// wholesale request whose reference number already exists. Callers
// regenerate the number and retry.
var ErrDuplicateReference = errors.New("duplicate reference number")

// Repositories bundles every repository handle. Services receive it by
// constructor injection; inside a transaction they receive a
// transaction-scoped copy from the TxManager.
type Repositories struct {
	Users       UserRepository
	Products    ProductRepository
	Carts       CartRepository
	Orders      OrderRepository
	Wholesale   WholesaleRepository
	Payments    PaymentRepository
	Idempotency IdempotencyRepository
	OrderEvents OrderEventRepository
}

// TxManager runs a function against transaction-scoped repositories.
// The transaction commits when fn returns nil and rolls back otherwise.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// ProductRepository is read-only: the catalog is maintained elsewhere.
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
}

type CartRepository interface {
	// GetByUserAndType loads the cart with its items, or ErrNotFound.
	GetByUserAndType(ctx context.Context, userID uuid.UUID, cartType domain.CartType) (*domain.Cart, error)
	Create(ctx context.Context, cart *domain.Cart) error
	GetItem(ctx context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error)
	CreateItem(ctx context.Context, item *domain.CartItem) error
	UpdateItem(ctx context.Context, item *domain.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	// SaveTotals persists the cached aggregate fields only.
	SaveTotals(ctx context.Context, cart *domain.Cart) error
}

type OrderRepository interface {
	// Create persists the order and its items. Returns
	// ErrDuplicateReference when the order number is already taken.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) error
	// LatestOrderNumber returns the lexicographically greatest order
	// number with the given prefix, or "" when none exists.
	LatestOrderNumber(ctx context.Context, prefix string) (string, error)
}

type WholesaleRepository interface {
	Create(ctx context.Context, req *domain.WholesaleOrderRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WholesaleOrderRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.WholesaleOrderRequest, error)
	ListByStatus(ctx context.Context, status domain.WholesaleStatus, limit, offset int) ([]*domain.WholesaleOrderRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.WholesaleStatus) error
	LatestRequestNumber(ctx context.Context, prefix string) (string, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error
}

// IdempotencyRepository stores the key a client sent with a successful
// order creation. Keys are scoped per user.
type IdempotencyRepository interface {
	// Get returns the stored key, or ErrNotFound on first use.
	Get(ctx context.Context, key string, userID uuid.UUID) (*domain.IdempotencyKey, error)
	Create(ctx context.Context, idempotencyKey *domain.IdempotencyKey) error
}

// OrderEventRepository is the append-only audit trail for orders.
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/groceryapi/internal/pricing"
)

// User represents an account holder. Auth internals (token issuance,
// permission storage) live outside this service; handlers only consume
// the user ID and the admin flag.
type User struct {
	ID         uuid.UUID
	Name       string
	Email      string
	APIKeyHash string
	IsAdmin    bool
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Address is a structured address snapshot stored on orders.
type Address struct {
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Product is the catalog entity. The totals engines read it but never
// write it. Stock quantity and the legacy wholesale order quantity are
// string-encoded in the catalog feed and must be parsed defensively.
type Product struct {
	ID                     uuid.UUID
	Title                  string
	Images                 []string
	Price                  decimal.Decimal
	DiscountPrice          *decimal.Decimal
	WholesalePrice         *decimal.Decimal
	Quantity               string
	UnitsPerCarton         *int
	WholesaleOrderQuantity *string
	InStock                bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// RegularSalePrice resolves the unit price for a retail sale:
// discount price first, regular price as fallback, zero when neither
// is usable.
func (p *Product) RegularSalePrice() decimal.Decimal {
	price := p.Price
	return pricing.ResolveRegular(p.DiscountPrice, &price)
}

// WholesaleSalePrice resolves the unit price for wholesale valuation:
// wholesale price, then discount price, then regular price.
func (p *Product) WholesaleSalePrice() decimal.Decimal {
	price := p.Price
	return pricing.ResolveWholesale(p.WholesalePrice, p.DiscountPrice, &price)
}

// StockUnits parses the string-encoded stock quantity. The boolean is
// false when the value is missing or unparsable.
func (p *Product) StockUnits() (int, bool) {
	n, err := strconv.Atoi(p.Quantity)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CartonUnits resolves units-per-carton, falling back to the legacy
// string-encoded wholesale order quantity. Nil when neither is usable.
func (p *Product) CartonUnits() *int {
	if p.UnitsPerCarton != nil && *p.UnitsPerCarton > 0 {
		n := *p.UnitsPerCarton
		return &n
	}
	if p.WholesaleOrderQuantity != nil {
		if n, err := strconv.Atoi(*p.WholesaleOrderQuantity); err == nil && n > 0 {
			return &n
		}
	}
	return nil
}

// Order is an immutable post-checkout snapshot. Later product or price
// changes never affect an existing order.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	OrderNumber     string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	ShippingAddress Address
	BillingAddress  Address
	TransactionID   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a point-in-time copy of a cart line. DiscountedPrice is
// set only when the product carried a positive discount price at order
// creation.
type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductID       uuid.UUID
	ProductName     string
	ProductImages   []string
	Quantity        int
	Price           decimal.Decimal
	DiscountedPrice *decimal.Decimal
	Total           decimal.Decimal
}

// UnitPrice returns the price the line was actually charged at.
func (i *OrderItem) UnitPrice() decimal.Decimal {
	if i.DiscountedPrice != nil {
		return *i.DiscountedPrice
	}
	return i.Price
}

// Payment is the one-to-one payment record for an order. Only masked
// card details are ever stored.
type Payment struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Amount        decimal.Decimal
	Status        PaymentStatus
	TransactionID *string
	AuthCode      *string
	CardBrand     string
	CardLast4     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IdempotencyKey maps a client-supplied key to the order it produced.
// The request hash detects key reuse across different payloads.
type IdempotencyKey struct {
	Key         string
	UserID      uuid.UUID
	OrderID     uuid.UUID
	RequestHash string
	CreatedAt   time.Time
}

// OrderEvent is one entry in an order's audit trail, recorded in the
// same transaction as the change it describes.
type OrderEvent struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}

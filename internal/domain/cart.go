package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/groceryapi/internal/pricing"
)

// Cart holds a user's in-progress selection. The total fields are a
// denormalized cache of the items and must be recomputed after every
// item mutation; they are never a source of truth.
type Cart struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Type       CartType
	Items      []CartItem
	Total      decimal.Decimal
	ItemsCount int

	// Wholesale preview aggregates, live-joined against current product
	// pricing rather than the captured item price.
	WholesaleSubtotal decimal.Decimal
	WholesaleDiscount decimal.Decimal
	WholesaleShipping decimal.Decimal
	WholesaleTotal    decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is one line of a cart. Price is the unit regular price
// captured when the item was added or last updated, not a live join.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
	AddedAt   time.Time
	UpdatedAt time.Time
}

// UpdateQuantity overwrites quantity and the captured unit price
// together so the line never mixes an old price with a new quantity.
func (i *CartItem) UpdateQuantity(quantity int, unitPrice decimal.Decimal) {
	i.Quantity = quantity
	i.Price = unitPrice
	i.UpdatedAt = time.Now()
}

// Recalculate recomputes every cached aggregate from the current items
// in one pass. The retail total uses each item's captured price; the
// wholesale summary resolves current wholesale pricing from the supplied
// products (keyed by product ID) and applies the mandatory 2% volume
// discount before freight.
func (c *Cart) Recalculate(products map[uuid.UUID]*Product) {
	total := decimal.Zero
	itemsCount := 0
	wholesaleSubtotal := decimal.Zero

	for _, item := range c.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		total = total.Add(item.Price.Mul(qty))
		itemsCount += item.Quantity

		if p, ok := products[item.ProductID]; ok {
			wholesaleSubtotal = wholesaleSubtotal.Add(p.WholesaleSalePrice().Mul(qty))
		}
	}

	discount := pricing.Round2(wholesaleSubtotal.Mul(pricing.WholesaleDiscountRate))
	discounted := wholesaleSubtotal.Sub(discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}
	shipping := pricing.Freight(discounted)

	c.Total = total
	c.ItemsCount = itemsCount
	c.WholesaleSubtotal = wholesaleSubtotal
	c.WholesaleDiscount = discount
	c.WholesaleShipping = shipping
	c.WholesaleTotal = discounted.Add(shipping)
}

// ResetTotals zeroes every cached aggregate. Used when the cart is
// cleared after checkout; the cart row itself survives.
func (c *Cart) ResetTotals() {
	c.Items = nil
	c.Total = decimal.Zero
	c.ItemsCount = 0
	c.WholesaleSubtotal = decimal.Zero
	c.WholesaleDiscount = decimal.Zero
	c.WholesaleShipping = decimal.Zero
	c.WholesaleTotal = decimal.Zero
}

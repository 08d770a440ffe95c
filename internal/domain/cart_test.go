package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenmart/groceryapi/internal/pricing"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func testProduct(price string) *Product {
	return &Product{
		ID:      uuid.New(),
		Title:   "Basmati Rice 5kg",
		Price:   dec(price),
		InStock: true,
	}
}

func TestCartRecalculateRetailTotal(t *testing.T) {
	p1 := testProduct("10")
	p2 := testProduct("25.50")

	cart := &Cart{
		Items: []CartItem{
			{ProductID: p1.ID, Quantity: 3, Price: dec("10")},
			{ProductID: p2.ID, Quantity: 2, Price: dec("25.50")},
		},
	}

	cart.Recalculate(map[uuid.UUID]*Product{p1.ID: p1, p2.ID: p2})

	assert.Equal(t, "81.00", cart.Total.StringFixed(2))
	assert.Equal(t, 5, cart.ItemsCount)
}

// The retail total uses the captured item price even when the catalog
// price has since changed.
func TestCartRecalculateUsesCapturedPrice(t *testing.T) {
	p := testProduct("99")

	cart := &Cart{
		Items: []CartItem{
			{ProductID: p.ID, Quantity: 2, Price: dec("10")},
		},
	}

	cart.Recalculate(map[uuid.UUID]*Product{p.ID: p})

	assert.Equal(t, "20.00", cart.Total.StringFixed(2))
}

func TestCartRecalculateWholesaleSummary(t *testing.T) {
	p := testProduct("100")
	p.WholesalePrice = decPtr("60")

	cart := &Cart{
		Items: []CartItem{
			{ProductID: p.ID, Quantity: 25, Price: dec("100")},
		},
	}

	cart.Recalculate(map[uuid.UUID]*Product{p.ID: p})

	// 25 cartons at the wholesale price of 60.
	assert.Equal(t, "1500.00", cart.WholesaleSubtotal.StringFixed(2))
	// Mandatory 2%: 1500 * 0.02 = 30.
	assert.Equal(t, "30.00", cart.WholesaleDiscount.StringFixed(2))
	// Freight on the discounted amount 1470: the 1200 tier.
	assert.Equal(t, "150.00", cart.WholesaleShipping.StringFixed(2))
	assert.Equal(t, "1620.00", cart.WholesaleTotal.StringFixed(2))
}

// The discount is always Round2(subtotal * rate) and the total is always
// discounted subtotal plus freight.
func TestCartRecalculateIdentities(t *testing.T) {
	p := testProduct("33.33")
	p.WholesalePrice = decPtr("19.99")

	cart := &Cart{
		Items: []CartItem{
			{ProductID: p.ID, Quantity: 7, Price: dec("33.33")},
		},
	}

	cart.Recalculate(map[uuid.UUID]*Product{p.ID: p})

	wantDiscount := pricing.Round2(cart.WholesaleSubtotal.Mul(pricing.WholesaleDiscountRate))
	require.True(t, wantDiscount.Equal(cart.WholesaleDiscount))

	discounted := cart.WholesaleSubtotal.Sub(cart.WholesaleDiscount)
	wantTotal := discounted.Add(pricing.Freight(discounted))
	assert.True(t, wantTotal.Equal(cart.WholesaleTotal))
}

// Wholesale valuation falls through to discount then regular pricing
// when no wholesale price exists.
func TestCartRecalculateWholesaleFallback(t *testing.T) {
	p := testProduct("100")
	p.DiscountPrice = decPtr("80")

	cart := &Cart{
		Items: []CartItem{
			{ProductID: p.ID, Quantity: 2, Price: dec("80")},
		},
	}

	cart.Recalculate(map[uuid.UUID]*Product{p.ID: p})

	assert.Equal(t, "160.00", cart.WholesaleSubtotal.StringFixed(2))
}

func TestCartRecalculateEmpty(t *testing.T) {
	cart := &Cart{}
	cart.Recalculate(nil)

	assert.True(t, cart.Total.IsZero())
	assert.Equal(t, 0, cart.ItemsCount)
	assert.True(t, cart.WholesaleSubtotal.IsZero())
	assert.True(t, cart.WholesaleShipping.IsZero())
	assert.True(t, cart.WholesaleTotal.IsZero())
}

func TestCartResetTotals(t *testing.T) {
	p := testProduct("10")
	cart := &Cart{
		Items: []CartItem{{ProductID: p.ID, Quantity: 1, Price: dec("10")}},
	}
	cart.Recalculate(map[uuid.UUID]*Product{p.ID: p})
	require.False(t, cart.Total.IsZero())

	cart.ResetTotals()

	assert.Nil(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
	assert.Equal(t, 0, cart.ItemsCount)
	assert.True(t, cart.WholesaleTotal.IsZero())
}

func TestCartItemUpdateQuantity(t *testing.T) {
	item := &CartItem{Quantity: 1, Price: dec("10")}
	item.UpdateQuantity(4, dec("9.50"))

	assert.Equal(t, 4, item.Quantity)
	assert.Equal(t, "9.50", item.Price.StringFixed(2))
}

package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// The freight tiers and the wholesale discount rate are pricing policy.
// The tier table must not be "simplified": first match wins, thresholds
// are inclusive.
var (
	freightTiers = []struct {
		threshold decimal.Decimal
		fee       decimal.Decimal
	}{
		{decimal.NewFromInt(3500), decimal.Zero},
		{decimal.NewFromInt(3000), decimal.NewFromInt(75)},
		{decimal.NewFromInt(2500), decimal.NewFromInt(95)},
		{decimal.NewFromInt(1500), decimal.NewFromInt(125)},
		{decimal.NewFromInt(1200), decimal.NewFromInt(150)},
		{decimal.NewFromInt(1), decimal.NewFromInt(199)},
	}

	// WholesaleDiscountRate is the mandatory discount applied to the cart
	// wholesale subtotal.
	WholesaleDiscountRate = decimal.NewFromFloat(0.02)

	// FreeShippingThreshold and FlatShippingFee apply to committed orders
	// and wholesale requests: orders above the threshold ship free.
	FreeShippingThreshold = decimal.NewFromInt(500)
	FlatShippingFee       = decimal.NewFromInt(50)
)

// ParseAmount normalizes a monetary value that the persistence layer may
// hand back as text. The boolean is false when the value is absent or not
// a valid decimal; callers treat that as "no price", never as zero.
func ParseAmount(v string) (decimal.Decimal, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ResolveRegular returns the unit price to charge for a retail sale:
// the discount price when present and positive, else the regular price,
// else zero. Nil or non-positive candidates fall through the chain.
func ResolveRegular(discountPrice, price *decimal.Decimal) decimal.Decimal {
	return firstPositive(discountPrice, price)
}

// ResolveWholesale returns the unit price used for wholesale valuation:
// the wholesale price when present and positive, else the discount price,
// else the regular price, else zero.
func ResolveWholesale(wholesalePrice, discountPrice, price *decimal.Decimal) decimal.Decimal {
	return firstPositive(wholesalePrice, discountPrice, price)
}

func firstPositive(candidates ...*decimal.Decimal) decimal.Decimal {
	for _, c := range candidates {
		if c != nil && c.IsPositive() {
			return *c
		}
	}
	return decimal.Zero
}

// Freight maps a subtotal to a shipping fee through the fixed tier table.
// Zero and negative amounts ship for free (there is nothing to ship).
func Freight(amount decimal.Decimal) decimal.Decimal {
	for _, tier := range freightTiers {
		if amount.GreaterThanOrEqual(tier.threshold) {
			return tier.fee
		}
	}
	return decimal.Zero
}

// OrderShipping returns the shipping fee for a committed order or
// wholesale request: free above the threshold, flat fee otherwise.
func OrderShipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

// Round2 rounds a monetary amount to two decimal places, half away
// from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

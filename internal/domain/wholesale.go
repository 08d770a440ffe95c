package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/groceryapi/internal/pricing"
)

// WholesaleOrderRequest is a bulk-purchase request priced by the carton,
// subject to an approval workflow separate from retail orders.
//
// Note: Discount is stored but the persisted subtotal/total do not apply
// the 2% cart-summary discount. That asymmetry matches observed behavior
// and is tracked as an open product question, not reconciled here.
type WholesaleOrderRequest struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	RequestNumber string
	Status        WholesaleStatus
	Items         []WholesaleOrderItem
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Shipping      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// WholesaleOrderItem is one carton-priced line of a wholesale request.
type WholesaleOrderItem struct {
	ID                      uuid.UUID
	RequestID               uuid.UUID
	ProductID               uuid.UUID
	ProductName             string
	RequestedBoxes          int
	UnitsPerCarton          *int
	WholesalePrice          *decimal.Decimal
	EffectivePricePerCarton decimal.Decimal
	TotalUnits              *int
	Total                   decimal.Decimal
}

// CalculateTotals derives the unit count and line total from the
// resolved carton price. TotalUnits stays nil when units-per-carton is
// unknown or zero.
func (i *WholesaleOrderItem) CalculateTotals() {
	if i.UnitsPerCarton != nil && *i.UnitsPerCarton > 0 {
		units := *i.UnitsPerCarton * i.RequestedBoxes
		i.TotalUnits = &units
	} else {
		i.TotalUnits = nil
	}
	boxes := decimal.NewFromInt(int64(i.RequestedBoxes))
	i.Total = pricing.Round2(i.EffectivePricePerCarton.Mul(boxes))
}

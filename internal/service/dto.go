package service

import (
	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/gateway"
)

// AddCartItemRequest adds a product to the cart or overwrites the
// quantity of an existing line.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest overwrites the quantity of an existing line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest creates an order from the user's cart.
type CreateOrderRequest struct {
	CartType        domain.CartType `json:"cart_type"`
	ShippingAddress domain.Address  `json:"shipping_address" binding:"required"`
	BillingAddress  *domain.Address `json:"billing_address,omitempty"`
}

// ProcessPaymentRequest is the pay-then-create checkout: the card is
// charged first and the order exists only if the charge succeeds.
type ProcessPaymentRequest struct {
	CartType        domain.CartType `json:"cart_type"`
	Card            gateway.Card    `json:"card" binding:"required"`
	ShippingAddress domain.Address  `json:"shipping_address" binding:"required"`
	BillingAddress  *domain.Address `json:"billing_address,omitempty"`
}

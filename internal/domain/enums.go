package domain

// CartType distinguishes the persistent cart from the single-item
// buy-now cart. A user holds at most one cart of each type.
type CartType string

const (
	CartTypeRegular CartType = "regular"
	CartTypeBuyNow  CartType = "buy_now"
)

// IsValid checks if the cart type is valid
func (t CartType) IsValid() bool {
	return t == CartTypeRegular || t == CartTypeBuyNow
}

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid. Fulfilment moves
// forward only; cancellation is allowed until the order starts processing.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return newStatus == OrderStatusConfirmed ||
			newStatus == OrderStatusCancelled
	case OrderStatusConfirmed:
		return newStatus == OrderStatusProcessing ||
			newStatus == OrderStatusCancelled
	case OrderStatusProcessing:
		return newStatus == OrderStatusShipped
	case OrderStatusShipped:
		return newStatus == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// PaymentStatus tracks the payment lifecycle independently of the
// fulfilment status.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending,
		PaymentStatusProcessing,
		PaymentStatusCompleted,
		PaymentStatusFailed,
		PaymentStatusRefunded,
		PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// WholesaleStatus represents the approval workflow of a wholesale
// order request. Simpler than the retail order flow.
type WholesaleStatus string

const (
	WholesaleStatusPending   WholesaleStatus = "pending"
	WholesaleStatusApproved  WholesaleStatus = "approved"
	WholesaleStatusRejected  WholesaleStatus = "rejected"
	WholesaleStatusDelivered WholesaleStatus = "delivered"
)

// IsValid checks if the wholesale status is valid
func (s WholesaleStatus) IsValid() bool {
	switch s {
	case WholesaleStatusPending,
		WholesaleStatusApproved,
		WholesaleStatusRejected,
		WholesaleStatusDelivered:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a wholesale status transition is valid
func (s WholesaleStatus) CanTransitionTo(newStatus WholesaleStatus) bool {
	switch s {
	case WholesaleStatusPending:
		return newStatus == WholesaleStatusApproved ||
			newStatus == WholesaleStatusRejected
	case WholesaleStatusApproved:
		return newStatus == WholesaleStatusDelivered
	case WholesaleStatusRejected, WholesaleStatusDelivered:
		return false // Terminal states
	default:
		return false
	}
}

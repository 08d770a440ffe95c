package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/pricing"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/pkg/errors"
)

type orderService struct {
	repos  *repository.Repositories
	tx     repository.TxManager
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) *orderService {
	return &orderService{
		repos:  repos,
		tx:     tx,
		logger: logger,
	}
}

// CreateOrderFromCart converts the user's cart into an immutable,
// numbered order and clears the cart, all in one transaction. The cart
// row survives with zeroed aggregates.
func (s *orderService) CreateOrderFromCart(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*domain.Order, error) {
	cartType := req.CartType
	if cartType == "" {
		cartType = domain.CartTypeRegular
	}
	if !cartType.IsValid() {
		return nil, &errors.ErrValidation{Message: "invalid cart type"}
	}

	cart, err := loadCheckoutCart(ctx, s.repos, userID, cartType)
	if err != nil {
		return nil, err
	}

	products, err := cartProducts(ctx, s.repos, cart)
	if err != nil {
		return nil, err
	}

	items, err := buildOrderItems(cart.Items, products)
	if err != nil {
		return nil, err
	}

	order := newOrderFromItems(userID, items, req.ShippingAddress, req.BillingAddress)

	// The uniqueness constraint on order_number is the arbiter under
	// concurrent checkouts: on conflict, regenerate and retry.
	for attempt := 0; attempt < referenceMaxAttempts; attempt++ {
		order.OrderNumber, err = generateReferenceNumber(ctx, orderNumberPrefix, time.Now(), s.repos.Orders.LatestOrderNumber)
		if err != nil {
			return nil, err
		}

		err = s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
			if err := repos.Orders.Create(ctx, order); err != nil {
				return err
			}
			if err := recordOrderEvent(ctx, repos, order.ID, "order_created", map[string]interface{}{
				"order_number": order.OrderNumber,
				"total":        order.Total.StringFixed(2),
			}); err != nil {
				return err
			}
			return clearCart(ctx, repos, cart)
		})
		if err == repository.ErrDuplicateReference {
			s.logger.Warn("Order number conflict, regenerating",
				zap.String("order_number", order.OrderNumber))
			continue
		}
		if err != nil {
			return nil, err
		}
		return order, nil
	}

	return nil, err
}

// GetOrder returns an order with its items.
func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repos.Orders.GetByID(ctx, orderID)
}

// ListOrders returns a page of the user's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	return s.repos.Orders.ListByUser(ctx, userID, limit, offset)
}

// ListOrdersByStatus returns a page of orders in the given status.
func (s *orderService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	return s.repos.Orders.ListByStatus(ctx, status, limit, offset)
}

// UpdateStatus moves an order forward along the fulfilment chain.
// Cancellation goes through CancelOrder instead.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus domain.OrderStatus) (*domain.Order, error) {
	if !newStatus.IsValid() || newStatus == domain.OrderStatusCancelled {
		return nil, &errors.ErrValidation{Message: "invalid order status"}
	}

	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(newStatus),
		}
	}

	from := order.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := repos.Orders.UpdateStatus(ctx, orderID, newStatus, nil); err != nil {
			return err
		}
		return recordOrderEvent(ctx, repos, orderID, "status_change", map[string]interface{}{
			"from": string(from),
			"to":   string(newStatus),
		})
	})
	if err != nil {
		return nil, err
	}
	order.Status = newStatus

	return order, nil
}

// CancelOrder cancels an order that has not started processing. The
// payment status is set to refunded alongside, matching the legacy
// behavior even for orders that were never paid.
func (s *orderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
		return nil, &errors.ErrInvalidStateTransition{
			From: string(order.Status),
			To:   string(domain.OrderStatusCancelled),
		}
	}

	refunded := domain.PaymentStatusRefunded
	from := order.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := repos.Orders.UpdateStatus(ctx, orderID, domain.OrderStatusCancelled, &refunded); err != nil {
			return err
		}
		return recordOrderEvent(ctx, repos, orderID, "status_change", map[string]interface{}{
			"from":           string(from),
			"to":             string(domain.OrderStatusCancelled),
			"payment_status": string(refunded),
		})
	})
	if err != nil {
		return nil, err
	}
	order.Status = domain.OrderStatusCancelled
	order.PaymentStatus = refunded

	return order, nil
}

// recordOrderEvent appends to the order's audit trail. Called inside
// the same transaction as the change it records.
func recordOrderEvent(ctx context.Context, repos *repository.Repositories, orderID uuid.UUID, eventType string, data map[string]interface{}) error {
	return repos.OrderEvents.Create(ctx, &domain.OrderEvent{
		OrderID:   orderID,
		EventType: eventType,
		EventData: data,
	})
}

// loadCheckoutCart loads a cart fit to check out: it must exist and hold
// at least one item.
func loadCheckoutCart(ctx context.Context, repos *repository.Repositories, userID uuid.UUID, cartType domain.CartType) (*domain.Cart, error) {
	cart, err := repos.Carts.GetByUserAndType(ctx, userID, cartType)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			return nil, &errors.ErrBusinessRule{Message: "cart is empty"}
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, &errors.ErrBusinessRule{Message: "cart is empty"}
	}
	return cart, nil
}

// buildOrderItems snapshots cart lines into immutable order items. The
// unit price is re-resolved from the product at this moment; a product
// without a usable positive price aborts the whole build.
func buildOrderItems(cartItems []domain.CartItem, products map[uuid.UUID]*domain.Product) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(cartItems))
	for _, cartItem := range cartItems {
		product, ok := products[cartItem.ProductID]
		if !ok {
			return nil, &errors.ErrNotFound{Resource: "product", ID: cartItem.ProductID.String()}
		}

		// The stored price is the unit regular price; the discount, when
		// valid, rides alongside and wins in the line total.
		if !product.Price.IsPositive() {
			return nil, &errors.ErrInvalidPrice{Product: product.Title}
		}

		item := domain.OrderItem{
			ProductID:     product.ID,
			ProductName:   product.Title,
			ProductImages: product.Images,
			Quantity:      cartItem.Quantity,
			Price:         product.Price,
		}
		if product.DiscountPrice != nil && product.DiscountPrice.IsPositive() {
			discounted := *product.DiscountPrice
			item.DiscountedPrice = &discounted
		}
		item.Total = item.UnitPrice().Mul(decimal.NewFromInt(int64(cartItem.Quantity)))

		items = append(items, item)
	}
	return items, nil
}

// newOrderFromItems aggregates item totals into a pending order. Tax is
// permanently zero (the feature is disabled); shipping is free above the
// threshold, a flat fee otherwise. Billing defaults to shipping.
func newOrderFromItems(userID uuid.UUID, items []domain.OrderItem, shipping domain.Address, billing *domain.Address) *domain.Order {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total)
	}

	shippingFee := pricing.OrderShipping(subtotal)

	billingAddr := shipping
	if billing != nil {
		billingAddr = *billing
	}

	return &domain.Order{
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             decimal.Zero,
		Shipping:        shippingFee,
		Total:           subtotal.Add(shippingFee),
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		ShippingAddress: shipping,
		BillingAddress:  billingAddr,
	}
}

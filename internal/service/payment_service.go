package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/gateway"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/pkg/errors"
)

type paymentService struct {
	repos   *repository.Repositories
	tx      repository.TxManager
	charger gateway.Charger
	logger  *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(repos *repository.Repositories, tx repository.TxManager, charger gateway.Charger, logger *zap.Logger) *paymentService {
	return &paymentService{
		repos:   repos,
		tx:      tx,
		charger: charger,
		logger:  logger,
	}
}

// ProcessPayment is the pay-then-create checkout path. Totals are built
// exactly like a plain order, the card is charged first, and only a
// successful charge creates the order, its payment record, and clears
// the cart. A gateway failure or timeout leaves the cart untouched for
// retry.
func (s *paymentService) ProcessPayment(ctx context.Context, userID uuid.UUID, req ProcessPaymentRequest) (*domain.Order, error) {
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

	// The invoice number doubles as the gateway idempotency reference:
	// it is generated before the charge and reused if persistence has to
	// retry.
	order.OrderNumber, err = generateReferenceNumber(ctx, orderNumberPrefix, time.Now(), s.repos.Orders.LatestOrderNumber)
	if err != nil {
		return nil, err
	}

	result, err := s.charger.Charge(ctx, gateway.ChargeRequest{
		Amount:          order.Total,
		Card:            req.Card,
		InvoiceNumber:   order.OrderNumber,
		BillingAddress:  order.BillingAddress,
		ShippingAddress: order.ShippingAddress,
	})
	if err != nil {
		s.logger.Error("Payment gateway call failed", zap.Error(err))
		return nil, &errors.ErrGateway{Message: "gateway unavailable"}
	}
	if result.Status != gateway.ChargeStatusCompleted {
		return nil, &errors.ErrGateway{Message: result.FailureMessage}
	}

	order.PaymentStatus = domain.PaymentStatusCompleted
	order.TransactionID = &result.TransactionID

	payment := &domain.Payment{
		Amount:        order.Total,
		Status:        domain.PaymentStatusCompleted,
		TransactionID: &result.TransactionID,
		AuthCode:      &result.AuthCode,
		CardBrand:     req.Card.Brand(),
		CardLast4:     req.Card.Last4(),
	}

	for attempt := 0; attempt < referenceMaxAttempts; attempt++ {
		err = s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
			if err := repos.Orders.Create(ctx, order); err != nil {
				return err
			}
			payment.OrderID = order.ID
			if err := repos.Payments.Create(ctx, payment); err != nil {
				return err
			}
			if err := recordOrderEvent(ctx, repos, order.ID, "order_created", map[string]interface{}{
				"order_number":   order.OrderNumber,
				"total":          order.Total.StringFixed(2),
				"transaction_id": result.TransactionID,
			}); err != nil {
				return err
			}
			return clearCart(ctx, repos, cart)
		})
		if err == repository.ErrDuplicateReference {
			// The card is already charged; only the persistence retries,
			// under a fresh number. The original invoice number stays on
			// the gateway side.
			s.logger.Warn("Order number conflict after successful charge, regenerating",
				zap.String("order_number", order.OrderNumber),
				zap.String("transaction_id", result.TransactionID))
			order.OrderNumber, err = generateReferenceNumber(ctx, orderNumberPrefix, time.Now(), s.repos.Orders.LatestOrderNumber)
			if err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			// Money moved but no order exists. This must be visible for
			// reconciliation, never silently dropped.
			s.logger.Error("Charge succeeded but order persistence failed",
				zap.String("transaction_id", result.TransactionID),
				zap.String("order_number", order.OrderNumber),
				zap.Error(err))
			return nil, err
		}
		return order, nil
	}

	s.logger.Error("Charge succeeded but order persistence exhausted retries",
		zap.String("transaction_id", result.TransactionID))
	return nil, err
}

// RefundPayment reverses a completed payment through the gateway, marks
// it refunded and cancels the order. Matching the legacy workflow, the
// order is cancelled regardless of its fulfilment status.
func (s *paymentService) RefundPayment(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	order, err := s.repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payment, err := s.repos.Payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if payment.Status != domain.PaymentStatusCompleted {
		return nil, &errors.ErrBusinessRule{Message: "payment is not refundable in status " + string(payment.Status)}
	}
	if payment.TransactionID == nil {
		return nil, &errors.ErrBusinessRule{Message: "payment has no gateway transaction"}
	}

	result, err := s.charger.Refund(ctx, *payment.TransactionID, payment.Amount)
	if err != nil {
		s.logger.Error("Refund gateway call failed", zap.Error(err))
		return nil, &errors.ErrGateway{Message: "gateway unavailable"}
	}
	if result.Status != gateway.ChargeStatusCompleted {
		return nil, &errors.ErrGateway{Message: result.FailureMessage}
	}

	refunded := domain.PaymentStatusRefunded
	from := order.Status
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		if err := repos.Payments.UpdateStatus(ctx, payment.ID, refunded); err != nil {
			return err
		}
		if err := repos.Orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled, &refunded); err != nil {
			return err
		}
		return recordOrderEvent(ctx, repos, order.ID, "payment_refunded", map[string]interface{}{
			"from":           string(from),
			"transaction_id": *payment.TransactionID,
			"amount":         payment.Amount.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}

	payment.Status = refunded
	return payment, nil
}

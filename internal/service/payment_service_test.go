package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/gateway"
	"github.com/greenmart/groceryapi/pkg/errors"
)

var testCard = gateway.Card{
	Number:      "4111111111111111",
	ExpiryMonth: "12",
	ExpiryYear:  "2030",
	CVV:         "123",
	HolderName:  "Test Buyer",
}

func paymentRequest() ProcessPaymentRequest {
	return ProcessPaymentRequest{
		Card:            testCard,
		ShippingAddress: testAddress,
	}
}

func TestProcessPaymentSuccess(t *testing.T) {
	f := newFixture()
	p := f.addProduct(&domain.Product{Title: "Honey 500g", Price: dec("100"), InStock: true})
	userID := uuid.New()
	f.seedCart(userID, domain.CartTypeRegular, domain.CartItem{ProductID: p.ID, Quantity: 3, Price: dec("100")})

	svc := NewPaymentService(f.repos, f.tx, f.charger, zap.NewNop())
	order, err := svc.ProcessPayment(context.Background(), userID, paymentRequest())
	require.NoError(t, err)

	// The gateway sees the full order total including shipping.
	require.Len(t, f.charger.chargeCalls, 1)
	assert.Equal(t, "350.00", f.charger.chargeCalls[0].Amount.StringFixed(2))
	assert.Equal(t, order.OrderNumber, f.charger.chargeCalls[0].InvoiceNumber)

	assert.Equal(t, domain.PaymentStatusCompleted, order.PaymentStatus)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, "txn-12345", *order.TransactionID)

	payment, err := f.repos.Payments.GetByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "350.00", payment.Amount.StringFixed(2))
	assert.Equal(t, "visa", payment.CardBrand)
	assert.Equal(t, "1111", payment.CardLast4)

	cart, err := f.repos.Carts.GetByUserAndType(context.Background(), userID, domain.CartTypeRegular)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// The creation is audited with the gateway transaction attached.
	events, err := f.repos.OrderEvents.ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "order_created", events[0].EventType)
	assert.Equal(t, "txn-12345", events[0].EventData["transaction_id"])
}

// A gateway transport failure leaves the cart intact and creates nothing.
func TestProcessPaymentGatewayUnavailable(t *testing.T) {
	f := newFixture()
	p := f.addProduct(&domain.Product{Title: "Honey 500g", Price: dec("100"), InStock: true})
	userID := uuid.New()
	f.seedCart(userID, domain.CartTypeRegular, domain.CartItem{ProductID: p.ID, Quantity: 1, Price: dec("100")})
	f.charger.chargeErr = fmt.Errorf("connection refused")

	svc := NewPaymentService(f.repos, f.tx, f.charger, zap.NewNop())
	_, err := svc.ProcessPayment(context.Background(), userID, paymentRequest())
	assert.IsType(t, &errors.ErrGateway{}, err)

	cart, err := f.repos.Carts.GetByUserAndType(context.Background(), userID, domain.CartTypeRegular)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.payments.payments)
}

func TestProcessPaymentDeclined(t *testing.T) {
	f := newFixture()
	p := f.addProduct(&domain.Product{Title: "Honey 500g", Price: dec("100"), InStock: true})
	userID := uuid.New()
	f.seedCart(userID, domain.CartTypeRegular, domain.CartItem{ProductID: p.ID, Quantity: 1, Price: dec("100")})
	f.charger.chargeResult = &gateway.ChargeResult{
		Status:         gateway.ChargeStatusFailed,
		FailureMessage: "insufficient funds",
	}

	svc := NewPaymentService(f.repos, f.tx, f.charger, zap.NewNop())
	_, err := svc.ProcessPayment(context.Background(), userID, paymentRequest())
	require.IsType(t, &errors.ErrGateway{}, err)
	assert.Contains(t, err.Error(), "insufficient funds")

	cart, err := f.repos.Carts.GetByUserAndType(context.Background(), userID, domain.CartTypeRegular)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Empty(t, f.orders.orders)
}

// A number collision after a successful charge retries persistence only;
// the card is never charged twice.
func TestProcessPaymentRetriesPersistenceNotCharge(t *testing.T) {
	f := newFixture()
	p := f.addProduct(&domain.Product{Title: "Honey 500g", Price: dec("100"), InStock: true})
	userID := uuid.New()
	f.seedCart(userID, domain.CartTypeRegular, domain.CartItem{ProductID: p.ID, Quantity: 1, Price: dec("100")})
	f.orders.duplicateOnce = true

	svc := NewPaymentService(f.repos, f.tx, f.charger, zap.NewNop())
	order, err := svc.ProcessPayment(context.Background(), userID, paymentRequest())
	require.NoError(t, err)

	assert.Len(t, f.charger.chargeCalls, 1)
	assert.Equal(t, 2, f.tx.calls)
	assert.Equal(t, domain.PaymentStatusCompleted, order.PaymentStatus)
}

func TestProcessPaymentEmptyCart(t *testing.T) {
	f := newFixture()
	svc := NewPaymentService(f.repos, f.tx, f.charger, zap.NewNop())

	_, err := svc.ProcessPayment(context.Background(), uuid.New(), paymentRequest())
	assert.IsType(t, &errors.ErrBusinessRule{}, err)
	assert.Empty(t, f.charger.chargeCalls)
}

func TestRefundPayment(t *testing.T) {
	f := newFixture()
	p := f.addProduct(&domain.Product{Title: "Honey 500g", Price: dec("100"), InStock: true})
	userID := uuid.New()
	f.seedCart(userID, domain.CartTypeRegular, domain.CartItem{ProductID: p.ID, Quantity: 1, Price: dec("100")})

	svc := NewPaymentService(f.repos, f.tx, f.charger, zap.NewNop())
	order, err := svc.ProcessPayment(context.Background(), userID, paymentRequest())
	require.NoError(t, err)

	payment, err := svc.RefundPayment(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusRefunded, payment.Status)
	require.Len(t, f.charger.refundCalls, 1)
	assert.Equal(t, "txn-12345", f.charger.refundCalls[0])

	// The order is cancelled and marked refunded regardless of fulfilment.
	stored, err := f.repos.Orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)
	assert.Equal(t, domain.PaymentStatusRefunded, stored.PaymentStatus)

	assert.Equal(t, []string{"order_created", "payment_refunded"}, f.eventTypes(order.ID))
}

func TestRefundPaymentRequiresCompletedPayment(t *testing.T) {
	f := newFixture()
	order := &domain.Order{ID: uuid.New(), UserID: uuid.New(), Status: domain.OrderStatusPending}
	f.orders.orders[order.ID] = order
	failed := &domain.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  domain.PaymentStatusFailed,
	}
	f.payments.payments[failed.ID] = failed

	svc := NewPaymentService(f.repos, f.tx, f.charger, zap.NewNop())
	_, err := svc.RefundPayment(context.Background(), order.ID)
	assert.IsType(t, &errors.ErrBusinessRule{}, err)
	assert.Empty(t, f.charger.refundCalls)
}

func TestRefundPaymentGatewayFailure(t *testing.T) {
	f := newFixture()
	p := f.addProduct(&domain.Product{Title: "Honey 500g", Price: dec("100"), InStock: true})
	userID := uuid.New()
	f.seedCart(userID, domain.CartTypeRegular, domain.CartItem{ProductID: p.ID, Quantity: 1, Price: dec("100")})

	svc := NewPaymentService(f.repos, f.tx, f.charger, zap.NewNop())
	order, err := svc.ProcessPayment(context.Background(), userID, paymentRequest())
	require.NoError(t, err)

	f.charger.refundErr = fmt.Errorf("timeout")
	_, err = svc.RefundPayment(context.Background(), order.ID)
	assert.IsType(t, &errors.ErrGateway{}, err)

	// Nothing moved: the payment stays completed.
	payment, err := f.repos.Payments.GetByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, payment.Status)
}

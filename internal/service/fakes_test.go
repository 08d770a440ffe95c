package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/gateway"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/pkg/errors"
)

// In-memory repositories backing the service tests. They share state
// through the fixture so the transactional and pooled views are the
// same thing, which is all the services assume.

type fixture struct {
	repos   *repository.Repositories
	tx      *fakeTxManager
	charger *fakeCharger

	users       *fakeUserRepo
	products    *fakeProductRepo
	carts       *fakeCartRepo
	orders      *fakeOrderRepo
	wholesale   *fakeWholesaleRepo
	payments    *fakePaymentRepo
	idempotency *fakeIdempotencyRepo
	events      *fakeOrderEventRepo
}

func newFixture() *fixture {
	f := &fixture{
		users:       &fakeUserRepo{users: map[uuid.UUID]*domain.User{}},
		products:    &fakeProductRepo{products: map[uuid.UUID]*domain.Product{}},
		carts:       &fakeCartRepo{carts: map[uuid.UUID]*domain.Cart{}},
		orders:      &fakeOrderRepo{orders: map[uuid.UUID]*domain.Order{}, numbers: map[string]bool{}},
		wholesale:   &fakeWholesaleRepo{requests: map[uuid.UUID]*domain.WholesaleOrderRequest{}, numbers: map[string]bool{}},
		payments:    &fakePaymentRepo{payments: map[uuid.UUID]*domain.Payment{}},
		idempotency: &fakeIdempotencyRepo{keys: map[string]*domain.IdempotencyKey{}},
		events:      &fakeOrderEventRepo{},
		charger:     &fakeCharger{},
	}
	f.repos = &repository.Repositories{
		Users:       f.users,
		Products:    f.products,
		Carts:       f.carts,
		Orders:      f.orders,
		Wholesale:   f.wholesale,
		Payments:    f.payments,
		Idempotency: f.idempotency,
		OrderEvents: f.events,
	}
	f.tx = &fakeTxManager{repos: f.repos}
	return f
}

func (f *fixture) addProduct(p *domain.Product) *domain.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.products.products[p.ID] = p
	return p
}

// seedCart creates a cart holding the given lines, with aggregates
// already recalculated the way the cart service leaves them.
func (f *fixture) seedCart(userID uuid.UUID, cartType domain.CartType, items ...domain.CartItem) *domain.Cart {
	cart := &domain.Cart{ID: uuid.New(), UserID: userID, Type: cartType}
	for i := range items {
		items[i].CartID = cart.ID
	}
	cart.Items = items
	cart.Recalculate(f.products.products)
	f.carts.carts[cart.ID] = cart
	return cart
}

type fakeTxManager struct {
	repos *repository.Repositories
	calls int
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, repos *repository.Repositories) error) error {
	m.calls++
	return fn(ctx, m.repos)
}

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	return u, nil
}

func (r *fakeUserRepo) GetByAPIKey(_ context.Context, _ string) (*domain.User, error) {
	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]*domain.Product
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	return p, nil
}

func (r *fakeProductRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int) ([]*domain.Product, error) {
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

type fakeCartRepo struct {
	carts map[uuid.UUID]*domain.Cart
}

func (r *fakeCartRepo) GetByUserAndType(_ context.Context, userID uuid.UUID, cartType domain.CartType) (*domain.Cart, error) {
	for _, c := range r.carts {
		if c.UserID == userID && c.Type == cartType {
			return c, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "cart", ID: userID.String()}
}

func (r *fakeCartRepo) Create(_ context.Context, cart *domain.Cart) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	r.carts[cart.ID] = cart
	return nil
}

func (r *fakeCartRepo) GetItem(_ context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error) {
	cart, ok := r.carts[cartID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "cart", ID: cartID.String()}
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			return &cart.Items[i], nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "cart item", ID: productID.String()}
}

func (r *fakeCartRepo) CreateItem(_ context.Context, item *domain.CartItem) error {
	cart := r.carts[item.CartID]
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	cart.Items = append(cart.Items, *item)
	return nil
}

func (r *fakeCartRepo) UpdateItem(_ context.Context, item *domain.CartItem) error {
	cart := r.carts[item.CartID]
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i] = *item
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "cart item", ID: item.ProductID.String()}
}

func (r *fakeCartRepo) DeleteItem(_ context.Context, cartID, productID uuid.UUID) (bool, error) {
	cart, ok := r.carts[cartID]
	if !ok {
		return false, nil
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCartRepo) DeleteItems(_ context.Context, cartID uuid.UUID) error {
	if cart, ok := r.carts[cartID]; ok {
		cart.Items = nil
	}
	return nil
}

func (r *fakeCartRepo) SaveTotals(_ context.Context, cart *domain.Cart) error {
	stored, ok := r.carts[cart.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "cart", ID: cart.ID.String()}
	}
	stored.Total = cart.Total
	stored.ItemsCount = cart.ItemsCount
	stored.WholesaleSubtotal = cart.WholesaleSubtotal
	stored.WholesaleDiscount = cart.WholesaleDiscount
	stored.WholesaleShipping = cart.WholesaleShipping
	stored.WholesaleTotal = cart.WholesaleTotal
	return nil
}

type fakeOrderRepo struct {
	orders  map[uuid.UUID]*domain.Order
	numbers map[string]bool
	// duplicateOnce makes the next Create collide, exercising the
	// regenerate-and-retry path.
	duplicateOnce bool
	createErr     error
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	if r.duplicateOnce {
		r.duplicateOnce = false
		return repository.ErrDuplicateReference
	}
	if r.numbers[order.OrderNumber] {
		return repository.ErrDuplicateReference
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.numbers[order.OrderNumber] = true
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return o, nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListByStatus(_ context.Context, status domain.OrderStatus, _, _ int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus, paymentStatus *domain.PaymentStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	o.Status = status
	if paymentStatus != nil {
		o.PaymentStatus = *paymentStatus
	}
	return nil
}

func (r *fakeOrderRepo) LatestOrderNumber(_ context.Context, prefix string) (string, error) {
	latest := ""
	for number := range r.numbers {
		if len(number) >= len(prefix) && number[:len(prefix)] == prefix && number > latest {
			latest = number
		}
	}
	return latest, nil
}

type fakeWholesaleRepo struct {
	requests      map[uuid.UUID]*domain.WholesaleOrderRequest
	numbers       map[string]bool
	duplicateOnce bool
}

func (r *fakeWholesaleRepo) Create(_ context.Context, req *domain.WholesaleOrderRequest) error {
	if r.duplicateOnce {
		r.duplicateOnce = false
		return repository.ErrDuplicateReference
	}
	if r.numbers[req.RequestNumber] {
		return repository.ErrDuplicateReference
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	r.numbers[req.RequestNumber] = true
	r.requests[req.ID] = req
	return nil
}

func (r *fakeWholesaleRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.WholesaleOrderRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "wholesale order request", ID: id.String()}
	}
	return req, nil
}

func (r *fakeWholesaleRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]*domain.WholesaleOrderRequest, error) {
	var out []*domain.WholesaleOrderRequest
	for _, req := range r.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeWholesaleRepo) ListByStatus(_ context.Context, status domain.WholesaleStatus, _, _ int) ([]*domain.WholesaleOrderRequest, error) {
	var out []*domain.WholesaleOrderRequest
	for _, req := range r.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeWholesaleRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.WholesaleStatus) error {
	req, ok := r.requests[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "wholesale order request", ID: id.String()}
	}
	req.Status = status
	return nil
}

func (r *fakeWholesaleRepo) LatestRequestNumber(_ context.Context, prefix string) (string, error) {
	latest := ""
	for number := range r.numbers {
		if len(number) >= len(prefix) && number[:len(prefix)] == prefix && number > latest {
			latest = number
		}
	}
	return latest, nil
}

type fakePaymentRepo struct {
	payments map[uuid.UUID]*domain.Payment
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *domain.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	r.payments[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	for _, p := range r.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "payment", ID: orderID.String()}
}

func (r *fakePaymentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.PaymentStatus) error {
	p, ok := r.payments[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "payment", ID: id.String()}
	}
	p.Status = status
	return nil
}

type fakeIdempotencyRepo struct {
	keys map[string]*domain.IdempotencyKey
}

func idempotencyMapKey(key string, userID uuid.UUID) string {
	return key + "/" + userID.String()
}

func (r *fakeIdempotencyRepo) Get(_ context.Context, key string, userID uuid.UUID) (*domain.IdempotencyKey, error) {
	ik, ok := r.keys[idempotencyMapKey(key, userID)]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "idempotency key", ID: key}
	}
	return ik, nil
}

func (r *fakeIdempotencyRepo) Create(_ context.Context, ik *domain.IdempotencyKey) error {
	r.keys[idempotencyMapKey(ik.Key, ik.UserID)] = ik
	return nil
}

type fakeOrderEventRepo struct {
	events []*domain.OrderEvent
}

func (r *fakeOrderEventRepo) Create(_ context.Context, event *domain.OrderEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeOrderEventRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	var out []*domain.OrderEvent
	for _, event := range r.events {
		if event.OrderID == orderID {
			out = append(out, event)
		}
	}
	return out, nil
}

// eventTypes flattens the audit trail of one order for assertions.
func (f *fixture) eventTypes(orderID uuid.UUID) []string {
	var types []string
	for _, event := range f.events.events {
		if event.OrderID == orderID {
			types = append(types, event.EventType)
		}
	}
	return types
}

type fakeCharger struct {
	chargeResult *gateway.ChargeResult
	chargeErr    error
	refundResult *gateway.ChargeResult
	refundErr    error

	chargeCalls []gateway.ChargeRequest
	refundCalls []string
}

func (c *fakeCharger) Charge(_ context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	c.chargeCalls = append(c.chargeCalls, req)
	if c.chargeErr != nil {
		return nil, c.chargeErr
	}
	if c.chargeResult != nil {
		return c.chargeResult, nil
	}
	return &gateway.ChargeResult{
		Status:        gateway.ChargeStatusCompleted,
		TransactionID: "txn-12345",
		AuthCode:      "AUTH01",
	}, nil
}

func (c *fakeCharger) Refund(_ context.Context, transactionID string, _ decimal.Decimal) (*gateway.ChargeResult, error) {
	c.refundCalls = append(c.refundCalls, transactionID)
	if c.refundErr != nil {
		return nil, c.refundErr
	}
	if c.refundResult != nil {
		return c.refundResult, nil
	}
	return &gateway.ChargeResult{
		Status:        gateway.ChargeStatusCompleted,
		TransactionID: transactionID,
	}, nil
}

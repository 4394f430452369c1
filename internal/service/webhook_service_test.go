package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tiendaluna/storeapi/internal/domain"
	"github.com/tiendaluna/storeapi/internal/mercadopago"
	"github.com/tiendaluna/storeapi/internal/notify"
	"github.com/tiendaluna/storeapi/internal/repository"
	pkgerrors "github.com/tiendaluna/storeapi/pkg/errors"
)

// --- fakes shared across the service tests ---

type fakeGateway struct {
	payment    *mercadopago.Payment
	getErr     error
	getCalls   int
	searched   []string
	searchRes  []mercadopago.Payment
	searchErr  error
	preference *mercadopago.Preference
	prefErr    error
	prefReqs   []mercadopago.PreferenceRequest
}

func (f *fakeGateway) GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.payment, nil
}

func (f *fakeGateway) SearchByExternalReference(ctx context.Context, ref string) ([]mercadopago.Payment, error) {
	f.searched = append(f.searched, ref)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchRes, nil
}

func (f *fakeGateway) CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	f.prefReqs = append(f.prefReqs, req)
	if f.prefErr != nil {
		return nil, f.prefErr
	}
	return f.preference, nil
}

type memOrderRepo struct {
	orders    map[string]*domain.Order
	updateErr error
	shipErr   error
}

func newMemOrderRepo(orders ...*domain.Order) *memOrderRepo {
	m := &memOrderRepo{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		m.orders[o.OrderNumber] = o
	}
	return m
}

func (m *memOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	cp := *order
	m.orders[order.OrderNumber] = &cp
	return nil
}

func (m *memOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, ok := m.orders[orderNumber]
	if !ok {
		return nil, &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	cp := *order
	return &cp, nil
}

func (m *memOrderRepo) List(ctx context.Context, limit, offset int) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrderRepo) ListByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) ListStalePending(ctx context.Context, maxAgeSeconds int) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0)
	for _, o := range m.orders {
		if o.Status.IsPending() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) UpdatePayment(ctx context.Context, orderNumber string, update domain.PaymentUpdate) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	order, ok := m.orders[orderNumber]
	if !ok {
		return &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	order.Status = update.Status
	order.PaymentID = &update.PaymentID
	order.PaymentStatus = update.PaymentStatus
	order.PaymentMethodLabel = update.PaymentMethodLabel
	return nil
}

func (m *memOrderRepo) UpdateStatus(ctx context.Context, orderNumber string, status domain.OrderStatus, reason *string) error {
	order, ok := m.orders[orderNumber]
	if !ok {
		return &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	order.Status = status
	order.CancellationReason = reason
	return nil
}

func (m *memOrderRepo) MarkShipped(ctx context.Context, orderNumber string, trackingNumber string) error {
	if m.shipErr != nil {
		return m.shipErr
	}
	order, ok := m.orders[orderNumber]
	if !ok {
		return &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	order.Status = domain.OrderStatusShipped
	order.TrackingNumber = &trackingNumber
	return nil
}

func (m *memOrderRepo) UpdateLastNotifiedStatus(ctx context.Context, orderNumber string, status domain.OrderStatus) error {
	order, ok := m.orders[orderNumber]
	if !ok {
		return &pkgerrors.ErrNotFound{Resource: "order", ID: orderNumber}
	}
	order.LastNotifiedStatus = status
	return nil
}

type memItemRepo struct {
	items map[string][]*domain.OrderItem
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[string][]*domain.OrderItem)}
}

func (m *memItemRepo) CreateBatch(ctx context.Context, items []*domain.OrderItem) error {
	for _, item := range items {
		m.items[item.OrderNumber] = append(m.items[item.OrderNumber], item)
	}
	return nil
}

func (m *memItemRepo) GetByOrderNumber(ctx context.Context, orderNumber string) ([]*domain.OrderItem, error) {
	return m.items[orderNumber], nil
}

type memEventRepo struct {
	events    []*domain.OrderEvent
	createErr error
}

func (m *memEventRepo) Create(ctx context.Context, event *domain.OrderEvent) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memEventRepo) GetByOrderNumber(ctx context.Context, orderNumber string) ([]*domain.OrderEvent, error) {
	out := make([]*domain.OrderEvent, 0)
	for _, e := range m.events {
		if e.OrderNumber == orderNumber {
			out = append(out, e)
		}
	}
	return out, nil
}

type dispatchCall struct {
	orderNumber string
	prevStatus  domain.OrderStatus
	newStatus   domain.OrderStatus
	fromPayment bool
}

type fakeNotifier struct {
	calls []dispatchCall
}

func (f *fakeNotifier) Dispatch(ctx context.Context, order *domain.Order, prevStatus, newStatus domain.OrderStatus, fromPayment bool) notify.Result {
	f.calls = append(f.calls, dispatchCall{
		orderNumber: order.OrderNumber,
		prevStatus:  prevStatus,
		newStatus:   newStatus,
		fromPayment: fromPayment,
	})
	return notify.Result{CustomerSent: true}
}

func newRepos(orderRepo *memOrderRepo, itemRepo *memItemRepo, eventRepo *memEventRepo) *repository.Repositories {
	return &repository.Repositories{
		Order:      orderRepo,
		OrderItem:  itemRepo,
		OrderEvent: eventRepo,
	}
}

func pendingOrder(number string) *domain.Order {
	return &domain.Order{
		OrderNumber:   number,
		CustomerName:  "Ana García",
		CustomerEmail: "ana@example.com",
		Status:        domain.OrderStatusPending,
		Total:         1500,
	}
}

// --- webhook pipeline ---

func TestProcessPaymentApproved(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                123,
		Status:            "approved",
		ExternalReference: "ORD-1",
		PaymentMethodID:   "visa",
	}}
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	eventRepo := &memEventRepo{}
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), eventRepo), notifier, zap.NewNop())

	err := svc.ProcessPayment(context.Background(), "trace-1", "123")
	require.NoError(t, err)

	order := orderRepo.orders["ORD-1"]
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Equal(t, "approved", order.PaymentStatus)
	assert.Equal(t, "Tarjeta de Crédito", order.PaymentMethodLabel)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, "123", *order.PaymentID)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, domain.OrderStatusConfirmed, notifier.calls[0].newStatus)
	assert.Equal(t, domain.OrderStatusPending, notifier.calls[0].prevStatus)
	assert.True(t, notifier.calls[0].fromPayment)

	require.Len(t, eventRepo.events, 1)
	assert.Equal(t, "payment_event", eventRepo.events[0].EventType)
}

func TestProcessPaymentRejected(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                124,
		Status:            "rejected",
		ExternalReference: "ORD-1",
		PaymentMethodID:   "master",
	}}
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), notifier, zap.NewNop())

	err := svc.ProcessPayment(context.Background(), "trace-1", "124")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusCancelled, orderRepo.orders["ORD-1"].Status)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, domain.OrderStatusCancelled, notifier.calls[0].newStatus)
}

func TestProcessPaymentOrderNotFound(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                125,
		Status:            "approved",
		ExternalReference: "ORD-MISSING",
	}}
	orderRepo := newMemOrderRepo()
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), notifier, zap.NewNop())

	// Not-found is a tolerated race: the webhook still acks upstream.
	err := svc.ProcessPayment(context.Background(), "trace-1", "125")
	assert.NoError(t, err)
	assert.Empty(t, orderRepo.orders)
	assert.Empty(t, notifier.calls)
}

func TestProcessPaymentGatewayFailure(t *testing.T) {
	gateway := &fakeGateway{getErr: errors.New("connection timeout")}
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), notifier, zap.NewNop())

	err := svc.ProcessPayment(context.Background(), "trace-1", "126")
	require.Error(t, err)

	var gwErr *pkgerrors.ErrGatewayUnavailable
	assert.ErrorAs(t, err, &gwErr)
	assert.Equal(t, domain.OrderStatusPending, orderRepo.orders["ORD-1"].Status)
	assert.Empty(t, notifier.calls)
}

func TestProcessPaymentIdempotentReapply(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                123,
		Status:            "approved",
		ExternalReference: "ORD-1",
		PaymentMethodID:   "visa",
	}}
	order := pendingOrder("ORD-1")
	orderRepo := newMemOrderRepo(order)
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), notifier, zap.NewNop())

	require.NoError(t, svc.ProcessPayment(context.Background(), "trace-1", "123"))
	firstStatus := orderRepo.orders["ORD-1"].Status
	firstTotal := orderRepo.orders["ORD-1"].Total

	require.NoError(t, svc.ProcessPayment(context.Background(), "trace-2", "123"))

	assert.Equal(t, firstStatus, orderRepo.orders["ORD-1"].Status)
	assert.Equal(t, firstTotal, orderRepo.orders["ORD-1"].Total)
	// The dispatcher is invoked again; its last_notified_status gate keeps
	// the duplicate quiet.
	assert.Len(t, notifier.calls, 2)
	assert.Equal(t, domain.OrderStatusConfirmed, notifier.calls[1].prevStatus)
}

func TestProcessPaymentUnknownStatusLeavesOrderUntouched(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                127,
		Status:            "charged_back",
		ExternalReference: "ORD-1",
	}}
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), notifier, zap.NewNop())

	require.NoError(t, svc.ProcessPayment(context.Background(), "trace-1", "127"))

	assert.Equal(t, domain.OrderStatusPending, orderRepo.orders["ORD-1"].Status)
	assert.Empty(t, notifier.calls)
}

func TestProcessPaymentIgnoresNonPendingOrder(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                128,
		Status:            "rejected",
		ExternalReference: "ORD-1",
	}}
	order := pendingOrder("ORD-1")
	order.Status = domain.OrderStatusShipped
	orderRepo := newMemOrderRepo(order)
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), notifier, zap.NewNop())

	require.NoError(t, svc.ProcessPayment(context.Background(), "trace-1", "128"))

	assert.Equal(t, domain.OrderStatusShipped, orderRepo.orders["ORD-1"].Status)
	assert.Empty(t, notifier.calls)
}

func TestProcessPaymentMissingExternalReference(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:     129,
		Status: "approved",
	}}
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), notifier, zap.NewNop())

	require.NoError(t, svc.ProcessPayment(context.Background(), "trace-1", "129"))
	assert.Equal(t, domain.OrderStatusPending, orderRepo.orders["ORD-1"].Status)
	assert.Empty(t, notifier.calls)
}

func TestProcessPaymentAuditWriteFailureIsLoggedNotFatal(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                131,
		Status:            "approved",
		ExternalReference: "ORD-1",
	}}
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	eventRepo := &memEventRepo{createErr: errors.New("audit write failed")}
	notifier := &fakeNotifier{}

	core, logs := observer.New(zap.WarnLevel)
	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), eventRepo), notifier, zap.New(core))

	require.NoError(t, svc.ProcessPayment(context.Background(), "trace-1", "131"))

	// The order update and notification still happen; the lost audit row is
	// surfaced in the log.
	assert.Equal(t, domain.OrderStatusConfirmed, orderRepo.orders["ORD-1"].Status)
	assert.Len(t, notifier.calls, 1)
	require.Equal(t, 1, logs.FilterMessage("Failed to record order event").Len())
}

func TestProcessPaymentStoreWriteFailureStillAcks(t *testing.T) {
	gateway := &fakeGateway{payment: &mercadopago.Payment{
		ID:                130,
		Status:            "approved",
		ExternalReference: "ORD-1",
	}}
	orderRepo := newMemOrderRepo(pendingOrder("ORD-1"))
	orderRepo.updateErr = errors.New("store write failed")
	notifier := &fakeNotifier{}

	svc := NewWebhookService(gateway, newRepos(orderRepo, newMemItemRepo(), &memEventRepo{}), notifier, zap.NewNop())

	// Already committed to acking success once the payment was fetched.
	assert.NoError(t, svc.ProcessPayment(context.Background(), "trace-1", "130"))
	assert.Empty(t, notifier.calls)
}

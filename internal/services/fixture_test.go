package services

import (
	"context"
	"testing"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/mocks"
	"commerce-service/internal/repository"
	"commerce-service/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    repository.Store
	db       *gorm.DB
	gateway  *mocks.MockGateway
	events   *mocks.MockPublisher
	notifier *mocks.MockInvoiceNotifier

	orders    *OrderService
	shipments *ShipmentService
	invoices  *InvoiceService
	payments  *PaymentService
}

type fixtureOption func(*fixture)

// withNotifyError makes every invoice email fail to queue.
func withNotifyError(err error) fixtureOption {
	return func(f *fixture) {
		f.notifier.On("NotifyInvoice", mock.Anything, mock.Anything, mock.Anything).Return(err)
	}
}

func withPublishError(err error) fixtureOption {
	return func(f *fixture) {
		f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(err)
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	store, db := testutil.NewStore(t)
	log := zaptest.NewLogger(t)

	f := &fixture{
		store:    store,
		db:       db,
		gateway:  new(mocks.MockGateway),
		events:   new(mocks.MockPublisher),
		notifier: new(mocks.MockInvoiceNotifier),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.gateway.On("Name").Return("mercadopago").Maybe()
	f.events.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("NotifyInvoice", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	require.NoError(t, db.Create(CreateMockProduct(TestProductID, "Action figure", "1000")).Error)
	require.NoError(t, db.Create(&domain.ProductVariant{ID: TestVariantID, ProductID: TestProductID, Name: "deluxe"}).Error)

	clock := func() time.Time { return testNow }
	var err error
	f.orders, err = NewOrderService(OrderServiceDeps{
		Store:             store,
		Events:            f.events,
		Logger:            log,
		StrictTransitions: true,
		StrictTotals:      true,
	})
	require.NoError(t, err)
	f.shipments, err = NewShipmentService(ShipmentServiceDeps{Store: store, Events: f.events, Logger: log, Clock: clock})
	require.NoError(t, err)
	f.invoices, err = NewInvoiceService(InvoiceServiceDeps{
		Store:    store,
		Notifier: f.notifier,
		Events:   f.events,
		Logger:   log,
		Clock:    clock,
		TaxRate:  decimal.RequireFromString("0.21"),
		Prefix:   "FV",
	})
	require.NoError(t, err)
	payments, err := NewPaymentService(PaymentServiceDeps{
		Store:          store,
		Gateway:        f.gateway,
		Shipments:      f.shipments,
		Invoices:       f.invoices,
		Events:         f.events,
		Logger:         log,
		Clock:          clock,
		GatewayTimeout: time.Second,
	})
	require.NoError(t, err)
	f.payments = payments
	return f
}

func (f *fixture) createOrder(t *testing.T, customerID uint64, subtotal string) *domain.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(context.Background(), CreateOrderInputFor(customerID, TestProductID, subtotal))
	require.NoError(t, err)
	return o
}

// seedPendingPayment creates an order of the test customer with one pending payment.
func (f *fixture) seedPendingPayment(t *testing.T, subtotal string) (*domain.Order, *domain.Payment) {
	t.Helper()
	o := f.createOrder(t, TestCustomerID, subtotal)
	p := &domain.Payment{
		OrderID:       o.ID,
		Provider:      "mercadopago",
		Method:        domain.MethodMercadoPago,
		Status:        domain.PaymentPending,
		TransactionID: "pref-1",
		Amount:        o.Total,
	}
	require.NoError(t, f.store.Payments().Create(context.Background(), p))
	return o, p
}

func (f *fixture) count(t *testing.T, model any, where ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

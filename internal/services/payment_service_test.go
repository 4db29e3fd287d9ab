package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/gateway"
	"commerce-service/internal/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_RecordPaymentIntent(t *testing.T) {
	tests := []struct {
		name          string
		actor         Actor
		orderStatus   domain.OrderStatus
		amount        string
		setupMocks    func(gw *mocks.MockGateway)
		expectedError error
	}{
		{
			name:   "creates pending payment for order total",
			actor:  TestCustomer,
			amount: "0",
			setupMocks: func(gw *mocks.MockGateway) {
				gw.On("CreatePreference", mock.Anything, mock.MatchedBy(func(r gateway.PreferenceRequest) bool {
					return r.Amount.Equal(decimal.RequireFromString("1000"))
				})).Return(&gateway.Preference{
					ExternalID:   "pref-123",
					RedirectURLs: gateway.RedirectURLs{Checkout: "https://pay.example/checkout/pref-123"},
					Raw:          []byte(`{"id":"pref-123"}`),
				}, nil)
			},
		},
		{
			name:   "gateway failure leaves no payment",
			actor:  TestCustomer,
			amount: "0",
			setupMocks: func(gw *mocks.MockGateway) {
				gw.On("CreatePreference", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
			},
			expectedError: domain.ErrGateway,
		},
		{
			name:          "other customer's order",
			actor:         Actor{UserID: TestOtherCustomer},
			amount:        "0",
			setupMocks:    func(gw *mocks.MockGateway) {},
			expectedError: domain.ErrForbidden,
		},
		{
			name:          "order already paid",
			actor:         TestCustomer,
			orderStatus:   domain.StatusPaid,
			amount:        "0",
			setupMocks:    func(gw *mocks.MockGateway) {},
			expectedError: ErrOrderNotPayable,
		},
		{
			name:          "negative amount",
			actor:         TestCustomer,
			amount:        "-5",
			setupMocks:    func(gw *mocks.MockGateway) {},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMocks(f.gateway)
			o := f.createOrder(t, TestCustomerID, "1000")
			if tt.orderStatus != "" {
				require.NoError(t, f.store.Orders().UpdateStatus(context.Background(), o.ID, tt.orderStatus))
			}

			intent, err := f.payments.RecordPaymentIntent(context.Background(), RecordPaymentIntentInput{
				OrderID: o.ID,
				Amount:  decimal.RequireFromString(tt.amount),
				Actor:   tt.actor,
			})

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, intent)
				assert.Zero(t, f.count(t, &domain.Payment{}))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "pref-123", intent.ExternalID)
			assert.Equal(t, "https://pay.example/checkout/pref-123", intent.RedirectURLs.Checkout)

			p, err := f.store.Payments().FindByID(context.Background(), intent.PaymentID)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, domain.PaymentPending, p.Status)
			assert.Equal(t, "pref-123", p.TransactionID)
			assert.Equal(t, domain.MethodMercadoPago, p.Method)
			assert.True(t, p.Amount.Equal(decimal.RequireFromString("1000")))
			assert.Nil(t, p.PaidAt)
			f.gateway.AssertExpectations(t)
			f.events.AssertCalled(t, "Publish", mock.Anything, domain.EventPaymentInitiated, mock.Anything)
		})
	}
}

func TestPaymentService_ApplyApprovedRunsCascade(t *testing.T) {
	f := newFixture(t)
	o, p := f.seedPendingPayment(t, "1000")
	actor := TestAdminID

	res, err := f.payments.ApplyPaymentStatus(context.Background(), ApplyPaymentStatusInput{
		PaymentID: p.ID,
		Status:    domain.PaymentApproved,
		ActorID:   &actor,
		Reason:    "confirmed by bank",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentPending, res.PreviousStatus)
	assert.Equal(t, domain.StatusPaid, res.OrderStatus)
	assert.Equal(t, StepOK, res.Order.Status)
	assert.Equal(t, StepCreated, res.Shipment.Status)
	assert.Equal(t, StepCreated, res.Invoice.Status)
	assert.Equal(t, StepOK, res.Email.Status)
	assert.Equal(t, StepOK, res.Event.Status)
	assert.Empty(t, res.FailedSteps())
	require.NotNil(t, res.ShipmentID)
	require.NotNil(t, res.InvoiceID)

	stored, err := f.store.Payments().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentApproved, stored.Status)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(testNow))

	shipment, err := f.store.Shipments().FindByOrderID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentPreparing, shipment.Status)
	assert.Equal(t, domain.DefaultShipmentCountry, shipment.Country)

	inv, err := f.store.Invoices().FindByOrderID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "FV-2026-000001", inv.Number)
	assert.Equal(t, "B", inv.Type)
	assert.True(t, inv.TaxAmount.Equal(decimal.RequireFromString("210")), "tax %s", inv.TaxAmount)
	assert.True(t, inv.Total.Equal(decimal.RequireFromString("1210")), "total %s", inv.Total)
	assert.Equal(t, domain.MethodMercadoPago, inv.PaymentMethod)
	assert.Equal(t, domain.VerificationHash(o.ID, inv.Total), inv.VerificationHash)

	history, err := f.store.History().ListByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "payment:pending", *history[1].PreviousStatus)
	assert.Equal(t, "payment:approved", history[1].NewStatus)
	assert.Equal(t, "confirmed by bank", history[1].Comment)
	assert.Equal(t, "pending", *history[2].PreviousStatus)
	assert.Equal(t, "paid", history[2].NewStatus)
	assert.Equal(t, "payment approved", history[2].Comment)
	assert.Equal(t, actor, *history[2].ActorID)

	f.notifier.AssertCalled(t, "NotifyInvoice", mock.Anything, TestCustomerEmail, mock.Anything)
	f.events.AssertCalled(t, "Publish", mock.Anything, domain.EventPaymentApproved, mock.Anything)
	f.events.AssertCalled(t, "Publish", mock.Anything, domain.EventOrderStatusUpdated, mock.Anything)
	f.events.AssertCalled(t, "Publish", mock.Anything, domain.EventShipmentCreated, mock.Anything)
	f.events.AssertCalled(t, "Publish", mock.Anything, domain.EventInvoiceIssued, mock.Anything)
}

func TestPaymentService_ApplyApprovedTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	o, p := f.seedPendingPayment(t, "1000")
	in := ApplyPaymentStatusInput{PaymentID: p.ID, Status: domain.PaymentApproved}

	_, err := f.payments.ApplyPaymentStatus(context.Background(), in)
	require.NoError(t, err)
	first, err := f.store.Payments().FindByID(context.Background(), p.ID)
	require.NoError(t, err)

	res, err := f.payments.ApplyPaymentStatus(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentApproved, res.PreviousStatus)
	assert.Equal(t, StepSkipped, res.Order.Status)
	assert.Equal(t, StepOK, res.Shipment.Status)
	assert.Equal(t, StepOK, res.Invoice.Status)
	assert.Equal(t, StepSkipped, res.Email.Status)
	assert.Equal(t, StepSkipped, res.Event.Status)

	assert.Equal(t, int64(1), f.count(t, &domain.Shipment{}, "order_id = ?", o.ID))
	assert.Equal(t, int64(1), f.count(t, &domain.Invoice{}, "order_id = ?", o.ID))
	assert.Equal(t, int64(1), f.count(t, &domain.HistoryEntry{}, "order_id = ? AND new_status = ?", o.ID, "paid"))
	assert.Equal(t, int64(1), f.count(t, &domain.HistoryEntry{}, "order_id = ? AND new_status = ?", o.ID, "payment:approved"))

	second, err := f.store.Payments().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, first.PaidAt.Equal(*second.PaidAt))
	f.notifier.AssertNumberOfCalls(t, "NotifyInvoice", 1)
}

// The test store has a single connection, so these deliveries run one after another;
// the insert race itself is covered by TestInvoiceService_IssueLosesInsertRace.
func TestPaymentService_RepeatedApprovalsFulfillOnce(t *testing.T) {
	f := newFixture(t)
	o, p := f.seedPendingPayment(t, "1000")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.payments.ApplyPaymentStatus(context.Background(), ApplyPaymentStatusInput{
				PaymentID: p.ID,
				Status:    domain.PaymentApproved,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), f.count(t, &domain.Shipment{}, "order_id = ?", o.ID))
	assert.Equal(t, int64(1), f.count(t, &domain.Invoice{}, "order_id = ?", o.ID))
	assert.Equal(t, int64(1), f.count(t, &domain.HistoryEntry{}, "order_id = ? AND new_status = ?", o.ID, "paid"))
}

func TestPaymentService_ApplyRejectedLeavesOrderPending(t *testing.T) {
	f := newFixture(t)
	o, p := f.seedPendingPayment(t, "1000")

	res, err := f.payments.ApplyPaymentStatus(context.Background(), ApplyPaymentStatusInput{
		OrderID: o.ID,
		Status:  domain.PaymentRejected,
		Reason:  "insufficient funds",
	})
	require.NoError(t, err)

	assert.Equal(t, p.ID, res.PaymentID)
	assert.Equal(t, domain.StatusPending, res.OrderStatus)
	assert.Equal(t, StepSkipped, res.Order.Status)
	assert.Equal(t, StepSkipped, res.Shipment.Status)
	assert.Equal(t, StepSkipped, res.Invoice.Status)
	assert.Nil(t, res.ShipmentID)
	assert.Nil(t, res.InvoiceID)

	assert.Zero(t, f.count(t, &domain.Shipment{}))
	assert.Zero(t, f.count(t, &domain.Invoice{}))

	stored, err := f.store.Payments().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRejected, stored.Status)
	assert.Nil(t, stored.PaidAt)

	history, err := f.store.History().ListByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "payment:rejected", history[1].NewStatus)
	assert.Nil(t, history[1].ActorID)

	f.events.AssertCalled(t, "Publish", mock.Anything, domain.EventPaymentFailed, mock.Anything)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, domain.EventOrderStatusUpdated, mock.Anything)
}

func TestPaymentService_ApplyApprovedOnCancelledOrder(t *testing.T) {
	f := newFixture(t)
	o, p := f.seedPendingPayment(t, "1000")
	require.NoError(t, f.store.Orders().UpdateStatus(context.Background(), o.ID, domain.StatusCancelled))

	res, err := f.payments.ApplyPaymentStatus(context.Background(), ApplyPaymentStatusInput{PaymentID: p.ID, Status: domain.PaymentApproved})
	require.NoError(t, err)

	assert.Equal(t, StepError, res.Order.Status)
	assert.Contains(t, res.Order.Error, "cancelled")
	assert.Equal(t, []string{"order"}, res.FailedSteps())
	assert.Equal(t, domain.StatusCancelled, res.OrderStatus)
	assert.Zero(t, f.count(t, &domain.Shipment{}))
	assert.Zero(t, f.count(t, &domain.Invoice{}))

	stored, _ := f.store.Payments().FindByID(context.Background(), p.ID)
	assert.Equal(t, domain.PaymentApproved, stored.Status)
}

func TestPaymentService_ApplyApprovedOnShippedOrderRepairsFulfillment(t *testing.T) {
	f := newFixture(t)
	o, p := f.seedPendingPayment(t, "1000")
	require.NoError(t, f.store.Orders().UpdateStatus(context.Background(), o.ID, domain.StatusShipped))

	res, err := f.payments.ApplyPaymentStatus(context.Background(), ApplyPaymentStatusInput{PaymentID: p.ID, Status: domain.PaymentApproved})
	require.NoError(t, err)

	assert.Equal(t, StepSkipped, res.Order.Status)
	assert.Equal(t, StepCreated, res.Shipment.Status)
	assert.Equal(t, StepCreated, res.Invoice.Status)
	assert.Equal(t, domain.StatusShipped, res.OrderStatus)
}

func TestPaymentService_EmailFailureKeepsInvoice(t *testing.T) {
	f := newFixture(t, withNotifyError(errors.New("queue full")))
	o, p := f.seedPendingPayment(t, "1000")

	res, err := f.payments.ApplyPaymentStatus(context.Background(), ApplyPaymentStatusInput{PaymentID: p.ID, Status: domain.PaymentApproved})
	require.NoError(t, err)

	assert.Equal(t, StepCreated, res.Invoice.Status)
	assert.Equal(t, StepError, res.Email.Status)
	assert.Equal(t, "queue full", res.Email.Error)
	assert.Equal(t, []string{"email"}, res.FailedSteps())
	assert.Equal(t, int64(1), f.count(t, &domain.Invoice{}, "order_id = ?", o.ID))
}

func TestPaymentService_EventFailureIsReported(t *testing.T) {
	f := newFixture(t, withPublishError(errors.New("sink down")))
	_, p := f.seedPendingPayment(t, "1000")

	res, err := f.payments.ApplyPaymentStatus(context.Background(), ApplyPaymentStatusInput{PaymentID: p.ID, Status: domain.PaymentApproved})
	require.NoError(t, err)

	assert.Equal(t, StepError, res.Event.Status)
	assert.Equal(t, StepCreated, res.Shipment.Status)
	assert.Equal(t, StepCreated, res.Invoice.Status)
	assert.Equal(t, domain.StatusPaid, res.OrderStatus)
}

func TestPaymentService_ApplyPaymentStatusErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name          string
		in            ApplyPaymentStatusInput
		expectedError error
	}{
		{name: "unknown status", in: ApplyPaymentStatusInput{PaymentID: 1, Status: "refunded"}, expectedError: domain.ErrValidation},
		{name: "no selector", in: ApplyPaymentStatusInput{Status: domain.PaymentApproved}, expectedError: domain.ErrValidation},
		{name: "missing payment", in: ApplyPaymentStatusInput{PaymentID: 404, Status: domain.PaymentApproved}, expectedError: ErrPaymentNotFound},
		{name: "unknown transaction", in: ApplyPaymentStatusInput{TransactionID: "nope", Status: domain.PaymentApproved}, expectedError: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.payments.ApplyPaymentStatus(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, res)
		})
	}
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	req := gateway.WebhookRequest{Body: []byte(`{"type":"payment","data":{"id":"555"}}`)}

	tests := []struct {
		name       string
		opts       []fixtureOption
		setupMocks func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string)
		check      func(t *testing.T, f *fixture, out *WebhookOutcome, err error)
	}{
		{
			name: "approved payment resolved by external reference",
			setupMocks: func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string) {
				gw.On("ParseWebhook", mock.Anything).Return(&gateway.Notification{ExternalID: "555", Topic: "payment", Relevant: true}, nil)
				gw.On("FetchPaymentStatus", mock.Anything, "555").Return(&gateway.PaymentStatus{
					ExternalID:        "555",
					Status:            domain.PaymentApproved,
					RawStatus:         "approved",
					ExternalReference: orderID,
					Method:            "tarjeta",
					Raw:               []byte(`{"id":555,"status":"approved"}`),
				}, nil)
				guard.On("Acquire", mock.Anything, "mercadopago", "555", domain.PaymentApproved).Return(true, nil)
			},
			check: func(t *testing.T, f *fixture, out *WebhookOutcome, err error) {
				require.NoError(t, err)
				require.NotNil(t, out.Result)
				assert.False(t, out.Duplicate)
				assert.Equal(t, StepCreated, out.Result.Invoice.Status)
				p, _ := f.store.Payments().FindByID(context.Background(), out.Result.PaymentID)
				assert.Equal(t, "555", p.TransactionID)
				assert.Equal(t, domain.MethodCard, p.Method)
				assert.NotEmpty(t, p.RawPayload)
			},
		},
		{
			name: "irrelevant topic is ignored",
			setupMocks: func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string) {
				gw.On("ParseWebhook", mock.Anything).Return(&gateway.Notification{Topic: "merchant_order"}, nil)
			},
			check: func(t *testing.T, f *fixture, out *WebhookOutcome, err error) {
				require.NoError(t, err)
				assert.True(t, out.Ignored)
				assert.Nil(t, out.Result)
			},
		},
		{
			name: "duplicate delivery is dropped",
			setupMocks: func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string) {
				gw.On("ParseWebhook", mock.Anything).Return(&gateway.Notification{ExternalID: "555", Relevant: true}, nil)
				gw.On("FetchPaymentStatus", mock.Anything, "555").Return(&gateway.PaymentStatus{
					ExternalID: "555", Status: domain.PaymentApproved, ExternalReference: orderID,
				}, nil)
				guard.On("Acquire", mock.Anything, "mercadopago", "555", domain.PaymentApproved).Return(false, nil)
			},
			check: func(t *testing.T, f *fixture, out *WebhookOutcome, err error) {
				require.NoError(t, err)
				assert.True(t, out.Duplicate)
				assert.Zero(t, f.count(t, &domain.Invoice{}))
			},
		},
		{
			name: "invalid signature",
			setupMocks: func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string) {
				gw.On("ParseWebhook", mock.Anything).Return(nil, gateway.ErrInvalidSignature)
			},
			check: func(t *testing.T, f *fixture, out *WebhookOutcome, err error) {
				assert.ErrorIs(t, err, gateway.ErrInvalidSignature)
				assert.Nil(t, out)
			},
		},
		{
			name: "gateway lookup failure",
			setupMocks: func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string) {
				gw.On("ParseWebhook", mock.Anything).Return(&gateway.Notification{ExternalID: "555", Relevant: true}, nil)
				gw.On("FetchPaymentStatus", mock.Anything, "555").Return(nil, errors.New("timeout"))
			},
			check: func(t *testing.T, f *fixture, out *WebhookOutcome, err error) {
				assert.ErrorIs(t, err, domain.ErrGateway)
			},
		},
		{
			name: "unknown payment releases guard",
			setupMocks: func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string) {
				gw.On("ParseWebhook", mock.Anything).Return(&gateway.Notification{ExternalID: "777", Relevant: true}, nil)
				gw.On("FetchPaymentStatus", mock.Anything, "777").Return(&gateway.PaymentStatus{
					ExternalID: "777", Status: domain.PaymentApproved,
				}, nil)
				guard.On("Acquire", mock.Anything, "mercadopago", "777", domain.PaymentApproved).Return(true, nil)
				guard.On("Release", mock.Anything, "mercadopago", "777", domain.PaymentApproved).Return(nil).Once()
			},
			check: func(t *testing.T, f *fixture, out *WebhookOutcome, err error) {
				assert.ErrorIs(t, err, domain.ErrNotFound)
			},
		},
		{
			name: "failed cascade step releases guard",
			opts: []fixtureOption{withNotifyError(errors.New("smtp down"))},
			setupMocks: func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string) {
				gw.On("ParseWebhook", mock.Anything).Return(&gateway.Notification{ExternalID: "555", Relevant: true}, nil)
				gw.On("FetchPaymentStatus", mock.Anything, "555").Return(&gateway.PaymentStatus{
					ExternalID: "555", Status: domain.PaymentApproved, ExternalReference: orderID,
				}, nil)
				guard.On("Acquire", mock.Anything, "mercadopago", "555", domain.PaymentApproved).Return(true, nil)
				guard.On("Release", mock.Anything, "mercadopago", "555", domain.PaymentApproved).Return(nil).Once()
			},
			check: func(t *testing.T, f *fixture, out *WebhookOutcome, err error) {
				require.NoError(t, err)
				require.NotNil(t, out.Result)
				assert.Equal(t, []string{"email"}, out.Result.FailedSteps())
				assert.Equal(t, int64(1), f.count(t, &domain.Invoice{}))
			},
		},
		{
			name: "guard outage does not block processing",
			setupMocks: func(gw *mocks.MockGateway, guard *mocks.MockWebhookGuard, orderID string) {
				gw.On("ParseWebhook", mock.Anything).Return(&gateway.Notification{ExternalID: "555", Relevant: true}, nil)
				gw.On("FetchPaymentStatus", mock.Anything, "555").Return(&gateway.PaymentStatus{
					ExternalID: "555", Status: domain.PaymentRejected, ExternalReference: orderID,
				}, nil)
				guard.On("Acquire", mock.Anything, "mercadopago", "555", domain.PaymentRejected).Return(false, errors.New("redis down"))
			},
			check: func(t *testing.T, f *fixture, out *WebhookOutcome, err error) {
				require.NoError(t, err)
				require.NotNil(t, out.Result)
				assert.Equal(t, domain.PaymentRejected, out.Result.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts...)
			guard := new(mocks.MockWebhookGuard)
			f.payments.guard = guard
			o, _ := f.seedPendingPayment(t, "1000")
			tt.setupMocks(f.gateway, guard, strconv.FormatUint(o.ID, 10))

			out, err := f.payments.HandleWebhook(context.Background(), req)

			tt.check(t, f, out, err)
			guard.AssertExpectations(t)
		})
	}
}

func TestPaymentService_GetPayment(t *testing.T) {
	f := newFixture(t)
	_, p := f.seedPendingPayment(t, "1000")

	got, err := f.payments.GetPayment(context.Background(), p.ID, TestCustomer)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.payments.GetPayment(context.Background(), p.ID, Actor{UserID: TestOtherCustomer})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.payments.GetPayment(context.Background(), 404, TestAdmin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaymentService_ListPayments(t *testing.T) {
	f := newFixture(t)
	_, p := f.seedPendingPayment(t, "1000")
	_, err := f.payments.ApplyPaymentStatus(context.Background(), ApplyPaymentStatusInput{PaymentID: p.ID, Status: domain.PaymentRejected})
	require.NoError(t, err)
	f.seedPendingPayment(t, "20")

	all, err := f.payments.ListPayments(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rejected := domain.PaymentRejected
	only, err := f.payments.ListPayments(context.Background(), &rejected)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, p.ID, only[0].ID)

	bogus := domain.PaymentStatus("lost")
	_, err = f.payments.ListPayments(context.Background(), &bogus)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

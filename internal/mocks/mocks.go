package mocks

import (
	"context"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/gateway"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

type MockInvoiceNotifier struct {
	mock.Mock
}

type MockWebhookGuard struct {
	mock.Mock
}

func (m *MockGateway) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockGateway) CreatePreference(ctx context.Context, req gateway.PreferenceRequest) (*gateway.Preference, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Preference), args.Error(1)
}

func (m *MockGateway) FetchPaymentStatus(ctx context.Context, externalID string) (*gateway.PaymentStatus, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentStatus), args.Error(1)
}

func (m *MockGateway) ParseWebhook(req gateway.WebhookRequest) (*gateway.Notification, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Notification), args.Error(1)
}

func (m *MockPublisher) Publish(ctx context.Context, name string, payload any) error {
	args := m.Called(ctx, name, payload)
	return args.Error(0)
}

func (m *MockInvoiceNotifier) NotifyInvoice(ctx context.Context, to string, invoice *domain.Invoice) error {
	args := m.Called(ctx, to, invoice)
	return args.Error(0)
}

func (m *MockWebhookGuard) Acquire(ctx context.Context, provider, transactionID string, status domain.PaymentStatus) (bool, error) {
	args := m.Called(ctx, provider, transactionID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookGuard) Release(ctx context.Context, provider, transactionID string, status domain.PaymentStatus) error {
	args := m.Called(ctx, provider, transactionID, status)
	return args.Error(0)
}

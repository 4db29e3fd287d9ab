package services

import (
	"context"
	"fmt"

	"commerce-service/internal/domain"
)

var (
	ErrOrderNotFound    = fmt.Errorf("order %w", domain.ErrNotFound)
	ErrPaymentNotFound  = fmt.Errorf("payment %w", domain.ErrNotFound)
	ErrShipmentNotFound = fmt.Errorf("shipment %w", domain.ErrNotFound)
	ErrInvoiceNotFound  = fmt.Errorf("invoice %w", domain.ErrNotFound)

	ErrShipmentExists      = fmt.Errorf("%w: order already has a shipment", domain.ErrConflict)
	ErrOrderNotInvoiceable = fmt.Errorf("%w: order is not eligible for invoicing", domain.ErrValidation)
	ErrOrderNotPayable     = fmt.Errorf("%w: order is not awaiting payment", domain.ErrValidation)
)

// Actor is the caller on whose behalf a service operation runs.
type Actor struct {
	UserID   uint64
	Elevated bool
}

// CanSee reports whether the actor may read data owned by customerID.
func (a Actor) CanSee(customerID uint64) bool {
	return a.Elevated || a.UserID == customerID
}

// EventPublisher accepts lifecycle events for best-effort delivery. A non-nil error means the
// event was not accepted; it never reflects downstream delivery.
type EventPublisher interface {
	Publish(ctx context.Context, name string, payload any) error
}

type InvoiceNotifier interface {
	NotifyInvoice(ctx context.Context, to string, invoice *domain.Invoice) error
}

// WebhookGuard deduplicates concurrent deliveries of the same gateway notification.
type WebhookGuard interface {
	Acquire(ctx context.Context, provider, transactionID string, status domain.PaymentStatus) (bool, error)
	Release(ctx context.Context, provider, transactionID string, status domain.PaymentStatus) error
}

type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepCreated StepStatus = "created"
	StepSkipped StepStatus = "skipped"
	StepError   StepStatus = "error"
)

type StepResult struct {
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

func stepOK() StepResult      { return StepResult{Status: StepOK} }
func stepCreated() StepResult { return StepResult{Status: StepCreated} }
func stepSkipped() StepResult { return StepResult{Status: StepSkipped} }

func stepFailed(err error) StepResult {
	return StepResult{Status: StepError, Error: err.Error()}
}

func (r StepResult) Failed() bool {
	return r.Status == StepError
}

func statusPtr(s string) *string {
	return &s
}

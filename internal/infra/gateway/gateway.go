// Package gateway adapts external payment providers to one contract: create a checkout
// preference, read back the authoritative payment status, and authenticate webhooks.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"commerce-service/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrInvalidSignature means a webhook could not be authenticated and must be rejected.
var ErrInvalidSignature = errors.New("gateway: invalid webhook signature")

type Gateway interface {
	Name() string
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	FetchPaymentStatus(ctx context.Context, externalID string) (*PaymentStatus, error)
	ParseWebhook(req WebhookRequest) (*Notification, error)
}

type PreferenceRequest struct {
	OrderID  uint64
	Amount   decimal.Decimal
	Currency string
}

type RedirectURLs struct {
	Checkout string `json:"checkout"`
	Sandbox  string `json:"sandbox,omitempty"`
}

type Preference struct {
	ExternalID   string
	RedirectURLs RedirectURLs
	Raw          []byte
}

// PaymentStatus is the provider's view of a payment. ExternalReference carries our order id.
type PaymentStatus struct {
	ExternalID        string
	Status            domain.PaymentStatus
	RawStatus         string
	ExternalReference string
	Method            string
	Raw               []byte
}

type WebhookRequest struct {
	Header http.Header
	Query  url.Values
	Body   []byte
}

// Notification identifies the provider payment a webhook refers to. Relevant is false for
// topics that do not concern payments (merchant orders, refunds, test pings).
type Notification struct {
	ExternalID string
	Topic      string
	Relevant   bool
}

type Config struct {
	Currency   string
	SuccessURL string
	FailureURL string
	PendingURL string
	WebhookURL string
}

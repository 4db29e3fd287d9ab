package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"commerce-service/internal/domain"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

const ProviderStripe = "stripe"

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripePaymentIntentAPI interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type Stripe struct {
	sessions      stripeSessionAPI
	intents       stripePaymentIntentAPI
	webhookSecret string
	cfg           Config
}

func NewStripe(apiKey, webhookSecret string, cfg Config) (*Stripe, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("stripe: api key is required")
	}
	sc := client.New(apiKey, nil)
	return newStripe(sc.CheckoutSessions, sc.PaymentIntents, webhookSecret, cfg), nil
}

func newStripe(sessions stripeSessionAPI, intents stripePaymentIntentAPI, webhookSecret string, cfg Config) *Stripe {
	return &Stripe{sessions: sessions, intents: intents, webhookSecret: webhookSecret, cfg: cfg}
}

func (s *Stripe) Name() string { return ProviderStripe }

func (s *Stripe) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	orderRef := strconv.FormatUint(req.OrderID, 10)
	metadata := map[string]string{"order_id": orderRef}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.FailureURL),
		ClientReferenceID: stripe.String(orderRef),
		Metadata:          metadata,
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(currency)),
				UnitAmount: stripe.Int64(req.Amount.Shift(2).Round(0).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("Order #%d", req.OrderID)),
				},
			},
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: metadata},
	}
	params.Context = ctx

	session, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe: create checkout session: %v", domain.ErrGateway, err)
	}
	raw := rawJSON(session.LastResponse, session)
	return &Preference{
		ExternalID:   session.ID,
		RedirectURLs: RedirectURLs{Checkout: session.URL},
		Raw:          raw,
	}, nil
}

func (s *Stripe) FetchPaymentStatus(ctx context.Context, externalID string) (*PaymentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	intent, err := s.intents.Get(externalID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: stripe: get payment intent %s: %v", domain.ErrGateway, externalID, err)
	}
	return &PaymentStatus{
		ExternalID:        intent.ID,
		Status:            NormalizeStripeStatus(string(intent.Status)),
		RawStatus:         string(intent.Status),
		ExternalReference: intent.Metadata["order_id"],
		Method:            domain.MethodStripe,
		Raw:               rawJSON(intent.LastResponse, intent),
	}, nil
}

// ParseWebhook verifies Stripe-Signature when a secret is configured and extracts the
// PaymentIntent id from payment_intent.* and checkout.session.* events.
func (s *Stripe) ParseWebhook(req WebhookRequest) (*Notification, error) {
	var evt stripe.Event
	if s.webhookSecret != "" {
		var err error
		evt, err = webhook.ConstructEventWithOptions(req.Body, req.Header.Get("Stripe-Signature"), s.webhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, ErrInvalidSignature
		}
	} else if err := json.Unmarshal(req.Body, &evt); err != nil {
		return nil, fmt.Errorf("%w: stripe: malformed event: %v", domain.ErrValidation, err)
	}

	topic := string(evt.Type)
	n := &Notification{Topic: topic}
	if evt.Data == nil {
		return n, nil
	}
	switch {
	case strings.HasPrefix(topic, "payment_intent."):
		n.ExternalID, _ = evt.Data.Object["id"].(string)
	case strings.HasPrefix(topic, "checkout.session."):
		n.ExternalID, _ = evt.Data.Object["payment_intent"].(string)
	}
	n.Relevant = n.ExternalID != ""
	return n, nil
}

func rawJSON(resp *stripe.APIResponse, v any) []byte {
	if resp != nil && len(resp.RawJSON) > 0 {
		return resp.RawJSON
	}
	raw, _ := json.Marshal(v)
	return raw
}

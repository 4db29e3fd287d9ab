package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"commerce-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
)

type fakeSessions struct {
	params *stripe.CheckoutSessionParams
	err    error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil
}

type fakeIntents struct {
	intent *stripe.PaymentIntent
}

func (f *fakeIntents) Get(id string, _ *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.intent == nil || f.intent.ID != id {
		return nil, errors.New("no such payment_intent")
	}
	return f.intent, nil
}

func TestStripe_CreatePreference(t *testing.T) {
	sessions := &fakeSessions{}
	s := newStripe(sessions, &fakeIntents{}, "", Config{Currency: "ARS", SuccessURL: "https://shop/ok", FailureURL: "https://shop/ko"})

	pref, err := s.CreatePreference(context.Background(), PreferenceRequest{OrderID: 3, Amount: decimal.RequireFromString("12.345")})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", pref.ExternalID)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", pref.RedirectURLs.Checkout)

	require.Len(t, sessions.params.LineItems, 1)
	assert.Equal(t, int64(1235), *sessions.params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "ars", *sessions.params.LineItems[0].PriceData.Currency)
	assert.Equal(t, "3", sessions.params.PaymentIntentData.Metadata["order_id"])
}

func TestStripe_CreatePreferenceError(t *testing.T) {
	s := newStripe(&fakeSessions{err: errors.New("card_declined")}, &fakeIntents{}, "", Config{})
	_, err := s.CreatePreference(context.Background(), PreferenceRequest{OrderID: 1, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestStripe_FetchPaymentStatus(t *testing.T) {
	intents := &fakeIntents{intent: &stripe.PaymentIntent{
		ID:       "pi_1",
		Status:   stripe.PaymentIntentStatusSucceeded,
		Metadata: map[string]string{"order_id": "3"},
	}}
	s := newStripe(&fakeSessions{}, intents, "", Config{})

	st, err := s.FetchPaymentStatus(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentApproved, st.Status)
	assert.Equal(t, "3", st.ExternalReference)
	assert.Equal(t, domain.MethodStripe, st.Method)

	_, err = s.FetchPaymentStatus(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func signStripe(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestStripe_ParseWebhook(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`)

	s := newStripe(&fakeSessions{}, &fakeIntents{}, "whsec_test", Config{})
	h := http.Header{}
	h.Set("Stripe-Signature", signStripe("whsec_test", payload, time.Now()))

	n, err := s.ParseWebhook(WebhookRequest{Header: h, Body: payload})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", n.ExternalID)
	assert.True(t, n.Relevant)

	bad := http.Header{}
	bad.Set("Stripe-Signature", signStripe("other", payload, time.Now()))
	_, err = s.ParseWebhook(WebhookRequest{Header: bad, Body: payload})
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestStripe_ParseWebhookCheckoutSession(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_intent":"pi_9"}}}`)
	s := newStripe(&fakeSessions{}, &fakeIntents{}, "", Config{})

	n, err := s.ParseWebhook(WebhookRequest{Header: http.Header{}, Body: payload})
	require.NoError(t, err)
	assert.Equal(t, "pi_9", n.ExternalID)

	n, err = s.ParseWebhook(WebhookRequest{Header: http.Header{}, Body: []byte(`{"type":"customer.created","data":{"object":{"id":"cus_1"}}}`)})
	require.NoError(t, err)
	assert.False(t, n.Relevant)
}

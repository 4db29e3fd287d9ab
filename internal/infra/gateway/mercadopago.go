package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"commerce-service/internal/domain"
)

const ProviderMercadoPago = "mercadopago"

type MercadoPago struct {
	baseURL       string
	token         string
	webhookSecret string
	cfg           Config
	httpClient    *http.Client
}

func NewMercadoPago(baseURL, token, webhookSecret string, cfg Config, timeout time.Duration) *MercadoPago {
	return &MercadoPago{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		webhookSecret: webhookSecret,
		cfg:           cfg,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

func (c *MercadoPago) Name() string { return ProviderMercadoPago }

type mpItem struct {
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	CurrencyID string      `json:"currency_id"`
	UnitPrice  json.Number `json:"unit_price"`
}

type mpBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type mpPreferenceRequest struct {
	Items             []mpItem   `json:"items"`
	BackURLs          mpBackURLs `json:"back_urls"`
	AutoReturn        string     `json:"auto_return,omitempty"`
	NotificationURL   string     `json:"notification_url,omitempty"`
	ExternalReference string     `json:"external_reference"`
}

type mpPreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type mpPayment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference"`
	PaymentMethodID   string      `json:"payment_method_id"`
	PaymentTypeID     string      `json:"payment_type_id"`
}

func (c *MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	currency := req.Currency
	if currency == "" {
		currency = c.cfg.Currency
	}
	body := mpPreferenceRequest{
		Items: []mpItem{{
			Title:      fmt.Sprintf("Order #%d", req.OrderID),
			Quantity:   1,
			CurrencyID: currency,
			UnitPrice:  json.Number(req.Amount.StringFixed(2)),
		}},
		BackURLs: mpBackURLs{
			Success: c.cfg.SuccessURL,
			Failure: c.cfg.FailureURL,
			Pending: c.cfg.PendingURL,
		},
		NotificationURL:   c.cfg.WebhookURL,
		ExternalReference: strconv.FormatUint(req.OrderID, 10),
	}
	if c.cfg.SuccessURL != "" {
		body.AutoReturn = "approved"
	}

	raw, err := c.do(ctx, http.MethodPost, "/checkout/preferences", body)
	if err != nil {
		return nil, err
	}
	var resp mpPreferenceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: mercadopago: decode preference: %v", domain.ErrGateway, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: mercadopago: preference without id", domain.ErrGateway)
	}
	return &Preference{
		ExternalID:   resp.ID,
		RedirectURLs: RedirectURLs{Checkout: resp.InitPoint, Sandbox: resp.SandboxInitPoint},
		Raw:          raw,
	}, nil
}

func (c *MercadoPago) FetchPaymentStatus(ctx context.Context, externalID string) (*PaymentStatus, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+externalID, nil)
	if err != nil {
		return nil, err
	}
	var p mpPayment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: mercadopago: decode payment: %v", domain.ErrGateway, err)
	}
	id := p.ID.String()
	if id == "" {
		id = externalID
	}
	method := p.PaymentTypeID
	if method == "" {
		method = p.PaymentMethodID
	}
	return &PaymentStatus{
		ExternalID:        id,
		Status:            NormalizeMercadoPagoStatus(p.Status),
		RawStatus:         p.Status,
		ExternalReference: p.ExternalReference,
		Method:            mercadoPagoMethod(method),
		Raw:               raw,
	}, nil
}

func mercadoPagoMethod(paymentType string) string {
	switch paymentType {
	case "credit_card", "debit_card", "prepaid_card":
		return domain.MethodCard
	case "bank_transfer":
		return domain.MethodTransfer
	case "ticket", "atm":
		return domain.MethodCash
	default:
		return domain.MethodMercadoPago
	}
}

func (c *MercadoPago) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: mercadopago: encode request: %v", domain.ErrGateway, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: mercadopago: %v", domain.ErrGateway, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: mercadopago %s %s: %v", domain.ErrGateway, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: mercadopago: read body: %v", domain.ErrGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: mercadopago %s %s returned status %d", domain.ErrGateway, method, path, resp.StatusCode)
	}
	return raw, nil
}

type mpNotification struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID mpID `json:"id"`
	} `json:"data"`
	ID mpID `json:"id"`
}

// mpID accepts ids sent either as JSON numbers or strings.
type mpID string

func (id *mpID) UnmarshalJSON(b []byte) error {
	if s, err := strconv.Unquote(string(b)); err == nil {
		*id = mpID(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	*id = mpID(b)
	return nil
}

func (id mpID) String() string { return string(id) }

// ParseWebhook accepts both the JSON body form ({"type":"payment","data":{"id":...}}) and the
// query-string form (?type=payment&data.id=... or legacy ?topic=payment&id=...).
func (c *MercadoPago) ParseWebhook(req WebhookRequest) (*Notification, error) {
	var n mpNotification
	if len(bytes.TrimSpace(req.Body)) > 0 {
		if err := json.Unmarshal(req.Body, &n); err != nil {
			return nil, fmt.Errorf("%w: mercadopago: malformed notification: %v", domain.ErrValidation, err)
		}
	}

	topic := firstNonEmpty(n.Type, n.Topic, req.Query.Get("type"), req.Query.Get("topic"))
	dataID := firstNonEmpty(req.Query.Get("data.id"), n.Data.ID.String())
	id := firstNonEmpty(dataID, req.Query.Get("id"), n.ID.String())

	if c.webhookSecret != "" {
		if err := c.verifySignature(req.Header, dataID); err != nil {
			return nil, err
		}
	}

	if id == "" {
		return nil, fmt.Errorf("%w: mercadopago: notification without payment id", domain.ErrValidation)
	}
	return &Notification{
		ExternalID: id,
		Topic:      topic,
		Relevant:   topic == "" || topic == "payment",
	}, nil
}

// verifySignature checks x-signature ("ts=<unix>,v1=<hex hmac>") over the manifest
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func (c *MercadoPago) verifySignature(h http.Header, dataID string) error {
	var ts, v1 string
	for _, part := range strings.Split(h.Get("x-signature"), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return ErrInvalidSignature
	}
	expected := mercadoPagoSignature(c.webhookSecret, strings.ToLower(dataID), h.Get("x-request-id"), ts)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return ErrInvalidSignature
	}
	return nil
}

func mercadoPagoSignature(secret, dataID, requestID, ts string) string {
	var manifest strings.Builder
	if dataID != "" {
		manifest.WriteString("id:" + dataID + ";")
	}
	if requestID != "" {
		manifest.WriteString("request-id:" + requestID + ";")
	}
	manifest.WriteString("ts:" + ts + ";")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

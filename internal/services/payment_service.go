package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/gateway"
	"commerce-service/internal/observability"
	"commerce-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const DefaultGatewayTimeout = 10 * time.Second

type PaymentServiceDeps struct {
	Store     repository.Store
	Gateway   gateway.Gateway
	Shipments *ShipmentService
	Invoices  *InvoiceService
	Events    EventPublisher
	Guard     WebhookGuard
	Logger    *zap.Logger
	Clock     func() time.Time

	GatewayTimeout time.Duration
}

// PaymentService drives the order lifecycle from payment state: it records intents, applies
// gateway or admin status changes, and runs the approval cascade.
type PaymentService struct {
	store     repository.Store
	gateway   gateway.Gateway
	shipments *ShipmentService
	invoices  *InvoiceService
	events    EventPublisher
	guard     WebhookGuard
	log       *zap.Logger
	now       func() time.Time
	timeout   time.Duration
}

func NewPaymentService(deps PaymentServiceDeps) (*PaymentService, error) {
	if deps.Store == nil {
		return nil, errors.New("payment service: store is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("payment service: gateway is required")
	}
	if deps.Shipments == nil || deps.Invoices == nil {
		return nil, errors.New("payment service: shipment and invoice services are required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	timeout := deps.GatewayTimeout
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	return &PaymentService{
		store:     deps.Store,
		gateway:   deps.Gateway,
		shipments: deps.Shipments,
		invoices:  deps.Invoices,
		events:    deps.Events,
		guard:     deps.Guard,
		log:       log,
		now:       clock,
		timeout:   timeout,
	}, nil
}

type RecordPaymentIntentInput struct {
	OrderID uint64
	// Amount defaults to the order total when zero.
	Amount decimal.Decimal
	Actor  Actor
}

type PaymentIntent struct {
	PaymentID    uint64
	ExternalID   string
	RedirectURLs gateway.RedirectURLs
}

// RecordPaymentIntent creates the provider preference first and only then writes the pending
// payment, so a gateway failure leaves no row behind.
func (u *PaymentService) RecordPaymentIntent(ctx context.Context, in RecordPaymentIntentInput) (*PaymentIntent, error) {
	ctx, span := observability.Tracer().Start(ctx, "PaymentService.RecordPaymentIntent")
	defer span.End()

	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", domain.ErrValidation)
	}
	order, err := u.store.Orders().FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !in.Actor.CanSee(order.CustomerID) {
		return nil, fmt.Errorf("%w: order %d belongs to another customer", domain.ErrForbidden, order.ID)
	}
	if order.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w (status %s)", ErrOrderNotPayable, order.Status)
	}
	amount := in.Amount
	if amount.IsZero() {
		amount = order.Total
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}

	gctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	pref, err := u.gateway.CreatePreference(gctx, gateway.PreferenceRequest{OrderID: order.ID, Amount: amount})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create preference")
		return nil, asGatewayError(err)
	}

	payment := &domain.Payment{
		OrderID:       order.ID,
		Provider:      u.gateway.Name(),
		Method:        domain.NormalizePaymentMethod(u.gateway.Name()),
		Status:        domain.PaymentPending,
		TransactionID: pref.ExternalID,
		Amount:        amount.Round(2),
		RawPayload:    jsonPayload(pref.Raw),
	}
	if err := u.store.Payments().Create(ctx, payment); err != nil {
		return nil, err
	}

	u.log.Info("payment intent recorded",
		zap.Uint64("payment_id", payment.ID),
		zap.Uint64("order_id", order.ID),
		zap.String("provider", payment.Provider),
		zap.String("transaction_id", payment.TransactionID),
	)
	u.publish(ctx, domain.EventPaymentInitiated, paymentEvent(payment))
	return &PaymentIntent{PaymentID: payment.ID, ExternalID: pref.ExternalID, RedirectURLs: pref.RedirectURLs}, nil
}

// ApplyPaymentStatusInput selects the payment by PaymentID, else by the latest payment of
// OrderID, else by TransactionID.
type ApplyPaymentStatusInput struct {
	PaymentID     uint64
	OrderID       uint64
	TransactionID string

	Status  domain.PaymentStatus
	ActorID *uint64
	Reason  string

	// Gateway-reported data; empty values keep what is stored.
	ExternalID string
	Method     string
	RawPayload []byte
}

// CascadeResult reports each sub-step of ApplyPaymentStatus. Step failures after the payment
// update are reported here instead of being returned as errors.
type CascadeResult struct {
	PaymentID      uint64               `json:"payment_id"`
	OrderID        uint64               `json:"order_id"`
	Status         domain.PaymentStatus `json:"status"`
	PreviousStatus domain.PaymentStatus `json:"previous_status"`
	OrderStatus    domain.OrderStatus   `json:"order_status"`
	ShipmentID     *uint64              `json:"shipment_id,omitempty"`
	InvoiceID      *uint64              `json:"invoice_id,omitempty"`

	Order    StepResult `json:"order"`
	Shipment StepResult `json:"shipment"`
	Invoice  StepResult `json:"invoice"`
	Email    StepResult `json:"email"`
	Event    StepResult `json:"event"`
}

// FailedSteps lists the names of the sub-steps that reported an error.
func (r *CascadeResult) FailedSteps() []string {
	var out []string
	for _, s := range []struct {
		name string
		res  StepResult
	}{
		{"order", r.Order},
		{"shipment", r.Shipment},
		{"invoice", r.Invoice},
		{"email", r.Email},
		{"event", r.Event},
	} {
		if s.res.Failed() {
			out = append(out, s.name)
		}
	}
	return out
}

// ApplyPaymentStatus updates the payment and, on approval, marks the order paid and ensures
// exactly one shipment and one invoice exist. It is safe to call repeatedly with the same status.
func (u *PaymentService) ApplyPaymentStatus(ctx context.Context, in ApplyPaymentStatusInput) (*CascadeResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "PaymentService.ApplyPaymentStatus")
	defer span.End()
	span.SetAttributes(attribute.String("payment.status", string(in.Status)))

	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, in.Status)
	}
	if in.PaymentID == 0 && in.OrderID == 0 && in.TransactionID == "" {
		return nil, fmt.Errorf("%w: payment id, order id or transaction id is required", domain.ErrValidation)
	}

	res := &CascadeResult{
		Status:   in.Status,
		Order:    stepSkipped(),
		Shipment: stepSkipped(),
		Invoice:  stepSkipped(),
		Email:    stepSkipped(),
		Event:    stepSkipped(),
	}
	var order *domain.Order
	var payment *domain.Payment
	var changed, transitioned, fulfill bool

	err := u.store.Atomic(ctx, func(tx repository.Store) error {
		p, err := u.lockPayment(ctx, tx, in)
		if err != nil {
			return err
		}
		o, err := tx.Orders().FindByIDForUpdate(ctx, p.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}

		previous := p.Status
		changed = previous != in.Status
		p.Status = in.Status
		if in.ExternalID != "" {
			p.TransactionID = in.ExternalID
		}
		if in.Method != "" {
			p.Method = domain.NormalizePaymentMethod(in.Method)
		}
		if len(in.RawPayload) > 0 {
			p.RawPayload = jsonPayload(in.RawPayload)
		}
		if in.Status == domain.PaymentApproved && p.PaidAt == nil {
			now := u.now()
			p.PaidAt = &now
		}
		if err := tx.Payments().Update(ctx, p); err != nil {
			return err
		}
		if changed {
			if err := tx.History().Append(ctx, &domain.HistoryEntry{
				OrderID:        o.ID,
				PreviousStatus: statusPtr(previous.HistoryLabel()),
				NewStatus:      in.Status.HistoryLabel(),
				ActorID:        in.ActorID,
				Comment:        in.Reason,
			}); err != nil {
				return err
			}
		}

		res.PreviousStatus = previous
		if in.Status == domain.PaymentApproved {
			switch {
			case o.Status == domain.StatusPending:
				if err := tx.Orders().UpdateStatus(ctx, o.ID, domain.StatusPaid); err != nil {
					return err
				}
				if err := tx.History().Append(ctx, &domain.HistoryEntry{
					OrderID:        o.ID,
					PreviousStatus: statusPtr(string(domain.StatusPending)),
					NewStatus:      string(domain.StatusPaid),
					ActorID:        in.ActorID,
					Comment:        "payment approved",
				}); err != nil {
					return err
				}
				o.Status = domain.StatusPaid
				transitioned, fulfill = true, true
				res.Order = stepOK()
			case o.Status.Invoiceable():
				fulfill = true
			default:
				res.Order = stepFailed(fmt.Errorf("order is %s; fulfillment skipped", o.Status))
			}
		}
		order, payment = o, p
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply payment status")
		return nil, err
	}

	res.PaymentID = payment.ID
	res.OrderID = order.ID
	res.OrderStatus = order.Status
	if changed {
		observability.RecordPaymentStatus(string(in.Status))
	}

	if fulfill {
		u.fulfill(ctx, order, res)
	}

	if changed {
		res.Event = u.publish(ctx, domain.PaymentEventName(in.Status), paymentEvent(payment))
	}
	if transitioned {
		if step := u.publish(ctx, domain.EventOrderStatusUpdated, domain.OrderStatusUpdatedEvent{
			OrderID:        order.ID,
			PreviousStatus: domain.StatusPending,
			NewStatus:      domain.StatusPaid,
			ActorID:        in.ActorID,
		}); step.Failed() {
			res.Event = step
		}
	}

	failed := res.FailedSteps()
	for _, step := range failed {
		observability.RecordCascadeFailure(step)
	}
	fields := []zap.Field{
		zap.Uint64("payment_id", res.PaymentID),
		zap.Uint64("order_id", res.OrderID),
		zap.String("from", string(res.PreviousStatus)),
		zap.String("to", string(in.Status)),
		zap.Bool("changed", changed),
	}
	if len(failed) > 0 {
		u.log.Warn("payment status applied with failed steps", append(fields, zap.Strings("failed_steps", failed))...)
	} else {
		u.log.Info("payment status applied", fields...)
	}
	return res, nil
}

// fulfill runs the shipment and invoice sub-steps, each in its own unit of work so neither
// can undo the committed payment update.
func (u *PaymentService) fulfill(ctx context.Context, order *domain.Order, res *CascadeResult) {
	shipment, created, err := u.shipments.EnsureShipment(ctx, order)
	switch {
	case err != nil:
		u.log.Error("shipment step failed", zap.Uint64("order_id", order.ID), zap.Error(err))
		res.Shipment = stepFailed(err)
	case created:
		res.Shipment = stepCreated()
	default:
		res.Shipment = stepOK()
	}
	if shipment != nil {
		res.ShipmentID = &shipment.ID
	}

	issued, err := u.invoices.IssueIfAbsent(ctx, order.ID)
	if err != nil {
		u.log.Error("invoice step failed", zap.Uint64("order_id", order.ID), zap.Error(err))
		res.Invoice = stepFailed(err)
		return
	}
	res.InvoiceID = &issued.Invoice.ID
	res.Email = issued.Email
	if issued.Created {
		res.Invoice = stepCreated()
	} else {
		res.Invoice = stepOK()
	}
}

func (u *PaymentService) lockPayment(ctx context.Context, tx repository.Store, in ApplyPaymentStatusInput) (*domain.Payment, error) {
	var p *domain.Payment
	var err error
	switch {
	case in.PaymentID != 0:
		p, err = tx.Payments().FindByIDForUpdate(ctx, in.PaymentID)
	case in.OrderID != 0:
		p, err = tx.Payments().FindLatestByOrderForUpdate(ctx, in.OrderID)
	default:
		p, err = tx.Payments().FindByTransactionIDForUpdate(ctx, in.TransactionID)
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

type WebhookOutcome struct {
	Provider   string
	ExternalID string
	Ignored    bool
	Duplicate  bool
	Result     *CascadeResult
}

// HandleWebhook authenticates a provider notification, asks the provider for the payment's
// real status and applies it. gateway.ErrInvalidSignature is returned untouched.
func (u *PaymentService) HandleWebhook(ctx context.Context, req gateway.WebhookRequest) (*WebhookOutcome, error) {
	ctx, span := observability.Tracer().Start(ctx, "PaymentService.HandleWebhook")
	defer span.End()

	provider := u.gateway.Name()
	n, err := u.gateway.ParseWebhook(req)
	if err != nil {
		return nil, err
	}
	out := &WebhookOutcome{Provider: provider, ExternalID: n.ExternalID}
	if !n.Relevant {
		out.Ignored = true
		return out, nil
	}

	gctx, cancel := context.WithTimeout(ctx, u.timeout)
	st, err := u.gateway.FetchPaymentStatus(gctx, n.ExternalID)
	cancel()
	if err != nil {
		span.RecordError(err)
		return nil, asGatewayError(err)
	}

	if u.guard != nil {
		ok, gerr := u.guard.Acquire(ctx, provider, st.ExternalID, st.Status)
		switch {
		case gerr != nil:
			u.log.Warn("webhook guard unavailable", zap.Error(gerr))
		case !ok:
			out.Duplicate = true
			return out, nil
		}
	}

	in := ApplyPaymentStatusInput{
		Status:     st.Status,
		Reason:     fmt.Sprintf("%s webhook: %s", provider, st.RawStatus),
		ExternalID: st.ExternalID,
		Method:     st.Method,
		RawPayload: st.Raw,
	}
	if orderID, perr := strconv.ParseUint(st.ExternalReference, 10, 64); perr == nil && orderID > 0 {
		in.OrderID = orderID
	} else {
		in.TransactionID = st.ExternalID
	}

	// A delivery that did not finish the cascade gives the key back so a redelivery can repair it.
	res, err := u.ApplyPaymentStatus(ctx, in)
	if err != nil || len(res.FailedSteps()) > 0 {
		u.releaseGuard(ctx, provider, st.ExternalID, st.Status)
	}
	if err != nil {
		return nil, err
	}
	out.Result = res
	return out, nil
}

func (u *PaymentService) releaseGuard(ctx context.Context, provider, externalID string, status domain.PaymentStatus) {
	if u.guard == nil {
		return
	}
	if err := u.guard.Release(ctx, provider, externalID, status); err != nil {
		u.log.Warn("failed to release webhook guard", zap.Error(err))
	}
}

// GetPayment returns a payment; customers only see payments of their own orders.
func (u *PaymentService) GetPayment(ctx context.Context, id uint64, actor Actor) (*domain.Payment, error) {
	p, err := u.store.Payments().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	if !actor.Elevated {
		o, err := u.store.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return nil, err
		}
		if o == nil || o.CustomerID != actor.UserID {
			return nil, fmt.Errorf("%w: payment %d belongs to another customer", domain.ErrForbidden, id)
		}
	}
	return p, nil
}

func (u *PaymentService) ListPayments(ctx context.Context, status *domain.PaymentStatus) ([]domain.Payment, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", domain.ErrValidation, *status)
	}
	return u.store.Payments().List(ctx, status)
}

func (u *PaymentService) publish(ctx context.Context, name string, payload any) StepResult {
	if u.events == nil {
		return stepSkipped()
	}
	if err := u.events.Publish(ctx, name, payload); err != nil {
		u.log.Warn("failed to publish event", zap.String("event", name), zap.Error(err))
		return stepFailed(err)
	}
	return stepOK()
}

func paymentEvent(p *domain.Payment) domain.PaymentEvent {
	return domain.PaymentEvent{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Status:        p.Status,
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
	}
}

func jsonPayload(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	return datatypes.JSON(raw)
}

func asGatewayError(err error) error {
	if errors.Is(err, domain.ErrGateway) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrGateway, err)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/observability"
	"commerce-service/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errInvoiceRace = errors.New("invoice created concurrently")

type InvoiceServiceDeps struct {
	Store    repository.Store
	Notifier InvoiceNotifier
	Events   EventPublisher
	Logger   *zap.Logger
	Clock    func() time.Time

	TaxRate     decimal.Decimal
	InvoiceType string
	Prefix      string
}

type InvoiceService struct {
	store    repository.Store
	notifier InvoiceNotifier
	events   EventPublisher
	log      *zap.Logger
	now      func() time.Time

	taxRate     decimal.Decimal
	invoiceType string
	prefix      string
}

func NewInvoiceService(deps InvoiceServiceDeps) (*InvoiceService, error) {
	if deps.Store == nil {
		return nil, errors.New("invoice service: store is required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	invoiceType := deps.InvoiceType
	if invoiceType == "" {
		invoiceType = domain.DefaultInvoiceType
	}
	prefix := deps.Prefix
	if prefix == "" {
		prefix = "FV"
	}
	return &InvoiceService{
		store:       deps.Store,
		notifier:    deps.Notifier,
		events:      deps.Events,
		log:         log,
		now:         clock,
		taxRate:     deps.TaxRate,
		invoiceType: invoiceType,
		prefix:      prefix,
	}, nil
}

type IssueResult struct {
	Invoice *domain.Invoice
	Created bool
	Email   StepResult
}

// IssueIfAbsent returns the order's invoice, creating it first when missing. The number is
// drawn from the yearly sequence in the same transaction as the insert, so a lost race on
// invoices.order_id also rolls back the sequence increment.
func (u *InvoiceService) IssueIfAbsent(ctx context.Context, orderID uint64) (*IssueResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "InvoiceService.IssueIfAbsent")
	defer span.End()

	existing, err := u.store.Invoices().FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &IssueResult{Invoice: existing, Email: stepSkipped()}, nil
	}

	var inv *domain.Invoice
	var recipient string
	err = u.store.Atomic(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		recipient = order.CustomerEmail

		method := domain.MethodMercadoPago
		payment, err := tx.Payments().FindLatestByOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if payment != nil && payment.Method != "" {
			method = payment.Method
		}

		now := u.now()
		seq, err := tx.Sequences().Next(ctx, fmt.Sprintf("%s-%d", u.prefix, now.Year()))
		if err != nil {
			return err
		}

		tax, total := domain.ComputeTax(order.Subtotal, u.taxRate)
		inv = &domain.Invoice{
			OrderID:          orderID,
			Number:           domain.FormatInvoiceNumber(u.prefix, now.Year(), seq),
			Type:             u.invoiceType,
			Subtotal:         order.Subtotal,
			TaxAmount:        tax,
			Total:            total,
			PaymentMethod:    domain.NormalizePaymentMethod(method),
			VerificationHash: domain.VerificationHash(orderID, total),
			IssuedAt:         now,
		}
		if err := tx.Invoices().Create(ctx, inv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errInvoiceRace
			}
			return err
		}
		return nil
	})
	if errors.Is(err, errInvoiceRace) {
		existing, ferr := u.store.Invoices().FindByOrderID(ctx, orderID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, err
		}
		return &IssueResult{Invoice: existing, Email: stepSkipped()}, nil
	}
	if err != nil {
		return nil, err
	}

	u.log.Info("invoice issued",
		zap.Uint64("invoice_id", inv.ID),
		zap.Uint64("order_id", orderID),
		zap.String("number", inv.Number),
		zap.String("total", inv.Total.StringFixed(2)),
	)
	res := &IssueResult{Invoice: inv, Created: true, Email: u.notify(ctx, recipient, inv)}
	if u.events != nil {
		if err := u.events.Publish(ctx, domain.EventInvoiceIssued, domain.InvoiceIssuedEvent{
			InvoiceID: inv.ID,
			OrderID:   orderID,
			Number:    inv.Number,
			Total:     inv.Total,
		}); err != nil {
			u.log.Warn("failed to publish event", zap.String("event", domain.EventInvoiceIssued), zap.Error(err))
		}
	}
	return res, nil
}

func (u *InvoiceService) notify(ctx context.Context, to string, inv *domain.Invoice) StepResult {
	if u.notifier == nil || to == "" {
		return stepSkipped()
	}
	if err := u.notifier.NotifyInvoice(ctx, to, inv); err != nil {
		u.log.Error("invoice email not queued", zap.String("number", inv.Number), zap.Error(err))
		return stepFailed(err)
	}
	return stepOK()
}

// Issue is the admin path: the order must exist and be paid, shipped or delivered.
func (u *InvoiceService) Issue(ctx context.Context, orderID uint64) (*IssueResult, error) {
	order, err := u.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.Status.Invoiceable() {
		return nil, fmt.Errorf("%w (status %s)", ErrOrderNotInvoiceable, order.Status)
	}
	return u.IssueIfAbsent(ctx, orderID)
}

func (u *InvoiceService) GetInvoice(ctx context.Context, id uint64) (*domain.Invoice, error) {
	inv, err := u.store.Invoices().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

func (u *InvoiceService) GetInvoiceByOrder(ctx context.Context, orderID uint64) (*domain.Invoice, error) {
	inv, err := u.store.Invoices().FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

package mailer

import (
	"context"
	"errors"
	"fmt"

	"commerce-service/internal/dispatch"
	"commerce-service/internal/domain"

	"go.uber.org/zap"
)

var ErrNoRecipient = errors.New("mailer: no recipient address")

type Enqueuer interface {
	Enqueue(job dispatch.Job) error
}

// InvoiceNotifier queues invoice emails; delivery retries happen on the dispatch queue.
type InvoiceNotifier struct {
	sender Sender
	queue  Enqueuer
	store  string
	log    *zap.Logger
}

func NewInvoiceNotifier(sender Sender, queue Enqueuer, storeName string, log *zap.Logger) *InvoiceNotifier {
	return &InvoiceNotifier{sender: sender, queue: queue, store: storeName, log: log}
}

// NotifyInvoice returns an error only when the email could not be queued.
func (n *InvoiceNotifier) NotifyInvoice(_ context.Context, to string, inv *domain.Invoice) error {
	if to == "" {
		return ErrNoRecipient
	}
	msg := InvoiceMessage(n.store, to, inv)
	return n.queue.Enqueue(dispatch.Job{
		Name: "invoice-email",
		Run: func(ctx context.Context) error {
			return n.sender.Send(ctx, msg)
		},
		OnFailure: func(err error) {
			n.log.Error("invoice email not delivered",
				zap.Uint64("invoice_id", inv.ID),
				zap.String("number", inv.Number),
				zap.Error(err),
			)
		},
	})
}

func InvoiceMessage(storeName, to string, inv *domain.Invoice) Message {
	subject := fmt.Sprintf("Invoice %s", inv.Number)
	if storeName != "" {
		subject += " - " + storeName
	}
	return Message{
		To:      to,
		Subject: subject,
		Body: fmt.Sprintf("Hello! Here is your invoice %s (type %s) for a total of $%s.\nVerification code: %s\n",
			inv.Number, inv.Type, inv.Total.StringFixed(2), inv.VerificationHash),
	}
}

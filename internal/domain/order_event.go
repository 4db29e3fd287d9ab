package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusUpdated = "OrderStatusUpdated"
	EventPaymentInitiated   = "PaymentInitiated"
	EventPaymentApproved    = "PaymentApproved"
	EventPaymentFailed      = "PaymentFailed"
	EventShipmentCreated    = "ShipmentCreated"
	EventShipmentDelivered  = "ShipmentDelivered"
	EventInvoiceIssued      = "InvoiceIssued"

	EventVersion = "v1"
)

// Event is the append-only record handed to the event sink.
type Event struct {
	ID        string    `json:"id" firestore:"id"`
	Name      string    `json:"event" firestore:"event"`
	Version   string    `json:"version" firestore:"version"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
	Origin    string    `json:"origin" firestore:"origin"`
	Payload   any       `json:"payload" firestore:"payload"`
}

type OrderCreatedEvent struct {
	OrderID    uint64          `json:"order_id"`
	CustomerID uint64          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Lines      int             `json:"lines"`
	CreatedAt  time.Time       `json:"created_at"`
}

type OrderStatusUpdatedEvent struct {
	OrderID        uint64      `json:"order_id"`
	PreviousStatus OrderStatus `json:"previous_status"`
	NewStatus      OrderStatus `json:"new_status"`
	ActorID        *uint64     `json:"actor_id,omitempty"`
}

// PaymentEvent backs PaymentInitiated, PaymentApproved and PaymentFailed.
type PaymentEvent struct {
	PaymentID     uint64          `json:"payment_id"`
	OrderID       uint64          `json:"order_id"`
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

type ShipmentEvent struct {
	ShipmentID uint64         `json:"shipment_id"`
	OrderID    uint64         `json:"order_id"`
	Status     ShipmentStatus `json:"status"`
}

type InvoiceIssuedEvent struct {
	InvoiceID uint64          `json:"invoice_id"`
	OrderID   uint64          `json:"order_id"`
	Number    string          `json:"number"`
	Total     decimal.Decimal `json:"total"`
}

// PaymentEventName picks the lifecycle event for a payment status.
func PaymentEventName(s PaymentStatus) string {
	switch s {
	case PaymentApproved:
		return EventPaymentApproved
	case PaymentRejected:
		return EventPaymentFailed
	default:
		return EventPaymentInitiated
	}
}

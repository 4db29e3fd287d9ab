package repository

import (
	"context"
	"errors"

	"commerce-service/internal/domain"
)

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("repository: duplicate key")

// Finders return (nil, nil) when the row does not exist.

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error)
	List(ctx context.Context, customerID *uint64) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) error
}

type CatalogRepository interface {
	MissingProducts(ctx context.Context, ids []uint64) ([]uint64, error)
	MissingVariants(ctx context.Context, ids []uint64) ([]uint64, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByOrder(ctx context.Context, orderID uint64) ([]domain.HistoryEntry, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uint64) (*domain.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Payment, error)
	FindLatestByOrderForUpdate(ctx context.Context, orderID uint64) (*domain.Payment, error)
	FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
	List(ctx context.Context, status *domain.PaymentStatus) ([]domain.Payment, error)
}

type ShipmentRepository interface {
	// Create returns ErrDuplicate when the order already has a shipment.
	Create(ctx context.Context, shipment *domain.Shipment) error
	FindByID(ctx context.Context, id uint64) (*domain.Shipment, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Shipment, error)
	FindByOrderID(ctx context.Context, orderID uint64) (*domain.Shipment, error)
	List(ctx context.Context, customerID *uint64) ([]domain.Shipment, error)
	Update(ctx context.Context, shipment *domain.Shipment) error
}

type InvoiceRepository interface {
	// Create returns ErrDuplicate when the order already has an invoice.
	Create(ctx context.Context, invoice *domain.Invoice) error
	FindByID(ctx context.Context, id uint64) (*domain.Invoice, error)
	FindByOrderID(ctx context.Context, orderID uint64) (*domain.Invoice, error)
}

type SequenceRepository interface {
	// Next increments and returns the counter for scope. Must run inside Atomic.
	Next(ctx context.Context, scope string) (int64, error)
}

// Store hands out repositories bound to one connection or transaction.
type Store interface {
	Orders() OrderRepository
	Catalog() CatalogRepository
	History() HistoryRepository
	Payments() PaymentRepository
	Shipments() ShipmentRepository
	Invoices() InvoiceRepository
	Sequences() SequenceRepository

	// Atomic runs fn in a single transaction; fn must only use the Store it is given.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

package mysql

import (
	"context"
	"errors"
	"strings"

	"commerce-service/internal/repository"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlDuplicateEntry = 1062

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) repository.Store {
	return &store{db: db}
}

func (s *store) Orders() repository.OrderRepository { return &orderRepo{db: s.db} }
func (s *store) Catalog() repository.CatalogRepository { return &catalogRepo{db: s.db} }
func (s *store) History() repository.HistoryRepository { return &historyRepo{db: s.db} }
func (s *store) Payments() repository.PaymentRepository { return &paymentRepo{db: s.db} }
func (s *store) Shipments() repository.ShipmentRepository { return &shipmentRepo{db: s.db} }
func (s *store) Invoices() repository.InvoiceRepository { return &invoiceRepo{db: s.db} }
func (s *store) Sequences() repository.SequenceRepository { return &sequenceRepo{db: s.db} }

func (s *store) Atomic(ctx context.Context, fn func(repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

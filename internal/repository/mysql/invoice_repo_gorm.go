package mysql

import (
	"context"
	"fmt"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepo struct {
	db *gorm.DB
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: invoice for order %d", repository.ErrDuplicate, invoice.OrderID)
		}
		return err
	}
	return nil
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uint64) (*domain.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *invoiceRepo) FindByOrderID(ctx context.Context, orderID uint64) (*domain.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Where("order_id = ?", orderID))
}

func (r *invoiceRepo) first(q *gorm.DB) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := q.Take(&inv).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

type sequenceRepo struct {
	db *gorm.DB
}

// Next seeds the scope row if needed, then increments it under a row lock so concurrent
// issuers serialize on the same counter.
func (r *sequenceRepo) Next(ctx context.Context, scope string) (int64, error) {
	db := r.db.WithContext(ctx)
	seed := domain.InvoiceSequence{Scope: scope, Value: 0}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return 0, err
	}

	var seq domain.InvoiceSequence
	if err := forUpdate(db).Where("scope = ?", scope).Take(&seq).Error; err != nil {
		return 0, err
	}
	seq.Value++
	if err := db.Model(&domain.InvoiceSequence{}).Where("scope = ?", scope).Update("value", seq.Value).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

package mysql

import (
	"context"

	"commerce-service/internal/domain"

	"gorm.io/gorm"
)

type paymentRepo struct {
	db *gorm.DB
}

func (r *paymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uint64) (*domain.Payment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *paymentRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Payment, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

// FindLatestByOrderForUpdate locks the most recent payment attempt of an order.
func (r *paymentRepo) FindLatestByOrderForUpdate(ctx context.Context, orderID uint64) (*domain.Payment, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("order_id = ?", orderID).Order("id DESC"))
}

func (r *paymentRepo) FindByTransactionIDForUpdate(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("transaction_id = ?", transactionID).Order("id DESC"))
}

func (r *paymentRepo) first(q *gorm.DB) (*domain.Payment, error) {
	var p domain.Payment
	if err := q.Take(&p).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepo) List(ctx context.Context, status *domain.PaymentStatus) ([]domain.Payment, error) {
	var out []domain.Payment
	q := r.db.WithContext(ctx).Order("id DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

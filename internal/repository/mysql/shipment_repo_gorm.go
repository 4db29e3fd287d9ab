package mysql

import (
	"context"
	"fmt"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"gorm.io/gorm"
)

type shipmentRepo struct {
	db *gorm.DB
}

func (r *shipmentRepo) Create(ctx context.Context, shipment *domain.Shipment) error {
	if err := r.db.WithContext(ctx).Create(shipment).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: shipment for order %d", repository.ErrDuplicate, shipment.OrderID)
		}
		return err
	}
	return nil
}

func (r *shipmentRepo) FindByID(ctx context.Context, id uint64) (*domain.Shipment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByIDForUpdate locks the shipment row until the surrounding transaction ends.
func (r *shipmentRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Shipment, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("id = ?", id))
}

func (r *shipmentRepo) FindByOrderID(ctx context.Context, orderID uint64) (*domain.Shipment, error) {
	return r.first(r.db.WithContext(ctx).Where("order_id = ?", orderID))
}

func (r *shipmentRepo) first(q *gorm.DB) (*domain.Shipment, error) {
	var s domain.Shipment
	if err := q.Take(&s).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// List returns all shipments, or only those of the customer's orders when customerID is set.
func (r *shipmentRepo) List(ctx context.Context, customerID *uint64) ([]domain.Shipment, error) {
	var out []domain.Shipment
	q := r.db.WithContext(ctx).Model(&domain.Shipment{}).Order("shipments.id DESC")
	if customerID != nil {
		q = q.Select("shipments.*").
			Joins("JOIN orders ON orders.id = shipments.order_id").
			Where("orders.customer_id = ?", *customerID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shipmentRepo) Update(ctx context.Context, shipment *domain.Shipment) error {
	return r.db.WithContext(ctx).Save(shipment).Error
}

package mysql

import (
	"context"
	"fmt"

	"commerce-service/internal/domain"

	"gorm.io/gorm"
)

type orderRepo struct {
	db *gorm.DB
}

// Create inserts the order and its lines; gorm saves the Lines association in the same statement batch.
func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	result := r.db.WithContext(ctx).Create(order)
	if result.Error != nil {
		return result.Error
	}
	if order.ID == 0 {
		return fmt.Errorf("order insert affected %d rows but returned no id", result.RowsAffected)
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&o, id).Error
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := forUpdate(r.db.WithContext(ctx)).First(&o, id).Error; err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, customerID *uint64) ([]domain.Order, error) {
	var out []domain.Order
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if customerID != nil {
		q = q.Where("customer_id = ?", *customerID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

type catalogRepo struct {
	db *gorm.DB
}

func (r *catalogRepo) MissingProducts(ctx context.Context, ids []uint64) ([]uint64, error) {
	return r.missing(ctx, &domain.Product{}, ids)
}

func (r *catalogRepo) MissingVariants(ctx context.Context, ids []uint64) ([]uint64, error) {
	return r.missing(ctx, &domain.ProductVariant{}, ids)
}

func (r *catalogRepo) missing(ctx context.Context, model any, ids []uint64) ([]uint64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint64
	if err := r.db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	seen := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		seen[id] = struct{}{}
	}
	var missing []uint64
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
			seen[id] = struct{}{}
		}
	}
	return missing, nil
}

type historyRepo struct {
	db *gorm.DB
}

func (r *historyRepo) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *historyRepo) ListByOrder(ctx context.Context, orderID uint64) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

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

var moneyTolerance = decimal.RequireFromString("0.01")

type OrderServiceDeps struct {
	Store  repository.Store
	Events EventPublisher
	Logger *zap.Logger
	// StrictTransitions rejects status changes the order state machine does not allow.
	StrictTransitions bool
	// StrictTotals rejects orders whose total is not subtotal - discount + shipping + tax.
	StrictTotals bool
}

type OrderService struct {
	store        repository.Store
	events       EventPublisher
	log          *zap.Logger
	strict       bool
	strictTotals bool
}

func NewOrderService(deps OrderServiceDeps) (*OrderService, error) {
	if deps.Store == nil {
		return nil, errors.New("order service: store is required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		store:        deps.Store,
		events:       deps.Events,
		log:          log,
		strict:       deps.StrictTransitions,
		strictTotals: deps.StrictTotals,
	}, nil
}

type CreateOrderLine struct {
	ProductID uint64
	VariantID *uint64
	Quantity  int
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
	TaxAmount decimal.Decimal
}

type CreateOrderInput struct {
	CustomerID     uint64
	CustomerEmail  string
	DeliveryMethod domain.DeliveryMethod
	Notes          string
	Subtotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	ShippingCost   decimal.Decimal
	Total          decimal.Decimal
	Lines          []CreateOrderLine
}

func (in CreateOrderInput) validate() error {
	if in.CustomerID == 0 {
		return fmt.Errorf("%w: customer is required", domain.ErrValidation)
	}
	if !in.DeliveryMethod.Valid() {
		return fmt.Errorf("%w: unknown delivery method %q", domain.ErrValidation, in.DeliveryMethod)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: order must have at least one line", domain.ErrValidation)
	}
	for name, v := range map[string]decimal.Decimal{
		"subtotal":       in.Subtotal,
		"discount_total": in.DiscountTotal,
		"shipping_cost":  in.ShippingCost,
		"total":          in.Total,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrValidation, name)
		}
	}
	for i, l := range in.Lines {
		if l.ProductID == 0 {
			return fmt.Errorf("%w: line %d: product_id is required", domain.ErrValidation, i)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: line %d: quantity must be at least 1", domain.ErrValidation, i)
		}
		if l.UnitPrice.IsNegative() || l.TaxRate.IsNegative() || l.TaxAmount.IsNegative() {
			return fmt.Errorf("%w: line %d: amounts must not be negative", domain.ErrValidation, i)
		}
	}
	if in.DiscountTotal.GreaterThan(in.Subtotal.Add(in.ShippingCost)) {
		return fmt.Errorf("%w: discount exceeds subtotal plus shipping", domain.ErrValidation)
	}
	return nil
}

func (in CreateOrderInput) toOrder() *domain.Order {
	o := &domain.Order{
		CustomerID:     in.CustomerID,
		CustomerEmail:  in.CustomerEmail,
		Subtotal:       in.Subtotal.Round(2),
		DiscountTotal:  in.DiscountTotal.Round(2),
		ShippingCost:   in.ShippingCost.Round(2),
		Total:          in.Total.Round(2),
		DeliveryMethod: in.DeliveryMethod,
		Notes:          in.Notes,
		Status:         domain.StatusPending,
		Lines:          make([]domain.OrderLine, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		o.Lines = append(o.Lines, domain.OrderLine{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.Round(2),
			TaxRate:   l.TaxRate,
			TaxAmount: l.TaxAmount.Round(2),
		})
	}
	return o
}

// CreateOrder validates the order, checks every referenced product and variant, and writes
// the order, its lines and the initial history entry in one transaction.
func (u *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	ctx, span := observability.Tracer().Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}
	order := in.toOrder()
	if u.strictTotals && order.Total.Sub(order.ExpectedTotal()).Abs().GreaterThan(moneyTolerance) {
		return nil, fmt.Errorf("%w: total %s does not match subtotal - discount + shipping + tax = %s",
			domain.ErrValidation, order.Total.StringFixed(2), order.ExpectedTotal().StringFixed(2))
	}

	productIDs, variantIDs := lineRefs(order.Lines)
	err := u.store.Atomic(ctx, func(tx repository.Store) error {
		missing, err := tx.Catalog().MissingProducts(ctx, productIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: unknown products %v", domain.ErrValidation, missing)
		}
		missing, err = tx.Catalog().MissingVariants(ctx, variantIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: unknown variants %v", domain.ErrValidation, missing)
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		actor := order.CustomerID
		return tx.History().Append(ctx, &domain.HistoryEntry{
			OrderID:   order.ID,
			NewStatus: string(domain.StatusPending),
			ActorID:   &actor,
			Comment:   "created by customer",
		})
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.Uint64("customer_id", order.CustomerID),
		zap.String("total", order.Total.StringFixed(2)),
	)
	u.publish(ctx, domain.EventOrderCreated, domain.OrderCreatedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Total:      order.Total,
		Lines:      len(order.Lines),
		CreatedAt:  order.CreatedAt,
	})
	return order, nil
}

func lineRefs(lines []domain.OrderLine) (products, variants []uint64) {
	for _, l := range lines {
		products = append(products, l.ProductID)
		if l.VariantID != nil {
			variants = append(variants, *l.VariantID)
		}
	}
	return products, variants
}

// GetOrder returns the order with its lines. Customers may only read their own orders.
func (u *OrderService) GetOrder(ctx context.Context, id uint64, actor Actor) (*domain.Order, error) {
	o, err := u.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if !actor.CanSee(o.CustomerID) {
		return nil, fmt.Errorf("%w: order %d belongs to another customer", domain.ErrForbidden, id)
	}
	return o, nil
}

// ListOrders returns the caller's orders, or every order for elevated callers, newest first.
func (u *OrderService) ListOrders(ctx context.Context, actor Actor) ([]domain.Order, error) {
	if actor.Elevated {
		return u.store.Orders().List(ctx, nil)
	}
	return u.store.Orders().List(ctx, &actor.UserID)
}

func (u *OrderService) GetOrderHistory(ctx context.Context, orderID uint64, actor Actor) ([]domain.HistoryEntry, error) {
	o, err := u.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if !actor.CanSee(o.CustomerID) {
		return nil, fmt.Errorf("%w: order %d belongs to another customer", domain.ErrForbidden, orderID)
	}
	return u.store.History().ListByOrder(ctx, orderID)
}

type UpdateOrderStatusInput struct {
	OrderID   uint64
	ActorID   uint64
	NewStatus domain.OrderStatus
	Comment   string
}

// UpdateOrderStatus is the manual admin transition. The status read, write and history
// append share one transaction holding the order row lock.
func (u *OrderService) UpdateOrderStatus(ctx context.Context, in UpdateOrderStatusInput) (*domain.Order, error) {
	ctx, span := observability.Tracer().Start(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	if !in.NewStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, in.NewStatus)
	}

	var order *domain.Order
	var previous domain.OrderStatus
	err := u.store.Atomic(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().FindByIDForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		previous = o.Status
		if u.strict && !previous.CanTransitionTo(in.NewStatus) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, previous, in.NewStatus)
		}
		if err := tx.Orders().UpdateStatus(ctx, o.ID, in.NewStatus); err != nil {
			return err
		}
		actor := in.ActorID
		if err := tx.History().Append(ctx, &domain.HistoryEntry{
			OrderID:        o.ID,
			PreviousStatus: statusPtr(string(previous)),
			NewStatus:      string(in.NewStatus),
			ActorID:        &actor,
			Comment:        in.Comment,
		}); err != nil {
			return err
		}
		o.Status = in.NewStatus
		o.UpdatedAt = time.Now()
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("order status updated",
		zap.Uint64("order_id", order.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)),
		zap.Uint64("actor_id", in.ActorID),
	)
	actor := in.ActorID
	u.publish(ctx, domain.EventOrderStatusUpdated, domain.OrderStatusUpdatedEvent{
		OrderID:        order.ID,
		PreviousStatus: previous,
		NewStatus:      order.Status,
		ActorID:        &actor,
	})
	return order, nil
}

func (u *OrderService) publish(ctx context.Context, name string, payload any) {
	if u.events == nil {
		return
	}
	if err := u.events.Publish(ctx, name, payload); err != nil {
		u.log.Warn("failed to publish event", zap.String("event", name), zap.Error(err))
	}
}

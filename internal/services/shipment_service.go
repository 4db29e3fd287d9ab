package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"

	"go.uber.org/zap"
)

type ShipmentServiceDeps struct {
	Store  repository.Store
	Events EventPublisher
	Logger *zap.Logger
	Clock  func() time.Time
}

type ShipmentService struct {
	store  repository.Store
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

func NewShipmentService(deps ShipmentServiceDeps) (*ShipmentService, error) {
	if deps.Store == nil {
		return nil, errors.New("shipment service: store is required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ShipmentService{store: deps.Store, events: deps.Events, log: log, now: clock}, nil
}

// EnsureShipment creates the order's shipment unless one exists. The unique index on
// shipments.order_id decides races; the loser gets the winner's row with created=false.
func (u *ShipmentService) EnsureShipment(ctx context.Context, order *domain.Order) (*domain.Shipment, bool, error) {
	s := &domain.Shipment{
		OrderID: order.ID,
		Country: domain.DefaultShipmentCountry,
		Status:  domain.ShipmentPreparing,
	}
	err := u.store.Shipments().Create(ctx, s)
	if errors.Is(err, repository.ErrDuplicate) {
		existing, ferr := u.store.Shipments().FindByOrderID(ctx, order.ID)
		if ferr != nil {
			return nil, false, ferr
		}
		if existing == nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	u.log.Info("shipment created", zap.Uint64("shipment_id", s.ID), zap.Uint64("order_id", order.ID))
	u.publish(ctx, domain.EventShipmentCreated, shipmentEvent(s))
	return s, true, nil
}

type CreateShipmentInput struct {
	OrderID        uint64
	Recipient      string
	Address        string
	City           string
	Province       string
	Country        string
	PostalCode     string
	Carrier        string
	TrackingNumber string
	Status         domain.ShipmentStatus
}

// CreateShipment is the manual admin path; an existing shipment is a conflict here.
func (u *ShipmentService) CreateShipment(ctx context.Context, in CreateShipmentInput) (*domain.Shipment, error) {
	if in.Status == "" {
		in.Status = domain.ShipmentPreparing
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown shipment status %q", domain.ErrValidation, in.Status)
	}
	if in.Country == "" {
		in.Country = domain.DefaultShipmentCountry
	}
	order, err := u.store.Orders().FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	s := &domain.Shipment{
		OrderID:        in.OrderID,
		Recipient:      in.Recipient,
		Address:        in.Address,
		City:           in.City,
		Province:       in.Province,
		Country:        in.Country,
		PostalCode:     in.PostalCode,
		Carrier:        in.Carrier,
		TrackingNumber: in.TrackingNumber,
		Status:         in.Status,
	}
	u.stampDates(s)
	if err := u.store.Shipments().Create(ctx, s); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrShipmentExists
		}
		return nil, err
	}
	u.publish(ctx, domain.EventShipmentCreated, shipmentEvent(s))
	return s, nil
}

// GetShipment hides shipments of other customers behind a not-found.
func (u *ShipmentService) GetShipment(ctx context.Context, id uint64, actor Actor) (*domain.Shipment, error) {
	s, err := u.store.Shipments().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrShipmentNotFound
	}
	if !actor.Elevated {
		o, err := u.store.Orders().FindByID(ctx, s.OrderID)
		if err != nil {
			return nil, err
		}
		if o == nil || o.CustomerID != actor.UserID {
			return nil, ErrShipmentNotFound
		}
	}
	return s, nil
}

func (u *ShipmentService) ListShipments(ctx context.Context, actor Actor) ([]domain.Shipment, error) {
	if actor.Elevated {
		return u.store.Shipments().List(ctx, nil)
	}
	return u.store.Shipments().List(ctx, &actor.UserID)
}

// UpdateShipmentInput carries optional fields; nil leaves the stored value untouched.
type UpdateShipmentInput struct {
	Recipient      *string
	Address        *string
	City           *string
	Province       *string
	Country        *string
	PostalCode     *string
	Carrier        *string
	TrackingNumber *string
	Status         *domain.ShipmentStatus
	ShipDate       *time.Time
	DeliveryDate   *time.Time
}

func (u *ShipmentService) UpdateShipment(ctx context.Context, id uint64, in UpdateShipmentInput) (*domain.Shipment, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown shipment status %q", domain.ErrValidation, *in.Status)
	}

	var s *domain.Shipment
	var delivered bool
	err := u.store.Atomic(ctx, func(tx repository.Store) error {
		cur, err := tx.Shipments().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrShipmentNotFound
		}
		previous := cur.Status
		assign(&cur.Recipient, in.Recipient)
		assign(&cur.Address, in.Address)
		assign(&cur.City, in.City)
		assign(&cur.Province, in.Province)
		assign(&cur.Country, in.Country)
		assign(&cur.PostalCode, in.PostalCode)
		assign(&cur.Carrier, in.Carrier)
		assign(&cur.TrackingNumber, in.TrackingNumber)
		if in.Status != nil {
			cur.Status = *in.Status
		}
		if in.ShipDate != nil {
			cur.ShipDate = in.ShipDate
		}
		if in.DeliveryDate != nil {
			cur.DeliveryDate = in.DeliveryDate
		}
		u.stampDates(cur)
		if err := tx.Shipments().Update(ctx, cur); err != nil {
			return err
		}
		delivered = previous != domain.ShipmentDelivered && cur.Status == domain.ShipmentDelivered
		s = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	if delivered {
		u.publish(ctx, domain.EventShipmentDelivered, shipmentEvent(s))
	}
	return s, nil
}

// stampDates fills ship/delivery dates the first time a shipment reaches those states.
func (u *ShipmentService) stampDates(s *domain.Shipment) {
	now := u.now()
	if (s.Status == domain.ShipmentInTransit || s.Status == domain.ShipmentDelivered) && s.ShipDate == nil {
		s.ShipDate = &now
	}
	if s.Status == domain.ShipmentDelivered && s.DeliveryDate == nil {
		s.DeliveryDate = &now
	}
}

func shipmentEvent(s *domain.Shipment) domain.ShipmentEvent {
	return domain.ShipmentEvent{ShipmentID: s.ID, OrderID: s.OrderID, Status: s.Status}
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (u *ShipmentService) publish(ctx context.Context, name string, payload any) {
	if u.events == nil {
		return
	}
	if err := u.events.Publish(ctx, name, payload); err != nil {
		u.log.Warn("failed to publish event", zap.String("event", name), zap.Error(err))
	}
}

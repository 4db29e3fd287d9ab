package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusRefunded  OrderStatus = "refunded"
)

type DeliveryMethod string

const (
	DeliveryPickup        DeliveryMethod = "pickup"
	DeliveryShipToAddress DeliveryMethod = "ship_to_address"
)

// orderTransitions lists the statuses reachable from each non-terminal status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled, StatusRefunded},
	StatusPaid:    {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped: {StatusDelivered, StatusCancelled, StatusRefunded},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// CanTransitionTo reports whether target is a legal next status. A status never transitions to itself.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	for _, next := range orderTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Invoiceable reports whether an order in this status may be invoiced.
func (s OrderStatus) Invoiceable() bool {
	return s == StatusPaid || s == StatusShipped || s == StatusDelivered
}

func (m DeliveryMethod) Valid() bool {
	return m == DeliveryPickup || m == DeliveryShipToAddress
}

type Order struct {
	ID             uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID     uint64          `json:"customer_id" gorm:"not null;index"`
	CustomerEmail  string          `json:"customer_email,omitempty" gorm:"size:255"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	DiscountTotal  decimal.Decimal `json:"discount_total" gorm:"type:decimal(12,2);not null"`
	ShippingCost   decimal.Decimal `json:"shipping_cost" gorm:"type:decimal(12,2);not null"`
	Total          decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	DeliveryMethod DeliveryMethod  `json:"delivery_method" gorm:"size:32;not null"`
	Notes          string          `json:"notes,omitempty" gorm:"size:500"`
	Status         OrderStatus     `json:"status" gorm:"size:20;not null;index"`
	Lines          []OrderLine     `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

type OrderLine struct {
	ID        uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64          `json:"order_id" gorm:"not null;index"`
	ProductID uint64          `json:"product_id" gorm:"not null;index"`
	VariantID *uint64         `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	TaxRate   decimal.Decimal `json:"tax_rate" gorm:"type:decimal(5,2);not null"`
	TaxAmount decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2);not null"`
}

// LineTaxTotal sums the tax carried by the order lines.
func (o *Order) LineTaxTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.TaxAmount)
	}
	return sum
}

// ExpectedTotal is subtotal - discount + shipping + line taxes.
func (o *Order) ExpectedTotal() decimal.Decimal {
	return o.Subtotal.Sub(o.DiscountTotal).Add(o.ShippingCost).Add(o.LineTaxTotal())
}

// Product and ProductVariant are read here only to validate order lines.
type Product struct {
	ID     uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name   string          `json:"name" gorm:"size:200;not null"`
	Price  decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Active bool            `json:"active" gorm:"not null"`
}

type ProductVariant struct {
	ID        uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint64 `json:"product_id" gorm:"not null;index"`
	Name      string `json:"name" gorm:"size:200"`
}

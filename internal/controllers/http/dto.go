package http

import (
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/gateway"
	"commerce-service/internal/services"

	"github.com/shopspring/decimal"
)

type CreateOrderLineRequest struct {
	ProductID uint64          `json:"product_id" binding:"required"`
	VariantID *uint64         `json:"variant_id"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

type CreateOrderRequest struct {
	DeliveryMethod domain.DeliveryMethod    `json:"delivery_method" binding:"required,oneof=pickup ship_to_address"`
	Notes          string                   `json:"notes" binding:"max=500"`
	Subtotal       decimal.Decimal          `json:"subtotal"`
	DiscountTotal  decimal.Decimal          `json:"discount_total"`
	ShippingCost   decimal.Decimal          `json:"shipping_cost"`
	Total          decimal.Decimal          `json:"total"`
	Lines          []CreateOrderLineRequest `json:"detalles" binding:"required,min=1,dive"`
}

func (r CreateOrderRequest) toInput(customerID uint64, email string) services.CreateOrderInput {
	in := services.CreateOrderInput{
		CustomerID:     customerID,
		CustomerEmail:  email,
		DeliveryMethod: r.DeliveryMethod,
		Notes:          r.Notes,
		Subtotal:       r.Subtotal,
		DiscountTotal:  r.DiscountTotal,
		ShippingCost:   r.ShippingCost,
		Total:          r.Total,
		Lines:          make([]services.CreateOrderLine, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		in.Lines = append(in.Lines, services.CreateOrderLine{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			TaxRate:   l.TaxRate,
			TaxAmount: l.TaxAmount,
		})
	}
	return in
}

type CreateOrderResponse struct {
	OrderID uint64 `json:"order_id"`
}

type UpdateOrderStatusRequest struct {
	NewStatus domain.OrderStatus `json:"new_status" binding:"required"`
	Comment   string             `json:"comment" binding:"max=500"`
}

type CreatePaymentRequest struct {
	OrderID uint64          `json:"order_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

type CreatePaymentResponse struct {
	PaymentID    uint64               `json:"payment_id"`
	ExternalID   string               `json:"external_id"`
	RedirectURLs gateway.RedirectURLs `json:"redirect_urls"`
}

type UpdatePaymentStatusRequest struct {
	Status domain.PaymentStatus `json:"status" binding:"required,oneof=pending approved rejected"`
	Reason string               `json:"reason" binding:"max=500"`
}

type WebhookResponse struct {
	Received  bool                    `json:"received"`
	Ignored   bool                    `json:"ignored,omitempty"`
	Duplicate bool                    `json:"duplicate,omitempty"`
	Result    *services.CascadeResult `json:"result,omitempty"`
}

type CreateShipmentRequest struct {
	OrderID        uint64                `json:"order_id" binding:"required"`
	Recipient      string                `json:"recipient" binding:"max=200"`
	Address        string                `json:"address" binding:"max=300"`
	City           string                `json:"city" binding:"max=120"`
	Province       string                `json:"province" binding:"max=120"`
	Country        string                `json:"country" binding:"max=80"`
	PostalCode     string                `json:"postal_code" binding:"max=20"`
	Carrier        string                `json:"carrier" binding:"max=120"`
	TrackingNumber string                `json:"tracking_number" binding:"max=120"`
	Status         domain.ShipmentStatus `json:"status"`
}

func (r CreateShipmentRequest) toInput() services.CreateShipmentInput {
	return services.CreateShipmentInput{
		OrderID:        r.OrderID,
		Recipient:      r.Recipient,
		Address:        r.Address,
		City:           r.City,
		Province:       r.Province,
		Country:        r.Country,
		PostalCode:     r.PostalCode,
		Carrier:        r.Carrier,
		TrackingNumber: r.TrackingNumber,
		Status:         r.Status,
	}
}

// UpdateShipmentRequest leaves absent fields untouched.
type UpdateShipmentRequest struct {
	Recipient      *string                `json:"recipient" binding:"omitempty,max=200"`
	Address        *string                `json:"address" binding:"omitempty,max=300"`
	City           *string                `json:"city" binding:"omitempty,max=120"`
	Province       *string                `json:"province" binding:"omitempty,max=120"`
	Country        *string                `json:"country" binding:"omitempty,max=80"`
	PostalCode     *string                `json:"postal_code" binding:"omitempty,max=20"`
	Carrier        *string                `json:"carrier" binding:"omitempty,max=120"`
	TrackingNumber *string                `json:"tracking_number" binding:"omitempty,max=120"`
	Status         *domain.ShipmentStatus `json:"status"`
	ShipDate       *time.Time             `json:"ship_date"`
	DeliveryDate   *time.Time             `json:"delivery_date"`
}

func (r UpdateShipmentRequest) toInput() services.UpdateShipmentInput {
	return services.UpdateShipmentInput{
		Recipient:      r.Recipient,
		Address:        r.Address,
		City:           r.City,
		Province:       r.Province,
		Country:        r.Country,
		PostalCode:     r.PostalCode,
		Carrier:        r.Carrier,
		TrackingNumber: r.TrackingNumber,
		Status:         r.Status,
		ShipDate:       r.ShipDate,
		DeliveryDate:   r.DeliveryDate,
	}
}

type IssueInvoiceResponse struct {
	Invoice *domain.Invoice     `json:"invoice"`
	Email   services.StepResult `json:"email"`
}

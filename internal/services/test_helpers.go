package services

import (
	"commerce-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	TestCustomerID    = uint64(10)
	TestOtherCustomer = uint64(11)
	TestAdminID       = uint64(1)
	TestProductID     = uint64(1)
	TestVariantID     = uint64(100)
	TestCustomerEmail = "buyer@example.com"
)

var (
	TestCustomer = Actor{UserID: TestCustomerID}
	TestAdmin    = Actor{UserID: TestAdminID, Elevated: true}
)

func CreateMockProduct(id uint64, name string, price string) *domain.Product {
	return &domain.Product{
		ID:     id,
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Active: true,
	}
}

// CreateOrderInputFor builds a one-line order with no tax, discount or shipping.
func CreateOrderInputFor(customerID, productID uint64, subtotal string) CreateOrderInput {
	amount := decimal.RequireFromString(subtotal)
	return CreateOrderInput{
		CustomerID:     customerID,
		CustomerEmail:  TestCustomerEmail,
		DeliveryMethod: domain.DeliveryShipToAddress,
		Subtotal:       amount,
		DiscountTotal:  decimal.Zero,
		ShippingCost:   decimal.Zero,
		Total:          amount,
		Lines: []CreateOrderLine{{
			ProductID: productID,
			Quantity:  1,
			UnitPrice: amount,
			TaxRate:   decimal.Zero,
			TaxAmount: decimal.Zero,
		}},
	}
}

package domain

import "time"

type ShipmentStatus string

const (
	ShipmentPreparing ShipmentStatus = "preparing"
	ShipmentInTransit ShipmentStatus = "in_transit"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentReturned  ShipmentStatus = "returned"
)

const DefaultShipmentCountry = "Argentina"

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentPreparing, ShipmentInTransit, ShipmentDelivered, ShipmentReturned:
		return true
	}
	return false
}

// Shipment is unique per order; the unique index on order_id is what makes creation idempotent.
type Shipment struct {
	ID             uint64         `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID        uint64         `json:"order_id" gorm:"not null;uniqueIndex"`
	Recipient      string         `json:"recipient,omitempty" gorm:"size:200"`
	Address        string         `json:"address,omitempty" gorm:"size:300"`
	City           string         `json:"city,omitempty" gorm:"size:120"`
	Province       string         `json:"province,omitempty" gorm:"size:120"`
	Country        string         `json:"country" gorm:"size:80"`
	PostalCode     string         `json:"postal_code,omitempty" gorm:"size:20"`
	Carrier        string         `json:"carrier,omitempty" gorm:"size:120"`
	TrackingNumber string         `json:"tracking_number,omitempty" gorm:"size:120"`
	Status         ShipmentStatus `json:"status" gorm:"size:20;not null"`
	ShipDate       *time.Time     `json:"ship_date,omitempty"`
	DeliveryDate   *time.Time     `json:"delivery_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

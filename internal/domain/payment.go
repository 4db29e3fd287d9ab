package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentApproved || s == PaymentRejected
}

// HistoryLabel encodes a payment status as an order sub-status for the history log.
func (s PaymentStatus) HistoryLabel() string {
	return "payment:" + string(s)
}

type Payment struct {
	ID            uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID       uint64          `json:"order_id" gorm:"not null;index"`
	Provider      string          `json:"provider" gorm:"size:32;not null"`
	Method        string          `json:"method" gorm:"size:32;not null"`
	Status        PaymentStatus   `json:"status" gorm:"size:20;not null;index"`
	TransactionID string          `json:"transaction_id" gorm:"size:128;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	RawPayload    datatypes.JSON  `json:"-"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

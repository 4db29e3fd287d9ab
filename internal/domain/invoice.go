package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultInvoiceType = "B"

// Payment methods accepted on invoices.
const (
	MethodMercadoPago = "mercado_pago"
	MethodTransfer    = "transferencia"
	MethodCard        = "tarjeta"
	MethodCash        = "efectivo"
	MethodStripe      = "stripe"
)

var paymentMethodAliases = map[string]string{
	"mercado pago":  MethodMercadoPago,
	"mercadopago":   MethodMercadoPago,
	"mp":            MethodMercadoPago,
	"mercado_pago":  MethodMercadoPago,
	"transferencia": MethodTransfer,
	"transfer":      MethodTransfer,
	"tarjeta":       MethodCard,
	"card":          MethodCard,
	"efectivo":      MethodCash,
	"cash":          MethodCash,
	"stripe":        MethodStripe,
}

// NormalizePaymentMethod maps free-form method names onto the stored enumeration.
// Unknown values fall back to mercado_pago.
func NormalizePaymentMethod(raw string) string {
	if m, ok := paymentMethodAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return m
	}
	return MethodMercadoPago
}

type Invoice struct {
	ID               uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID          uint64          `json:"order_id" gorm:"not null;uniqueIndex"`
	Number           string          `json:"number" gorm:"size:32;not null;uniqueIndex"`
	Type             string          `json:"type" gorm:"size:1;not null"`
	Subtotal         decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	TaxAmount        decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2);not null"`
	Total            decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	PaymentMethod    string          `json:"payment_method" gorm:"size:32;not null"`
	VerificationHash string          `json:"verification_hash" gorm:"size:64;not null"`
	IssuedAt         time.Time       `json:"issued_at" gorm:"autoCreateTime"`
}

// InvoiceSequence holds the last number handed out for a scope (one row per year).
type InvoiceSequence struct {
	Scope string `gorm:"primaryKey;size:32"`
	Value int64  `gorm:"not null"`
}

// ComputeTax returns subtotal*rate rounded to cents and the resulting total.
func ComputeTax(subtotal, rate decimal.Decimal) (tax, total decimal.Decimal) {
	tax = subtotal.Mul(rate).Round(2)
	return tax, subtotal.Add(tax).Round(2)
}

// VerificationHash is a tamper-evidence digest of the order id and invoice total.
func VerificationHash(orderID uint64, total decimal.Decimal) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d-%s", orderID, total.StringFixed(2))))
	return hex.EncodeToString(sum[:])
}

func FormatInvoiceNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, seq)
}

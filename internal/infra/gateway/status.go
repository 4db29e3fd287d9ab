package gateway

import (
	"strings"

	"commerce-service/internal/domain"
)

// NormalizeMercadoPagoStatus folds MercadoPago payment statuses onto ours.
func NormalizeMercadoPagoStatus(raw string) domain.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "authorized":
		return domain.PaymentApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return domain.PaymentRejected
	default:
		return domain.PaymentPending
	}
}

// NormalizeStripeStatus folds PaymentIntent statuses onto ours.
func NormalizeStripeStatus(raw string) domain.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "succeeded":
		return domain.PaymentApproved
	case "canceled", "requires_payment_method":
		return domain.PaymentRejected
	default:
		return domain.PaymentPending
	}
}

package http

import (
	"errors"
	"net/http"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/gateway"
	"commerce-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	intent, err := h.payments.RecordPaymentIntent(c.Request.Context(), services.RecordPaymentIntentInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Actor:   actor,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatePaymentResponse{
		PaymentID:    intent.PaymentID,
		ExternalID:   intent.ExternalID,
		RedirectURLs: intent.RedirectURLs,
	})
}

// PaymentCallback answers 200 for every authenticated delivery, even when processing fails,
// so the provider does not keep redelivering. Only an invalid signature is rejected.
func (h *Handler) PaymentCallback(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.log.Warn("webhook body unreadable", zap.Error(err))
		c.JSON(http.StatusOK, WebhookResponse{Received: true})
		return
	}

	out, err := h.payments.HandleWebhook(c.Request.Context(), gateway.WebhookRequest{
		Header: c.Request.Header,
		Query:  c.Request.URL.Query(),
		Body:   body,
	})
	if errors.Is(err, gateway.ErrInvalidSignature) {
		h.log.Warn("webhook rejected", zap.String("client_ip", c.ClientIP()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	if err != nil {
		h.log.Error("webhook processing failed", zap.Error(err))
		c.JSON(http.StatusOK, WebhookResponse{Received: true})
		return
	}
	c.JSON(http.StatusOK, WebhookResponse{
		Received:  true,
		Ignored:   out.Ignored,
		Duplicate: out.Duplicate,
		Result:    out.Result,
	})
}

func (h *Handler) ListPayments(c *gin.Context) {
	var status *domain.PaymentStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.PaymentStatus(raw)
		status = &s
	}
	payments, err := h.payments.ListPayments(c.Request.Context(), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	payment, err := h.payments.GetPayment(c.Request.Context(), id, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

// UpdatePaymentStatus is the manual admin path into the same cascade the webhook runs.
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	actorID := actor.UserID
	res, err := h.payments.ApplyPaymentStatus(c.Request.Context(), services.ApplyPaymentStatusInput{
		PaymentID: id,
		Status:    req.Status,
		ActorID:   &actorID,
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

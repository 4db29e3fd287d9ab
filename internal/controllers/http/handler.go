package http

import (
	"errors"
	"net/http"
	"strconv"

	"commerce-service/internal/auth"
	"commerce-service/internal/domain"
	"commerce-service/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HandlerDeps struct {
	Orders    *services.OrderService
	Payments  *services.PaymentService
	Shipments *services.ShipmentService
	Invoices  *services.InvoiceService
	Logger    *zap.Logger
	// Production hides internal error text from 500 responses.
	Production bool
}

type Handler struct {
	orders     *services.OrderService
	payments   *services.PaymentService
	shipments  *services.ShipmentService
	invoices   *services.InvoiceService
	log        *zap.Logger
	production bool
}

func NewHandler(deps HandlerDeps) *Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		orders:     deps.Orders,
		payments:   deps.Payments,
		shipments:  deps.Shipments,
		invoices:   deps.Invoices,
		log:        log,
		production: deps.Production,
	}
}

// RegisterRoutes mounts the API. authn must authenticate the caller; the gateway callback
// is the only route outside it.
func (h *Handler) RegisterRoutes(r gin.IRouter, authn gin.HandlerFunc) {
	admin := auth.RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin)

	r.POST("/payments/callback", h.PaymentCallback)

	api := r.Group("", authn)

	api.POST("/orders", h.CreateOrder)
	api.GET("/orders", h.ListOrders)
	api.GET("/orders/:id", h.GetOrder)
	api.PUT("/orders/:id/status", admin, h.UpdateOrderStatus)
	api.GET("/orders/:id/history", h.GetOrderHistory)

	api.POST("/payments", h.CreatePayment)
	api.GET("/payments", admin, h.ListPayments)
	api.GET("/payments/:id", h.GetPayment)
	api.PUT("/payments/:id/status", admin, h.UpdatePaymentStatus)

	api.POST("/shipments", admin, h.CreateShipment)
	api.GET("/shipments", h.ListShipments)
	api.GET("/shipments/:id", h.GetShipment)
	api.PUT("/shipments/:id", admin, h.UpdateShipment)

	api.POST("/invoices/issue/:order_id", admin, h.IssueInvoice)
	api.GET("/invoices/:id", admin, h.GetInvoice)
	api.GET("/invoices/order/:order_id", admin, h.GetInvoiceByOrder)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
		if h.production {
			msg = http.StatusText(status)
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func actorFrom(c *gin.Context) (services.Actor, bool) {
	p, ok := auth.FromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return services.Actor{}, false
	}
	return services.Actor{UserID: p.UserID, Elevated: p.Role.Elevated()}, true
}

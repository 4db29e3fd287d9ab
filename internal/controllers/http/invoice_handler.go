package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IssueInvoice answers 201 for a new invoice and 200 when the order already had one.
func (h *Handler) IssueInvoice(c *gin.Context) {
	orderID, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	res, err := h.invoices.Issue(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, IssueInvoiceResponse{Invoice: res.Invoice, Email: res.Email})
}

func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) GetInvoiceByOrder(c *gin.Context) {
	orderID, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	inv, err := h.invoices.GetInvoiceByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

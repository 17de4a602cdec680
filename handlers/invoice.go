package handlers

import (
	"net/http"
	"strings"

	"agencyhub/middleware"
	"agencyhub/models"
	"agencyhub/services/billing"
	"agencyhub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InvoiceHandler exposes invoice generation, lookup and payment recording.
type InvoiceHandler struct {
	Billing billing.BillingService
}

func NewInvoiceHandler(bs billing.BillingService) *InvoiceHandler {
	return &InvoiceHandler{Billing: bs}
}

// GenerateInvoiceHandler handles POST /api/invoices.
func (h *InvoiceHandler) GenerateInvoiceHandler(c *gin.Context) {
	var req models.GenerateInvoiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	invoice, err := h.Billing.GenerateInvoice(c.Request.Context(), req.BookingID, req.ServiceID)
	if err != nil {
		respondError(c, err, "Failed to generate invoice")
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, invoice)
}

// GetInvoicesHandler handles GET /api/invoices. Exactly one selector is used, checked in the
// order id, bookingId, clientId. Without a selector only an admin may list every invoice.
func (h *InvoiceHandler) GetInvoicesHandler(c *gin.Context) {
	ctx := c.Request.Context()

	if id := strings.TrimSpace(c.Query("id")); id != "" {
		invoice, err := h.Billing.GetInvoice(ctx, id)
		if err != nil {
			respondError(c, err, "Failed to fetch invoice")
			return
		}
		utils.JSONSuccess(c, http.StatusOK, invoice)
		return
	}

	if bookingID := strings.TrimSpace(c.Query("bookingId")); bookingID != "" {
		invoice, err := h.Billing.GetInvoiceByBooking(ctx, bookingID)
		if err != nil {
			respondError(c, err, "Failed to fetch invoice")
			return
		}
		utils.JSONSuccess(c, http.StatusOK, invoice)
		return
	}

	var (
		invoices []models.Invoice
		err      error
	)
	switch clientID := strings.TrimSpace(c.Query("clientId")); {
	case clientID != "":
		invoices, err = h.Billing.ListInvoicesByClient(ctx, clientID)
	case middleware.IsAdmin(c):
		invoices, err = h.Billing.ListInvoices(ctx)
	default:
		utils.JSONError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		respondError(c, err, "Failed to fetch invoices")
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	utils.JSONSuccess(c, http.StatusOK, invoices)
}

// RecordPaymentHandler handles POST /api/invoices/:id/payments. The Idempotency-Key header
// is used when the body carries no key.
func (h *InvoiceHandler) RecordPaymentHandler(c *gin.Context) {
	var req models.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	}
	if req.VerifiedBy == "" && middleware.IsAdmin(c) {
		req.VerifiedBy = c.GetString(middleware.ContextAdminID)
	}

	invoice, err := h.Billing.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err, "Failed to record payment")
		return
	}
	getLogger(c).Debug("Payment accepted",
		zap.String("invoiceId", invoice.ID),
		zap.String("status", string(invoice.Status)))
	utils.JSONSuccess(c, http.StatusOK, invoice)
}

// ListPaymentsHandler handles GET /api/invoices/:id/payments.
func (h *InvoiceHandler) ListPaymentsHandler(c *gin.Context) {
	payments, err := h.Billing.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch payments")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, payments)
}

// UpdateInvoiceStatusHandler handles PATCH /api/invoices/:id/status for admins.
func (h *InvoiceHandler) UpdateInvoiceStatusHandler(c *gin.Context) {
	var req models.InvoiceStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	invoice, err := h.Billing.UpdateInvoiceStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, "Failed to update invoice status")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, invoice)
}

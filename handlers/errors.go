package handlers

import (
	"errors"
	"net/http"

	"agencyhub/services/billing"
	"agencyhub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps billing errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, billing.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, billing.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, billing.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, billing.ErrInvoiceExists),
		errors.Is(err, billing.ErrInvoiceCancelled),
		errors.Is(err, billing.ErrInvalidTransition),
		errors.Is(err, billing.ErrConcurrentUpdate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Server-side failures are logged and answered with
// a generic message.
func respondError(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		getLogger(c).Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
		utils.JSONError(c, status, msg)
		return
	}
	utils.JSONError(c, status, err.Error())
}

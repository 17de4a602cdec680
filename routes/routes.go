package routes

import (
	"net/http"
	"time"

	"agencyhub/handlers"
	"agencyhub/middleware"
	"agencyhub/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterInvoiceRoutes registers invoice and payment endpoints.
func RegisterInvoiceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/invoices")
	{
		// Admin identity is optional here; a presented token must still be valid.
		optional := api.Group("")
		optional.Use(hb.Auth.OptionalAdmin())
		optional.POST("", hb.Invoices.GenerateInvoiceHandler)
		optional.GET("", hb.Invoices.GetInvoicesHandler)
		optional.POST("/:id/payments", hb.Invoices.RecordPaymentHandler)
		optional.GET("/:id/payments", hb.Invoices.ListPaymentsHandler)

		protected := api.Group("")
		protected.Use(hb.Auth.RequireAdmin())
		protected.PATCH("/:id/status", hb.Invoices.UpdateInvoiceStatusHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin sessions.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.POST("/login", hb.Admin.LoginHandler)
		adminGroup.POST("/logout", hb.Auth.RequireAdmin(), hb.Admin.LogoutHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(hb.RequestsPerMin))

	RegisterInvoiceRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}

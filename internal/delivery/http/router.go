package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sablecart/payment-service/internal/delivery/http/handlers"
)

// NewRouter wires the storefront-facing API, the gateway webhook and the
// operational endpoints.
func NewRouter(
	webhookHandler *handlers.WebhookHandler,
	paymentHandler *handlers.PaymentHandler,
	orderHandler *handlers.OrderHandler) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/webhook/paystack", webhookHandler.HandlePaystack)

	api := router.Group("/api/v1")
	{
		api.POST("/orders", orderHandler.Create)
		api.GET("/orders/:id", orderHandler.Get)
		api.POST("/orders/:id/cancel", orderHandler.Cancel)
		api.GET("/orders/number/:number", orderHandler.GetByNumber)
		api.GET("/customers/:customerId/orders", orderHandler.ListByCustomer)
		api.GET("/customers/:customerId/cards", paymentHandler.ListSavedCards)

		api.GET("/payments/:reference/verify", paymentHandler.Verify)
		api.POST("/payments/charge-card", paymentHandler.ChargeCard)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/usecase/reconcile"
)

const signatureHeader = "x-paystack-signature"

type WebhookHandler struct {
	gateway   domain.PaymentGateway
	reconcile reconcile.ReconcileUsecase
}

func NewWebhookHandler(gateway domain.PaymentGateway, rc reconcile.ReconcileUsecase) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, reconcile: rc}
}

// HandlePaystack receives the gateway's push notifications.
//
// The signature is checked over the exact bytes on the wire. A missing or
// bad signature is the only client error this endpoint returns; once the
// payload is authenticated the gateway always gets a 200, otherwise its
// retry policy would hammer the endpoint for errors that are ours, not its.
func (h *WebhookHandler) HandlePaystack(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" || !h.gateway.VerifyWebhookSignature(rawBody, signature) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event reconcile.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		// Authenticated but malformed. Nothing to retry; log and ACK.
		slog.Error("failed to parse authenticated webhook payload", "error", err.Error())
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.reconcile.HandleWebhook(c.Request.Context(), &event, rawBody); err != nil {
		slog.Error("webhook processing failed", "event", event.Event, "reference", event.Data.Reference, "error", err.Error())
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

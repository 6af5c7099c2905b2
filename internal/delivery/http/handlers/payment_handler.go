package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sablecart/payment-service/internal/domain"
	orderusecase "github.com/sablecart/payment-service/internal/usecase/order"
	"github.com/sablecart/payment-service/internal/usecase/reconcile"
)

type PaymentHandler struct {
	reconcile reconcile.ReconcileUsecase
	orders    orderusecase.OrderUsecase
}

func NewPaymentHandler(rc reconcile.ReconcileUsecase, orders orderusecase.OrderUsecase) *PaymentHandler {
	return &PaymentHandler{reconcile: rc, orders: orders}
}

// Verify is the poll path behind the storefront's order status page. The
// response carries canned statuses only; raw gateway text stays server-side.
func (h *PaymentHandler) Verify(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "reference is required"})
		return
	}

	result, err := h.reconcile.VerifyPayment(c.Request.Context(), reference)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"status":   result.Status,
			"order_id": result.OrderID,
		})
	case errors.Is(err, domain.ErrReferenceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "unknown payment reference"})
	case errors.Is(err, domain.ErrGatewayRejected):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": "payment reference rejected"})
	case errors.Is(err, domain.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "payment verification temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "verification failed"})
	}
}

type chargeCardRequest struct {
	CustomerID      string            `json:"customer_id" binding:"required"`
	SavedCardID     string            `json:"saved_card_id" binding:"required"`
	CustomerEmail   string            `json:"customer_email" binding:"required,email"`
	CustomerName    string            `json:"customer_name" binding:"required"`
	CustomerPhone   string            `json:"customer_phone"`
	ShippingAddress string            `json:"shipping_address" binding:"required"`
	Currency        string            `json:"currency"`
	Items           []orderItemInput  `json:"items" binding:"required,dive"`
}

// ChargeCard runs a one-click checkout against a saved card.
func (h *PaymentHandler) ChargeCard(c *gin.Context) {
	var req chargeCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	output, err := h.orders.ChargeSavedCard(c.Request.Context(), &orderusecase.ChargeSavedCardInput{
		CustomerID:      req.CustomerID,
		SavedCardID:     req.SavedCardID,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		Currency:        req.Currency,
		Items:           toItemInputs(req.Items),
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"order_id":     output.Order.ID,
			"order_number": output.Order.OrderNumber,
			"reference":    output.Reference,
			"status":       output.Status,
		})
	case errors.Is(err, domain.ErrSavedCardNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "saved card not found"})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "insufficient stock"})
	case errors.Is(err, domain.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "payment gateway temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "charge failed"})
	}
}

// ListSavedCards returns the customer's stored, masked card metadata.
func (h *PaymentHandler) ListSavedCards(c *gin.Context) {
	customerID := c.Param("customerId")
	cards, err := h.orders.ListSavedCards(customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list saved cards"})
		return
	}

	out := make([]gin.H, 0, len(cards))
	for _, card := range cards {
		out = append(out, gin.H{
			"id":        card.ID,
			"card_type": card.CardType,
			"last4":     card.Last4,
			"exp_month": card.ExpMonth,
			"exp_year":  card.ExpYear,
			"bank":      card.Bank,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cards": out})
}

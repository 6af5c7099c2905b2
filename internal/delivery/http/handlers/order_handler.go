package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sablecart/payment-service/internal/domain"
	orderusecase "github.com/sablecart/payment-service/internal/usecase/order"
)

type OrderHandler struct {
	orders orderusecase.OrderUsecase
}

func NewOrderHandler(orders orderusecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	CustomerID      string           `json:"customer_id" binding:"required"`
	CustomerEmail   string           `json:"customer_email" binding:"required,email"`
	CustomerName    string           `json:"customer_name" binding:"required"`
	CustomerPhone   string           `json:"customer_phone"`
	ShippingAddress string           `json:"shipping_address" binding:"required"`
	Currency        string           `json:"currency"`
	Items           []orderItemInput `json:"items" binding:"required,dive"`
}

func toItemInputs(items []orderItemInput) []orderusecase.CheckoutItemInput {
	out := make([]orderusecase.CheckoutItemInput, len(items))
	for i, item := range items {
		out[i] = orderusecase.CheckoutItemInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return out
}

// Create opens a checkout: creates the pending order with its stock held and
// returns the gateway's hosted payment page URL.
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	output, err := h.orders.Checkout(c.Request.Context(), &orderusecase.CheckoutInput{
		CustomerID:      req.CustomerID,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		Currency:        req.Currency,
		Items:           toItemInputs(req.Items),
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{
			"success":           true,
			"order_id":          output.Order.ID,
			"order_number":      output.Order.OrderNumber,
			"total_minor":       output.Order.TotalMinor,
			"currency":          output.Order.Currency,
			"reference":         output.Reference,
			"authorization_url": output.AuthorizationURL,
			"access_code":       output.AccessCode,
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "insufficient stock"})
	case errors.Is(err, domain.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "payment gateway temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "checkout failed"})
	}
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": toOrderResponse(order)})
}

func (h *OrderHandler) GetByNumber(c *gin.Context) {
	order, err := h.orders.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": toOrderResponse(order)})
}

func (h *OrderHandler) ListByCustomer(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	orders, total, err := h.orders.ListCustomerOrders(c.Param("customerId"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list orders"})
		return
	}

	out := make([]gin.H, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": out, "total": total, "page": page, "limit": limit})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var req cancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	err := h.orders.CancelOrder(c.Request.Context(), c.Param("id"), req.Reason)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
	case errors.Is(err, domain.ErrCancelOrder):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "order can no longer be cancelled"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "cancellation failed"})
	}
}

func toOrderResponse(order *domain.Order) gin.H {
	items := make([]gin.H, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, gin.H{
			"product_id":       item.ProductID,
			"product_name":     item.ProductName,
			"product_sku":      item.ProductSKU,
			"product_image":    item.ProductImage,
			"quantity":         item.Quantity,
			"unit_price_minor": item.UnitPriceMinor,
			"line_total_minor": item.LineTotalMinor,
		})
	}

	resp := gin.H{
		"id":             order.ID,
		"order_number":   order.OrderNumber,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"total_minor":    order.TotalMinor,
		"currency":       order.Currency,
		"customer_name":  order.CustomerName,
		"created_at":     order.CreatedAt,
		"items":          items,
	}
	if order.PaidAt != nil {
		resp["paid_at"] = order.PaidAt
	}
	if order.CancelledAt != nil {
		resp["cancelled_at"] = order.CancelledAt
		resp["cancellation_reason"] = order.CancellationReason
	}
	return resp
}

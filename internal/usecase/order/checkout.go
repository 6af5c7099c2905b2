package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/sablecart/payment-service/internal/domain"
)

const referenceAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// Checkout creates a pending order with a product snapshot, with stock
// reserved in the same write, and opens a payment attempt at the gateway.
// The customer completes the charge on the gateway's hosted page;
// reconciliation takes over from there.
func (uc *DefaultOrderUsecase) Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error) {
	order, err := uc.buildOrder(input.CustomerID, input.CustomerEmail, input.CustomerName,
		input.CustomerPhone, input.ShippingAddress, input.Currency, input.Items)
	if err != nil {
		return nil, err
	}

	if err := uc.OrderRepo.CreateOrder(order); err != nil {
		return nil, err
	}

	reference, err := newReference()
	if err != nil {
		uc.failCheckout(order, "reference generation failed")
		return nil, err
	}

	initResult, err := uc.Gateway.Initialize(ctx, domain.InitializeRequest{
		Email:       order.CustomerEmail,
		AmountMinor: order.TotalMinor,
		Reference:   reference,
		Metadata: map[string]string{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		},
	})
	if err != nil {
		uc.failCheckout(order, "payment initialization failed")
		return nil, err
	}

	if err := uc.TxRepo.Create(&domain.Transaction{
		OrderID:     order.ID,
		Reference:   initResult.Reference,
		AmountMinor: order.TotalMinor,
		Status:      domain.TxStatusPending,
	}); err != nil {
		uc.failCheckout(order, "payment attempt could not be recorded")
		return nil, err
	}

	uc.Metrics.RecordOrderCreated(order.Currency)

	return &CheckoutOutput{
		Order:            order,
		Reference:        initResult.Reference,
		AuthorizationURL: initResult.AuthorizationURL,
		AccessCode:       initResult.AccessCode,
	}, nil
}

// buildOrder snapshots the catalog into order items and prices the order.
// The total is the sum of line totals, so it reconciles with the lines by
// construction.
func (uc *DefaultOrderUsecase) buildOrder(customerID, email, name, phone, shipping, currency string, items []CheckoutItemInput) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for product %s", item.Quantity, item.ProductID)
		}
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := uc.InventoryRepo.GetProducts(productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	orderID := uuid.New().String()
	orderNumber, err := newOrderNumber()
	if err != nil {
		return nil, err
	}

	var total int64
	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s not found", item.ProductID)
		}
		lineTotal := product.PriceMinor * int64(item.Quantity)
		total += lineTotal
		orderItems = append(orderItems, domain.OrderItem{
			ID:             uuid.New().String(),
			OrderID:        orderID,
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			ProductImage:   product.ImageURL,
			Quantity:       item.Quantity,
			UnitPriceMinor: product.PriceMinor,
			LineTotalMinor: lineTotal,
		})
	}

	if currency == "" {
		currency = defaultCurrency
	}

	return &domain.Order{
		ID:              orderID,
		OrderNumber:     orderNumber,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		TotalMinor:      total,
		Currency:        strings.ToUpper(currency),
		CustomerID:      customerID,
		CustomerEmail:   email,
		CustomerName:    name,
		CustomerPhone:   phone,
		ShippingAddress: shipping,
		Items:           orderItems,
		CreatedAt:       time.Now(),
	}, nil
}

// failCheckout unwinds a checkout that broke after the order row exists but
// before the gateway attempt was recorded: the order is closed out and the
// reserved stock is returned. The stock comes back only when the close-out
// actually landed, otherwise whoever settled the order first owns the
// compensation.
func (uc *DefaultOrderUsecase) failCheckout(order *domain.Order, reason string) {
	if err := uc.OrderRepo.MarkFailed(order.ID, reason, time.Now()); err != nil {
		slog.Error("failed to close out broken checkout", "order_id", order.ID, "error", err.Error())
		return
	}
	uc.releaseStock(order)
}

func (uc *DefaultOrderUsecase) releaseStock(order *domain.Order) {
	if err := uc.InventoryRepo.Restore(order.ID, order.Items); err != nil {
		slog.Error("failed to release reserved stock", "order_id", order.ID, "error", err.Error())
		uc.Metrics.RecordStockRestoration(true)
		return
	}
	uc.Metrics.RecordStockRestoration(false)
}

func newOrderNumber() (string, error) {
	gen, err := nanoid.CustomASCII(referenceAlphabet, 10)
	if err != nil {
		return "", err
	}
	return "ORD-" + gen(), nil
}

func newReference() (string, error) {
	gen, err := nanoid.CustomASCII(referenceAlphabet, 16)
	if err != nil {
		return "", err
	}
	return "TX-" + gen(), nil
}

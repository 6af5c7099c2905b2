package mappers

import (
	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/models"
)

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	items := make([]models.OrderItemModel, len(order.Items))
	for i, item := range order.Items {
		items[i] = models.OrderItemModel{
			ID:             item.ID,
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			ProductSKU:     item.ProductSKU,
			ProductImage:   item.ProductImage,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
			LineTotalMinor: item.LineTotalMinor,
		}
	}
	return &models.OrderModel{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		Status:             order.Status,
		PaymentStatus:      order.PaymentStatus,
		TotalMinor:         order.TotalMinor,
		Currency:           order.Currency,
		CustomerID:         order.CustomerID,
		CustomerEmail:      order.CustomerEmail,
		CustomerName:       order.CustomerName,
		CustomerPhone:      order.CustomerPhone,
		ShippingAddress:    order.ShippingAddress,
		Items:              items,
		CreatedAt:          order.CreatedAt,
		PaidAt:             order.PaidAt,
		CancelledAt:        order.CancelledAt,
		CancellationReason: order.CancellationReason,
	}
}

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	items := make([]domain.OrderItem, len(model.Items))
	for i, item := range model.Items {
		items[i] = domain.OrderItem{
			ID:             item.ID,
			OrderID:        item.OrderID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			ProductSKU:     item.ProductSKU,
			ProductImage:   item.ProductImage,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
			LineTotalMinor: item.LineTotalMinor,
		}
	}
	return &domain.Order{
		ID:                 model.ID,
		OrderNumber:        model.OrderNumber,
		Status:             model.Status,
		PaymentStatus:      model.PaymentStatus,
		TotalMinor:         model.TotalMinor,
		Currency:           model.Currency,
		CustomerID:         model.CustomerID,
		CustomerEmail:      model.CustomerEmail,
		CustomerName:       model.CustomerName,
		CustomerPhone:      model.CustomerPhone,
		ShippingAddress:    model.ShippingAddress,
		Items:              items,
		CreatedAt:          model.CreatedAt,
		PaidAt:             model.PaidAt,
		CancelledAt:        model.CancelledAt,
		CancellationReason: model.CancellationReason,
	}
}

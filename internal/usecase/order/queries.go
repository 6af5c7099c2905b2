package order

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sablecart/payment-service/internal/domain"
)

// GetOrder serves the storefront status page. Cache first; a miss or a cache
// outage falls through to postgres.
func (uc *DefaultOrderUsecase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if cached, err := uc.Cache.GetOrder(ctx, orderID); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		slog.Warn("order cache read failed", "order_id", orderID, "error", err.Error())
	}

	order, err := uc.OrderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if err := uc.Cache.SetOrder(ctx, order); err != nil {
		slog.Warn("order cache write failed", "order_id", orderID, "error", err.Error())
	}
	return order, nil
}

func (uc *DefaultOrderUsecase) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := uc.OrderRepo.GetOrderByNumber(orderNumber)
	if err != nil {
		return nil, err
	}
	if err := uc.Cache.SetOrder(ctx, order); err != nil {
		slog.Warn("order cache write failed", "order_id", order.ID, "error", err.Error())
	}
	return order, nil
}

func (uc *DefaultOrderUsecase) ListCustomerOrders(customerID string, page, limit int64) ([]*domain.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return uc.OrderRepo.ListOrdersByCustomerID(customerID, page, limit)
}

func (uc *DefaultOrderUsecase) ListSavedCards(customerID string) ([]*domain.SavedCard, error) {
	return uc.SavedCardRepo.ListByCustomerID(customerID)
}

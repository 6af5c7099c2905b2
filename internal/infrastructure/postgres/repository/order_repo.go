package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

// CreateOrder writes the order row, its items, and the stock decrements in
// one transaction, so a crash mid-checkout can never leave stock reserved
// without an order row to compensate from.
func (r *DefaultOrderRepository) CreateOrder(order *domain.Order) error {
	orderModel := mappers.ToGORMOrder(order)
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := reserveStock(tx, order.Items); err != nil {
			return err
		}
		if err := tx.Create(orderModel).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
}

func (r *DefaultOrderRepository) GetOrderByID(orderID string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return mappers.ToDomainOrder(&order), nil
}

func (r *DefaultOrderRepository) GetOrderByNumber(orderNumber string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.Preload("Items").First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return mappers.ToDomainOrder(&order), nil
}

func (r *DefaultOrderRepository) ListOrdersByCustomerID(customerID string, page, limit int64) ([]*domain.Order, int64, error) {
	var orderModels []models.OrderModel
	var total int64

	baseQuery := r.DB.Model(&models.OrderModel{}).Where("customer_id = ?", customerID)

	if err := baseQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * limit
	if err := baseQuery.
		Preload("Items").
		Order("created_at DESC").
		Offset(int(offset)).
		Limit(int(limit)).
		Find(&orderModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find orders: %w", err)
	}

	orders := make([]*domain.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModels[i])
	}

	return orders, total, nil
}

func (r *DefaultOrderRepository) MarkPaid(orderID string, paidAt time.Time) error {
	res := r.DB.Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_status": domain.PaymentStatusPaid,
			"status":         domain.OrderStatusProcessing,
			"paid_at":        paidAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// MarkFailed only settles orders whose payment is still open. The predicate
// makes concurrent cancels of the same order race on the row itself: exactly
// one caller sees the update land and owes the stock compensation, the rest
// get ErrInvalidTransition.
func (r *DefaultOrderRepository) MarkFailed(orderID, reason string, cancelledAt time.Time) error {
	res := r.DB.Model(&models.OrderModel{}).
		Where("id = ? AND payment_status NOT IN ?", orderID,
			[]domain.PaymentStatus{domain.PaymentStatusPaid, domain.PaymentStatusFailed}).
		Updates(map[string]interface{}{
			"payment_status":      domain.PaymentStatusFailed,
			"status":              domain.OrderStatusCancelled,
			"cancelled_at":        cancelledAt,
			"cancellation_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.DB.Model(&models.OrderModel{}).
			Where("id = ?", orderID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrOrderNotFound
		}
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *DefaultOrderRepository) MarkPaymentProcessing(orderID string) error {
	// Interim only: never move an order out of a terminal payment state.
	return r.DB.Model(&models.OrderModel{}).
		Where("id = ? AND payment_status NOT IN ?", orderID,
			[]domain.PaymentStatus{domain.PaymentStatusPaid, domain.PaymentStatusFailed}).
		Update("payment_status", domain.PaymentStatusProcessing).Error
}

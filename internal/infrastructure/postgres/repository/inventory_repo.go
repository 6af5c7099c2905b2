package repository

import (
	"fmt"

	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultInventoryRepository struct {
	DB *gorm.DB
}

func NewDefaultInventoryRepository(db *gorm.DB) *DefaultInventoryRepository {
	return &DefaultInventoryRepository{DB: db}
}

func (r *DefaultInventoryRepository) GetProducts(productIDs []string) ([]*domain.Product, error) {
	var productModels []models.ProductModel
	if err := r.DB.Where("id IN ?", productIDs).Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]*domain.Product, len(productModels))
	for i := range productModels {
		products[i] = mappers.ToDomainProduct(&productModels[i])
	}
	return products, nil
}

// reserveStock decrements stock for all items inside the caller's
// transaction. The stock_quantity >= quantity predicate makes each decrement
// atomic, so concurrent checkouts on the same product cannot oversell; a
// short line aborts the enclosing transaction.
func reserveStock(tx *gorm.DB, items []domain.OrderItem) error {
	for _, item := range items {
		res := tx.Model(&models.ProductModel{}).
			Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: product %s", domain.ErrInsufficientStock, item.ProductID)
		}
	}
	return nil
}

// Restore is best-effort compensation, not a distributed transaction: each
// increment stands on its own, and lines that fail are reported without
// rolling back their siblings.
func (r *DefaultInventoryRepository) Restore(orderID string, items []domain.OrderItem) error {
	var failed []string
	for _, item := range items {
		res := r.DB.Model(&models.ProductModel{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity))
		if res.Error != nil || res.RowsAffected == 0 {
			failed = append(failed, item.ProductID)
		}
	}
	if len(failed) > 0 {
		return &domain.CompensationPartialFailure{OrderID: orderID, FailedProductIDs: failed}
	}
	return nil
}

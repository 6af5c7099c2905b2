package models

import (
	"time"

	"github.com/sablecart/payment-service/internal/domain"
)

type OrderModel struct {
	ID                 string               `gorm:"primaryKey;type:uuid"`
	OrderNumber        string               `gorm:"uniqueIndex;not null"`
	Status             domain.OrderStatus   `gorm:"index;not null"`
	PaymentStatus      domain.PaymentStatus `gorm:"index;not null"`
	TotalMinor         int64                `gorm:"not null"`
	Currency           string               `gorm:"size:3;not null"`
	CustomerID         string               `gorm:"type:uuid;index;not null"`
	CustomerEmail      string               `gorm:"not null"`
	CustomerName       string
	CustomerPhone      string
	ShippingAddress    string
	Items              []OrderItemModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	CreatedAt          time.Time        `gorm:"index"`
	UpdatedAt          time.Time
	PaidAt             *time.Time
	CancelledAt        *time.Time
	CancellationReason string
}

func (OrderModel) TableName() string {
	return "orders"
}

type OrderItemModel struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	OrderID        string `gorm:"type:uuid;index;not null"`
	ProductID      string `gorm:"type:uuid;index;not null"`
	ProductName    string `gorm:"not null"`
	ProductSKU     string
	ProductImage   string
	Quantity       int   `gorm:"not null"`
	UnitPriceMinor int64 `gorm:"not null"`
	LineTotalMinor int64 `gorm:"not null"`
	CreatedAt      time.Time
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

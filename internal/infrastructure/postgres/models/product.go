package models

import "time"

type ProductModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	Name          string `gorm:"not null"`
	SKU           string `gorm:"uniqueIndex"`
	ImageURL      string
	PriceMinor    int64 `gorm:"not null"`
	StockQuantity int   `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

package models

import (
	"time"

	"github.com/sablecart/payment-service/internal/domain"
	"gorm.io/datatypes"
)

type TransactionModel struct {
	ID                string                   `gorm:"primaryKey;type:uuid"`
	OrderID           string                   `gorm:"type:uuid;index;not null"`
	Reference         string                   `gorm:"uniqueIndex;not null"`
	AmountMinor       int64                    `gorm:"not null"`
	Status            domain.TransactionStatus `gorm:"index;not null"`
	Channel           string
	GatewayResponse   string
	PaidAt            *time.Time
	CardAuthCode      string
	CardType          string
	CardLast4         string
	CardExpMonth      string
	CardExpYear       string
	CardBank          string
	CardReusable      bool
	WebhookReceivedAt *time.Time
	RawPayload        datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"index"`
	UpdatedAt         time.Time
}

func (TransactionModel) TableName() string {
	return "payment_transactions"
}

type SavedCardModel struct {
	ID                string `gorm:"primaryKey;type:uuid"`
	CustomerID        string `gorm:"type:uuid;index;not null"`
	AuthorizationCode string `gorm:"uniqueIndex;not null"`
	CardType          string
	Last4             string
	ExpMonth          string
	ExpYear           string
	Bank              string
	IsActive          bool `gorm:"default:true"`
	LastUsedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (SavedCardModel) TableName() string {
	return "saved_cards"
}

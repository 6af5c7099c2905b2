package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultSavedCardRepository struct {
	DB *gorm.DB
}

func NewDefaultSavedCardRepository(db *gorm.DB) *DefaultSavedCardRepository {
	return &DefaultSavedCardRepository{DB: db}
}

// Upsert is keyed on authorization_code: the gateway hands back the same code
// for the same physical card, so repeat payments refresh the row in place.
func (r *DefaultSavedCardRepository) Upsert(card *domain.SavedCard) error {
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	model := mappers.ToGORMSavedCard(card)
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "authorization_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"card_type", "last4", "exp_month", "exp_year", "bank",
			"is_active", "last_used_at", "updated_at",
		}),
	}).Create(model).Error
}

func (r *DefaultSavedCardRepository) GetByID(cardID string) (*domain.SavedCard, error) {
	var model models.SavedCardModel
	if err := r.DB.First(&model, "id = ?", cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSavedCardNotFound
		}
		return nil, err
	}
	return mappers.ToDomainSavedCard(&model), nil
}

func (r *DefaultSavedCardRepository) ListByCustomerID(customerID string) ([]*domain.SavedCard, error) {
	var cardModels []models.SavedCardModel
	if err := r.DB.
		Where("customer_id = ? AND is_active = ?", customerID, true).
		Order("created_at DESC").
		Find(&cardModels).Error; err != nil {
		return nil, err
	}

	cards := make([]*domain.SavedCard, len(cardModels))
	for i := range cardModels {
		cards[i] = mappers.ToDomainSavedCard(&cardModels[i])
	}
	return cards, nil
}

func (r *DefaultSavedCardRepository) TouchLastUsed(cardID string, usedAt time.Time) error {
	return r.DB.Model(&models.SavedCardModel{}).
		Where("id = ?", cardID).
		Update("last_used_at", usedAt).Error
}

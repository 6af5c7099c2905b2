package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// terminalStatuses guards every finalizing update: a row already in one of
// these states is never mutated again, no matter which path gets here.
var terminalStatuses = []domain.TransactionStatus{
	domain.TxStatusSuccess,
	domain.TxStatusFailed,
}

type DefaultTransactionRepository struct {
	DB *gorm.DB
}

func NewDefaultTransactionRepository(db *gorm.DB) *DefaultTransactionRepository {
	return &DefaultTransactionRepository{DB: db}
}

func (r *DefaultTransactionRepository) Create(tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	model := mappers.ToGORMTransaction(tx)
	if err := r.DB.Create(model).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *DefaultTransactionRepository) GetByReference(reference string) (*domain.Transaction, error) {
	var model models.TransactionModel
	if err := r.DB.First(&model, "reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReferenceNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&model), nil
}

func (r *DefaultTransactionRepository) GetLatestByOrderID(orderID string) (*domain.Transaction, error) {
	var model models.TransactionModel
	if err := r.DB.
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReferenceNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&model), nil
}

// FinalizeSuccess flips the row into its terminal success state with a single
// conditional UPDATE. The status predicate is the idempotency guard: under a
// webhook/poll race only one caller sees RowsAffected == 1.
func (r *DefaultTransactionRepository) FinalizeSuccess(reference string, details domain.SuccessDetails) error {
	updates := map[string]interface{}{
		"status":           domain.TxStatusSuccess,
		"channel":          details.Channel,
		"paid_at":          details.PaidAt,
		"gateway_response": details.GatewayResponse,
	}
	if details.Card != nil {
		updates["card_auth_code"] = details.Card.AuthorizationCode
		updates["card_type"] = details.Card.CardType
		updates["card_last4"] = details.Card.Last4
		updates["card_exp_month"] = details.Card.ExpMonth
		updates["card_exp_year"] = details.Card.ExpYear
		updates["card_bank"] = details.Card.Bank
		updates["card_reusable"] = details.Card.Reusable
	}
	if len(details.WebhookPayload) > 0 {
		updates["webhook_received_at"] = time.Now()
		updates["raw_payload"] = datatypes.JSON(details.WebhookPayload)
	}
	return r.finalize(reference, updates)
}

func (r *DefaultTransactionRepository) FinalizeFailure(reference, reason string, webhookPayload []byte) error {
	updates := map[string]interface{}{
		"status":           domain.TxStatusFailed,
		"gateway_response": reason,
	}
	if len(webhookPayload) > 0 {
		updates["webhook_received_at"] = time.Now()
		updates["raw_payload"] = datatypes.JSON(webhookPayload)
	}
	return r.finalize(reference, updates)
}

func (r *DefaultTransactionRepository) finalize(reference string, updates map[string]interface{}) error {
	res := r.DB.Model(&models.TransactionModel{}).
		Where("reference = ? AND status NOT IN ?", reference, terminalStatuses).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to finalize transaction %s: %w", reference, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.DB.Model(&models.TransactionModel{}).
			Where("reference = ?", reference).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrReferenceNotFound
		}
		return domain.ErrAlreadyFinalized
	}
	return nil
}

// MarkProcessing records an interim gateway status. Same guard as finalize:
// a row that already reached a terminal state is left untouched.
func (r *DefaultTransactionRepository) MarkProcessing(reference string) error {
	res := r.DB.Model(&models.TransactionModel{}).
		Where("reference = ? AND status NOT IN ?", reference, terminalStatuses).
		Update("status", domain.TxStatusProcessing)
	if res.Error != nil {
		return res.Error
	}
	return nil
}

func (r *DefaultTransactionRepository) FindStalePending(olderThan time.Time, limit int) ([]*domain.Transaction, error) {
	var txModels []models.TransactionModel
	if err := r.DB.
		Where("status NOT IN ?", terminalStatuses).
		Where("created_at < ?", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&txModels).Error; err != nil {
		return nil, err
	}

	txs := make([]*domain.Transaction, len(txModels))
	for i := range txModels {
		txs[i] = mappers.ToDomainTransaction(&txModels[i])
	}
	return txs, nil
}

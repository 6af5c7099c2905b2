package mappers

import (
	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/datatypes"
)

func ToGORMTransaction(tx *domain.Transaction) *models.TransactionModel {
	model := &models.TransactionModel{
		ID:                tx.ID,
		OrderID:           tx.OrderID,
		Reference:         tx.Reference,
		AmountMinor:       tx.AmountMinor,
		Status:            tx.Status,
		Channel:           tx.Channel,
		GatewayResponse:   tx.GatewayResponse,
		PaidAt:            tx.PaidAt,
		WebhookReceivedAt: tx.WebhookReceivedAt,
		CreatedAt:         tx.CreatedAt,
	}
	if len(tx.RawPayload) > 0 {
		model.RawPayload = datatypes.JSON(tx.RawPayload)
	}
	if tx.Card != nil {
		model.CardAuthCode = tx.Card.AuthorizationCode
		model.CardType = tx.Card.CardType
		model.CardLast4 = tx.Card.Last4
		model.CardExpMonth = tx.Card.ExpMonth
		model.CardExpYear = tx.Card.ExpYear
		model.CardBank = tx.Card.Bank
		model.CardReusable = tx.Card.Reusable
	}
	return model
}

func ToDomainTransaction(model *models.TransactionModel) *domain.Transaction {
	tx := &domain.Transaction{
		ID:                model.ID,
		OrderID:           model.OrderID,
		Reference:         model.Reference,
		AmountMinor:       model.AmountMinor,
		Status:            model.Status,
		Channel:           model.Channel,
		GatewayResponse:   model.GatewayResponse,
		PaidAt:            model.PaidAt,
		WebhookReceivedAt: model.WebhookReceivedAt,
		RawPayload:        []byte(model.RawPayload),
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
	if model.CardAuthCode != "" {
		tx.Card = &domain.CardAuthorization{
			AuthorizationCode: model.CardAuthCode,
			CardType:          model.CardType,
			Last4:             model.CardLast4,
			ExpMonth:          model.CardExpMonth,
			ExpYear:           model.CardExpYear,
			Bank:              model.CardBank,
			Reusable:          model.CardReusable,
		}
	}
	return tx
}

func ToGORMSavedCard(card *domain.SavedCard) *models.SavedCardModel {
	return &models.SavedCardModel{
		ID:                card.ID,
		CustomerID:        card.CustomerID,
		AuthorizationCode: card.AuthorizationCode,
		CardType:          card.CardType,
		Last4:             card.Last4,
		ExpMonth:          card.ExpMonth,
		ExpYear:           card.ExpYear,
		Bank:              card.Bank,
		IsActive:          card.IsActive,
		LastUsedAt:        card.LastUsedAt,
		CreatedAt:         card.CreatedAt,
	}
}

func ToDomainSavedCard(model *models.SavedCardModel) *domain.SavedCard {
	return &domain.SavedCard{
		ID:                model.ID,
		CustomerID:        model.CustomerID,
		AuthorizationCode: model.AuthorizationCode,
		CardType:          model.CardType,
		Last4:             model.Last4,
		ExpMonth:          model.ExpMonth,
		ExpYear:           model.ExpYear,
		Bank:              model.Bank,
		IsActive:          model.IsActive,
		LastUsedAt:        model.LastUsedAt,
		CreatedAt:         model.CreatedAt,
	}
}

func ToDomainProduct(model *models.ProductModel) *domain.Product {
	return &domain.Product{
		ID:            model.ID,
		Name:          model.Name,
		SKU:           model.SKU,
		ImageURL:      model.ImageURL,
		PriceMinor:    model.PriceMinor,
		StockQuantity: model.StockQuantity,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

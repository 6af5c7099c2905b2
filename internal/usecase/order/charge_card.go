package order

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/usecase/reconcile"
)

// ChargeSavedCard is the one-click checkout: same order construction as
// Checkout, but the charge runs against a stored authorization immediately
// instead of redirecting the customer to the gateway page. The synchronous
// gateway answer feeds the shared finalization, so the outcome lands exactly
// the way a webhook would land it.
func (uc *DefaultOrderUsecase) ChargeSavedCard(ctx context.Context, input *ChargeSavedCardInput) (*ChargeSavedCardOutput, error) {
	card, err := uc.SavedCardRepo.GetByID(input.SavedCardID)
	if err != nil {
		return nil, err
	}
	if card.CustomerID != input.CustomerID || !card.IsActive {
		return nil, domain.ErrSavedCardNotFound
	}

	order, err := uc.buildOrder(input.CustomerID, input.CustomerEmail, input.CustomerName,
		input.CustomerPhone, input.ShippingAddress, input.Currency, input.Items)
	if err != nil {
		return nil, err
	}

	if err := uc.OrderRepo.CreateOrder(order); err != nil {
		return nil, err
	}

	reference, err := newReference()
	if err != nil {
		uc.failCheckout(order, "reference generation failed")
		return nil, err
	}

	if err := uc.TxRepo.Create(&domain.Transaction{
		OrderID:     order.ID,
		Reference:   reference,
		AmountMinor: order.TotalMinor,
		Status:      domain.TxStatusPending,
	}); err != nil {
		uc.failCheckout(order, "payment attempt could not be recorded")
		return nil, err
	}

	uc.Metrics.RecordOrderCreated(order.Currency)

	result, err := uc.Gateway.ChargeAuthorization(ctx, domain.ChargeAuthorizationRequest{
		Email:             order.CustomerEmail,
		AmountMinor:       order.TotalMinor,
		Reference:         reference,
		AuthorizationCode: card.AuthorizationCode,
	})
	if errors.Is(err, domain.ErrGatewayRejected) {
		// The stored authorization was refused outright. Finalize as a
		// failure so the order closes and stock returns.
		result = &domain.ChargeResult{
			Reference:       reference,
			Status:          domain.GatewayStatusFailed,
			GatewayResponse: "saved card charge rejected",
		}
	} else if err != nil {
		// Transient gateway trouble: the ledger row stays pending and the
		// stale-pending sweep or a poll will settle it later.
		return nil, err
	}

	if err := uc.Finalizer.Finalize(ctx, result, reconcile.SourceCharge); err != nil &&
		!errors.Is(err, domain.ErrAlreadyFinalized) {
		return nil, err
	}

	if result.Status == domain.GatewayStatusSuccess {
		if err := uc.SavedCardRepo.TouchLastUsed(card.ID, time.Now()); err != nil {
			slog.Error("failed to touch saved card", "card_id", card.ID, "error", err.Error())
		}
	}

	tx, err := uc.TxRepo.GetByReference(reference)
	if err != nil {
		return nil, err
	}

	return &ChargeSavedCardOutput{
		Order:     order,
		Reference: reference,
		Status:    statusLabel(tx.Status),
	}, nil
}

func statusLabel(s domain.TransactionStatus) string {
	switch s {
	case domain.TxStatusSuccess:
		return "paid"
	case domain.TxStatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

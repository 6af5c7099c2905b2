package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
)

// Finalize applies one gateway-reported outcome to the ledger, the order,
// inventory and side effects. Both entry points route through here, so the
// ledger's conditional update is the single place the race is decided.
//
// Error contract: anything that fails before the ledger guard flips
// propagates to the caller (retryable). Once the guard has flipped, the
// financial truth is committed; later failures are logged and absorbed so no
// caller ever re-runs the side effects.
func (uc *DefaultReconcileUsecase) Finalize(ctx context.Context, result *domain.ChargeResult, source Source) error {
	switch result.Status {
	case domain.GatewayStatusSuccess:
		return uc.finalizeSuccess(ctx, result, source)
	case domain.GatewayStatusFailed:
		return uc.finalizeFailure(ctx, result, source)
	case domain.GatewayStatusPending:
		return uc.markInterim(result)
	default:
		// Abandoned: the customer never completed the checkout flow.
		// Nothing to record until the gateway reports a real outcome.
		return nil
	}
}

func (uc *DefaultReconcileUsecase) finalizeSuccess(ctx context.Context, result *domain.ChargeResult, source Source) error {
	tx, err := uc.TxRepo.GetByReference(result.Reference)
	if err != nil {
		return err
	}

	paidAt := time.Now()
	if result.PaidAt != nil {
		paidAt = *result.PaidAt
	}

	err = uc.TxRepo.FinalizeSuccess(result.Reference, domain.SuccessDetails{
		Channel:         result.Channel,
		PaidAt:          paidAt,
		GatewayResponse: result.GatewayResponse,
		Card:            result.Authorization,
		WebhookPayload:  auditPayload(result, source),
	})
	if errors.Is(err, domain.ErrAlreadyFinalized) {
		uc.Metrics.RecordDuplicateFinalization(string(source))
		return domain.ErrAlreadyFinalized
	}
	if err != nil {
		return err
	}

	// Guard flipped: from here on errors are terminal-but-logged.
	if err := uc.OrderRepo.MarkPaid(tx.OrderID, paidAt); err != nil {
		slog.Error("order update failed after ledger success", "order_id", tx.OrderID, "reference", result.Reference, "error", err.Error())
	}

	order, err := uc.OrderRepo.GetOrderByID(tx.OrderID)
	if err != nil {
		slog.Error("order lookup failed after ledger success", "order_id", tx.OrderID, "error", err.Error())
		uc.Metrics.RecordReconciled("paid", string(source))
		return nil
	}

	if result.Authorization != nil && result.Authorization.Reusable {
		uc.saveCard(order.CustomerID, result.Authorization, paidAt)
	}

	uc.publishAll(
		domain.NotificationEvent{
			Type:          domain.NotificationPaymentSuccess,
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerEmail: order.CustomerEmail,
			CustomerName:  order.CustomerName,
			AmountMinor:   order.TotalMinor,
			Currency:      order.Currency,
			Reference:     result.Reference,
			OccurredAt:    paidAt,
		},
		domain.NotificationEvent{
			Type:          domain.NotificationAdminOrderPaid,
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerEmail: uc.AdminEmail,
			CustomerName:  order.CustomerName,
			AmountMinor:   order.TotalMinor,
			Currency:      order.Currency,
			Reference:     result.Reference,
			OccurredAt:    paidAt,
		},
	)

	uc.invalidateViews(ctx, order)
	uc.Metrics.RecordReconciled("paid", string(source))
	return nil
}

func (uc *DefaultReconcileUsecase) finalizeFailure(ctx context.Context, result *domain.ChargeResult, source Source) error {
	tx, err := uc.TxRepo.GetByReference(result.Reference)
	if err != nil {
		return err
	}

	reason := result.GatewayResponse
	if reason == "" {
		reason = "payment failed"
	}

	err = uc.TxRepo.FinalizeFailure(result.Reference, reason, auditPayload(result, source))
	if errors.Is(err, domain.ErrAlreadyFinalized) {
		uc.Metrics.RecordDuplicateFinalization(string(source))
		return domain.ErrAlreadyFinalized
	}
	if err != nil {
		return err
	}

	now := time.Now()
	if err := uc.OrderRepo.MarkFailed(tx.OrderID, reason, now); err != nil {
		slog.Error("order update failed after ledger failure", "order_id", tx.OrderID, "reference", result.Reference, "error", err.Error())
	}

	order, err := uc.OrderRepo.GetOrderByID(tx.OrderID)
	if err != nil {
		slog.Error("order lookup failed after ledger failure", "order_id", tx.OrderID, "error", err.Error())
		uc.Metrics.RecordReconciled("failed", string(source))
		return nil
	}

	uc.restoreStock(order)

	uc.publishAll(domain.NotificationEvent{
		Type:          domain.NotificationPaymentFailed,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		CustomerName:  order.CustomerName,
		AmountMinor:   order.TotalMinor,
		Currency:      order.Currency,
		Reference:     result.Reference,
		Reason:        reason,
		OccurredAt:    now,
	})

	uc.invalidateViews(ctx, order)
	uc.Metrics.RecordReconciled("failed", string(source))
	return nil
}

// markInterim reflects a gateway "still settling" status (e.g. a bank
// transfer awaiting confirmation). No inventory, no email.
func (uc *DefaultReconcileUsecase) markInterim(result *domain.ChargeResult) error {
	tx, err := uc.TxRepo.GetByReference(result.Reference)
	if err != nil {
		return err
	}
	if tx.Status.Terminal() {
		return nil
	}
	if err := uc.TxRepo.MarkProcessing(result.Reference); err != nil {
		return err
	}
	return uc.OrderRepo.MarkPaymentProcessing(tx.OrderID)
}

func (uc *DefaultReconcileUsecase) saveCard(customerID string, auth *domain.CardAuthorization, usedAt time.Time) {
	card := &domain.SavedCard{
		CustomerID:        customerID,
		AuthorizationCode: auth.AuthorizationCode,
		CardType:          auth.CardType,
		Last4:             auth.Last4,
		ExpMonth:          auth.ExpMonth,
		ExpYear:           auth.ExpYear,
		Bank:              auth.Bank,
		IsActive:          true,
		LastUsedAt:        &usedAt,
		CreatedAt:         usedAt,
	}
	if err := uc.SavedCardRepo.Upsert(card); err != nil {
		slog.Error("failed to upsert saved card", "customer_id", customerID, "error", err.Error())
	}
}

func (uc *DefaultReconcileUsecase) restoreStock(order *domain.Order) {
	err := uc.InventoryRepo.Restore(order.ID, order.Items)
	if err == nil {
		uc.Metrics.RecordStockRestoration(false)
		return
	}

	var partial *domain.CompensationPartialFailure
	if errors.As(err, &partial) {
		slog.Error("stock restore incomplete, needs manual reconciliation",
			"order_id", partial.OrderID,
			"product_ids", strings.Join(partial.FailedProductIDs, ","))
	} else {
		slog.Error("stock restore failed", "order_id", order.ID, "error", err.Error())
	}
	uc.Metrics.RecordStockRestoration(true)
}

// publishAll fires the notification events concurrently, each caught on its
// own: an email failure must never fail the reconciliation or trigger a
// retry of the financial state change.
func (uc *DefaultReconcileUsecase) publishAll(events ...domain.NotificationEvent) {
	var wg sync.WaitGroup
	for _, event := range events {
		wg.Add(1)
		go func(ev domain.NotificationEvent) {
			defer wg.Done()
			if err := uc.Publisher.Publish(ev); err != nil {
				slog.Error("failed to publish notification event", "type", ev.Type, "order_id", ev.OrderID, "error", err.Error())
				uc.Metrics.RecordNotification(ev.Type, "error")
				return
			}
			uc.Metrics.RecordNotification(ev.Type, "published")
		}(event)
	}
	wg.Wait()
}

func (uc *DefaultReconcileUsecase) invalidateViews(ctx context.Context, order *domain.Order) {
	if err := uc.Cache.InvalidateOrder(ctx, order.ID, order.OrderNumber); err != nil {
		slog.Error("failed to invalidate order cache", "order_id", order.ID, "error", err.Error())
	}
}

// auditPayload keeps the raw gateway bytes only for pushes: the ledger's raw
// payload column is the webhook audit trail.
func auditPayload(result *domain.ChargeResult, source Source) []byte {
	if source == SourceWebhook {
		return result.Raw
	}
	return nil
}

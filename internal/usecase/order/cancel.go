package order

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/usecase/reconcile"
)

// CancelOrder closes an order the customer backed out of. When a payment
// attempt exists the cancellation goes through the ledger guard, so a
// success webhook racing the cancel still produces exactly one outcome.
func (uc *DefaultOrderUsecase) CancelOrder(ctx context.Context, orderID, reason string) error {
	order, err := uc.OrderRepo.GetOrderByID(orderID)
	if err != nil {
		return err
	}
	if !domain.CanTransitionOrder(order.Status, domain.OrderStatusCancelled) ||
		!domain.CanTransitionPayment(order.PaymentStatus, domain.PaymentStatusFailed) {
		return domain.ErrCancelOrder
	}
	if reason == "" {
		reason = "cancelled by customer"
	}

	tx, err := uc.TxRepo.GetLatestByOrderID(orderID)
	if err != nil && !errors.Is(err, domain.ErrReferenceNotFound) {
		return err
	}

	if tx != nil {
		err := uc.Finalizer.Finalize(ctx, &domain.ChargeResult{
			Reference:       tx.Reference,
			Status:          domain.GatewayStatusFailed,
			GatewayResponse: reason,
		}, reconcile.SourceCancel)
		if errors.Is(err, domain.ErrAlreadyFinalized) {
			return domain.ErrCancelOrder
		}
		return err
	}

	// No payment attempt was ever opened, so there is no ledger row to act
	// as the guard. MarkFailed's own terminal-state predicate plays that
	// role: concurrent cancels race on the update, one wins and releases
	// the stock, the rest lose with ErrInvalidTransition.
	if err := uc.OrderRepo.MarkFailed(orderID, reason, time.Now()); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return domain.ErrCancelOrder
		}
		return err
	}
	uc.releaseStock(order)
	if err := uc.Cache.InvalidateOrder(ctx, order.ID, order.OrderNumber); err != nil {
		slog.Error("failed to invalidate order cache", "order_id", order.ID, "error", err.Error())
	}
	return nil
}

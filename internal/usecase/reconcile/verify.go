package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
)

// VerifyPayment is entry point B: the storefront polls after the customer
// returns from the gateway's checkout page. It asks the gateway for the
// authoritative status and routes the answer through the same finalization
// algorithm the webhook uses.
//
// The gateway is consulted before the ledger: a success webhook may have been
// delayed or dropped, and the poll must not report stale "pending" when the
// gateway already knows the outcome.
func (uc *DefaultReconcileUsecase) VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error) {
	start := time.Now()
	defer func() {
		uc.Metrics.RecordVerifyDuration(time.Since(start).Seconds())
	}()

	result, err := uc.Gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	err = uc.Finalize(ctx, result, SourcePoll)
	if err != nil && !errors.Is(err, domain.ErrAlreadyFinalized) {
		return nil, err
	}

	// Re-read so a lost race still reports the winner's outcome, not the
	// outcome this poll happened to carry.
	tx, err := uc.TxRepo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	return uc.resultFromLedger(tx), nil
}

func (uc *DefaultReconcileUsecase) resultFromLedger(tx *domain.Transaction) *VerifyResult {
	return &VerifyResult{
		Status:  statusLabel(tx.Status),
		OrderID: tx.OrderID,
	}
}

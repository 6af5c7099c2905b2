package domain

import "time"

// TransactionRepository is the payment ledger: the single source of truth for
// "has this gateway reference already been finalized".
//
// FinalizeSuccess and FinalizeFailure must be implemented as one atomic
// conditional update (status flips only while the stored status is still
// non-terminal). A guard that loses the race returns ErrAlreadyFinalized; the
// caller treats that as a no-op, never as a reason to retry side effects.
type TransactionRepository interface {
	Create(tx *Transaction) error
	GetByReference(reference string) (*Transaction, error)
	GetLatestByOrderID(orderID string) (*Transaction, error)

	FinalizeSuccess(reference string, details SuccessDetails) error
	FinalizeFailure(reference, reason string, webhookPayload []byte) error
	MarkProcessing(reference string) error

	// FindStalePending returns non-terminal rows older than the cutoff, for
	// the background re-verification sweep.
	FindStalePending(olderThan time.Time, limit int) ([]*Transaction, error)
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrReferenceNotFound  = errors.New("transaction reference not found")
	ErrAlreadyFinalized   = errors.New("transaction already finalized")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected the reference")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrCancelOrder        = errors.New("order can no longer be cancelled")
	ErrSavedCardNotFound  = errors.New("saved card not found")
	ErrCacheMiss          = errors.New("cache miss")
)

// CompensationPartialFailure records stock restorations that failed after an
// order was already marked failed. The order's terminal state stands; the
// listed products need manual reconciliation.
type CompensationPartialFailure struct {
	OrderID          string
	FailedProductIDs []string
}

func (e *CompensationPartialFailure) Error() string {
	return fmt.Sprintf("stock restore incomplete for order %s: products [%s]",
		e.OrderID, strings.Join(e.FailedProductIDs, ", "))
}

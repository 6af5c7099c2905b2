package domain

import "time"

type TransactionStatus string

const (
	TxStatusPending    TransactionStatus = "pending"
	TxStatusProcessing TransactionStatus = "processing"
	TxStatusSuccess    TransactionStatus = "success"
	TxStatusFailed     TransactionStatus = "failed"
)

// Terminal reports whether the ledger row may no longer be mutated.
func (s TransactionStatus) Terminal() bool {
	return s == TxStatusSuccess || s == TxStatusFailed
}

// CardAuthorization is the card metadata the gateway returns with a charge.
// Only authorizations flagged Reusable are worth persisting as saved cards.
type CardAuthorization struct {
	AuthorizationCode string
	CardType          string
	Last4             string
	ExpMonth          string
	ExpYear           string
	Bank              string
	Reusable          bool
}

// Transaction is one payment attempt against the gateway. The gateway
// reference is unique per row and is the idempotency key for reconciliation.
// An order may accumulate several attempts; each reconciles independently.
type Transaction struct {
	ID                string
	OrderID           string
	Reference         string
	AmountMinor       int64
	Status            TransactionStatus
	Channel           string
	GatewayResponse   string
	PaidAt            *time.Time
	Card              *CardAuthorization
	WebhookReceivedAt *time.Time
	RawPayload        []byte
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SuccessDetails is everything FinalizeSuccess persists alongside the
// terminal status flip.
type SuccessDetails struct {
	Channel         string
	PaidAt          time.Time
	GatewayResponse string
	Card            *CardAuthorization
	WebhookPayload  []byte
}

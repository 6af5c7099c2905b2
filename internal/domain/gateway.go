package domain

import (
	"context"
	"time"
)

// GatewayStatus is the closed set of charge outcomes the gateway vocabulary
// maps onto. Mapping from raw gateway strings happens once, inside the
// gateway client; everything above it switches exhaustively on these.
type GatewayStatus string

const (
	GatewayStatusSuccess   GatewayStatus = "success"
	GatewayStatusFailed    GatewayStatus = "failed"
	GatewayStatusAbandoned GatewayStatus = "abandoned"
	GatewayStatusPending   GatewayStatus = "pending"
)

type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
	Metadata    map[string]string
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type ChargeAuthorizationRequest struct {
	Email             string
	AmountMinor       int64
	Reference         string
	AuthorizationCode string
}

// ChargeResult is the gateway's reported outcome for one reference,
// normalized into internal vocabulary. Raw keeps the untouched response body
// for the audit trail.
type ChargeResult struct {
	Reference       string
	Status          GatewayStatus
	Channel         string
	PaidAt          *time.Time
	Authorization   *CardAuthorization
	GatewayResponse string
	Raw             []byte
}

// PaymentGateway isolates all traffic with the payment provider.
//
// Verify must tolerate "not yet settled" (pending/abandoned) as data, not an
// error. Transport/5xx failures surface as ErrGatewayUnavailable (retryable);
// an explicit refusal of the reference surfaces as ErrGatewayRejected.
type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*ChargeResult, error)
	ChargeAuthorization(ctx context.Context, req ChargeAuthorizationRequest) (*ChargeResult, error)

	// VerifyWebhookSignature checks the HMAC over the exact raw bytes
	// received, not a re-serialized object, so key ordering cannot break it.
	VerifyWebhookSignature(rawBody []byte, signatureHeader string) bool
}

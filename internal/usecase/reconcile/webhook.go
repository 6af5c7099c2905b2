package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
	EventChargePending = "charge.pending"
)

type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	Reference       string                `json:"reference"`
	Status          string                `json:"status"`
	Channel         string                `json:"channel"`
	PaidAt          string                `json:"paid_at"`
	GatewayResponse string                `json:"gateway_response"`
	Authorization   *WebhookAuthorization `json:"authorization"`
}

type WebhookAuthorization struct {
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	ExpMonth          string `json:"exp_month"`
	ExpYear           string `json:"exp_year"`
	Bank              string `json:"bank"`
	Reusable          bool   `json:"reusable"`
}

// HandleWebhook is entry point A. The HTTP handler has already authenticated
// the signature and will ACK the gateway with 200 no matter what happens
// here; a non-nil return is for logging and alerting only.
func (uc *DefaultReconcileUsecase) HandleWebhook(ctx context.Context, event *WebhookEvent, rawBody []byte) error {
	uc.Metrics.RecordWebhookEvent(event.Event)

	var status domain.GatewayStatus
	switch event.Event {
	case EventChargeSuccess:
		status = domain.GatewayStatusSuccess
	case EventChargeFailed:
		status = domain.GatewayStatusFailed
	case EventChargePending:
		status = domain.GatewayStatusPending
	default:
		slog.Info("ignoring unhandled webhook event", "event", event.Event)
		return nil
	}

	result := event.toChargeResult(status, rawBody)

	err := uc.Finalize(ctx, result, SourceWebhook)
	if err == nil || errors.Is(err, domain.ErrAlreadyFinalized) {
		return nil
	}
	if errors.Is(err, domain.ErrReferenceNotFound) {
		// Likely a race with slow order creation, or a foreign reference.
		slog.Warn("dropping webhook for unknown reference", "reference", result.Reference, "event", event.Event)
		uc.Metrics.RecordWebhookProcessingFailure()
		return nil
	}

	uc.Metrics.RecordWebhookProcessingFailure()
	return err
}

func (e *WebhookEvent) toChargeResult(status domain.GatewayStatus, rawBody []byte) *domain.ChargeResult {
	result := &domain.ChargeResult{
		Reference:       e.Data.Reference,
		Status:          status,
		Channel:         e.Data.Channel,
		GatewayResponse: e.Data.GatewayResponse,
		Raw:             rawBody,
	}
	if e.Data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, e.Data.PaidAt); err == nil {
			result.PaidAt = &t
		}
	}
	if auth := e.Data.Authorization; auth != nil && auth.AuthorizationCode != "" {
		result.Authorization = &domain.CardAuthorization{
			AuthorizationCode: auth.AuthorizationCode,
			CardType:          auth.CardType,
			Last4:             auth.Last4,
			ExpMonth:          auth.ExpMonth,
			ExpYear:           auth.ExpYear,
			Bank:              auth.Bank,
			Reusable:          auth.Reusable,
		}
	}
	return result
}

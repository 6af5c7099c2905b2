package reconcile

import (
	"context"

	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/metrics"
)

// Source identifies which entry point drove a finalization. The two external
// triggers (gateway webhook, client poll) may race for the same reference;
// charge and cancel reuse the same algorithm in-process.
type Source string

const (
	SourceWebhook Source = "webhook"
	SourcePoll    Source = "poll"
	SourceCharge  Source = "charge"
	SourceCancel  Source = "cancel"
)

// VerifyResult is what the poll path reports back to the storefront's order
// status page. Status is one of "paid", "failed", "pending", never raw
// gateway text.
type VerifyResult struct {
	Status  string
	OrderID string
}

type ReconcileUsecase interface {
	HandleWebhook(ctx context.Context, event *WebhookEvent, rawBody []byte) error
	VerifyPayment(ctx context.Context, reference string) (*VerifyResult, error)
	Finalize(ctx context.Context, result *domain.ChargeResult, source Source) error
}

// DefaultReconcileUsecase drives the order/payment lifecycle from gateway
// outcomes. Both entry points converge on Finalize; the transaction ledger's
// atomic guard is what makes the convergence safe.
type DefaultReconcileUsecase struct {
	TxRepo        domain.TransactionRepository
	OrderRepo     domain.OrderRepository
	SavedCardRepo domain.SavedCardRepository
	InventoryRepo domain.InventoryRepository
	Gateway       domain.PaymentGateway
	Publisher     domain.NotificationPublisher
	Cache         domain.OrderCache
	AdminEmail    string
	Metrics       *metrics.PaymentMetrics
}

func NewDefaultReconcileUsecase(
	txRepo domain.TransactionRepository,
	orderRepo domain.OrderRepository,
	savedCardRepo domain.SavedCardRepository,
	inventoryRepo domain.InventoryRepository,
	gateway domain.PaymentGateway,
	publisher domain.NotificationPublisher,
	cache domain.OrderCache,
	adminEmail string,
	paymentMetrics *metrics.PaymentMetrics) *DefaultReconcileUsecase {

	return &DefaultReconcileUsecase{
		TxRepo:        txRepo,
		OrderRepo:     orderRepo,
		SavedCardRepo: savedCardRepo,
		InventoryRepo: inventoryRepo,
		Gateway:       gateway,
		Publisher:     publisher,
		Cache:         cache,
		AdminEmail:    adminEmail,
		Metrics:       paymentMetrics,
	}
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

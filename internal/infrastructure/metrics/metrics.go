package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics holds every series the reconciliation path records.
type PaymentMetrics struct {
	WebhookEventsTotal *prometheus.CounterVec

	ReconciledTotal             *prometheus.CounterVec
	DuplicateFinalizationsTotal *prometheus.CounterVec

	WebhookProcessingFailuresTotal prometheus.Counter

	StockRestorationsTotal    prometheus.Counter
	StockRestoreFailuresTotal prometheus.Counter

	NotificationEventsTotal *prometheus.CounterVec

	OrdersCreatedTotal *prometheus.CounterVec

	VerifyDuration prometheus.Histogram
}

func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	factory := promauto.With(reg)

	return &PaymentMetrics{
		WebhookEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "Webhook events received per gateway event type",
			},
			[]string{"event"},
		),

		ReconciledTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payments_reconciled_total",
				Help: "Terminal payment outcomes applied, by outcome and entry point",
			},
			[]string{"outcome", "source"},
		),

		DuplicateFinalizationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplicate_finalizations_total",
				Help: "Finalization attempts that lost the idempotency guard",
			},
			[]string{"source"},
		),

		WebhookProcessingFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webhook_processing_failures_total",
				Help: "Webhook payloads ACKed to the gateway but not fully processed",
			},
		),

		StockRestorationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stock_restorations_total",
				Help: "Orders whose stock was restored after payment failure",
			},
		),

		StockRestoreFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stock_restore_failures_total",
				Help: "Orders with at least one failed stock restoration line",
			},
		),

		NotificationEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_events_total",
				Help: "Notification events published, by type and result",
			},
			[]string{"type", "status"},
		),

		OrdersCreatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Orders created at checkout",
			},
			[]string{"currency"},
		),

		VerifyDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "verify_duration_seconds",
				Help:    "Latency of the poll/verify path",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
	}
}

func (m *PaymentMetrics) RecordWebhookEvent(event string) {
	m.WebhookEventsTotal.WithLabelValues(event).Inc()
}

func (m *PaymentMetrics) RecordReconciled(outcome, source string) {
	m.ReconciledTotal.WithLabelValues(outcome, source).Inc()
}

func (m *PaymentMetrics) RecordDuplicateFinalization(source string) {
	m.DuplicateFinalizationsTotal.WithLabelValues(source).Inc()
}

func (m *PaymentMetrics) RecordWebhookProcessingFailure() {
	m.WebhookProcessingFailuresTotal.Inc()
}

func (m *PaymentMetrics) RecordStockRestoration(partial bool) {
	m.StockRestorationsTotal.Inc()
	if partial {
		m.StockRestoreFailuresTotal.Inc()
	}
}

func (m *PaymentMetrics) RecordNotification(eventType, status string) {
	m.NotificationEventsTotal.WithLabelValues(eventType, status).Inc()
}

func (m *PaymentMetrics) RecordOrderCreated(currency string) {
	m.OrdersCreatedTotal.WithLabelValues(currency).Inc()
}

func (m *PaymentMetrics) RecordVerifyDuration(seconds float64) {
	m.VerifyDuration.Observe(seconds)
}

package domain

import "time"

const (
	NotificationPaymentSuccess = "payment_success"
	NotificationPaymentFailed  = "payment_failed"
	NotificationAdminOrderPaid = "admin_order_paid"
)

// NotificationEvent is consumed by the notification service, which turns it
// into customer/admin emails. Publishing is best-effort: a failure is logged
// and counted, never propagated into the financial state change.
type NotificationEvent struct {
	Type          string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
	Reference     string    `json:"reference"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type NotificationPublisher interface {
	Publish(event NotificationEvent) error
}

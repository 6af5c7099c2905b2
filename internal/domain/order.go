package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Terminal reports whether no further payment transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// CanTransitionPayment validates the payment state machine:
// pending -> processing -> {paid | failed}.
func CanTransitionPayment(from, to PaymentStatus) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case PaymentStatusProcessing:
		return from == PaymentStatusPending || from == PaymentStatusProcessing
	case PaymentStatusPaid, PaymentStatusFailed:
		return from == PaymentStatusPending || from == PaymentStatusProcessing
	default:
		return false
	}
}

// CanTransitionOrder validates the fulfillment state machine:
// pending -> processing -> shipped -> delivered, with cancellation
// possible from pending/processing only.
func CanTransitionOrder(from, to OrderStatus) bool {
	switch to {
	case OrderStatusProcessing:
		return from == OrderStatusPending
	case OrderStatusShipped:
		return from == OrderStatusProcessing
	case OrderStatusDelivered:
		return from == OrderStatusShipped
	case OrderStatusCancelled:
		return from == OrderStatusPending || from == OrderStatusProcessing
	default:
		return false
	}
}

type Order struct {
	ID                 string
	OrderNumber        string
	Status             OrderStatus
	PaymentStatus      PaymentStatus
	TotalMinor         int64
	Currency           string
	CustomerID         string
	CustomerEmail      string
	CustomerName       string
	CustomerPhone      string
	ShippingAddress    string
	Items              []OrderItem
	CreatedAt          time.Time
	PaidAt             *time.Time
	CancelledAt        *time.Time
	CancellationReason string
}

// OrderItem carries a product snapshot taken at order time so historical
// orders are unaffected by catalog edits.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	ProductName    string
	ProductSKU     string
	ProductImage   string
	Quantity       int
	UnitPriceMinor int64
	LineTotalMinor int64
}

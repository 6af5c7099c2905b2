package domain

import "time"

type OrderRepository interface {
	// CreateOrder persists the order with its items and decrements stock for
	// every line in one transaction. Either the order exists with its stock
	// held, or nothing changed; a short line fails the whole call with
	// ErrInsufficientStock.
	CreateOrder(order *Order) error
	GetOrderByID(orderID string) (*Order, error)
	GetOrderByNumber(orderNumber string) (*Order, error)
	ListOrdersByCustomerID(customerID string, page, limit int64) ([]*Order, int64, error)

	// MarkPaid is only ever called by the reconciliation path after the
	// ledger guard has passed, so it does not re-check the transition.
	MarkPaid(orderID string, paidAt time.Time) error

	// MarkFailed is also reachable outside the ledger guard, for orders that
	// never opened a payment attempt. The update itself must refuse orders
	// already in a terminal payment state and report the lost race with
	// ErrInvalidTransition, so concurrent cancels cannot each trigger stock
	// compensation.
	MarkFailed(orderID, reason string, cancelledAt time.Time) error
	MarkPaymentProcessing(orderID string) error
}

package domain

import "context"

// OrderCache holds rendered order views for the storefront status page.
// Reconciliation only ever signals staleness (Invalidate); it never writes
// through, so a cache outage degrades reads without touching correctness.
type OrderCache interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	SetOrder(ctx context.Context, order *Order) error
	InvalidateOrder(ctx context.Context, orderID, orderNumber string) error
}

package domain

import "time"

type Product struct {
	ID            string
	Name          string
	SKU           string
	ImageURL      string
	PriceMinor    int64
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InventoryRepository adjusts per-product stock counters. Restore must use
// atomic increments at the storage layer, never read-modify-write, since
// restorations for different orders can race on the same product. The
// matching decrement happens inside OrderRepository.CreateOrder, in the same
// transaction that persists the order.
type InventoryRepository interface {
	GetProducts(productIDs []string) ([]*Product, error)

	// Restore increments stock for every item, best effort. Lines that fail
	// are reported via *CompensationPartialFailure; sibling restorations are
	// not rolled back.
	Restore(orderID string, items []OrderItem) error
}

package domain

import "time"

// SavedCard is a reusable gateway authorization scoped to a customer.
// AuthorizationCode is the upsert key: the gateway returns the same code for
// the same card, so repeated successful payments refresh rather than
// duplicate the row.
type SavedCard struct {
	ID                string
	CustomerID        string
	AuthorizationCode string
	CardType          string
	Last4             string
	ExpMonth          string
	ExpYear           string
	Bank              string
	IsActive          bool
	LastUsedAt        *time.Time
	CreatedAt         time.Time
}

type SavedCardRepository interface {
	Upsert(card *SavedCard) error
	GetByID(cardID string) (*SavedCard, error)
	ListByCustomerID(customerID string) ([]*SavedCard, error)
	TouchLastUsed(cardID string, usedAt time.Time) error
}

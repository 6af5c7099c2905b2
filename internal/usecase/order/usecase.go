package order

import (
	"context"

	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/metrics"
	"github.com/sablecart/payment-service/internal/usecase/reconcile"
)

const defaultCurrency = "NGN"

// PaymentFinalizer is the slice of the reconciliation orchestrator the
// checkout side needs: in-process outcomes (saved-card charge, cancel) feed
// the same algorithm the webhook and poll paths use.
type PaymentFinalizer interface {
	Finalize(ctx context.Context, result *domain.ChargeResult, source reconcile.Source) error
}

type CheckoutItemInput struct {
	ProductID string
	Quantity  int
}

type CheckoutInput struct {
	CustomerID      string
	CustomerEmail   string
	CustomerName    string
	CustomerPhone   string
	ShippingAddress string
	Currency        string
	Items           []CheckoutItemInput
}

// CheckoutOutput carries what the storefront needs to hand the customer over
// to the gateway's checkout page.
type CheckoutOutput struct {
	Order            *domain.Order
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

type ChargeSavedCardInput struct {
	CustomerID      string
	SavedCardID     string
	CustomerEmail   string
	CustomerName    string
	CustomerPhone   string
	ShippingAddress string
	Currency        string
	Items           []CheckoutItemInput
}

type ChargeSavedCardOutput struct {
	Order     *domain.Order
	Reference string
	Status    string
}

type OrderUsecase interface {
	Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error)
	ChargeSavedCard(ctx context.Context, input *ChargeSavedCardInput) (*ChargeSavedCardOutput, error)
	CancelOrder(ctx context.Context, orderID, reason string) error

	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListCustomerOrders(customerID string, page, limit int64) ([]*domain.Order, int64, error)
	ListSavedCards(customerID string) ([]*domain.SavedCard, error)
}

type DefaultOrderUsecase struct {
	OrderRepo     domain.OrderRepository
	TxRepo        domain.TransactionRepository
	InventoryRepo domain.InventoryRepository
	SavedCardRepo domain.SavedCardRepository
	Gateway       domain.PaymentGateway
	Finalizer     PaymentFinalizer
	Cache         domain.OrderCache
	Metrics       *metrics.PaymentMetrics
}

func NewDefaultOrderUsecase(
	orderRepo domain.OrderRepository,
	txRepo domain.TransactionRepository,
	inventoryRepo domain.InventoryRepository,
	savedCardRepo domain.SavedCardRepository,
	gateway domain.PaymentGateway,
	finalizer PaymentFinalizer,
	cache domain.OrderCache,
	paymentMetrics *metrics.PaymentMetrics) *DefaultOrderUsecase {

	return &DefaultOrderUsecase{
		OrderRepo:     orderRepo,
		TxRepo:        txRepo,
		InventoryRepo: inventoryRepo,
		SavedCardRepo: savedCardRepo,
		Gateway:       gateway,
		Finalizer:     finalizer,
		Cache:         cache,
		Metrics:       paymentMetrics,
	}
}

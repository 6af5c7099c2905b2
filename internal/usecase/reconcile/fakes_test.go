package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/metrics"
)

type fakeTxRepo struct {
	mu  sync.Mutex
	txs map[string]*domain.Transaction
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{txs: make(map[string]*domain.Transaction)}
}

func (r *fakeTxRepo) Create(tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	r.txs[tx.Reference] = &cp
	return nil
}

func (r *fakeTxRepo) GetByReference(reference string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[reference]
	if !ok {
		return nil, domain.ErrReferenceNotFound
	}
	cp := *tx
	return &cp, nil
}

func (r *fakeTxRepo) GetLatestByOrderID(orderID string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.Transaction
	for _, tx := range r.txs {
		if tx.OrderID == orderID && (latest == nil || tx.CreatedAt.After(latest.CreatedAt)) {
			latest = tx
		}
	}
	if latest == nil {
		return nil, domain.ErrReferenceNotFound
	}
	cp := *latest
	return &cp, nil
}

// FinalizeSuccess mirrors the conditional update the postgres repository
// runs: the status flips only while the stored status is non-terminal, under
// one lock, so concurrent callers see exactly one winner.
func (r *fakeTxRepo) FinalizeSuccess(reference string, details domain.SuccessDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[reference]
	if !ok {
		return domain.ErrReferenceNotFound
	}
	if tx.Status.Terminal() {
		return domain.ErrAlreadyFinalized
	}
	tx.Status = domain.TxStatusSuccess
	tx.Channel = details.Channel
	tx.GatewayResponse = details.GatewayResponse
	paidAt := details.PaidAt
	tx.PaidAt = &paidAt
	tx.Card = details.Card
	tx.RawPayload = details.WebhookPayload
	return nil
}

func (r *fakeTxRepo) FinalizeFailure(reference, reason string, webhookPayload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[reference]
	if !ok {
		return domain.ErrReferenceNotFound
	}
	if tx.Status.Terminal() {
		return domain.ErrAlreadyFinalized
	}
	tx.Status = domain.TxStatusFailed
	tx.GatewayResponse = reason
	tx.RawPayload = webhookPayload
	return nil
}

func (r *fakeTxRepo) MarkProcessing(reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[reference]
	if !ok {
		return domain.ErrReferenceNotFound
	}
	if tx.Status.Terminal() {
		return domain.ErrAlreadyFinalized
	}
	tx.Status = domain.TxStatusProcessing
	return nil
}

func (r *fakeTxRepo) FindStalePending(olderThan time.Time, limit int) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stale []*domain.Transaction
	for _, tx := range r.txs {
		if !tx.Status.Terminal() && tx.CreatedAt.Before(olderThan) && len(stale) < limit {
			cp := *tx
			stale = append(stale, &cp)
		}
	}
	return stale, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) CreateOrder(order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) GetOrderByNumber(orderNumber string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			cp := *order
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeOrderRepo) ListOrdersByCustomerID(customerID string, page, limit int64) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			cp := *order
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) MarkPaid(orderID string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.PaymentStatus = domain.PaymentStatusPaid
	order.Status = domain.OrderStatusProcessing
	order.PaidAt = &paidAt
	return nil
}

func (r *fakeOrderRepo) MarkFailed(orderID, reason string, cancelledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.PaymentStatus.Terminal() {
		return domain.ErrInvalidTransition
	}
	order.PaymentStatus = domain.PaymentStatusFailed
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &cancelledAt
	order.CancellationReason = reason
	return nil
}

func (r *fakeOrderRepo) MarkPaymentProcessing(orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.PaymentStatus = domain.PaymentStatusProcessing
	return nil
}

type fakeInventoryRepo struct {
	mu           sync.Mutex
	stock        map[string]int
	restoreCalls int

	// product IDs whose restoration fails, reported the way the real
	// repository does: siblings still land, the failed lines come back in a
	// CompensationPartialFailure.
	failRestore map[string]bool
}

func newFakeInventoryRepo(stock map[string]int) *fakeInventoryRepo {
	s := make(map[string]int, len(stock))
	for k, v := range stock {
		s[k] = v
	}
	return &fakeInventoryRepo{stock: s}
}

func (r *fakeInventoryRepo) GetProducts(productIDs []string) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Product
	for _, id := range productIDs {
		if qty, ok := r.stock[id]; ok {
			out = append(out, &domain.Product{ID: id, StockQuantity: qty, PriceMinor: 1000})
		}
	}
	return out, nil
}

func (r *fakeInventoryRepo) reserve(items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		if r.stock[item.ProductID] < item.Quantity {
			return domain.ErrInsufficientStock
		}
	}
	for _, item := range items {
		r.stock[item.ProductID] -= item.Quantity
	}
	return nil
}

func (r *fakeInventoryRepo) Restore(orderID string, items []domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restoreCalls++
	var failed []string
	for _, item := range items {
		if r.failRestore[item.ProductID] {
			failed = append(failed, item.ProductID)
			continue
		}
		r.stock[item.ProductID] += item.Quantity
	}
	if len(failed) > 0 {
		return &domain.CompensationPartialFailure{OrderID: orderID, FailedProductIDs: failed}
	}
	return nil
}

func (r *fakeInventoryRepo) stockOf(productID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stock[productID]
}

func (r *fakeInventoryRepo) restores() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restoreCalls
}

type fakeSavedCardRepo struct {
	mu    sync.Mutex
	cards map[string]*domain.SavedCard
}

func newFakeSavedCardRepo() *fakeSavedCardRepo {
	return &fakeSavedCardRepo{cards: make(map[string]*domain.SavedCard)}
}

func (r *fakeSavedCardRepo) Upsert(card *domain.SavedCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *card
	r.cards[card.AuthorizationCode] = &cp
	return nil
}

func (r *fakeSavedCardRepo) GetByID(cardID string) (*domain.SavedCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, card := range r.cards {
		if card.ID == cardID {
			cp := *card
			return &cp, nil
		}
	}
	return nil, domain.ErrSavedCardNotFound
}

func (r *fakeSavedCardRepo) ListByCustomerID(customerID string) ([]*domain.SavedCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.SavedCard
	for _, card := range r.cards {
		if card.CustomerID == customerID {
			cp := *card
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSavedCardRepo) TouchLastUsed(cardID string, usedAt time.Time) error {
	return nil
}

func (r *fakeSavedCardRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cards)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.NotificationEvent
	err    error
}

func (p *fakePublisher) Publish(event domain.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []domain.NotificationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.NotificationEvent, len(p.events))
	copy(out, p.events)
	return out
}

func (p *fakePublisher) countOf(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

type fakeCache struct {
	mu            sync.Mutex
	invalidations int
}

func (c *fakeCache) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return nil, domain.ErrCacheMiss
}

func (c *fakeCache) SetOrder(ctx context.Context, order *domain.Order) error {
	return nil
}

func (c *fakeCache) InvalidateOrder(ctx context.Context, orderID, orderNumber string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	return nil
}

func (c *fakeCache) invalidated() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations
}

type fakeGateway struct {
	mu          sync.Mutex
	verifyByRef map[string]*domain.ChargeResult
	verifyErr   error
	verifyCalls int
}

func (g *fakeGateway) Initialize(ctx context.Context, req domain.InitializeRequest) (*domain.InitializeResult, error) {
	return &domain.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.com/abc",
		AccessCode:       "abc",
		Reference:        req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*domain.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if result, ok := g.verifyByRef[reference]; ok {
		return result, nil
	}
	return &domain.ChargeResult{Reference: reference, Status: domain.GatewayStatusPending}, nil
}

func (g *fakeGateway) ChargeAuthorization(ctx context.Context, req domain.ChargeAuthorizationRequest) (*domain.ChargeResult, error) {
	return &domain.ChargeResult{Reference: req.Reference, Status: domain.GatewayStatusSuccess}, nil
}

func (g *fakeGateway) VerifyWebhookSignature(rawBody []byte, signatureHeader string) bool {
	return signatureHeader != ""
}

type fixture struct {
	uc        *DefaultReconcileUsecase
	txRepo    *fakeTxRepo
	orderRepo *fakeOrderRepo
	inventory *fakeInventoryRepo
	cards     *fakeSavedCardRepo
	gateway   *fakeGateway
	publisher *fakePublisher
	cache     *fakeCache
}

func newFixture() *fixture {
	f := &fixture{
		txRepo:    newFakeTxRepo(),
		orderRepo: newFakeOrderRepo(),
		inventory: newFakeInventoryRepo(map[string]int{"prod-a": 10, "prod-b": 5}),
		cards:     newFakeSavedCardRepo(),
		gateway:   &fakeGateway{verifyByRef: make(map[string]*domain.ChargeResult)},
		publisher: &fakePublisher{},
		cache:     &fakeCache{},
	}
	f.uc = NewDefaultReconcileUsecase(
		f.txRepo,
		f.orderRepo,
		f.cards,
		f.inventory,
		f.gateway,
		f.publisher,
		f.cache,
		"admin@sablecart.test",
		metrics.NewPaymentMetrics(prometheus.NewRegistry()),
	)
	return f
}

// seedOrder creates a pending order with a pending ledger row, with stock
// already reserved, the way a completed checkout leaves the world.
func (f *fixture) seedOrder(orderID, reference string) *domain.Order {
	order := &domain.Order{
		ID:            orderID,
		OrderNumber:   "ORD-" + orderID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		TotalMinor:    4500,
		Currency:      "NGN",
		CustomerID:    "cust-1",
		CustomerEmail: "ada@example.com",
		CustomerName:  "Ada",
		Items: []domain.OrderItem{
			{ProductID: "prod-a", Quantity: 2, UnitPriceMinor: 1000, LineTotalMinor: 2000},
			{ProductID: "prod-b", Quantity: 1, UnitPriceMinor: 2500, LineTotalMinor: 2500},
		},
		CreatedAt: time.Now().Add(-time.Minute),
	}
	_ = f.orderRepo.CreateOrder(order)
	_ = f.inventory.reserve(order.Items)
	_ = f.txRepo.Create(&domain.Transaction{
		ID:          "tx-" + orderID,
		OrderID:     orderID,
		Reference:   reference,
		AmountMinor: order.TotalMinor,
		Status:      domain.TxStatusPending,
		CreatedAt:   time.Now().Add(-time.Minute),
	})
	return order
}

package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
)

func successResult(reference string) *domain.ChargeResult {
	paidAt := time.Now()
	return &domain.ChargeResult{
		Reference:       reference,
		Status:          domain.GatewayStatusSuccess,
		Channel:         "card",
		PaidAt:          &paidAt,
		GatewayResponse: "Successful",
		Authorization: &domain.CardAuthorization{
			AuthorizationCode: "AUTH_x1",
			CardType:          "visa",
			Last4:             "4081",
			ExpMonth:          "12",
			ExpYear:           "2030",
			Bank:              "TEST BANK",
			Reusable:          true,
		},
		Raw: []byte(`{"event":"charge.success"}`),
	}
}

func TestFinalizeSuccess(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	if err := f.uc.Finalize(context.Background(), successResult("REF-1"), SourceWebhook); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	tx, _ := f.txRepo.GetByReference("REF-1")
	if tx.Status != domain.TxStatusSuccess {
		t.Errorf("transaction status = %s, want success", tx.Status)
	}
	if len(tx.RawPayload) == 0 {
		t.Error("webhook raw payload was not stored on the ledger row")
	}

	order, _ := f.orderRepo.GetOrderByID("ord-1")
	if order.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("payment status = %s, want paid", order.PaymentStatus)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Errorf("order status = %s, want processing", order.Status)
	}
	if order.PaidAt == nil {
		t.Error("paid_at was not set")
	}

	if got := f.publisher.countOf(domain.NotificationPaymentSuccess); got != 1 {
		t.Errorf("customer receipt events = %d, want 1", got)
	}
	if got := f.publisher.countOf(domain.NotificationAdminOrderPaid); got != 1 {
		t.Errorf("admin events = %d, want 1", got)
	}
	for _, ev := range f.publisher.published() {
		if ev.Type == domain.NotificationAdminOrderPaid && ev.CustomerEmail != "admin@sablecart.test" {
			t.Errorf("admin event addressed to %s", ev.CustomerEmail)
		}
	}

	if f.cards.count() != 1 {
		t.Errorf("saved cards = %d, want 1 (authorization was reusable)", f.cards.count())
	}
	if f.cache.invalidated() == 0 {
		t.Error("order cache was not invalidated")
	}
	if f.inventory.restores() != 0 {
		t.Error("stock was restored on a successful payment")
	}
}

func TestFinalizeSuccessNonReusableCardNotSaved(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	result := successResult("REF-1")
	result.Authorization.Reusable = false

	if err := f.uc.Finalize(context.Background(), result, SourcePoll); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	if f.cards.count() != 0 {
		t.Errorf("saved cards = %d, want 0", f.cards.count())
	}
}

func TestFinalizeFailureRestoresStock(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	stockA := f.inventory.stockOf("prod-a")
	stockB := f.inventory.stockOf("prod-b")

	err := f.uc.Finalize(context.Background(), &domain.ChargeResult{
		Reference:       "REF-1",
		Status:          domain.GatewayStatusFailed,
		GatewayResponse: "Declined",
	}, SourceWebhook)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	tx, _ := f.txRepo.GetByReference("REF-1")
	if tx.Status != domain.TxStatusFailed {
		t.Errorf("transaction status = %s, want failed", tx.Status)
	}

	order, _ := f.orderRepo.GetOrderByID("ord-1")
	if order.PaymentStatus != domain.PaymentStatusFailed {
		t.Errorf("payment status = %s, want failed", order.PaymentStatus)
	}
	if order.Status != domain.OrderStatusCancelled {
		t.Errorf("order status = %s, want cancelled", order.Status)
	}

	if got := f.inventory.stockOf("prod-a"); got != stockA+2 {
		t.Errorf("prod-a stock = %d, want %d", got, stockA+2)
	}
	if got := f.inventory.stockOf("prod-b"); got != stockB+1 {
		t.Errorf("prod-b stock = %d, want %d", got, stockB+1)
	}

	if got := f.publisher.countOf(domain.NotificationPaymentFailed); got != 1 {
		t.Errorf("failure events = %d, want 1", got)
	}
	if got := f.publisher.countOf(domain.NotificationPaymentSuccess); got != 0 {
		t.Errorf("success events = %d, want 0", got)
	}
}

func TestFinalizeFailurePartialRestoreStillSettles(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")
	f.inventory.failRestore = map[string]bool{"prod-b": true}

	stockA := f.inventory.stockOf("prod-a")
	stockB := f.inventory.stockOf("prod-b")

	err := f.uc.Finalize(context.Background(), &domain.ChargeResult{
		Reference:       "REF-1",
		Status:          domain.GatewayStatusFailed,
		GatewayResponse: "Declined",
	}, SourceWebhook)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	tx, _ := f.txRepo.GetByReference("REF-1")
	if tx.Status != domain.TxStatusFailed {
		t.Errorf("transaction status = %s, want failed", tx.Status)
	}
	order, _ := f.orderRepo.GetOrderByID("ord-1")
	if order.Status != domain.OrderStatusCancelled {
		t.Errorf("order status = %s, want cancelled despite partial restore", order.Status)
	}

	if got := f.inventory.stockOf("prod-a"); got != stockA+2 {
		t.Errorf("prod-a stock = %d, want %d restored", got, stockA+2)
	}
	if got := f.inventory.stockOf("prod-b"); got != stockB {
		t.Errorf("prod-b stock = %d, want %d left for manual reconciliation", got, stockB)
	}
	if got := f.publisher.countOf(domain.NotificationPaymentFailed); got != 1 {
		t.Errorf("failure events = %d, want 1", got)
	}
}

func TestFinalizeTwiceIsNoOp(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	ctx := context.Background()
	if err := f.uc.Finalize(ctx, successResult("REF-1"), SourceWebhook); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	err := f.uc.Finalize(ctx, successResult("REF-1"), SourcePoll)
	if !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("second Finalize error = %v, want ErrAlreadyFinalized", err)
	}

	if got := f.publisher.countOf(domain.NotificationPaymentSuccess); got != 1 {
		t.Errorf("receipt events after duplicate = %d, want 1", got)
	}
	if f.inventory.restores() != 0 {
		t.Errorf("restorations after duplicate success = %d, want 0", f.inventory.restores())
	}
}

func TestFinalizeFailureTwiceRestoresOnce(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	stockA := f.inventory.stockOf("prod-a")
	failed := &domain.ChargeResult{Reference: "REF-1", Status: domain.GatewayStatusFailed, GatewayResponse: "Declined"}

	ctx := context.Background()
	if err := f.uc.Finalize(ctx, failed, SourceWebhook); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if err := f.uc.Finalize(ctx, failed, SourcePoll); !errors.Is(err, domain.ErrAlreadyFinalized) {
		t.Fatalf("second Finalize error = %v, want ErrAlreadyFinalized", err)
	}

	if f.inventory.restores() != 1 {
		t.Errorf("restore calls = %d, want 1", f.inventory.restores())
	}
	if got := f.inventory.stockOf("prod-a"); got != stockA+2 {
		t.Errorf("prod-a stock = %d, want %d (restore must run exactly once)", got, stockA+2)
	}
}

func TestFinalizeConflictingOutcomesOneWinner(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	const attempts = 16
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var result *domain.ChargeResult
			if i%2 == 0 {
				result = successResult("REF-1")
			} else {
				result = &domain.ChargeResult{Reference: "REF-1", Status: domain.GatewayStatusFailed, GatewayResponse: "Declined"}
			}
			_ = f.uc.Finalize(context.Background(), result, SourceWebhook)
		}(i)
	}
	wg.Wait()

	tx, _ := f.txRepo.GetByReference("REF-1")
	if !tx.Status.Terminal() {
		t.Fatalf("transaction status = %s, want terminal", tx.Status)
	}

	order, _ := f.orderRepo.GetOrderByID("ord-1")
	switch tx.Status {
	case domain.TxStatusSuccess:
		if order.PaymentStatus != domain.PaymentStatusPaid || order.Status != domain.OrderStatusProcessing {
			t.Errorf("mixed state: tx=success but order=%s/%s", order.Status, order.PaymentStatus)
		}
		if f.inventory.restores() != 0 {
			t.Errorf("restore calls = %d after success", f.inventory.restores())
		}
	case domain.TxStatusFailed:
		if order.PaymentStatus != domain.PaymentStatusFailed || order.Status != domain.OrderStatusCancelled {
			t.Errorf("mixed state: tx=failed but order=%s/%s", order.Status, order.PaymentStatus)
		}
		if f.inventory.restores() != 1 {
			t.Errorf("restore calls = %d, want 1", f.inventory.restores())
		}
	}

	wins := f.publisher.countOf(domain.NotificationPaymentSuccess) + f.publisher.countOf(domain.NotificationPaymentFailed)
	if wins != 1 {
		t.Errorf("terminal notification events = %d, want 1", wins)
	}
}

func TestFinalizeUnknownReference(t *testing.T) {
	f := newFixture()

	err := f.uc.Finalize(context.Background(), successResult("REF-missing"), SourceWebhook)
	if !errors.Is(err, domain.ErrReferenceNotFound) {
		t.Fatalf("error = %v, want ErrReferenceNotFound", err)
	}
}

func TestFinalizePendingNoSideEffects(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	err := f.uc.Finalize(context.Background(), &domain.ChargeResult{
		Reference: "REF-1",
		Status:    domain.GatewayStatusPending,
	}, SourceWebhook)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	tx, _ := f.txRepo.GetByReference("REF-1")
	if tx.Status != domain.TxStatusProcessing {
		t.Errorf("transaction status = %s, want processing", tx.Status)
	}
	order, _ := f.orderRepo.GetOrderByID("ord-1")
	if order.PaymentStatus != domain.PaymentStatusProcessing {
		t.Errorf("payment status = %s, want processing", order.PaymentStatus)
	}
	if len(f.publisher.published()) != 0 {
		t.Errorf("events published on pending = %d, want 0", len(f.publisher.published()))
	}
	if f.inventory.restores() != 0 {
		t.Error("stock restored on pending")
	}
}

func TestFinalizePendingAfterTerminalIsNoOp(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	ctx := context.Background()
	if err := f.uc.Finalize(ctx, successResult("REF-1"), SourceWebhook); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := f.uc.Finalize(ctx, &domain.ChargeResult{Reference: "REF-1", Status: domain.GatewayStatusPending}, SourcePoll); err != nil {
		t.Fatalf("pending after terminal: %v", err)
	}

	tx, _ := f.txRepo.GetByReference("REF-1")
	if tx.Status != domain.TxStatusSuccess {
		t.Errorf("transaction status = %s, want success to stand", tx.Status)
	}
}

func TestFinalizeAbandonedIsNoOp(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	err := f.uc.Finalize(context.Background(), &domain.ChargeResult{
		Reference: "REF-1",
		Status:    domain.GatewayStatusAbandoned,
	}, SourcePoll)
	if err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	tx, _ := f.txRepo.GetByReference("REF-1")
	if tx.Status != domain.TxStatusPending {
		t.Errorf("transaction status = %s, want pending", tx.Status)
	}
}

func TestFinalizePublishFailureDoesNotFailReconciliation(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")
	f.publisher.err = errors.New("broker down")

	if err := f.uc.Finalize(context.Background(), successResult("REF-1"), SourceWebhook); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}

	tx, _ := f.txRepo.GetByReference("REF-1")
	if tx.Status != domain.TxStatusSuccess {
		t.Errorf("transaction status = %s, want success despite broker outage", tx.Status)
	}
}

func TestFinalizePollDoesNotStoreRawPayload(t *testing.T) {
	f := newFixture()
	f.seedOrder("ord-1", "REF-1")

	if err := f.uc.Finalize(context.Background(), successResult("REF-1"), SourcePoll); err != nil {
		t.Fatalf("Finalize returned error: %v", err)
	}
	tx, _ := f.txRepo.GetByReference("REF-1")
	if len(tx.RawPayload) != 0 {
		t.Error("poll path stored a raw payload; only webhooks carry the audit body")
	}
}

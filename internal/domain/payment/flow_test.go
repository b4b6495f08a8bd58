package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeOrderStore struct {
	mu         sync.Mutex
	total      int64
	totalErr   error
	finalized  []string
	failed     []string
	unresolved []string
}

func (s *fakeOrderStore) OrderTotal(ctx context.Context, orderID string) (int64, error) {
	if s.totalErr != nil {
		return 0, s.totalErr
	}
	return s.total, nil
}

func (s *fakeOrderStore) Finalize(ctx context.Context, orderID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = append(s.finalized, orderID)
	return nil
}

func (s *fakeOrderStore) MarkFailed(ctx context.Context, orderID, transactionID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, reason)
	return nil
}

func (s *fakeOrderStore) MarkUnresolved(ctx context.Context, orderID, transactionID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unresolved = append(s.unresolved, orderID)
	return nil
}

type fakeCartClearer struct {
	mu      sync.Mutex
	cleared []string
}

func (c *fakeCartClearer) Clear(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, sessionID)
	return nil
}

func (c *fakeCartClearer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cleared)
}

// walletServer stands in for the JazzCash API: one /pay endpoint and a
// scripted /status endpoint.
func walletServer(t *testing.T, submits *int64, statusWords []string) *httptest.Server {
	t.Helper()
	var statusCalls int64
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/pay":
			atomic.AddInt64(submits, 1)
			json.NewEncoder(w).Encode(jazzCashPayResponse{
				ResponseCode:    "000",
				ResponseMessage: "Transaction initiated",
				TxnRefNo:        "T555",
			})
		case strings.HasPrefix(r.URL.Path, "/status/"):
			n := atomic.AddInt64(&statusCalls, 1)
			word := statusWords[len(statusWords)-1]
			if int(n) <= len(statusWords) {
				word = statusWords[n-1]
			}
			json.NewEncoder(w).Encode(jazzCashStatusResponse{
				Status:          word,
				ResponseMessage: "Payment is " + word,
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func newTestController(client *Client, maxAttempts int, orders *fakeOrderStore, carts *fakeCartClearer) *Controller {
	return NewController(client, newTestPoller(maxAttempts), orders, carts, nil, testLogger())
}

func walletPayRequest() *PayRequest {
	return &PayRequest{
		OrderID:       "ORD-20260831-00010",
		Amount:        450000,
		Method:        GatewayJazzCash,
		MobileNumber:  "03001234567",
		PinSuffix:     "1234",
		CartSessionID: "sess-1",
	}
}

func TestPay_CashOnDeliveryFinalizesAndClearsCart(t *testing.T) {
	orders := &fakeOrderStore{total: 150000}
	carts := &fakeCartClearer{}
	client := NewClient(testPaymentConfig("http://unused", "http://unused"), testLogger())
	controller := newTestController(client, 20, orders, carts)

	outcome, err := controller.Pay(context.Background(), &PayRequest{
		OrderID:       "ORD-20260831-00011",
		Amount:        150000,
		Method:        GatewayCashOnDelivery,
		CartSessionID: "sess-cod",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Status != OutcomeSucceeded {
		t.Errorf("expected succeeded, got %s", outcome.Status)
	}
	if !strings.HasPrefix(outcome.TransactionID, "COD-") {
		t.Errorf("expected a COD- transaction id, got %q", outcome.TransactionID)
	}
	if len(orders.finalized) != 1 {
		t.Errorf("order must be finalized exactly once, got %d", len(orders.finalized))
	}
	if carts.count() != 1 || carts.cleared[0] != "sess-cod" {
		t.Errorf("cart must be cleared for the paying session, got %v", carts.cleared)
	}
}

func TestPay_AmountMismatchStopsBeforeCharge(t *testing.T) {
	var submits int64
	server := walletServer(t, &submits, []string{"success"})
	defer server.Close()

	orders := &fakeOrderStore{total: 450000}
	carts := &fakeCartClearer{}
	client := NewClient(testPaymentConfig(server.URL, server.URL), testLogger())
	controller := newTestController(client, 20, orders, carts)

	req := walletPayRequest()
	req.Amount = 1 // stale client total

	_, err := controller.Pay(context.Background(), req, nil)
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if atomic.LoadInt64(&submits) != 0 {
		t.Error("a mismatched amount must never reach the gateway")
	}
	if carts.count() != 0 || len(orders.finalized) != 0 {
		t.Error("nothing may be finalized or cleared on a mismatch")
	}
}

func TestPay_WalletSuccessAfterPolling(t *testing.T) {
	var submits int64
	server := walletServer(t, &submits, []string{"pending", "pending", "success"})
	defer server.Close()

	orders := &fakeOrderStore{total: 450000}
	carts := &fakeCartClearer{}
	client := NewClient(testPaymentConfig(server.URL, server.URL), testLogger())
	controller := newTestController(client, 20, orders, carts)

	outcome, err := controller.Pay(context.Background(), walletPayRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Status != OutcomeSucceeded {
		t.Errorf("expected succeeded, got %s", outcome.Status)
	}
	if outcome.TransactionID != "T555" {
		t.Errorf("expected gateway transaction id, got %q", outcome.TransactionID)
	}
	if len(orders.finalized) != 1 {
		t.Errorf("order must be finalized exactly once, got %d", len(orders.finalized))
	}
	if carts.count() != 1 {
		t.Errorf("cart must be cleared exactly once, got %d", carts.count())
	}
}

func TestPay_GatewayFailureLeavesCartUntouched(t *testing.T) {
	var submits int64
	server := walletServer(t, &submits, []string{"pending", "failed"})
	defer server.Close()

	orders := &fakeOrderStore{total: 450000}
	carts := &fakeCartClearer{}
	client := NewClient(testPaymentConfig(server.URL, server.URL), testLogger())
	controller := newTestController(client, 20, orders, carts)

	outcome, err := controller.Pay(context.Background(), walletPayRequest(), nil)
	if err != nil {
		t.Fatalf("a failed payment is a resolved outcome, not an error: %v", err)
	}

	if outcome.Status != OutcomeFailed {
		t.Errorf("expected failed, got %s", outcome.Status)
	}
	if len(orders.finalized) != 0 {
		t.Error("a failed payment must not finalize the order")
	}
	if len(orders.failed) != 1 {
		t.Errorf("the failure must be recorded on the order, got %d", len(orders.failed))
	}
	if carts.count() != 0 {
		t.Error("a failed payment must leave the cart untouched")
	}
}

func TestPay_RejectedChargeSurfacesDirectly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jazzCashPayResponse{
			ResponseCode:    "101",
			ResponseMessage: "Insufficient balance",
		})
	}))
	defer server.Close()

	orders := &fakeOrderStore{total: 450000}
	carts := &fakeCartClearer{}
	client := NewClient(testPaymentConfig(server.URL, server.URL), testLogger())
	controller := newTestController(client, 20, orders, carts)

	_, err := controller.Pay(context.Background(), walletPayRequest(), nil)
	if !errors.Is(err, ErrGatewayRejected) {
		t.Fatalf("expected ErrGatewayRejected, got %v", err)
	}
	if carts.count() != 0 || len(orders.finalized) != 0 {
		t.Error("a rejected charge must leave order and cart untouched")
	}
}

func TestPay_PollExhaustionYieldsUnknownOutcome(t *testing.T) {
	var submits int64
	server := walletServer(t, &submits, []string{"pending"})
	defer server.Close()

	orders := &fakeOrderStore{total: 450000}
	carts := &fakeCartClearer{}
	client := NewClient(testPaymentConfig(server.URL, server.URL), testLogger())
	controller := newTestController(client, 2, orders, carts)

	outcome, err := controller.Pay(context.Background(), walletPayRequest(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Status != OutcomeUnknown {
		t.Errorf("expected unknown, got %s", outcome.Status)
	}
	if len(orders.finalized) != 0 {
		t.Error("an unresolved payment must not finalize the order")
	}
	if carts.count() != 0 {
		t.Error("an unresolved payment must leave the cart untouched")
	}
	if len(orders.unresolved) != 1 {
		t.Errorf("the order must be flagged for reconciliation, got %d", len(orders.unresolved))
	}
}

func TestPay_SecondAttemptForSameOrderIsRejected(t *testing.T) {
	release := make(chan struct{})
	var submits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/pay":
			atomic.AddInt64(&submits, 1)
			json.NewEncoder(w).Encode(jazzCashPayResponse{
				ResponseCode:    "000",
				ResponseMessage: "Transaction initiated",
				TxnRefNo:        "T777",
			})
		case strings.HasPrefix(r.URL.Path, "/status/"):
			<-release // hold the first attempt unresolved
			json.NewEncoder(w).Encode(jazzCashStatusResponse{
				Status:          "success",
				ResponseMessage: "Payment is success",
			})
		}
	}))
	defer server.Close()

	orders := &fakeOrderStore{total: 450000}
	carts := &fakeCartClearer{}
	client := NewClient(testPaymentConfig(server.URL, server.URL), testLogger())
	controller := newTestController(client, 20, orders, carts)

	firstDone := make(chan error, 1)
	go func() {
		_, err := controller.Pay(context.Background(), walletPayRequest(), nil)
		firstDone <- err
	}()

	// Wait until the first attempt has submitted its charge.
	for atomic.LoadInt64(&submits) == 0 {
		time.Sleep(time.Millisecond)
	}

	_, err := controller.Pay(context.Background(), walletPayRequest(), nil)
	if !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}
	if atomic.LoadInt64(&submits) != 1 {
		t.Errorf("the second attempt must not issue a charge, got %d submits", submits)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}

	// The order is free again once the first attempt resolved.
	if _, err := controller.Pay(context.Background(), walletPayRequest(), nil); err != nil {
		t.Fatalf("a resolved order must accept a new attempt: %v", err)
	}
}

func TestPay_OrderLookupFailureSurfaces(t *testing.T) {
	orders := &fakeOrderStore{totalErr: errors.New("order not found")}
	carts := &fakeCartClearer{}
	client := NewClient(testPaymentConfig("http://unused", "http://unused"), testLogger())
	controller := newTestController(client, 20, orders, carts)

	_, err := controller.Pay(context.Background(), walletPayRequest(), nil)
	if err == nil || !strings.Contains(err.Error(), "order not found") {
		t.Fatalf("expected the order lookup error to surface, got %v", err)
	}
}

func TestCheckStatus_OneShotLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jazzCashStatusResponse{
			Status:          "success",
			ResponseMessage: "Payment is success",
		})
	}))
	defer server.Close()

	client := NewClient(testPaymentConfig(server.URL, server.URL), testLogger())
	controller := newTestController(client, 20, &fakeOrderStore{}, &fakeCartClearer{})

	result, err := controller.CheckStatus(context.Background(), GatewayJazzCash, "T555")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != StateSucceeded {
		t.Errorf("expected Succeeded, got %s", result.State)
	}
}

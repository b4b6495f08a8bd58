// internal/domain/payment/flow.go
package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/your-org/jewelry-backend/internal/pkg/metrics"
)

// OrderStore is the slice of the order system the flow controller needs:
// the total to charge and the exactly-once finalization hook.
type OrderStore interface {
	OrderTotal(ctx context.Context, orderID string) (int64, error)
	Finalize(ctx context.Context, orderID, transactionID string) error
	MarkFailed(ctx context.Context, orderID, transactionID, reason string) error
	MarkUnresolved(ctx context.Context, orderID, transactionID, message string) error
}

// CartClearer empties a session's cart after a confirmed payment.
type CartClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

// OutcomeStatus classifies how a pay attempt resolved.
type OutcomeStatus string

const (
	// OutcomeSucceeded: payment confirmed, order finalized, cart cleared.
	OutcomeSucceeded OutcomeStatus = "succeeded"
	// OutcomeFailed: the gateway reported the charge failed; cart untouched.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeUnknown: the poll budget ran out; the charge may still resolve
	// out-of-band. Cart untouched, manual status check required.
	OutcomeUnknown OutcomeStatus = "unknown"
)

// Outcome is the terminal result of a pay attempt.
type Outcome struct {
	Status        OutcomeStatus `json:"status"`
	TransactionID string        `json:"transaction_id"`
	Message       string        `json:"message"`
}

// PayRequest is the flow controller's input for one checkout attempt.
type PayRequest struct {
	OrderID       string      `json:"order_id" binding:"required"`
	Amount        int64       `json:"amount" binding:"required"`
	Method        GatewayKind `json:"method" binding:"required"`
	MobileNumber  string      `json:"mobile_number"`
	PinSuffix     string      `json:"pin_suffix"`
	CartSessionID string      `json:"-"`
}

// Controller orchestrates a checkout payment: validate input, submit the
// charge, poll for the outcome and reconcile the order and cart. Only a
// confirmed success finalizes the order and clears the cart.
type Controller struct {
	client  *Client
	poller  *Poller
	orders  OrderStore
	carts   CartClearer
	logger  *logrus.Logger
	metrics *metrics.PaymentMetrics

	mu       sync.Mutex
	inFlight map[string]struct{} // order ids with an unresolved attempt
}

// NewController creates a payment flow controller.
func NewController(client *Client, poller *Poller, orders OrderStore, carts CartClearer, m *metrics.PaymentMetrics, logger *logrus.Logger) *Controller {
	return &Controller{
		client:   client,
		poller:   poller,
		orders:   orders,
		carts:    carts,
		logger:   logger,
		metrics:  m,
		inFlight: make(map[string]struct{}),
	}
}

// Pay runs one checkout attempt end to end and blocks until it resolves.
// A second call for the same order while the first is unresolved returns
// ErrAlreadyInProgress without issuing a charge. onProgress, if non-nil,
// receives the poller's per-attempt updates.
func (f *Controller) Pay(ctx context.Context, req *PayRequest, onProgress func(Progress)) (*Outcome, error) {
	if err := f.begin(req.OrderID); err != nil {
		return nil, err
	}
	defer f.finish(req.OrderID)

	total, err := f.orders.OrderTotal(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if req.Amount != total {
		return nil, fmt.Errorf("%w: got %d, order total is %d", ErrAmountMismatch, req.Amount, total)
	}

	tx, err := f.client.Submit(ctx, &Request{
		OrderID:      req.OrderID,
		Amount:       req.Amount,
		Gateway:      req.Method,
		MobileNumber: req.MobileNumber,
		PinSuffix:    req.PinSuffix,
	})
	if err != nil {
		// Validation and gateway errors surface directly; the poller is
		// never involved and the cart stays as it was.
		return nil, err
	}

	if tx.State.Terminal() {
		// Cash on delivery resolves at submission time.
		return f.conclude(ctx, req, &PollResult{
			TransactionID: tx.TransactionID,
			State:         tx.State,
			Message:       tx.LastMessage,
		})
	}

	result, err := f.poller.Poll(ctx, tx.TransactionID, f.client.StatusSource(tx.Gateway), onProgress)
	if err != nil {
		// Cancelled: the transaction's true state is unresolved; nothing is
		// finalized and nothing is cleared.
		return nil, err
	}

	return f.conclude(ctx, req, result)
}

// CheckStatus performs a one-shot status lookup, the manual reconciliation
// path for transactions whose poll timed out.
func (f *Controller) CheckStatus(ctx context.Context, gateway GatewayKind, transactionID string) (*StatusResult, error) {
	return f.client.Status(ctx, gateway, transactionID)
}

// conclude reacts to a terminal poll result. Success is the only path that
// finalizes the order and clears the cart.
func (f *Controller) conclude(ctx context.Context, req *PayRequest, result *PollResult) (*Outcome, error) {
	log := f.logger.WithFields(logrus.Fields{
		"order_id":       req.OrderID,
		"transaction_id": result.TransactionID,
		"state":          result.State,
	})

	f.metrics.ObserveOutcome(string(req.Method), string(result.State), result.Attempts)

	switch result.State {
	case StateSucceeded:
		if err := f.orders.Finalize(ctx, req.OrderID, result.TransactionID); err != nil {
			return nil, fmt.Errorf("payment confirmed but order finalization failed: %w", err)
		}
		if err := f.carts.Clear(ctx, req.CartSessionID); err != nil {
			// The payment stands; an uncleared cart is recoverable.
			log.WithField("error", err.Error()).Warn("Failed to clear cart after payment")
		}
		log.Info("Payment confirmed")
		return &Outcome{
			Status:        OutcomeSucceeded,
			TransactionID: result.TransactionID,
			Message:       result.Message,
		}, nil

	case StateFailed:
		if err := f.orders.MarkFailed(ctx, req.OrderID, result.TransactionID, result.Message); err != nil {
			log.WithField("error", err.Error()).Warn("Failed to record payment failure on order")
		}
		log.Info("Payment failed")
		return &Outcome{
			Status:        OutcomeFailed,
			TransactionID: result.TransactionID,
			Message:       result.Message,
		}, nil

	case StateTimedOut:
		if err := f.orders.MarkUnresolved(ctx, req.OrderID, result.TransactionID, result.Message); err != nil {
			log.WithField("error", err.Error()).Warn("Failed to flag order for reconciliation")
		}
		log.Warn("Payment unresolved, needs manual reconciliation")
		return &Outcome{
			Status:        OutcomeUnknown,
			TransactionID: result.TransactionID,
			Message:       result.Message,
		}, nil

	default:
		return nil, fmt.Errorf("poll resolved with non-terminal state %q", result.State)
	}
}

func (f *Controller) begin(orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.inFlight[orderID]; busy {
		return fmt.Errorf("%w: %s", ErrAlreadyInProgress, orderID)
	}
	f.inFlight[orderID] = struct{}{}
	return nil
}

func (f *Controller) finish(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, orderID)
}

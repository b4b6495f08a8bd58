// internal/domain/payment/poller.go
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// StatusSource answers a single status lookup for a transaction.
type StatusSource interface {
	Status(ctx context.Context, transactionID string) (*StatusResult, error)
}

// statusSourceFunc adapts a function to the StatusSource interface.
type statusSourceFunc func(ctx context.Context, transactionID string) (*StatusResult, error)

func (f statusSourceFunc) Status(ctx context.Context, transactionID string) (*StatusResult, error) {
	return f(ctx, transactionID)
}

// Progress is one observation of the poll: one Progress is delivered per
// attempt, and a final one carries the terminal state.
type Progress struct {
	Attempt  int    `json:"attempt"`
	State    State  `json:"state"`
	Message  string `json:"message"`
	Terminal bool   `json:"terminal"`
}

// PollResult is the resolved outcome of a poll.
type PollResult struct {
	TransactionID string `json:"transaction_id"`
	State         State  `json:"state"`
	Message       string `json:"message"`
	Attempts      int    `json:"attempts"`
}

// PollerConfig carries the poll schedule. Both values are explicit; the
// poller has no built-in defaults.
type PollerConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// Poller drives the bounded status-lookup loop for a submitted transaction.
//
// The loop runs at most MaxAttempts lookups, waiting Interval between them.
// A lookup that errors is inconclusive, not fatal: the attempt is consumed
// and polling continues. When the budget runs out without a terminal backend
// answer the poll resolves to TimedOut. Timeout is enforced purely by
// attempt count, never by wall clock, so tests can drive the loop by
// replacing the wait function.
type Poller struct {
	config PollerConfig
	logger *logrus.Logger

	// wait blocks between attempts; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller with the given schedule.
func NewPoller(config PollerConfig, logger *logrus.Logger) *Poller {
	return &Poller{
		config: config,
		logger: logger,
		wait:   waitInterval,
	}
}

// Poll runs the status loop for transactionID against source until a
// terminal state or attempt exhaustion. onProgress, if non-nil, is invoked
// exactly once per attempt and once more with the terminal TimedOut result
// when the budget runs out; a terminal state discovered by an attempt is
// delivered in that attempt's invocation.
//
// Cancelling ctx stops the loop before the next attempt is scheduled and
// returns ctx.Err() with no result: a cancelled poll reports no terminal
// state, the transaction's true state stays unresolved client-side.
func (p *Poller) Poll(ctx context.Context, transactionID string, source StatusSource, onProgress func(Progress)) (*PollResult, error) {
	emit := func(pr Progress) {
		if onProgress != nil {
			onProgress(pr)
		}
	}

	state := StateSubmitted
	lastMessage := ""
	lookupFailing := false

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.wait(ctx, p.config.Interval); err != nil {
				p.logger.WithFields(logrus.Fields{
					"transaction_id": transactionID,
					"attempt":        attempt,
					"last_state":     state,
				}).Info("Status poll cancelled")
				return nil, err
			}
		}

		result, err := source.Status(ctx, transactionID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Inconclusive lookup: keep the last observed state and spend
			// the attempt.
			lookupFailing = true
			lastMessage = err.Error()
			p.logger.WithFields(logrus.Fields{
				"transaction_id": transactionID,
				"attempt":        attempt,
				"error":          err.Error(),
			}).Warn("Status lookup failed, will retry")
			emit(Progress{Attempt: attempt, State: state, Message: lastMessage})
			continue
		}

		lookupFailing = false
		lastMessage = result.Message

		if result.State.Terminal() {
			p.logger.WithFields(logrus.Fields{
				"transaction_id": transactionID,
				"attempt":        attempt,
				"state":          result.State,
			}).Info("Transaction resolved")
			emit(Progress{Attempt: attempt, State: result.State, Message: lastMessage, Terminal: true})
			return &PollResult{
				TransactionID: transactionID,
				State:         result.State,
				Message:       lastMessage,
				Attempts:      attempt,
			}, nil
		}

		state = StatePending
		emit(Progress{Attempt: attempt, State: state, Message: lastMessage})
	}

	// Budget exhausted without a terminal backend answer. Distinguish a
	// gateway that keeps answering pending from a lookup that keeps failing.
	var message string
	if lookupFailing {
		message = fmt.Sprintf("status lookup failing after %d attempts; payment state unknown, reconcile manually", p.config.MaxAttempts)
	} else {
		message = fmt.Sprintf("gateway still reports pending after %d attempts; check transaction later", p.config.MaxAttempts)
	}

	p.logger.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"attempts":       p.config.MaxAttempts,
		"lookup_failing": lookupFailing,
	}).Warn("Status poll exhausted attempt budget")

	emit(Progress{Attempt: p.config.MaxAttempts, State: StateTimedOut, Message: message, Terminal: true})
	return &PollResult{
		TransactionID: transactionID,
		State:         StateTimedOut,
		Message:       message,
		Attempts:      p.config.MaxAttempts,
	}, nil
}

// waitInterval sleeps for d or until ctx is cancelled.
func waitInterval(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

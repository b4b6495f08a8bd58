package payment

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// scriptedSource replays a fixed sequence of status answers.
type scriptedSource struct {
	answers []func() (*StatusResult, error)
	calls   int
}

func (s *scriptedSource) Status(ctx context.Context, transactionID string) (*StatusResult, error) {
	if s.calls >= len(s.answers) {
		return nil, errors.New("status source exhausted")
	}
	answer := s.answers[s.calls]
	s.calls++
	return answer()
}

func pending() func() (*StatusResult, error) {
	return func() (*StatusResult, error) {
		return &StatusResult{State: StatePending, Message: "Payment is pending"}, nil
	}
}

func success() func() (*StatusResult, error) {
	return func() (*StatusResult, error) {
		return &StatusResult{State: StateSucceeded, Message: "Payment is success"}, nil
	}
}

func failed() func() (*StatusResult, error) {
	return func() (*StatusResult, error) {
		return &StatusResult{State: StateFailed, Message: "Payment is failed"}, nil
	}
}

func lookupError() func() (*StatusResult, error) {
	return func() (*StatusResult, error) {
		return nil, errors.New("connection reset")
	}
}

func newTestPoller(maxAttempts int) *Poller {
	p := NewPoller(PollerConfig{Interval: time.Second, MaxAttempts: maxAttempts}, testLogger())
	p.wait = func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}
	return p
}

func TestPoll_TimesOutAfterExactlyMaxAttempts(t *testing.T) {
	source := &scriptedSource{answers: []func() (*StatusResult, error){
		pending(), pending(), pending(), pending(), pending(),
	}}
	poller := newTestPoller(3)

	result, err := poller.Poll(context.Background(), "T123", source, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if source.calls != 3 {
		t.Errorf("expected exactly 3 lookups, got %d", source.calls)
	}
	if result.State != StateTimedOut {
		t.Errorf("expected TimedOut, got %s", result.State)
	}
	if result.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", result.Attempts)
	}
}

func TestPoll_ResolvesOnThirdAttempt(t *testing.T) {
	source := &scriptedSource{answers: []func() (*StatusResult, error){
		pending(), pending(), success(),
	}}
	poller := newTestPoller(10)

	var updates []Progress
	result, err := poller.Poll(context.Background(), "T123", source, func(p Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.State != StateSucceeded {
		t.Errorf("expected Succeeded, got %s", result.State)
	}
	if result.Attempts != 3 {
		t.Errorf("expected resolution on attempt 3, got %d", result.Attempts)
	}
	if len(updates) != 3 {
		t.Fatalf("expected exactly 3 progress updates, got %d", len(updates))
	}
	last := updates[len(updates)-1]
	if last.State != StateSucceeded || !last.Terminal {
		t.Errorf("last update must carry the terminal state, got %+v", last)
	}
	for i, u := range updates {
		if u.Attempt != i+1 {
			t.Errorf("update %d has attempt %d", i, u.Attempt)
		}
	}
}

func TestPoll_FailedIsTerminal(t *testing.T) {
	source := &scriptedSource{answers: []func() (*StatusResult, error){
		pending(), failed(),
	}}
	poller := newTestPoller(10)

	result, err := poller.Poll(context.Background(), "T123", source, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.State != StateFailed {
		t.Errorf("expected Failed, got %s", result.State)
	}
	if source.calls != 2 {
		t.Errorf("polling must stop at the terminal answer, got %d calls", source.calls)
	}
}

func TestPoll_TransientLookupFailureDoesNotAbort(t *testing.T) {
	source := &scriptedSource{answers: []func() (*StatusResult, error){
		lookupError(), lookupError(), success(),
	}}
	poller := newTestPoller(5)

	var updates []Progress
	result, err := poller.Poll(context.Background(), "T123", source, func(p Progress) {
		updates = append(updates, p)
	})
	if err != nil {
		t.Fatalf("transient lookup failures must not abort the poll: %v", err)
	}

	if result.State != StateSucceeded {
		t.Errorf("expected Succeeded, got %s", result.State)
	}
	if len(updates) != 3 {
		t.Fatalf("expected one update per attempt, got %d", len(updates))
	}
	// Failed lookups keep the last observed state, which is still Submitted
	// before any affirmative answer.
	if updates[0].State != StateSubmitted {
		t.Errorf("expected Submitted before any affirmative answer, got %s", updates[0].State)
	}
}

func TestPoll_AllLookupsFailingYieldsDistinctTimeoutMessage(t *testing.T) {
	failingSource := &scriptedSource{answers: []func() (*StatusResult, error){
		lookupError(), lookupError(), lookupError(),
	}}
	pendingSource := &scriptedSource{answers: []func() (*StatusResult, error){
		pending(), pending(), pending(),
	}}
	poller := newTestPoller(3)

	failing, err := poller.Poll(context.Background(), "T1", failingSource, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stillPending, err := poller.Poll(context.Background(), "T2", pendingSource, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if failing.State != StateTimedOut || stillPending.State != StateTimedOut {
		t.Fatalf("both polls must time out, got %s and %s", failing.State, stillPending.State)
	}
	if failing.Message == stillPending.Message {
		t.Errorf("failing-lookup timeout must be distinguishable from a pending gateway")
	}
}

func TestPoll_TimedOutEmitsFinalTerminalUpdate(t *testing.T) {
	source := &scriptedSource{answers: []func() (*StatusResult, error){
		pending(), pending(),
	}}
	poller := newTestPoller(2)

	var updates []Progress
	if _, err := poller.Poll(context.Background(), "T123", source, func(p Progress) {
		updates = append(updates, p)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two per-attempt updates plus the final terminal one.
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}
	last := updates[len(updates)-1]
	if last.State != StateTimedOut || !last.Terminal {
		t.Errorf("final update must carry TimedOut, got %+v", last)
	}
	for _, u := range updates[:len(updates)-1] {
		if u.Terminal {
			t.Errorf("per-attempt updates must not be terminal: %+v", u)
		}
	}
}

func TestPoll_CancellationStopsWithoutTerminalState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	source := &scriptedSource{answers: []func() (*StatusResult, error){
		func() (*StatusResult, error) {
			cancel() // caller navigates away after the first attempt
			return &StatusResult{State: StatePending, Message: "Payment is pending"}, nil
		},
		pending(), pending(),
	}}

	poller := NewPoller(PollerConfig{Interval: time.Second, MaxAttempts: 10}, testLogger())
	poller.wait = waitInterval // real wait, so cancellation is what stops it

	var updates []Progress
	result, err := poller.Poll(ctx, "T123", source, func(p Progress) {
		updates = append(updates, p)
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result != nil {
		t.Errorf("a cancelled poll must not report a result, got %+v", result)
	}
	if source.calls != 1 {
		t.Errorf("no further attempts may be scheduled after cancellation, got %d", source.calls)
	}
	for _, u := range updates {
		if u.Terminal {
			t.Errorf("a cancelled poll must not emit a terminal update: %+v", u)
		}
	}
}

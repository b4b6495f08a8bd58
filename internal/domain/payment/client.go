// internal/domain/payment/client.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/jewelry-backend/internal/config"
)

// mobileNumberPattern matches the national mobile format: 03 followed by
// nine digits, eleven digits total.
var mobileNumberPattern = regexp.MustCompile(`^03\d{9}$`)

// walletBackend is one remote mobile-wallet API. The two implementations
// differ only in endpoint path, request field names and signing recipe;
// nothing backend-specific leaks past this interface.
type walletBackend interface {
	kind() GatewayKind
	submit(ctx context.Context, req *Request) (*submitOutcome, error)
	status(ctx context.Context, transactionID string) (*StatusResult, error)
}

// submitOutcome is a backend's normalized answer to a charge submission.
type submitOutcome struct {
	Success       bool
	TransactionID string
	Message       string
}

// Client validates payment requests and submits charges to the matching
// wallet backend, or synthesizes a transaction locally for cash on delivery.
// The client itself is stateless.
type Client struct {
	backends        map[GatewayKind]walletBackend
	pinSuffixLength int
	logger          *logrus.Logger
}

// NewClient creates a gateway client wired to both wallet backends.
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.Payment.HTTPTimeout}

	c := &Client{
		backends:        make(map[GatewayKind]walletBackend),
		pinSuffixLength: cfg.Payment.PinSuffixLength,
		logger:          logger,
	}
	c.register(newJazzCashBackend(cfg.Payment.JazzCash, httpClient))
	c.register(newEasyPaisaBackend(cfg.Payment.EasyPaisa, httpClient))
	return c
}

func (c *Client) register(b walletBackend) {
	c.backends[b.kind()] = b
}

// Submit validates the request and issues the charge. Cash on delivery
// resolves synchronously to a succeeded transaction with a locally minted
// COD- id and no network call. Wallet kinds perform exactly one call to the
// matching backend; a declined response maps to ErrGatewayRejected carrying
// the backend's message, a transport failure to ErrGatewayUnreachable.
func (c *Client) Submit(ctx context.Context, req *Request) (*Transaction, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	if req.Gateway == GatewayCashOnDelivery {
		tx := &Transaction{
			TransactionID: fmt.Sprintf("COD-%s", uuid.New().String()),
			OrderID:       req.OrderID,
			Gateway:       GatewayCashOnDelivery,
			State:         StateSucceeded,
			LastMessage:   "Cash on delivery — payment collected at the door",
		}
		c.logger.WithFields(logrus.Fields{
			"order_id":       req.OrderID,
			"transaction_id": tx.TransactionID,
		}).Info("Cash on delivery order accepted")
		return tx, nil
	}

	backend := c.backends[req.Gateway]
	outcome, err := backend.submit(ctx, req)
	if err != nil {
		// An HTTP error status is the backend answering no; only transport
		// failures count as unreachable.
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) {
			c.logger.WithFields(logrus.Fields{
				"order_id":    req.OrderID,
				"gateway":     req.Gateway,
				"status_code": statusErr.code,
			}).Warn("Wallet backend rejected charge")
			return nil, fmt.Errorf("%w: %v", ErrGatewayRejected, err)
		}
		c.logger.WithFields(logrus.Fields{
			"order_id": req.OrderID,
			"gateway":  req.Gateway,
			"error":    err.Error(),
		}).Warn("Wallet backend unreachable")
		return nil, fmt.Errorf("%w: %s: %v", ErrGatewayUnreachable, req.Gateway, err)
	}

	if !outcome.Success {
		c.logger.WithFields(logrus.Fields{
			"order_id": req.OrderID,
			"gateway":  req.Gateway,
			"message":  outcome.Message,
		}).Warn("Wallet backend rejected charge")
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, outcome.Message)
	}

	c.logger.WithFields(logrus.Fields{
		"order_id":       req.OrderID,
		"gateway":        req.Gateway,
		"transaction_id": outcome.TransactionID,
	}).Info("Charge submitted")

	return &Transaction{
		TransactionID: outcome.TransactionID,
		OrderID:       req.OrderID,
		Gateway:       req.Gateway,
		State:         StateSubmitted,
		LastMessage:   outcome.Message,
	}, nil
}

// Status performs a single status lookup for a wallet transaction. Lookup
// failures are returned as plain errors; the poller treats them as
// inconclusive rather than terminal.
func (c *Client) Status(ctx context.Context, gateway GatewayKind, transactionID string) (*StatusResult, error) {
	if strings.HasPrefix(transactionID, "COD-") {
		return &StatusResult{State: StateSucceeded, Message: "Cash on delivery"}, nil
	}

	backend, ok := c.backends[gateway]
	if !ok {
		return nil, fmt.Errorf("no status source for gateway %q", gateway)
	}
	return backend.status(ctx, transactionID)
}

// StatusSource returns a StatusSource bound to one gateway, for handing a
// transaction to the poller.
func (c *Client) StatusSource(gateway GatewayKind) StatusSource {
	return statusSourceFunc(func(ctx context.Context, transactionID string) (*StatusResult, error) {
		return c.Status(ctx, gateway, transactionID)
	})
}

// validate enforces the client-side contract before any network call.
func (c *Client) validate(req *Request) error {
	if req.OrderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if !req.Gateway.Valid() {
		return fmt.Errorf("%w: unknown gateway %q", ErrInvalidInput, req.Gateway)
	}

	if req.Gateway.IsWallet() {
		if !mobileNumberPattern.MatchString(req.MobileNumber) {
			return fmt.Errorf("%w: mobile number must match 03xxxxxxxxx", ErrInvalidInput)
		}
		if len(req.PinSuffix) != c.pinSuffixLength || !allDigits(req.PinSuffix) {
			return fmt.Errorf("%w: PIN suffix must be exactly %d digits", ErrInvalidInput, c.pinSuffixLength)
		}
	}

	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// normalizeWalletStatus maps a backend status word onto the transaction
// state machine. Unrecognized answers (including not_found and error) stay
// pending so polling continues.
func normalizeWalletStatus(status string) State {
	switch strings.ToLower(status) {
	case "success", "paid", "completed":
		return StateSucceeded
	case "failed", "declined", "expired", "cancelled":
		return StateFailed
	default:
		return StatePending
	}
}

// HTTP plumbing shared by the wallet backends.

// httpStatusError marks a backend answer with an error status code.
type httpStatusError struct {
	code int
	path string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.path)
}

func postJSON(ctx context.Context, client *http.Client, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return doJSON(client, req, out)
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return doJSON(client, req, out)
}

func doJSON(client *http.Client, req *http.Request, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &httpStatusError{code: resp.StatusCode, path: req.URL.Path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

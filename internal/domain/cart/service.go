// internal/domain/cart/service.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/jewelry-backend/internal/config"
)

const sessionCartTTL = 24 * time.Hour

// Service persists session carts in Redis. The ledger holds all cart rules;
// the service only loads, mutates and saves it per session.
type Service struct {
	redisClient *redis.Client
	rates       Rates
}

// NewService creates a new cart service
func NewService(redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		redisClient: redisClient,
		rates: Rates{
			ShippingFlatFee:       cfg.Shipping.FlatFee,
			FreeShippingThreshold: cfg.Shipping.FreeThreshold,
		},
	}
}

// CartResponse represents a session cart with its lines and totals
type CartResponse struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	Totals    Totals    `json:"totals"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddLineRequest represents an add-to-cart request
type AddLineRequest struct {
	ProductRef string `json:"product_ref" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	UnitPrice  int64  `json:"unit_price" binding:"required,min=0"`
}

// UpdateLineRequest represents an update-quantity request
type UpdateLineRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart retrieves the cart for a session, empty if none exists yet
func (s *Service) GetCart(ctx context.Context, sessionID string) (*CartResponse, error) {
	ledger, updatedAt, err := s.loadLedger(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.respond(sessionID, ledger, updatedAt), nil
}

// AddLine adds a product to the session cart, merging into an existing line
// for the same product
func (s *Service) AddLine(ctx context.Context, sessionID string, req *AddLineRequest) (*CartResponse, error) {
	ledger, _, err := s.loadLedger(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := ledger.AddLine(req.ProductRef, req.Quantity, req.UnitPrice); err != nil {
		return nil, err
	}

	if err := s.saveLedger(ctx, sessionID, ledger); err != nil {
		return nil, err
	}
	return s.respond(sessionID, ledger, time.Now().UTC()), nil
}

// UpdateLine sets a line's quantity; zero or below removes the line
func (s *Service) UpdateLine(ctx context.Context, sessionID, lineID string, req *UpdateLineRequest) (*CartResponse, error) {
	ledger, _, err := s.loadLedger(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := ledger.UpdateQuantity(lineID, req.Quantity); err != nil {
		return nil, err
	}

	if err := s.saveLedger(ctx, sessionID, ledger); err != nil {
		return nil, err
	}
	return s.respond(sessionID, ledger, time.Now().UTC()), nil
}

// RemoveLine removes a line from the session cart; removing an absent line
// succeeds silently
func (s *Service) RemoveLine(ctx context.Context, sessionID, lineID string) (*CartResponse, error) {
	ledger, _, err := s.loadLedger(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ledger.RemoveLine(lineID)

	if err := s.saveLedger(ctx, sessionID, ledger); err != nil {
		return nil, err
	}
	return s.respond(sessionID, ledger, time.Now().UTC()), nil
}

// Clear empties the session cart. Clearing a missing cart is a silent success.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.redisClient.Del(ctx, cartKey(sessionID)).Err()
}

// Snapshot returns an immutable copy of the session cart for order creation
func (s *Service) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	ledger, _, err := s.loadLedger(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		SessionID: sessionID,
		Lines:     ledger.Lines(),
		Totals:    ledger.Totals(),
	}, nil
}

// Private helper methods

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

func (s *Service) loadLedger(ctx context.Context, sessionID string) (*Ledger, time.Time, error) {
	if sessionID == "" {
		return nil, time.Time{}, fmt.Errorf("session ID required for cart")
	}

	data, err := s.redisClient.Get(ctx, cartKey(sessionID)).Result()
	if err == redis.Nil {
		return NewLedger(s.rates), time.Now().UTC(), nil
	} else if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load cart: %w", err)
	}

	var stored SessionCart
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode cart: %w", err)
	}

	return Restore(stored.Lines, s.rates), stored.UpdatedAt, nil
}

func (s *Service) saveLedger(ctx context.Context, sessionID string, ledger *Ledger) error {
	stored := SessionCart{
		SessionID: sessionID,
		Lines:     ledger.Lines(),
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	return s.redisClient.Set(ctx, cartKey(sessionID), data, sessionCartTTL).Err()
}

func (s *Service) respond(sessionID string, ledger *Ledger, updatedAt time.Time) *CartResponse {
	return &CartResponse{
		SessionID: sessionID,
		Lines:     ledger.Lines(),
		Totals:    ledger.Totals(),
		UpdatedAt: updatedAt,
	}
}

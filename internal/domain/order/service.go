// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/jewelry-backend/internal/config"
	"github.com/your-org/jewelry-backend/internal/domain/cart"
)

var (
	// ErrOrderNotFound is returned when no order matches the given number.
	ErrOrderNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when order creation finds no cart lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAlreadyPaid is returned when a finalized order is finalized again
	// with a different transaction.
	ErrAlreadyPaid = errors.New("order is already paid")
)

// Service handles order business logic
type Service struct {
	db          *gorm.DB
	config      *config.Config
	cartService *cart.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, cartService *cart.Service) *Service {
	return &Service{
		db:          db,
		config:      cfg,
		cartService: cartService,
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone" binding:"required"`
	AddressLine   string `json:"address_line" binding:"required"`
	City          string `json:"city" binding:"required"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page          int           `form:"page,default=1"`
	Limit         int           `form:"limit,default=20"`
	Status        OrderStatus   `form:"status"`
	PaymentStatus PaymentStatus `form:"payment_status"`
	SortOrder     string        `form:"sort_order,default=desc"`
}

// OrderListResponse represents order response with pagination
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CreateOrder freezes the session's cart into a pending order. The cart
// itself is left alone; it is cleared only once payment confirms.
func (s *Service) CreateOrder(ctx context.Context, sessionID string, req *CreateOrderRequest) (*Order, error) {
	snapshot, err := s.cartService.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	if len(snapshot.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := Order{
		SessionID:      sessionID,
		Status:         OrderStatusPending,
		PaymentStatus:  PaymentStatusPending,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		AddressLine:    req.AddressLine,
		City:           req.City,
		SubtotalAmount: snapshot.Totals.Subtotal,
		ShippingAmount: snapshot.Totals.ShippingFee,
		TotalAmount:    snapshot.Totals.GrandTotal,
		Currency:       "PKR",
	}
	for _, line := range snapshot.Lines {
		order.Items = append(order.Items, OrderItem{
			ProductRef: line.ProductRef,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: int64(line.Quantity) * line.UnitPrice,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		// The order number embeds the DB id, so it is assigned after insert.
		order.OrderNumber = order.GenerateOrderNumber()
		if err := tx.Model(&order).Update("order_number", order.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to assign order number: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// GetOrder retrieves an order by its order number
func (s *Service) GetOrder(ctx context.Context, orderNumber string) (*Order, error) {
	var order Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// GetOrders retrieves orders with pagination and filtering (admin)
func (s *Service) GetOrders(ctx context.Context, req *OrderListRequest) (*OrderListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	order := "created_at desc"
	if req.SortOrder == "asc" {
		order = "created_at asc"
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	err := query.
		Preload("Items").
		Order(order).
		Offset(offset).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// OrderTotal returns the amount (paisa) an order charges at checkout.
func (s *Service) OrderTotal(ctx context.Context, orderNumber string) (int64, error) {
	order, err := s.GetOrder(ctx, orderNumber)
	if err != nil {
		return 0, err
	}
	if !order.CanAcceptPayment() {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyPaid, orderNumber)
	}
	return order.TotalAmount, nil
}

// Finalize confirms the order after payment succeeded. It is exactly-once:
// the update only applies while the order is unpaid, so a repeated call with
// the same transaction is a no-op and a conflicting transaction is an error.
func (s *Service) Finalize(ctx context.Context, orderNumber, transactionID string) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_number = ? AND payment_status <> ?", orderNumber, PaymentStatusPaid).
		Updates(map[string]interface{}{
			"status":         OrderStatusConfirmed,
			"payment_status": PaymentStatusPaid,
			"transaction_id": transactionID,
			"paid_at":        &now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to finalize order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		order, err := s.GetOrder(ctx, orderNumber)
		if err != nil {
			return err
		}
		if order.IsPaid() && order.TransactionID == transactionID {
			return nil // repeat of the same confirmation
		}
		return fmt.Errorf("%w: %s", ErrAlreadyPaid, orderNumber)
	}
	return nil
}

// MarkFailed records a failed payment attempt. The order stays pending so
// the customer can retry with another method.
func (s *Service) MarkFailed(ctx context.Context, orderNumber, transactionID, reason string) error {
	return s.markPayment(ctx, orderNumber, transactionID, PaymentStatusFailed, reason)
}

// MarkUnresolved flags an order whose charge was submitted but never
// confirmed within the polling budget. Reconcile resolves it.
func (s *Service) MarkUnresolved(ctx context.Context, orderNumber, transactionID, message string) error {
	return s.markPayment(ctx, orderNumber, transactionID, PaymentStatusUnresolved, message)
}

func (s *Service) markPayment(ctx context.Context, orderNumber, transactionID string, status PaymentStatus, message string) error {
	result := s.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_number = ? AND payment_status <> ?", orderNumber, PaymentStatusPaid).
		Updates(map[string]interface{}{
			"payment_status":  status,
			"transaction_id":  transactionID,
			"payment_message": message,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update payment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
	}
	return nil
}

// ListUnresolved returns orders awaiting manual payment reconciliation.
func (s *Service) ListUnresolved(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := s.db.WithContext(ctx).
		Where("payment_status = ?", PaymentStatusUnresolved).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved orders: %w", err)
	}
	return orders, nil
}

// SetPaymentMethod records which gateway a checkout attempt used.
func (s *Service) SetPaymentMethod(ctx context.Context, orderNumber, method string) error {
	result := s.db.WithContext(ctx).
		Model(&Order{}).
		Where("order_number = ?", orderNumber).
		Update("payment_method", method)
	if result.Error != nil {
		return fmt.Errorf("failed to set payment method: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
	}
	return nil
}

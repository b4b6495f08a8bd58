// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
	// PaymentStatusUnresolved marks orders whose charge was submitted but
	// whose outcome never confirmed within the polling budget. These need a
	// manual status check before the order moves anywhere.
	PaymentStatusUnresolved PaymentStatus = "unresolved"
)

// Order represents the order entity. Orders are placed against a guest
// session; all amounts are in paisa.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	SessionID     string        `gorm:"not null;index;size:100" json:"-"`
	Status        OrderStatus   `gorm:"not null;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending'" json:"payment_status"`

	// Customer Information
	CustomerName  string `gorm:"not null;size:255" json:"customer_name"`
	CustomerPhone string `gorm:"not null;size:20" json:"customer_phone"`
	AddressLine   string `gorm:"not null;size:255" json:"address_line"`
	City          string `gorm:"not null;size:100" json:"city"`

	// Financial Information
	SubtotalAmount int64  `gorm:"not null" json:"subtotal_amount"`
	ShippingAmount int64  `gorm:"default:0" json:"shipping_amount"`
	TotalAmount    int64  `gorm:"not null" json:"total_amount"`
	Currency       string `gorm:"size:3;default:'PKR'" json:"currency"`

	// Payment Information
	PaymentMethod  string `gorm:"size:50" json:"payment_method"`
	TransactionID  string `gorm:"size:100;index" json:"transaction_id,omitempty"`
	PaymentMessage string `gorm:"size:500" json:"payment_message,omitempty"`

	// Timestamps
	PaidAt    *time.Time     `json:"paid_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem represents one cart line frozen into an order
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductRef string    `gorm:"not null;size:100" json:"product_ref"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`
	TotalPrice int64     `gorm:"not null" json:"total_price"` // Quantity * UnitPrice
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// GenerateOrderNumber generates a unique order number
func (o *Order) GenerateOrderNumber() string {
	// Format: ORD-YYYYMMDD-XXXXX
	return fmt.Sprintf("ORD-%s-%05d", time.Now().Format("20060102"), o.ID)
}

// GetFormattedTotal returns total amount as PKR
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalAmount) / 100
}

// IsPaid checks whether payment has been confirmed
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// CanAcceptPayment checks if a payment attempt may start for this order
func (o *Order) CanAcceptPayment() bool {
	return o.Status == OrderStatusPending && o.PaymentStatus != PaymentStatusPaid
}

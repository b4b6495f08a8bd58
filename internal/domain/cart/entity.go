// internal/domain/cart/entity.go
package cart

import "time"

// Line represents one cart entry: a product and its requested quantity.
// LineID is minted when the line is first added and is stable across
// quantity updates.
type Line struct {
	LineID     string `json:"line_id"`
	ProductRef string `json:"product_ref"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"` // paisa
}

// Totals represents calculated cart totals. All amounts are in paisa and are
// recomputed from the current lines on every call, never cached.
type Totals struct {
	ItemCount   int   `json:"item_count"` // sum of quantities
	LineCount   int   `json:"line_count"` // number of distinct lines
	Subtotal    int64 `json:"subtotal"`
	ShippingFee int64 `json:"shipping_fee"`
	GrandTotal  int64 `json:"grand_total"`
}

// SessionCart is the persisted form of a session's ledger (stored in Redis)
type SessionCart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is an immutable copy of a cart handed to order creation.
type Snapshot struct {
	SessionID string
	Lines     []Line
	Totals    Totals
}

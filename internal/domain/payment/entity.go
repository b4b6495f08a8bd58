// internal/domain/payment/entity.go
package payment

// GatewayKind identifies how an order is paid: one of the two mobile-wallet
// backends, or cash on delivery which never touches the network.
type GatewayKind string

const (
	GatewayJazzCash       GatewayKind = "jazzcash"
	GatewayEasyPaisa      GatewayKind = "easypaisa"
	GatewayCashOnDelivery GatewayKind = "cod"
)

// IsWallet reports whether the kind requires a remote wallet charge.
func (k GatewayKind) IsWallet() bool {
	return k == GatewayJazzCash || k == GatewayEasyPaisa
}

// Valid reports whether the kind is one this system accepts.
func (k GatewayKind) Valid() bool {
	return k.IsWallet() || k == GatewayCashOnDelivery
}

// State represents the lifecycle state of a payment transaction.
//
// Submitted and Pending are non-terminal. Succeeded, Failed and TimedOut are
// terminal: once a transaction reaches one of them it never transitions
// again. TimedOut is inferred locally when the status poll budget runs out —
// the backend transaction may still resolve later, so callers must treat it
// as "unknown, reconcile manually", not as a failure.
type State string

const (
	StateSubmitted State = "submitted"
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether no further transition can occur from this state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

// Request carries everything needed to submit a charge. Amount is in paisa
// and must match the order total exactly. MobileNumber and PinSuffix are
// required for wallet kinds only.
type Request struct {
	OrderID      string
	Amount       int64
	Gateway      GatewayKind
	MobileNumber string
	PinSuffix    string // last digits of the customer's CNIC
}

// Transaction is a charge as this system tracks it. TransactionID is
// gateway-assigned for wallet payments and locally minted (COD- prefix) for
// cash on delivery.
type Transaction struct {
	TransactionID string      `json:"transaction_id"`
	OrderID       string      `json:"order_id"`
	Gateway       GatewayKind `json:"gateway"`
	State         State       `json:"state"`
	LastMessage   string      `json:"last_message"`
}

// StatusResult is a normalized status-lookup answer from a wallet backend.
type StatusResult struct {
	State   State
	Message string
}

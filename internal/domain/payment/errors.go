// internal/domain/payment/errors.go
package payment

import "errors"

var (
	// ErrInvalidInput is returned when client-side validation fails before
	// any network call is attempted.
	ErrInvalidInput = errors.New("invalid payment input")

	// ErrGatewayRejected is returned when the wallet backend explicitly
	// declined the charge.
	ErrGatewayRejected = errors.New("gateway rejected payment")

	// ErrGatewayUnreachable is returned on transport-level failure talking
	// to the wallet backend.
	ErrGatewayUnreachable = errors.New("gateway unreachable")

	// ErrAlreadyInProgress is returned when a pay attempt is made for an
	// order whose previous attempt has not yet resolved.
	ErrAlreadyInProgress = errors.New("payment already in progress for this order")

	// ErrAmountMismatch is returned when the requested amount does not match
	// the order total.
	ErrAmountMismatch = errors.New("payment amount does not match order total")
)

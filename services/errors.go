package services

import "errors"

var (
	// ErrNotFound and ErrNotPending are consistency errors: the request
	// is treated as a no-op and logged, never as a crash.
	ErrNotFound   = errors.New("transaction not found")
	ErrNotPending = errors.New("transaction is not pending")

	// Validation errors, surfaced to the caller as 4xx.
	ErrInvalidAmount    = errors.New("transaction amount must be positive")
	ErrInsufficient     = errors.New("insufficient wallet balance")
	ErrGatewayDisabled  = errors.New("payout gateway is disabled")
	ErrAmountOutOfRange = errors.New("amount outside gateway limits")
)

package domain

import "errors"

// Every mutating operation fails fast: a violated precondition aborts the
// whole call with zero state change and zero value movement. Callers match
// these with errors.Is; wrapping adds context, never recovery.
var (
	// ErrUnauthorized is returned when the caller lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPaused is returned when order creation is attempted while intake is halted.
	ErrPaused = errors.New("intake paused")

	// ErrInvalidInput covers zero amounts, unsupported tokens or institutions,
	// missing destination addresses, fees over the cap and empty references.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOrderNotFound is returned when the order id resolves to nothing.
	ErrOrderNotFound = errors.New("order not found")

	// ErrAlreadyFulfilled is returned on settle/refund against a terminal order.
	ErrAlreadyFulfilled = errors.New("order already fulfilled")

	// ErrUnderflow is returned when a settlement percentage exceeds the
	// order's remaining basis points.
	ErrUnderflow = errors.New("settle percent exceeds remaining bps")

	// ErrTransferFailure is returned when the value-transfer collaborator
	// rejects a payout; the enclosing operation rolls back entirely.
	ErrTransferFailure = errors.New("token transfer failed")
)

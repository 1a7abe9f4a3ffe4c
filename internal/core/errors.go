package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped with the missing entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransfer rejects a transfer the location policy does not allow.
	ErrInvalidTransfer = errors.New("invalid transfer")
	// ErrInvalidOperation rejects ledger misuse: a negative result or creating an
	// entry with a non-positive delta.
	ErrInvalidOperation = errors.New("invalid ledger operation")
	// ErrAlreadyDelivered is returned when a delivered dispatch is received again.
	ErrAlreadyDelivered = errors.New("dispatch already delivered")
	// ErrInvalidStatusTransition rejects a status edit the state machine forbids.
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	// ErrForbidden means the caller may not act on the target.
	ErrForbidden = errors.New("forbidden")
)

// InsufficientStockError identifies the dispatch line whose requested quantity
// exceeds the product unit's available stock.
type InsufficientStockError struct {
	LineIndex     int // zero-based position in the request
	ProductUnitID int64
	Requested     int
	Available     int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product unit %d (line %d): requested %d, available %d",
		e.ProductUnitID, e.LineIndex+1, e.Requested, e.Available)
}

// InsufficientQuantityError is returned when more units are withdrawn from a
// ledger entry than it holds.
type InsufficientQuantityError struct {
	SampleID  int64
	Requested int
	Available int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity in sample %d: requested %d, available %d",
		e.SampleID, e.Requested, e.Available)
}

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// IsDomainError reports whether err belongs to the user-displayable taxonomy
// rather than an unexpected failure.
func IsDomainError(err error) bool {
	var stockErr *InsufficientStockError
	var qtyErr *InsufficientQuantityError
	var valErr *ValidationError
	switch {
	case errors.As(err, &stockErr), errors.As(err, &qtyErr), errors.As(err, &valErr):
		return true
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidTransfer),
		errors.Is(err, ErrInvalidOperation), errors.Is(err, ErrAlreadyDelivered),
		errors.Is(err, ErrInvalidStatusTransition), errors.Is(err, ErrForbidden):
		return true
	}
	return false
}

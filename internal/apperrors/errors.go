// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors grouping the failure modes the API reports to clients.
// Services return these (or typed errors wrapping them) and handlers map
// them to HTTP statuses; raw internals never reach the caller.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrAuthentication   = errors.New("authentication failed")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrExpired          = errors.New("resource expired")

	// Cart-local conditions.
	ErrCartExpired = fmt.Errorf("cart expired: %w", ErrExpired)
	ErrOutOfStock  = errors.New("out of stock")

	// Verification code past its validity window.
	ErrCodeExpired = fmt.Errorf("verification code expired: %w", ErrExpired)
)

// NotFoundError names the missing resource so the handler can render an
// actionable message.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError carries the offending product and what is actually
// available, so the storefront can tell the buyer exactly what to reduce.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available", e.ProductName, e.Available)
}

// ValidationError attaches field details to ErrValidation.
type ValidationError struct {
	Message string
	Details interface{}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

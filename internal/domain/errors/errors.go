package errors

import (
	"errors"
	"fmt"
)

var (
	// Order errors
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency")

	// Checkout errors
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrOrderAlreadyPaid       = errors.New("order already paid")
	ErrCheckoutInProgress     = errors.New("checkout already in progress")

	// Recorded as the failure reason on a payment result, never returned.
	ErrMissingTransactionID = errors.New("missing payment id")

	// Provider errors
	ErrProviderNotFound    = errors.New("payment provider not found")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrProviderTimeout     = errors.New("provider request timeout")

	// Settings errors
	ErrSettingNotFound    = errors.New("setting not found")
	ErrUnknownSetting     = errors.New("unknown setting")
	ErrDecryptionFailed   = errors.New("setting decryption failed")
	ErrInvalidSettingsKey = errors.New("invalid settings encryption key")

	// Idempotency errors
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// Unwrap lets callers match any validation error with errors.Is(err, ErrValidationFailed).
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

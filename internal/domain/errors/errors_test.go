package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		message string
		is      error
	}{
		{
			name:    "wraps gateway timeout",
			err:     NewDomainError("gateway_error", "mollie create payment failed", ErrProviderTimeout),
			message: "mollie create payment failed: provider request timeout",
			is:      ErrProviderTimeout,
		},
		{
			name:    "wraps state transition",
			err:     NewDomainError("invalid_transition", "cannot complete a paid order", ErrInvalidStateTransition),
			message: "cannot complete a paid order: invalid state transition",
			is:      ErrInvalidStateTransition,
		},
		{
			name:    "stands alone",
			err:     NewDomainError("order_locked", "order is locked by support", nil),
			message: "order is locked by support",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			if tt.is == nil {
				assert.Nil(t, tt.err.Unwrap())
				return
			}
			assert.ErrorIs(t, tt.err, tt.is)
			assert.ErrorIs(t, fmt.Errorf("initiate order 7: %w", tt.err), tt.is)
		})
	}
}

func TestDomainError_As(t *testing.T) {
	err := fmt.Errorf("update settings: %w", NewDomainError("unknown_setting", "no such setting: webhook", ErrUnknownSetting))

	var domainErr *DomainError
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "unknown_setting", domainErr.Code)
	assert.Equal(t, "no such setting: webhook", domainErr.Message)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("provider", "is required")

	assert.Equal(t, "validation failed for field provider: is required", err.Error())
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.NotErrorIs(t, err, ErrInvalidAmount)

	var ve *ValidationError
	assert.True(t, errors.As(fmt.Errorf("decode checkout request: %w", err), &ve))
	assert.Equal(t, "provider", ve.Field)
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrOrderNotFound, ErrInvalidAmount, ErrInvalidCurrency,
		ErrInvalidStateTransition, ErrOrderAlreadyPaid, ErrCheckoutInProgress, ErrMissingTransactionID,
		ErrProviderNotFound, ErrProviderUnavailable, ErrProviderTimeout,
		ErrSettingNotFound, ErrUnknownSetting, ErrDecryptionFailed, ErrInvalidSettingsKey,
		ErrDuplicateIdempotencyKey, ErrUnauthorized, ErrForbidden, ErrValidationFailed,
	}

	seen := make(map[string]bool, len(sentinels))
	for _, err := range sentinels {
		assert.False(t, seen[err.Error()], "duplicate message %q", err.Error())
		seen[err.Error()] = true
	}
}

func TestMissingTransactionID_Message(t *testing.T) {
	assert.Equal(t, "missing payment id", ErrMissingTransactionID.Error())
}

package controller

import (
	"time"

	"github.com/cassiomorais/checkout/internal/domain/payment"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/cassiomorais/checkout/internal/service"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns and validation tags.

// CheckoutRequest starts a checkout of an order.
type CheckoutRequest struct {
	Provider string `json:"provider" validate:"required,max=64"`
}

// UpdateSettingsRequest holds provider setting values keyed by setting key.
type UpdateSettingsRequest struct {
	Values map[string]string `json:"values" validate:"required,min=1,dive,max=1024"`
}

// --- Response DTOs ---

// CheckoutResponse describes the outcome of a checkout step.
type CheckoutResponse struct {
	OrderID      int64          `json:"order_id"`
	PaymentHash  string         `json:"payment_hash"`
	Outcome      string         `json:"outcome"`
	PaymentState string         `json:"payment_state"`
	RedirectURL  string         `json:"redirect_url,omitempty"`
	Message      string         `json:"message,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// ProviderResponse represents a registered payment provider.
type ProviderResponse struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// SettingsResponse lists the admin settings of a provider.
type SettingsResponse struct {
	Provider string                 `json:"provider"`
	Fields   []service.SettingValue `json:"fields"`
}

// PaymentLogResponse represents one payment log entry.
type PaymentLogResponse struct {
	ID        string         `json:"id"`
	Provider  string         `json:"provider"`
	Stage     string         `json:"stage"`
	Outcome   string         `json:"outcome"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// --- Conversion helpers ---

// FromResult converts a provider result to API response.
func FromResult(r *payment.Result) *CheckoutResponse {
	resp := &CheckoutResponse{
		Outcome:     string(r.Outcome()),
		RedirectURL: r.RedirectURL(),
		Message:     r.Message(),
	}
	if data := r.Data(); len(data) > 0 {
		resp.Data = data
	}
	if o := r.Order(); o != nil {
		resp.OrderID = o.ID
		resp.PaymentHash = o.PaymentHash
		resp.PaymentState = string(o.PaymentState)
	}
	return resp
}

// FromProvider converts a provider to API response.
func FromProvider(p providers.Provider) ProviderResponse {
	return ProviderResponse{Identifier: p.Identifier(), Name: p.Name()}
}

// FromLog converts a payment log entry to API response.
func FromLog(l *payment.Log) PaymentLogResponse {
	return PaymentLogResponse{
		ID:        l.ID.String(),
		Provider:  l.Provider,
		Stage:     string(l.Stage),
		Outcome:   string(l.Outcome),
		Message:   l.Message,
		Data:      l.Data,
		CreatedAt: l.CreatedAt,
	}
}

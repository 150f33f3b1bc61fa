package mollie

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// PurchaseRequest carries the fields of a new payment.
type PurchaseRequest struct {
	Amount       string // decimal string, e.g. "10.00"
	Currency     string
	Description  string
	BillingEmail string
	Metadata     map[string]any
	ReturnURL    string
	CancelURL    string
}

// CompletePurchaseRequest looks up the payment created by a purchase.
type CompletePurchaseRequest struct {
	TransactionReference string
}

type amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type createPaymentBody struct {
	Amount       amount         `json:"amount"`
	Description  string         `json:"description"`
	RedirectURL  string         `json:"redirectUrl"`
	CancelURL    string         `json:"cancelUrl,omitempty"`
	BillingEmail string         `json:"billingEmail,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Payment is the subset of the payment resource used by checkout.
type Payment struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Details *Details `json:"details,omitempty"`
	Links   Links    `json:"_links"`
}

// Details holds method specific fields. Only card payments fill the card fields.
type Details struct {
	CardLabel  *string `json:"cardLabel,omitempty"`
	CardHolder *string `json:"cardHolder,omitempty"`
	CardNumber *string `json:"cardNumber,omitempty"`
}

type Links struct {
	Checkout *Link `json:"checkout,omitempty"`
}

type Link struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

// Response is a decoded gateway response. Payment is nil unless the gateway
// answered with a 2xx payment resource.
type Response struct {
	StatusCode int
	Payment    *Payment
	data       map[string]any
}

func decodeResponse(status int, body []byte) (*Response, error) {
	resp := &Response{StatusCode: status}
	if len(bytes.TrimSpace(body)) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(body, &resp.data); err != nil {
		return nil, fmt.Errorf("mollie: decode response: %w", err)
	}
	if status >= 200 && status < 300 {
		var p Payment
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("mollie: decode payment: %w", err)
		}
		resp.Payment = &p
	}
	return resp, nil
}

// IsRedirect reports whether the customer must be sent to a checkout page.
func (r *Response) IsRedirect() bool {
	return r.RedirectURL() != ""
}

// RedirectURL returns the hosted checkout URL, if any.
func (r *Response) RedirectURL() string {
	if r == nil || r.Payment == nil || r.Payment.Links.Checkout == nil {
		return ""
	}
	return r.Payment.Links.Checkout.Href
}

// TransactionID returns the payment id, if any.
func (r *Response) TransactionID() string {
	if r == nil || r.Payment == nil {
		return ""
	}
	return r.Payment.ID
}

// Status returns the payment status, if any.
func (r *Response) Status() string {
	if r == nil || r.Payment == nil {
		return ""
	}
	return r.Payment.Status
}

// Details returns the method details, if any.
func (r *Response) Details() *Details {
	if r == nil || r.Payment == nil {
		return nil
	}
	return r.Payment.Details
}

// Data returns a copy of the raw response body. It is nil when the body was empty.
func (r *Response) Data() map[string]any {
	if r == nil {
		return nil
	}
	return maps.Clone(r.data)
}

func (r *Response) String() string {
	if r.Payment != nil {
		return fmt.Sprintf("mollie response: HTTP %d, payment %s, status %q", r.StatusCode, r.Payment.ID, r.Payment.Status)
	}
	return fmt.Sprintf("mollie response: HTTP %d", r.StatusCode)
}

// StatusError reports a response the gateway may recover from (429 or 5xx).
type StatusError struct {
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mollie: HTTP %d", e.Response.StatusCode)
}

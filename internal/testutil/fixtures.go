package testutil

import (
	"time"

	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/google/uuid"
)

// NewTestOrder returns an order ready for checkout with a random payment hash.
func NewTestOrder(id int64, totalMinor int64, currency string) *order.Order {
	now := time.Now()
	return &order.Order{
		ID:            id,
		Total:         order.Money{ValueMinor: totalMinor, Currency: currency},
		CustomerEmail: "customer@example.com",
		PaymentHash:   uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewRedirectedOrder returns an order waiting for the customer to come back
// from provider.
func NewRedirectedOrder(id int64, provider string) *order.Order {
	o := NewTestOrder(id, 1000, "EUR")
	o.PaymentProvider = provider
	o.PaymentState = order.StateRedirected
	return o
}

func StringPtr(s string) *string {
	return &s
}

package order

import "context"

// Repository defines the order store used by checkout.
type Repository interface {
	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id int64) (*Order, error)

	// GetByPaymentHash retrieves an order by its payment correlation hash
	GetByPaymentHash(ctx context.Context, hash string) (*Order, error)

	// UpdatePayment persists provider, payment state and card metadata
	UpdatePayment(ctx context.Context, o *Order) error
}

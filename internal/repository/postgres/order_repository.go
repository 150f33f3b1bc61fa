package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, total::text, currency, customer_email, payment_hash, payment_provider, payment_state,
		        card_type, card_holder_name, credit_card_last4_digits, created_at, updated_at`

// OrderRepository implements order.Repository using PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.scanOrder(r.db(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// GetByPaymentHash retrieves an order by the hash used in callback URLs.
func (r *OrderRepository) GetByPaymentHash(ctx context.Context, hash string) (*order.Order, error) {
	return r.scanOrder(r.db(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_hash = $1`, hash))
}

// UpdatePayment writes back the payment fields of an order.
func (r *OrderRepository) UpdatePayment(ctx context.Context, o *order.Order) error {
	var provider *string
	if o.PaymentProvider != "" {
		provider = &o.PaymentProvider
	}

	err := r.db(ctx).QueryRow(ctx,
		`UPDATE orders SET
		  payment_provider=$1, payment_state=$2,
		  card_type=$3, card_holder_name=$4, credit_card_last4_digits=$5,
		  updated_at=NOW()
		 WHERE id=$6
		 RETURNING updated_at`,
		provider, string(o.PaymentState),
		o.CardType, o.CardHolderName, o.CreditCardLast4Digits,
		o.ID,
	).Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrOrderNotFound
		}
		return fmt.Errorf("update order payment: %w", err)
	}
	return nil
}

func (r *OrderRepository) scanOrder(row scanner) (*order.Order, error) {
	o := &order.Order{}
	var (
		total    string
		provider *string
		state    string
	)
	err := row.Scan(
		&o.ID, &total, &o.Total.Currency, &o.CustomerEmail, &o.PaymentHash, &provider, &state,
		&o.CardType, &o.CardHolderName, &o.CreditCardLast4Digits, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Total.ValueMinor, err = numericToMinor(total, o.Total.FractionDigits())
	if err != nil {
		return nil, fmt.Errorf("order %d total: %w", o.ID, err)
	}
	if provider != nil {
		o.PaymentProvider = *provider
	}
	o.PaymentState = order.PaymentState(state)
	return o, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cassiomorais/checkout/internal/domain/payment"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentLogRepository implements payment.LogRepository using PostgreSQL.
type PaymentLogRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentLogRepository(pool *pgxpool.Pool) *PaymentLogRepository {
	return &PaymentLogRepository{pool: pool}
}

func (r *PaymentLogRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Add inserts a log entry.
func (r *PaymentLogRepository) Add(ctx context.Context, entry *payment.Log) error {
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("marshal log data: %w", err)
	}
	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO payment_logs (id, order_id, provider, stage, outcome, message, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.OrderID, entry.Provider, string(entry.Stage), string(entry.Outcome),
		entry.Message, data, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment log: %w", err)
	}
	return nil
}

// ListByOrder returns the log entries of an order, oldest first.
func (r *PaymentLogRepository) ListByOrder(ctx context.Context, orderID int64) ([]*payment.Log, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, order_id, provider, stage, outcome, message, data, created_at
		 FROM payment_logs WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payment logs: %w", err)
	}
	defer rows.Close()

	var logs []*payment.Log
	for rows.Next() {
		var (
			e              payment.Log
			stage, outcome string
			data           []byte
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Provider, &stage, &outcome, &e.Message, &data, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment log: %w", err)
		}
		e.Stage = payment.Stage(stage)
		e.Outcome = payment.Outcome(outcome)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("unmarshal log data: %w", err)
			}
		}
		logs = append(logs, &e)
	}
	return logs, rows.Err()
}

package redis

import (
	"context"
	"fmt"

	"github.com/cassiomorais/checkout/internal/domain/payment"
	"github.com/redis/go-redis/v9"
)

const (
	CheckoutStream = "checkout:events"

	checkoutStreamMaxLen = 100000
)

type StreamProducer struct {
	client *redis.Client
}

func NewStreamProducer(client *redis.Client) *StreamProducer {
	return &StreamProducer{client: client}
}

// PublishCheckoutEvent appends ev to the checkout stream.
func (p *StreamProducer) PublishCheckoutEvent(ctx context.Context, ev payment.Event) error {
	args := &redis.XAddArgs{
		Stream: CheckoutStream,
		MaxLen: checkoutStreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"order_id":     ev.OrderID,
			"payment_hash": ev.PaymentHash,
			"provider":     ev.Provider,
			"stage":        string(ev.Stage),
			"outcome":      string(ev.Outcome),
			"message":      ev.Message,
			"timestamp":    ev.OccurredAt.Unix(),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish checkout event: %w", err)
	}

	return nil
}

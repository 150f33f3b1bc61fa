package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cassiomorais/checkout/internal/infrastructure/config"
	"github.com/cassiomorais/checkout/pkg/retry"
	"github.com/redis/go-redis/v9"
)

const (
	defaultConnectRetries    = 5
	defaultConnectRetryDelay = time.Second
)

// NewClient connects to the Redis holding checkout sessions, locks and the
// event stream. The first ping is retried with backoff so the service can
// start alongside Redis.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "checkout",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	attempts := uint(defaultConnectRetries)
	if cfg.ConnectRetries > 0 {
		attempts = uint(cfg.ConnectRetries)
	}
	delay := defaultConnectRetryDelay
	if cfg.ConnectRetryDelay > 0 {
		delay = cfg.ConnectRetryDelay
	}

	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  attempts,
		InitialDelay: delay,
		MaxDelay:     10 * delay,
	}, func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s unreachable after %d attempts: %w", cfg.RedisAddr(), attempts, err)
	}
	return client, nil
}

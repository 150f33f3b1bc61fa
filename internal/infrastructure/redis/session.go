package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "checkout:session:"

// SessionStore keeps per-checkout values between the redirect to a gateway
// and the customer's return.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// For returns the session of the checkout identified by scope, usually the
// order's payment hash.
func (s *SessionStore) For(scope string) providers.Session {
	return &Session{
		client: s.client,
		prefix: sessionKeyPrefix + scope + ":",
		ttl:    s.ttl,
	}
}

// Session is one checkout's view of the store.
type Session struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (s *Session) Put(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session value %s: %w", key, err)
	}
	return nil
}

// Pull reads and deletes key in one step, so a value is handed out at most once.
func (s *Session) Pull(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetDel(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to pull session value %s: %w", key, err)
	}
	return value, true, nil
}

package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/payment"
	"github.com/cassiomorais/checkout/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewClient(context.Background(), &config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	mr.Close()

	_, err = NewClient(context.Background(), &config.RedisConfig{
		Host:              "127.0.0.1",
		Port:              port,
		ConnectRetries:    2,
		ConnectRetryDelay: time.Millisecond,
	})
	assert.Error(t, err)
}

func TestSession_PutPull(t *testing.T) {
	mr, client := newTestRedis(t)
	session := NewSessionStore(client, time.Hour).For("abc")
	ctx := context.Background()

	require.NoError(t, session.Put(ctx, "payment.mollie.id", "tr_1"))
	assert.Equal(t, "tr_1", mustGet(t, mr, "checkout:session:abc:payment.mollie.id"))
	assert.Equal(t, time.Hour, mr.TTL("checkout:session:abc:payment.mollie.id"))

	value, ok, err := session.Pull(ctx, "payment.mollie.id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tr_1", value)

	_, ok, err = session.Pull(ctx, "payment.mollie.id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_ScopedByCheckout(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.For("abc").Put(ctx, "k", "one"))
	require.NoError(t, store.For("def").Put(ctx, "k", "two"))

	value, ok, err := store.For("def").Pull(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", value)

	value, ok, err = store.For("abc").Pull(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "one", value)
}

func TestSession_Expires(t *testing.T) {
	mr, client := newTestRedis(t)
	session := NewSessionStore(client, time.Minute).For("abc")
	ctx := context.Background()

	require.NoError(t, session.Put(ctx, "k", "v"))
	mr.FastForward(2 * time.Minute)

	_, ok, err := session.Pull(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSession_ConnectionError(t *testing.T) {
	mr, client := newTestRedis(t)
	session := NewSessionStore(client, time.Minute).For("abc")
	mr.Close()

	_, _, err := session.Pull(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, session.Put(context.Background(), "k", "v"))
}

func TestLocker_Exclusive(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewLocker(client, 30*time.Second)
	locker.retries = 2
	locker.retryDelay = time.Millisecond
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, mr.Exists("checkout:lock:abc"))

	_, err = locker.Acquire(ctx, "abc")
	assert.ErrorIs(t, err, domainErrors.ErrCheckoutInProgress)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("checkout:lock:abc"))

	release, err = locker.Acquire(ctx, "abc")
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestDistributedLock_ReleaseOnlyByOwner(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	lock := NewDistributedLock(client, "abc", time.Second)
	acquired, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// Lock expires and someone else takes it.
	mr.FastForward(2 * time.Second)
	other := NewDistributedLock(client, "abc", time.Minute)
	acquired, err = other.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	assert.Error(t, lock.Release(ctx))
	assert.True(t, mr.Exists("checkout:lock:abc"))
	assert.NoError(t, other.Release(ctx))
}

func TestDistributedLock_ReleaseWithoutAcquire(t *testing.T) {
	_, client := newTestRedis(t)

	lock := NewDistributedLock(client, "abc", time.Second)
	assert.NoError(t, lock.Release(context.Background()))
}

func TestStreamProducer_PublishCheckoutEvent(t *testing.T) {
	_, client := newTestRedis(t)
	producer := NewStreamProducer(client)
	ctx := context.Background()

	result := payment.NewResult(&order.Order{ID: 42, PaymentHash: "abc"}).Success(map[string]any{"status": "paid"})
	ev := payment.NewEvent(result, "mollie", payment.StageComplete)

	require.NoError(t, producer.PublishCheckoutEvent(ctx, ev))

	entries, err := client.XRange(ctx, CheckoutStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, "42", values["order_id"])
	assert.Equal(t, "abc", values["payment_hash"])
	assert.Equal(t, "mollie", values["provider"])
	assert.Equal(t, "complete", values["stage"])
	assert.Equal(t, "success", values["outcome"])
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

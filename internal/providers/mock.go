package providers

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/payment"
	"github.com/google/uuid"
)

// MockProvider settles payments in-process. It redirects straight to the
// return URL, so a full checkout round trip works without a gateway.
type MockProvider struct {
	identifier  string
	failureRate float64 // 0.0 to 1.0
	latency     time.Duration
	callbacks   CallbackURLs
}

type MockProviderOption func(*MockProvider)

func WithFailureRate(rate float64) MockProviderOption {
	return func(p *MockProvider) { p.failureRate = rate }
}

func WithLatency(d time.Duration) MockProviderOption {
	return func(p *MockProvider) { p.latency = d }
}

func NewMockProvider(identifier string, callbacks CallbackURLs, opts ...MockProviderOption) *MockProvider {
	p := &MockProvider{
		identifier: identifier,
		latency:    100 * time.Millisecond,
		callbacks:  callbacks,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *MockProvider) Name() string { return "Mock (" + p.identifier + ")" }
func (p *MockProvider) Identifier() string { return p.identifier }
func (p *MockProvider) Validate() bool { return true }
func (p *MockProvider) Settings() []SettingField { return nil }
func (p *MockProvider) EncryptedSettings() []string { return nil }

func (p *MockProvider) sessionKey() string {
	return "payment." + p.identifier + ".id"
}

func (p *MockProvider) Initiate(ctx context.Context, o *order.Order, session Session) *payment.Result {
	result := payment.NewResult(o)

	select {
	case <-time.After(p.latency):
	case <-ctx.Done():
		return result.Fail(nil, ctx.Err())
	}

	if rand.Float64() < p.failureRate {
		return result.Fail(nil, fmt.Sprintf("%s: simulated failure for order %d", p.identifier, o.ID))
	}

	txID := fmt.Sprintf("%s_txn_%s", p.identifier, uuid.New().String()[:8])
	if err := session.Put(ctx, p.sessionKey(), txID); err != nil {
		return result.Fail(nil, err)
	}
	if err := session.Put(ctx, SessionCallbackKey, p.identifier); err != nil {
		return result.Fail(nil, err)
	}

	return result.Redirect(p.callbacks.ReturnURL(o.PaymentHash))
}

func (p *MockProvider) Complete(ctx context.Context, result *payment.Result, session Session) *payment.Result {
	txID, ok, err := session.Pull(ctx, p.sessionKey())
	if err != nil {
		return result.Fail(nil, err)
	}
	if !ok || txID == "" {
		return result.Fail(nil, domainErrors.ErrMissingTransactionID.Error())
	}
	return result.Success(map[string]any{"id": txID, "status": "paid"})
}

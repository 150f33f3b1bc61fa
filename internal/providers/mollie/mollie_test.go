package mollie

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/payment"
	gateway "github.com/cassiomorais/checkout/internal/gateway/mollie"
	"github.com/cassiomorais/checkout/internal/i18n"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/cassiomorais/checkout/pkg/retry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type memSession map[string]string

func (s memSession) Put(_ context.Context, key, value string) error {
	s[key] = value
	return nil
}

func (s memSession) Pull(_ context.Context, key string) (string, bool, error) {
	v, ok := s[key]
	delete(s, key)
	return v, ok, nil
}

type staticSecrets struct {
	values map[string]string
	err    error
}

func (s staticSecrets) Decrypted(_ context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.values[key], nil
}

// fakeMollie counts calls and answers every request with the configured reply.
type fakeMollie struct {
	calls atomic.Int32

	mu      sync.Mutex
	status  int
	body    string
	lastReq map[string]any
	lastURL string
	lastKey string
}

func (f *fakeMollie) handler(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastURL = r.URL.Path
	f.lastKey = r.Header.Get("Authorization")
	if r.Method == http.MethodPost {
		f.lastReq = nil
		_ = json.NewDecoder(r.Body).Decode(&f.lastReq)
	}
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(f.status)
	_, _ = w.Write([]byte(f.body))
}

func (f *fakeMollie) reply(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakeMollie) last() (path, auth string, req map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastURL, f.lastKey, f.lastReq
}

var callbacks = providers.CallbackURLs{
	Return: "https://shop.example/checkout/{hash}/return",
	Cancel: "https://shop.example/checkout/{hash}/cancel",
}

func newProvider(t *testing.T, fake *fakeMollie) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	return newProviderAt(srv.URL, srv.Client(), staticSecrets{values: map[string]string{SettingAPIKey: "test_key"}})
}

func newProviderAt(baseURL string, client *http.Client, secrets SecretReader) *Provider {
	opts := []gateway.Option{
		gateway.WithBaseURL(baseURL),
		gateway.WithRetry(retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	}
	if client != nil {
		opts = append(opts, gateway.WithHTTPClient(client))
	}
	factory := gateway.NewFactory(opts...)
	newClient := func(apiKey string) GatewayClient { return factory.New(apiKey) }
	return New(newClient, secrets, callbacks, zerolog.Nop())
}

func testOrder() *order.Order {
	return &order.Order{
		ID:            42,
		Total:         order.Money{ValueMinor: 1000, Currency: "EUR"},
		CustomerEmail: "buyer@example.com",
		PaymentHash:   "abc",
	}
}

func TestProvider_Contract(t *testing.T) {
	p := newProviderAt("http://unused", nil, staticSecrets{})

	assert.Equal(t, "Mollie", p.Name())
	assert.Equal(t, "mollie", p.Identifier())
	assert.True(t, p.Validate())
	assert.Equal(t, []string{"mollie_api_key"}, p.EncryptedSettings())
	assert.Equal(t, []providers.SettingField{{
		Key:   "mollie_api_key",
		Label: i18n.KeyAPIKeyLabel,
		Span:  "left",
		Type:  "text",
	}}, p.Settings())
}

func TestProvider_Initiate_Redirect(t *testing.T) {
	fake := &fakeMollie{status: http.StatusCreated, body: `{
		"id": "tr_1",
		"status": "open",
		"_links": {"checkout": {"href": "https://pay/tr_1", "type": "text/html"}}
	}`}
	p := newProvider(t, fake)
	session := memSession{}

	result := p.Initiate(context.Background(), testOrder(), session)

	require.True(t, result.IsRedirect())
	assert.Equal(t, "https://pay/tr_1", result.RedirectURL())
	assert.Equal(t, "tr_1", session[sessionTransactionKey])
	assert.Equal(t, Identifier, session[providers.SessionCallbackKey])

	path, auth, req := fake.last()
	assert.Equal(t, "/payments", path)
	assert.Equal(t, "Bearer test_key", auth)
	assert.Equal(t, map[string]any{"currency": "EUR", "value": "10.00"}, req["amount"])
	assert.Equal(t, "#42", req["description"])
	assert.Equal(t, "buyer@example.com", req["billingEmail"])
	assert.Equal(t, map[string]any{"order_id": float64(42), "payment_hash": "abc"}, req["metadata"])
	assert.Equal(t, "https://shop.example/checkout/abc/return", req["redirectUrl"])
	assert.Equal(t, "https://shop.example/checkout/abc/cancel", req["cancelUrl"])
}

func TestProvider_Initiate_NotARedirect(t *testing.T) {
	fake := &fakeMollie{status: http.StatusUnprocessableEntity, body: `{"status": 422, "title": "Unprocessable Entity", "detail": "The amount is invalid"}`}
	p := newProvider(t, fake)
	session := memSession{}

	result := p.Initiate(context.Background(), testOrder(), session)

	require.True(t, result.IsFailure())
	assert.Equal(t, "The amount is invalid", result.Data()["detail"])
	resp, ok := result.Reason().(*gateway.Response)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Empty(t, session)
}

func TestProvider_Initiate_RedirectWithoutID(t *testing.T) {
	fake := &fakeMollie{status: http.StatusCreated, body: `{
		"status": "open",
		"_links": {"checkout": {"href": "https://pay/unknown"}}
	}`}
	p := newProvider(t, fake)
	session := memSession{}

	result := p.Initiate(context.Background(), testOrder(), session)

	require.True(t, result.IsFailure())
	assert.Equal(t, "missing payment id", result.Reason())
	assert.Equal(t, "open", result.Data()["status"])
	assert.Empty(t, session)
}

func TestProvider_Initiate_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p := newProviderAt(srv.URL, nil, staticSecrets{values: map[string]string{SettingAPIKey: "test_key"}})
	session := memSession{}

	result := p.Initiate(context.Background(), testOrder(), session)

	require.True(t, result.IsFailure())
	assert.Error(t, result.Err())
	assert.Empty(t, result.Data())
	assert.Empty(t, session)
}

func TestProvider_Initiate_SecretUnavailable(t *testing.T) {
	fake := &fakeMollie{status: http.StatusCreated, body: `{}`}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()
	secretErr := errors.New("settings store down")
	p := newProviderAt(srv.URL, srv.Client(), staticSecrets{err: secretErr})

	result := p.Initiate(context.Background(), testOrder(), memSession{})

	require.True(t, result.IsFailure())
	assert.ErrorIs(t, result.Err(), secretErr)
	assert.Equal(t, int32(0), fake.calls.Load())
}

func TestProvider_Complete_WithoutPendingContext(t *testing.T) {
	fake := &fakeMollie{status: http.StatusOK, body: `{"id": "tr_1", "status": "paid"}`}
	p := newProvider(t, fake)

	result := p.Complete(context.Background(), payment.NewResult(testOrder()), memSession{})

	require.True(t, result.IsFailure())
	assert.Equal(t, "missing payment id", result.Reason())
	assert.Empty(t, result.Data())
	assert.Equal(t, int32(0), fake.calls.Load())
}

func TestProvider_Complete_Paid(t *testing.T) {
	fake := &fakeMollie{status: http.StatusOK, body: `{"id": "tr_1", "status": "paid", "details": {"cardLabel": "visa"}}`}
	p := newProvider(t, fake)
	o := testOrder()
	session := memSession{sessionTransactionKey: "tr_1"}

	result := p.Complete(context.Background(), payment.NewResult(o), session)

	require.True(t, result.IsSuccessful())
	assert.Nil(t, result.Reason())
	assert.Equal(t, "paid", result.Data()["status"])
	path, _, _ := fake.last()
	assert.Equal(t, "/payments/tr_1", path)

	require.NotNil(t, o.CardType)
	assert.Equal(t, "visa", *o.CardType)
	assert.Nil(t, o.CardHolderName)
	assert.Nil(t, o.CreditCardLast4Digits)
	assert.NotContains(t, session, sessionTransactionKey)
}

func TestProvider_Complete_PaidWithFullCardDetails(t *testing.T) {
	fake := &fakeMollie{status: http.StatusOK, body: `{
		"id": "tr_1",
		"status": "paid",
		"details": {"cardLabel": "Mastercard", "cardHolder": "J. Doe", "cardNumber": "6787"}
	}`}
	p := newProvider(t, fake)
	o := testOrder()

	result := p.Complete(context.Background(), payment.NewResult(o), memSession{sessionTransactionKey: "tr_1"})

	require.True(t, result.IsSuccessful())
	assert.Equal(t, "Mastercard", *o.CardType)
	assert.Equal(t, "J. Doe", *o.CardHolderName)
	assert.Equal(t, "6787", *o.CreditCardLast4Digits)
}

func TestProvider_Complete_PaidWithoutDetails(t *testing.T) {
	fake := &fakeMollie{status: http.StatusOK, body: `{"id": "tr_1", "status": "paid"}`}
	p := newProvider(t, fake)
	label := "stale"
	o := testOrder()
	o.CardType = &label

	result := p.Complete(context.Background(), payment.NewResult(o), memSession{sessionTransactionKey: "tr_1"})

	require.True(t, result.IsSuccessful())
	assert.Nil(t, o.CardType)
}

func TestProvider_Complete_Canceled(t *testing.T) {
	fake := &fakeMollie{status: http.StatusOK, body: `{"id": "tr_1", "status": "canceled"}`}
	p := newProvider(t, fake)

	result := p.Complete(context.Background(), payment.NewResult(testOrder()), memSession{sessionTransactionKey: "tr_1"})

	require.True(t, result.IsFailure())
	assert.Equal(t, "The payment has been cancelled.", result.Reason())
	assert.Empty(t, result.Data())
}

func TestProvider_Complete_CanceledLocalized(t *testing.T) {
	fake := &fakeMollie{status: http.StatusOK, body: `{"id": "tr_1", "status": "canceled"}`}
	p := newProvider(t, fake)
	ctx := i18n.WithLocale(context.Background(), language.German)

	result := p.Complete(ctx, payment.NewResult(testOrder()), memSession{sessionTransactionKey: "tr_1"})

	require.True(t, result.IsFailure())
	assert.Equal(t, "Die Zahlung wurde abgebrochen.", result.Reason())
}

func TestProvider_Complete_Pending(t *testing.T) {
	for _, status := range []string{"open", "pending"} {
		t.Run(status, func(t *testing.T) {
			fake := &fakeMollie{status: http.StatusOK, body: `{"id": "tr_1", "status": "` + status + `"}`}
			p := newProvider(t, fake)

			result := p.Complete(context.Background(), payment.NewResult(testOrder()), memSession{sessionTransactionKey: "tr_1"})

			require.True(t, result.IsPending())
			assert.Equal(t, status, result.Data()["status"])
			resp, ok := result.Reason().(*gateway.Response)
			require.True(t, ok)
			assert.Equal(t, status, resp.Status())
		})
	}
}

func TestProvider_Complete_UnrecognizedStatus(t *testing.T) {
	for _, status := range []string{"expired", "failed", "authorized"} {
		t.Run(status, func(t *testing.T) {
			fake := &fakeMollie{status: http.StatusOK, body: `{"id": "tr_1", "status": "` + status + `"}`}
			p := newProvider(t, fake)

			result := p.Complete(context.Background(), payment.NewResult(testOrder()), memSession{sessionTransactionKey: "tr_1"})

			require.True(t, result.IsFailure())
			assert.Nil(t, result.Reason())
			assert.Empty(t, result.Data())
		})
	}
}

func TestProvider_Complete_NoData(t *testing.T) {
	fake := &fakeMollie{status: http.StatusOK, body: ``}
	p := newProvider(t, fake)

	result := p.Complete(context.Background(), payment.NewResult(testOrder()), memSession{sessionTransactionKey: "tr_1"})

	require.True(t, result.IsFailure())
	assert.Empty(t, result.Data())
	_, ok := result.Reason().(*gateway.Response)
	assert.True(t, ok)
}

func TestProvider_Complete_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p := newProviderAt(srv.URL, nil, staticSecrets{values: map[string]string{SettingAPIKey: "test_key"}})
	session := memSession{sessionTransactionKey: "tr_1"}

	result := p.Complete(context.Background(), payment.NewResult(testOrder()), session)

	require.True(t, result.IsFailure())
	assert.Error(t, result.Err())
	assert.Empty(t, result.Data())
	assert.Empty(t, session)
}

func TestProvider_Complete_ConsumesPendingContext(t *testing.T) {
	fake := &fakeMollie{status: http.StatusOK, body: `{"id": "tr_1", "status": "paid"}`}
	p := newProvider(t, fake)
	session := memSession{sessionTransactionKey: "tr_1"}

	first := p.Complete(context.Background(), payment.NewResult(testOrder()), session)
	second := p.Complete(context.Background(), payment.NewResult(testOrder()), session)

	assert.True(t, first.IsSuccessful())
	require.True(t, second.IsFailure())
	assert.Equal(t, "missing payment id", second.Reason())
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestProvider_RoundTrip(t *testing.T) {
	fake := &fakeMollie{status: http.StatusCreated, body: `{
		"id": "tr_9",
		"status": "open",
		"_links": {"checkout": {"href": "https://pay/tr_9"}}
	}`}
	p := newProvider(t, fake)
	o := testOrder()
	session := memSession{}

	initiated := p.Initiate(context.Background(), o, session)
	require.True(t, initiated.IsRedirect())

	fake.reply(http.StatusOK, `{"id": "tr_9", "status": "paid", "details": {"cardLabel": "amex", "cardNumber": "0005"}}`)

	completed := p.Complete(context.Background(), initiated, session)
	require.True(t, completed.IsSuccessful())
	assert.Same(t, o, completed.Order())
	path, _, _ := fake.last()
	assert.Equal(t, "/payments/tr_9", path)
	assert.Equal(t, "amex", *o.CardType)
	assert.Equal(t, "0005", *o.CreditCardLast4Digits)
}

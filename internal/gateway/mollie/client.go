package mollie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/pkg/retry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://api.mollie.com/v2"

	maxBodyBytes = 1 << 20
	userAgent    = "checkout-mollie/1.0"
)

var ErrMissingAPIKey = errors.New("mollie: missing API key")

// Observer receives one call per gateway request.
// Outcome is one of ok, client_error, server_error, error or circuit_open.
type Observer func(operation, outcome string, duration time.Duration)

// Factory holds everything shared between clients: the HTTP transport, the
// circuit breaker and the retry policy. Clients are cheap and carry only an API key.
type Factory struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
	breaker    *gobreaker.CircuitBreaker[*Response]
	logger     zerolog.Logger
	observe    Observer
	onState    func(name string, from, to gobreaker.State)
}

type Option func(*Factory)

func WithBaseURL(u string) Option {
	return func(f *Factory) { f.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(f *Factory) { f.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(f *Factory) { f.httpClient.Timeout = d }
}

func WithRetry(cfg retry.Config) Option {
	return func(f *Factory) { f.retryCfg = cfg }
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

func WithObserver(o Observer) Option {
	return func(f *Factory) { f.observe = o }
}

// WithStateChange registers a hook for circuit breaker transitions.
func WithStateChange(fn func(name string, from, to gobreaker.State)) Option {
	return func(f *Factory) { f.onState = fn }
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		retryCfg: retry.DefaultConfig(),
		logger:   zerolog.Nop(),
		observe:  func(string, string, time.Duration) {},
	}
	for _, opt := range opts {
		opt(f)
	}

	f.breaker = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        "mollie",
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			if f.onState != nil {
				f.onState(name, from, to)
			}
		},
	})

	return f
}

// New returns a client authenticated with apiKey.
func (f *Factory) New(apiKey string) *Client {
	return &Client{factory: f, apiKey: apiKey}
}

// BreakerState reports the state of the shared circuit breaker.
func (f *Factory) BreakerState() gobreaker.State {
	return f.breaker.State()
}

// Client talks to the Mollie payments API.
type Client struct {
	factory *Factory
	apiKey  string
}

// Purchase creates a payment. Every attempt of one call carries the same
// Idempotency-Key, so a retry after a lost response cannot create a second payment.
func (c *Client) Purchase(ctx context.Context, req PurchaseRequest) (*Response, error) {
	body := createPaymentBody{
		Amount:       amount{Currency: req.Currency, Value: req.Amount},
		Description:  req.Description,
		RedirectURL:  req.ReturnURL,
		CancelURL:    req.CancelURL,
		BillingEmail: req.BillingEmail,
		Metadata:     req.Metadata,
	}
	return c.do(ctx, "purchase", http.MethodPost, "/payments", body, uuid.NewString())
}

// CompletePurchase fetches the payment created by Purchase.
func (c *Client) CompletePurchase(ctx context.Context, req CompletePurchaseRequest) (*Response, error) {
	if req.TransactionReference == "" {
		return nil, domainErrors.ErrMissingTransactionID
	}
	return c.do(ctx, "complete_purchase", http.MethodGet, "/payments/"+url.PathEscape(req.TransactionReference), nil, "")
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, idempotencyKey string) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("mollie: encode request: %w", err)
		}
	}

	f := c.factory
	start := time.Now()
	logger := f.logger.With().Str("operation", op).Logger()

	cfg := f.retryCfg
	cfg.RetryIf = isRetryable
	cfg.OnRetry = func(attempt uint, err error) {
		logger.Warn().Err(err).Uint("attempt", attempt+1).Msg("retrying gateway request")
	}

	resp, err := retry.DoWithResult(ctx, cfg, func() (*Response, error) {
		return f.breaker.Execute(func() (*Response, error) {
			return c.send(ctx, method, path, payload, idempotencyKey)
		})
	})

	var statusErr *StatusError
	switch {
	case err == nil:
		outcome := "ok"
		if resp.StatusCode >= 400 {
			outcome = "client_error"
		}
		f.observe(op, outcome, time.Since(start))
		logger.Debug().Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("gateway request done")
		return resp, nil
	case errors.As(err, &statusErr):
		// Retries are exhausted; the caller still gets the gateway's answer.
		f.observe(op, "server_error", time.Since(start))
		logger.Warn().Int("status", statusErr.Response.StatusCode).Msg("gateway kept failing")
		return statusErr.Response, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		f.observe(op, "circuit_open", time.Since(start))
		return nil, fmt.Errorf("mollie: %w: %w", domainErrors.ErrProviderUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		f.observe(op, "error", time.Since(start))
		return nil, fmt.Errorf("mollie: %w: %w", domainErrors.ErrProviderTimeout, err)
	default:
		f.observe(op, "error", time.Since(start))
		logger.Error().Err(err).Msg("gateway request failed")
		return nil, err
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, idempotencyKey string) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.factory.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("mollie: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	httpResp, err := c.factory.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("mollie: read response: %w", err)
	}

	resp, err := decodeResponse(httpResp.StatusCode, raw)
	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		// Proxies answer 5xx with HTML; keep the status even when the body is not JSON.
		if err != nil {
			resp = &Response{StatusCode: httpResp.StatusCode}
		}
		return nil, &StatusError{Response: resp}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

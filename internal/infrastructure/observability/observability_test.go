package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger("warn", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("order_id", "42").Msg("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "42", entry["order_id"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("bogus"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel(""))
	assert.Equal(t, zerolog.TraceLevel, parseLogLevel(" trace "))
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := WithContext(InitLogger("info", &buf), map[string]any{"service": "checkout-api", "instance_id": "checkout-1"})

	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"service":"checkout-api"`)
	assert.Contains(t, buf.String(), `"instance_id":"checkout-1"`)
}

func TestMetrics_ObserveGateway(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	observe := m.ObserveGateway("mollie")
	observe("purchase", "ok", 150*time.Millisecond)
	observe("purchase", "ok", 50*time.Millisecond)
	observe("complete_purchase", "server_error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("mollie", "purchase", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("mollie", "complete_purchase", "server_error")))
}

func TestMetrics_ObserveCheckout(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.ObserveCheckout("mollie", "initiate", "redirect", 200*time.Millisecond)
	m.ObserveCheckout("mollie", "complete", "success", time.Second)
	m.RejectCheckout("initiate", "order_not_found")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutsTotal.WithLabelValues("mollie", "initiate", "redirect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutsTotal.WithLabelValues("mollie", "complete", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutErrors.WithLabelValues("initiate", "order_not_found")))
}

func TestMetrics_SetBreakerState(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.SetBreakerState("mollie", gobreaker.StateClosed, gobreaker.StateOpen)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("mollie")))

	m.SetBreakerState("mollie", gobreaker.StateOpen, gobreaker.StateHalfOpen)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("mollie")))

	m.SetBreakerState("mollie", gobreaker.StateHalfOpen, gobreaker.StateClosed)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("mollie")))
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics("test", reg)

	assert.Panics(t, func() { NewMetrics("test", reg) })
}

func TestInitTracer(t *testing.T) {
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer collector.Close()

	shutdown, err := InitTracer("checkout-test", "test-1", collector.URL)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}

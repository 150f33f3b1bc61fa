package bootstrap

import (
	"context"
	"fmt"

	"github.com/cassiomorais/checkout/internal/controller"
	gateway "github.com/cassiomorais/checkout/internal/gateway/mollie"
	"github.com/cassiomorais/checkout/internal/i18n"
	infraRedis "github.com/cassiomorais/checkout/internal/infrastructure/redis"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/cassiomorais/checkout/internal/providers/mollie"
	"github.com/cassiomorais/checkout/internal/repository/postgres"
	"github.com/cassiomorais/checkout/internal/service"
	"github.com/cassiomorais/checkout/internal/settings"
	"github.com/cassiomorais/checkout/pkg/retry"
	"github.com/go-chi/chi/v5"
)

// Services holds the wired application components.
type Services struct {
	Registry        *providers.Registry
	Checkout        *service.CheckoutService
	Settings        *service.SettingsService
	IdempotencyRepo *postgres.IdempotencyRepository
	Gateway         *gateway.Factory
}

// Wire builds repositories, providers and services on top of the app's
// connections.
func (a *App) Wire() (*Services, error) {
	cfg := a.Config

	// --- Repositories ---
	orderRepo := postgres.NewOrderRepository(a.Pool)
	logRepo := postgres.NewPaymentLogRepository(a.Pool)
	settingsRepo := postgres.NewSettingsRepository(a.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(a.Pool)
	txManager := postgres.NewTxManager(a.Pool)

	// --- Settings ---
	key, err := a.settingsKey()
	if err != nil {
		return nil, err
	}
	cipher, err := settings.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("settings cipher: %w", err)
	}
	settingsStore := settings.NewStore(settingsRepo, cipher)

	// --- Gateway ---
	gatewayOpts := []gateway.Option{
		gateway.WithBaseURL(cfg.Gateway.BaseURL),
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithRetry(retry.Config{
			MaxAttempts:  cfg.Gateway.MaxRetries,
			InitialDelay: cfg.Gateway.RetryDelay,
			MaxDelay:     cfg.Gateway.RetryMaxDelay,
		}),
		gateway.WithLogger(a.Logger.With().Str("component", "mollie_gateway").Logger()),
	}
	if a.Metrics != nil {
		gatewayOpts = append(gatewayOpts,
			gateway.WithObserver(a.Metrics.ObserveGateway(mollie.Identifier)),
			gateway.WithStateChange(a.Metrics.SetBreakerState),
		)
	}
	gatewayFactory := gateway.NewFactory(gatewayOpts...)

	// --- Providers ---
	callbacks := providers.CallbackURLs{Return: cfg.Checkout.ReturnURL, Cancel: cfg.Checkout.CancelURL}
	registry := providers.NewRegistry(
		mollie.New(
			func(apiKey string) mollie.GatewayClient { return gatewayFactory.New(apiKey) },
			settingsStore,
			callbacks,
			a.Logger.With().Str("provider", mollie.Identifier).Logger(),
		),
	)
	if cfg.Gateway.MockProvider {
		registry.Register(providers.NewMockProvider("mock", callbacks))
		a.Logger.Warn().Msg("Mock payment provider enabled")
	}

	// --- Services ---
	var metrics service.CheckoutMetrics
	if a.Metrics != nil {
		metrics = a.Metrics
	}
	checkoutSvc := service.NewCheckoutService(
		orderRepo,
		logRepo,
		txManager,
		registry,
		infraRedis.NewSessionStore(a.Redis, cfg.Checkout.SessionTTL),
		infraRedis.NewLocker(a.Redis, cfg.Checkout.LockTTL),
		infraRedis.NewStreamProducer(a.Redis),
		metrics,
		a.Logger.With().Str("component", "checkout").Logger(),
	)

	return &Services{
		Registry:        registry,
		Checkout:        checkoutSvc,
		Settings:        service.NewSettingsService(registry, settingsStore),
		IdempotencyRepo: idempotencyRepo,
		Gateway:         gatewayFactory,
	}, nil
}

// Router builds the HTTP handler for the API.
func (a *App) Router(s *Services) *chi.Mux {
	return controller.NewRouter(controller.RouterDeps{
		DBPing:            a.Pool.Ping,
		RedisPing:         func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() },
		GatewayState:      func() string { return s.Gateway.BreakerState().String() },
		CheckoutService:   s.Checkout,
		SettingsService:   s.Settings,
		Registry:          s.Registry,
		IdempotencyStore:  s.IdempotencyRepo,
		IdempotencyTTL:    a.Config.Checkout.IdempotencyTTL,
		Metrics:           a.Metrics,
		CORSConfig:        a.Config.Server.CORS,
		RequestsPerMinute: a.Config.Server.RequestsPerMinute,
		JWTSecret:         a.Config.Auth.JWTSecret,
		DefaultLocale:     i18n.ParseAcceptLanguage(a.Config.Checkout.DefaultLocale),
		Logger:            a.Logger,
	})
}

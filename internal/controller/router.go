package controller

import (
	"time"

	"github.com/cassiomorais/checkout/internal/infrastructure/config"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/checkout/internal/middleware"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/cassiomorais/checkout/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

type RouterDeps struct {
	DBPing            PingFunc
	RedisPing         PingFunc
	GatewayState      func() string
	CheckoutService   *service.CheckoutService
	SettingsService   *service.SettingsService
	Registry          *providers.Registry
	IdempotencyStore  customMW.IdempotencyStore
	IdempotencyTTL    time.Duration
	Metrics           *observability.Metrics
	CORSConfig        config.CORSConfig
	RequestsPerMinute int
	JWTSecret         string
	DefaultLocale     language.Tag
	Logger            zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	if deps.RequestsPerMinute > 0 {
		r.Use(customMW.RateLimit(deps.RequestsPerMinute))
	}
	if deps.Metrics != nil {
		r.Use(customMW.Metrics(deps.Metrics))
	}
	r.Use(customMW.Locale(deps.DefaultLocale))

	healthH := NewHealthController(deps.DBPing, deps.RedisPing, deps.GatewayState)
	checkoutH := NewCheckoutController(deps.CheckoutService)
	providerH := NewProviderController(deps.Registry, deps.SettingsService, deps.Logger)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		idempotencyMW := customMW.Idempotency(deps.IdempotencyStore, deps.IdempotencyTTL, deps.Logger)

		// Checkout
		r.With(idempotencyMW).Post("/orders/{id}/checkout", checkoutH.Start)
		r.Get("/checkout/{hash}/return", checkoutH.Return)
		r.Get("/checkout/{hash}/cancel", checkoutH.Return)

		// Providers
		r.Get("/providers", providerH.List)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(customMW.RequireAuth(deps.JWTSecret))
			r.Use(customMW.RequireRole(customMW.RoleAdmin))

			r.Get("/providers/{id}/settings", providerH.Settings)
			r.Put("/providers/{id}/settings", providerH.UpdateSettings)
			r.Get("/orders/{id}/payments", checkoutH.History)
		})
	})

	return r
}

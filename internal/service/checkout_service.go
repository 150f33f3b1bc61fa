package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/payment"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/cassiomorais/checkout/internal/service")

// SessionStore opens the session of one checkout, keyed by payment hash.
type SessionStore interface {
	For(scope string) providers.Session
}

// Locker serializes work on one checkout across instances.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// EventPublisher announces finished checkouts.
type EventPublisher interface {
	PublishCheckoutEvent(ctx context.Context, ev payment.Event) error
}

// CheckoutMetrics records checkout outcomes.
type CheckoutMetrics interface {
	ObserveCheckout(provider, stage, outcome string, d time.Duration)
	RejectCheckout(stage, errorType string)
}

// CheckoutService drives an order through a payment provider.
type CheckoutService struct {
	orderRepo order.Repository
	logRepo   payment.LogRepository
	txManager TransactionManager
	registry  *providers.Registry
	sessions  SessionStore
	locker    Locker
	events    EventPublisher
	metrics   CheckoutMetrics
	logger    zerolog.Logger
}

// NewCheckoutService creates a new CheckoutService. events and metrics may be nil.
func NewCheckoutService(
	orderRepo order.Repository,
	logRepo payment.LogRepository,
	txManager TransactionManager,
	registry *providers.Registry,
	sessions SessionStore,
	locker Locker,
	events EventPublisher,
	metrics CheckoutMetrics,
	logger zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		orderRepo: orderRepo,
		logRepo:   logRepo,
		txManager: txManager,
		registry:  registry,
		sessions:  sessions,
		locker:    locker,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

// Initiate starts a checkout of the order with the given provider. A provider
// failure is not an error: it is returned as a failed result and recorded on
// the order.
func (s *CheckoutService) Initiate(ctx context.Context, orderID int64, providerID string) (*payment.Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "checkout.initiate", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("payment.provider", providerID),
	))
	defer span.End()

	p, err := s.registry.Get(providerID)
	if err != nil {
		return nil, s.reject(payment.StageInitiate, err)
	}
	if !p.Validate() {
		return nil, s.reject(payment.StageInitiate, domainErrors.NewDomainError(
			"provider_invalid",
			"provider "+providerID+" is not configured",
			domainErrors.ErrProviderUnavailable,
		))
	}

	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, s.reject(payment.StageInitiate, err)
	}
	if err := o.ValidateForCheckout(); err != nil {
		return nil, s.reject(payment.StageInitiate, err)
	}

	release, err := s.locker.Acquire(ctx, o.PaymentHash)
	if err != nil {
		return nil, s.reject(payment.StageInitiate, err)
	}
	defer s.release(release, o.PaymentHash)

	// Reload under the lock, another instance may have moved the order on.
	o, err = s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, s.reject(payment.StageInitiate, err)
	}
	// Initiated and Completing stay in memory. The order is written once,
	// together with the payment log, after the provider answered.
	if err := o.StartCheckout(p.Identifier()); err != nil {
		return nil, s.reject(payment.StageInitiate, err)
	}

	result := p.Initiate(ctx, o, s.sessions.For(o.PaymentHash))
	if !result.IsRedirect() && !result.IsFailure() {
		result = result.Fail(result.Data(), fmt.Sprintf("unexpected %s outcome from initiate", result.Outcome()))
	}

	next := order.StateFailed
	if result.IsRedirect() {
		next = order.StateRedirected
	}
	if err := o.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.record(ctx, o, result, p.Identifier(), payment.StageInitiate); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("payment.outcome", string(result.Outcome())))
	s.observe(p.Identifier(), payment.StageInitiate, result, start)
	s.logResult(o, result, p.Identifier(), payment.StageInitiate)

	return result, nil
}

// Complete reconciles the checkout identified by hash after the customer
// comes back from the gateway.
func (s *CheckoutService) Complete(ctx context.Context, hash string) (*payment.Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "checkout.complete", trace.WithAttributes(
		attribute.String("payment.hash", hash),
	))
	defer span.End()

	o, err := s.orderRepo.GetByPaymentHash(ctx, hash)
	if err != nil {
		return nil, s.reject(payment.StageComplete, err)
	}

	release, err := s.locker.Acquire(ctx, hash)
	if err != nil {
		return nil, s.reject(payment.StageComplete, err)
	}
	defer s.release(release, hash)

	o, err = s.orderRepo.GetByPaymentHash(ctx, hash)
	if err != nil {
		return nil, s.reject(payment.StageComplete, err)
	}
	if o.PaymentState == order.StatePaid {
		return nil, s.reject(payment.StageComplete, domainErrors.ErrOrderAlreadyPaid)
	}
	if err := o.TransitionTo(order.StateCompleting); err != nil {
		return nil, s.reject(payment.StageComplete, err)
	}

	session := s.sessions.For(hash)
	p, err := s.registry.Get(s.callbackProvider(ctx, session, o))
	if err != nil {
		return nil, s.reject(payment.StageComplete, err)
	}

	result := p.Complete(ctx, payment.NewResult(o), session)

	var next order.PaymentState
	switch {
	case result.IsSuccessful():
		next = order.StatePaid
	case result.IsPending():
		next = order.StatePending
	default:
		if !result.IsFailure() {
			result = result.Fail(result.Data(), fmt.Sprintf("unexpected %s outcome from complete", result.Outcome()))
		}
		next = order.StateFailed
	}
	if err := o.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.record(ctx, o, result, p.Identifier(), payment.StageComplete); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("payment.provider", p.Identifier()),
		attribute.String("payment.outcome", string(result.Outcome())),
	)
	s.publish(ctx, result, p.Identifier())
	s.observe(p.Identifier(), payment.StageComplete, result, start)
	s.logResult(o, result, p.Identifier(), payment.StageComplete)

	return result, nil
}

// History returns the payment log of an order.
func (s *CheckoutService) History(ctx context.Context, orderID int64) ([]*payment.Log, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.logRepo.ListByOrder(ctx, orderID)
}

// callbackProvider returns the provider the session names, falling back to
// the provider recorded on the order.
func (s *CheckoutService) callbackProvider(ctx context.Context, session providers.Session, o *order.Order) string {
	id, ok, err := session.Pull(ctx, providers.SessionCallbackKey)
	if err != nil {
		s.logger.Warn().Err(err).Str("payment_hash", o.PaymentHash).Msg("failed to read callback provider from session")
	}
	if ok && id != "" {
		return id
	}
	return o.PaymentProvider
}

func (s *CheckoutService) record(ctx context.Context, o *order.Order, result *payment.Result, provider string, stage payment.Stage) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.UpdatePayment(txCtx, o); err != nil {
			return err
		}
		return s.logRepo.Add(txCtx, payment.NewLog(result, provider, stage))
	})
	if err != nil {
		// The order keeps its previous state. The gateway answer is logged so a
		// payment taken at the gateway can still be reconciled by hand.
		s.logger.Error().Err(err).
			Int64("order_id", o.ID).
			Str("provider", provider).
			Str("stage", string(stage)).
			Str("outcome", string(result.Outcome())).
			Interface("data", result.Data()).
			Msg("failed to record checkout result")
		return fmt.Errorf("failed to record %s result: %w", stage, err)
	}
	return nil
}

func (s *CheckoutService) publish(ctx context.Context, result *payment.Result, provider string) {
	if s.events == nil {
		return
	}
	ev := payment.NewEvent(result, provider, payment.StageComplete)
	if err := s.events.PublishCheckoutEvent(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Int64("order_id", ev.OrderID).Msg("failed to publish checkout event")
	}
}

func (s *CheckoutService) release(release func(context.Context) error, hash string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		s.logger.Warn().Err(err).Str("payment_hash", hash).Msg("failed to release checkout lock")
	}
}

func (s *CheckoutService) observe(provider string, stage payment.Stage, result *payment.Result, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCheckout(provider, string(stage), string(result.Outcome()), time.Since(start))
}

func (s *CheckoutService) reject(stage payment.Stage, err error) error {
	if s.metrics != nil {
		s.metrics.RejectCheckout(string(stage), errorType(err))
	}
	return err
}

func (s *CheckoutService) logResult(o *order.Order, result *payment.Result, provider string, stage payment.Stage) {
	event := s.logger.Info()
	if result.IsFailure() {
		event = s.logger.Warn()
	}
	event.
		Int64("order_id", o.ID).
		Str("provider", provider).
		Str("stage", string(stage)).
		Str("outcome", string(result.Outcome())).
		Str("payment_state", string(o.PaymentState)).
		Str("reason", result.Message()).
		Msg("checkout step finished")
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, domainErrors.ErrProviderNotFound):
		return "provider_not_found"
	case errors.Is(err, domainErrors.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, domainErrors.ErrCheckoutInProgress):
		return "checkout_in_progress"
	case errors.Is(err, domainErrors.ErrOrderAlreadyPaid):
		return "already_paid"
	case errors.Is(err, domainErrors.ErrInvalidStateTransition):
		return "invalid_state"
	case errors.Is(err, domainErrors.ErrValidationFailed):
		return "invalid_order"
	default:
		return "internal"
	}
}

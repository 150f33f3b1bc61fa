// Package mollie implements the Mollie payment provider.
package mollie

import (
	"context"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/payment"
	gateway "github.com/cassiomorais/checkout/internal/gateway/mollie"
	"github.com/cassiomorais/checkout/internal/i18n"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/rs/zerolog"
)

const (
	Identifier = "mollie"

	// SettingAPIKey is stored encrypted.
	SettingAPIKey = "mollie_api_key"

	sessionTransactionKey = "payment.mollie.id"
)

const (
	statusCanceled = "canceled"
	statusPaid     = "paid"
	statusOpen     = "open"
	statusPending  = "pending"
)

// GatewayClient is the part of the Mollie API the provider uses.
type GatewayClient interface {
	Purchase(ctx context.Context, req gateway.PurchaseRequest) (*gateway.Response, error)
	CompletePurchase(ctx context.Context, req gateway.CompletePurchaseRequest) (*gateway.Response, error)
}

// SecretReader returns the plaintext of an encrypted setting.
type SecretReader interface {
	Decrypted(ctx context.Context, key string) (string, error)
}

// Provider sends the customer to Mollie's hosted checkout and reconciles the
// payment when they come back.
type Provider struct {
	newClient func(apiKey string) GatewayClient
	secrets   SecretReader
	callbacks providers.CallbackURLs
	logger    zerolog.Logger
}

var _ providers.Provider = (*Provider)(nil)

// New creates the provider. newClient is called once per gateway call with
// the decrypted API key.
func New(newClient func(apiKey string) GatewayClient, secrets SecretReader, callbacks providers.CallbackURLs, logger zerolog.Logger) *Provider {
	return &Provider{
		newClient: newClient,
		secrets:   secrets,
		callbacks: callbacks,
		logger:    logger.With().Str("provider", Identifier).Logger(),
	}
}

func (p *Provider) Name() string { return "Mollie" }
func (p *Provider) Identifier() string { return Identifier }

// Validate always passes; Mollie collects payment details on its own page.
func (p *Provider) Validate() bool { return true }

func (p *Provider) Settings() []providers.SettingField {
	return []providers.SettingField{{
		Key:   SettingAPIKey,
		Label: i18n.KeyAPIKeyLabel,
		Span:  "left",
		Type:  "text",
	}}
}

func (p *Provider) EncryptedSettings() []string {
	return []string{SettingAPIKey}
}

func (p *Provider) gateway(ctx context.Context) (GatewayClient, error) {
	apiKey, err := p.secrets.Decrypted(ctx, SettingAPIKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", SettingAPIKey, err)
	}
	return p.newClient(apiKey), nil
}

// Initiate creates a Mollie payment and redirects to its checkout page.
func (p *Provider) Initiate(ctx context.Context, o *order.Order, session providers.Session) *payment.Result {
	result := payment.NewResult(o)
	logger := p.logger.With().Int64("order_id", o.ID).Logger()

	client, err := p.gateway(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("gateway unavailable")
		return result.Fail(nil, err)
	}

	resp, err := client.Purchase(ctx, gateway.PurchaseRequest{
		Amount:       o.Total.Decimal(),
		Currency:     o.Total.Currency,
		Description:  fmt.Sprintf("#%d", o.ID),
		BillingEmail: o.CustomerEmail,
		Metadata: map[string]any{
			"order_id":     o.ID,
			"payment_hash": o.PaymentHash,
		},
		ReturnURL: p.callbacks.ReturnURL(o.PaymentHash),
		CancelURL: p.callbacks.CancelURL(o.PaymentHash),
	})
	if err != nil {
		logger.Error().Err(err).Msg("purchase failed")
		return result.Fail(nil, err)
	}

	if !resp.IsRedirect() {
		logger.Warn().Stringer("response", resp).Msg("purchase did not return a checkout page")
		return result.Fail(resp.Data(), resp)
	}

	id := resp.TransactionID()
	if id == "" {
		return result.Fail(resp.Data(), domainErrors.ErrMissingTransactionID.Error())
	}

	if err := session.Put(ctx, providers.SessionCallbackKey, Identifier); err != nil {
		return result.Fail(resp.Data(), err)
	}
	if err := session.Put(ctx, sessionTransactionKey, id); err != nil {
		return result.Fail(resp.Data(), err)
	}

	logger.Info().Str("transaction_id", id).Msg("payment created")
	return result.Redirect(resp.RedirectURL())
}

// Complete looks up the payment stored by Initiate and maps its status. The
// stored transaction id is consumed even when the lookup fails.
func (p *Provider) Complete(ctx context.Context, result *payment.Result, session providers.Session) *payment.Result {
	o := result.Order()

	id, ok, err := session.Pull(ctx, sessionTransactionKey)
	if err != nil {
		return result.Fail(nil, err)
	}
	if !ok || id == "" {
		return result.Fail(nil, domainErrors.ErrMissingTransactionID.Error())
	}
	logger := p.logger.With().Str("transaction_id", id).Logger()

	client, err := p.gateway(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("gateway unavailable")
		return result.Fail(nil, err)
	}

	resp, err := client.CompletePurchase(ctx, gateway.CompletePurchaseRequest{TransactionReference: id})
	if err != nil {
		logger.Error().Err(err).Msg("payment lookup failed")
		return result.Fail(nil, err)
	}

	data := resp.Data()
	if len(data) == 0 {
		return result.Fail(nil, resp)
	}

	switch resp.Status() {
	case statusCanceled:
		return result.Fail(nil, i18n.T(ctx, i18n.KeyPaymentCancelled))
	case statusPaid:
		if o != nil {
			d := resp.Details()
			if d == nil {
				d = &gateway.Details{}
			}
			o.SetCardDetails(d.CardLabel, d.CardHolder, d.CardNumber)
		}
		return result.Success(data)
	case statusOpen, statusPending:
		return result.Pending(data, resp)
	default:
		logger.Warn().Str("status", resp.Status()).Msg("payment not settled")
		return result.Fail(nil, nil)
	}
}

package providers

import (
	"context"
	"strings"

	"github.com/cassiomorais/checkout/internal/domain/order"
	"github.com/cassiomorais/checkout/internal/domain/payment"
)

// SessionCallbackKey names the provider that must complete a pending checkout.
const SessionCallbackKey = "payment.callback"

// Provider is a payment method a customer can check out with.
//
// Initiate and Complete never return errors: every failure is reported as a
// failed payment.Result carrying the reason.
type Provider interface {
	// Name returns the display name.
	Name() string
	// Identifier returns the registry key, stored on orders.
	Identifier() string
	// Initiate starts a payment for o.
	Initiate(ctx context.Context, o *order.Order, session Session) *payment.Result
	// Complete reconciles the payment after the customer comes back from the gateway.
	Complete(ctx context.Context, result *payment.Result, session Session) *payment.Result
	// Validate reports whether the provider can be used for a checkout.
	Validate() bool
	// Settings describes the admin settings of the provider.
	Settings() []SettingField
	// EncryptedSettings lists the setting keys stored encrypted at rest.
	EncryptedSettings() []string
}

// Session holds values for a single checkout between Initiate and Complete.
type Session interface {
	Put(ctx context.Context, key, value string) error
	// Pull reads and deletes key. ok is false when the key was not set.
	Pull(ctx context.Context, key string) (value string, ok bool, err error)
}

// SettingField describes one provider setting for the admin UI.
type SettingField struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Span  string `json:"span"`
	Type  string `json:"type"`
}

// CallbackURLs are the URLs the gateway sends the customer back to. A
// "{hash}" placeholder is replaced by the order's payment hash.
type CallbackURLs struct {
	Return string
	Cancel string
}

const hashPlaceholder = "{hash}"

// ReturnURL returns the return URL for the given payment hash.
func (u CallbackURLs) ReturnURL(hash string) string {
	return strings.ReplaceAll(u.Return, hashPlaceholder, hash)
}

// CancelURL returns the cancel URL for the given payment hash.
func (u CallbackURLs) CancelURL(hash string) string {
	return strings.ReplaceAll(u.Cancel, hashPlaceholder, hash)
}

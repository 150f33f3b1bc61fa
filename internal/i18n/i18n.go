// Package i18n holds the customer-facing messages of the checkout flow and
// resolves them for the locale carried on a request context.
package i18n

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	KeyPaymentCancelled = "payment_status.cancelled"
	KeyPaymentFailed    = "payment_status.failed"
	KeyPaymentPending   = "payment_status.pending"
	KeyAPIKeyLabel      = "payment_gateway_settings.mollie.api_key"
)

type ctxKey struct{}

var supported = []language.Tag{
	language.English,
	language.German,
	language.Dutch,
	language.French,
}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	language.English: {
		KeyPaymentCancelled: "The payment has been cancelled.",
		KeyPaymentFailed:    "The payment failed.",
		KeyPaymentPending:   "The payment is pending.",
		KeyAPIKeyLabel:      "API key",
	},
	language.German: {
		KeyPaymentCancelled: "Die Zahlung wurde abgebrochen.",
		KeyPaymentFailed:    "Die Zahlung ist fehlgeschlagen.",
		KeyPaymentPending:   "Die Zahlung ist ausstehend.",
		KeyAPIKeyLabel:      "API-Schlüssel",
	},
	language.Dutch: {
		KeyPaymentCancelled: "De betaling is geannuleerd.",
		KeyPaymentFailed:    "De betaling is mislukt.",
		KeyPaymentPending:   "De betaling is in behandeling.",
		KeyAPIKeyLabel:      "API-sleutel",
	},
	language.French: {
		KeyPaymentCancelled: "Le paiement a été annulé.",
		KeyPaymentFailed:    "Le paiement a échoué.",
		KeyPaymentPending:   "Le paiement est en attente.",
		KeyAPIKeyLabel:      "Clé API",
	},
}

func init() {
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// WithLocale returns a context carrying the given locale.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, tag)
}

// Locale returns the supported locale closest to the one on ctx, English by default.
func Locale(ctx context.Context) language.Tag {
	tag, ok := ctx.Value(ctxKey{}).(language.Tag)
	if !ok {
		return language.English
	}
	_, idx, _ := matcher.Match(tag)
	return supported[idx]
}

// ParseAcceptLanguage picks the best supported locale for an Accept-Language header.
func ParseAcceptLanguage(header string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// T translates key for the locale on ctx. Unknown keys are returned as is.
func T(ctx context.Context, key string) string {
	return message.NewPrinter(Locale(ctx)).Sprintf(key)
}

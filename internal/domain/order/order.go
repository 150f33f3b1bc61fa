package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/cassiomorais/checkout/internal/domain/errors"
)

// PaymentState is the checkout state recorded on an order.
type PaymentState string

const (
	StateNone       PaymentState = ""
	StateInitiated  PaymentState = "initiated"
	StateRedirected PaymentState = "redirected"
	StateCompleting PaymentState = "completing"
	StatePaid       PaymentState = "paid"
	StatePending    PaymentState = "pending"
	StateFailed     PaymentState = "failed"
)

// Order is the read model of a shop order as seen by the payment layer.
// Orders are created and owned by the shop; only the payment fields are
// written back from here.
type Order struct {
	ID              int64
	Total           Money
	CustomerEmail   string
	PaymentHash     string
	PaymentProvider string
	PaymentState    PaymentState

	// Card display metadata, set when a card payment succeeds.
	CardType              *string
	CardHolderName        *string
	CreditCardLast4Digits *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Money is an amount in the smallest currency unit (e.g. cents).
type Money struct {
	ValueMinor int64
	Currency   string
}

// zeroDecimalCurrencies have no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"ISK": true,
	"KRW": true,
}

// FractionDigits returns the number of minor unit digits of the currency.
func (m Money) FractionDigits() int {
	if zeroDecimalCurrencies[strings.ToUpper(m.Currency)] {
		return 0
	}
	return 2
}

// Decimal renders the amount as a decimal string with the currency's number of
// fraction digits, e.g. "10.00" for 1000 EUR cents.
func (m Money) Decimal() string {
	if m.FractionDigits() == 0 {
		return fmt.Sprintf("%d", m.ValueMinor)
	}
	sign := ""
	v := m.ValueMinor
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// String returns a human-readable representation of the amount.
func (m Money) String() string {
	return m.Decimal() + " " + m.Currency
}

// Validate checks that the amount can be charged.
func (m Money) Validate() error {
	if m.ValueMinor <= 0 {
		return errors.NewValidationError("total", "must be greater than 0")
	}
	if len(m.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}

// ValidateForCheckout checks the fields a provider needs to build a purchase.
func (o *Order) ValidateForCheckout() error {
	if err := o.Total.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(o.CustomerEmail) == "" {
		return errors.NewValidationError("customer_email", "cannot be empty")
	}
	if o.PaymentHash == "" {
		return errors.NewValidationError("payment_hash", "cannot be empty")
	}
	return nil
}

// StartCheckout begins a new checkout attempt. A new attempt is allowed for an
// order that was never checked out, whose previous attempt failed, or whose
// payment was left open at the gateway. The pending context of an open
// payment is consumed by the completion that reported it, so only a new
// attempt can move such an order on.
func (o *Order) StartCheckout(provider string) error {
	switch o.PaymentState {
	case StateNone, StateFailed, StatePending:
	case StatePaid:
		return errors.ErrOrderAlreadyPaid
	default:
		return errors.NewDomainError(
			"invalid_transition",
			"cannot start checkout from "+string(o.PaymentState),
			errors.ErrInvalidStateTransition,
		)
	}
	o.PaymentProvider = provider
	o.PaymentState = StateInitiated
	o.UpdatedAt = time.Now()
	return nil
}

// CanTransitionTo checks if the checkout can move to the given state.
func (o *Order) CanTransitionTo(next PaymentState) bool {
	transitions := map[PaymentState][]PaymentState{
		StateInitiated: {
			StateRedirected,
			StateFailed,
		},
		StateRedirected: {
			StateCompleting,
		},
		StateCompleting: {
			StatePaid,
			StatePending,
			StateFailed,
		},
		StatePaid:    {},
		StatePending: {},
		StateFailed:  {},
	}

	for _, allowed := range transitions[o.PaymentState] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the checkout to a new state.
func (o *Order) TransitionTo(next PaymentState) error {
	if !o.CanTransitionTo(next) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+stateName(o.PaymentState)+" to "+stateName(next),
			errors.ErrInvalidStateTransition,
		)
	}
	o.PaymentState = next
	o.UpdatedAt = time.Now()
	return nil
}

// SetCardDetails records the card display metadata returned by the gateway.
// Nil values clear the corresponding field.
func (o *Order) SetCardDetails(cardType, holder, last4 *string) {
	o.CardType = cardType
	o.CardHolderName = holder
	o.CreditCardLast4Digits = last4
}

// IsTerminal reports whether the current checkout attempt has finished.
func (o *Order) IsTerminal() bool {
	return o.PaymentState == StatePaid ||
		o.PaymentState == StatePending ||
		o.PaymentState == StateFailed
}

func stateName(s PaymentState) string {
	if s == StateNone {
		return "none"
	}
	return string(s)
}

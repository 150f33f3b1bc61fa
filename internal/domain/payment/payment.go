package payment

import (
	"fmt"

	"github.com/cassiomorais/checkout/internal/domain/order"
)

// Outcome tags the variant held by a Result.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeRedirect Outcome = "redirect"
	OutcomeSuccess  Outcome = "success"
	OutcomePending  Outcome = "pending"
	OutcomeFailure  Outcome = "failure"
)

// Result is the outcome of one provider call. A blank Result carries the
// order being paid; Redirect, Success, Pending and Fail each return a new
// Result and leave the receiver untouched.
type Result struct {
	order       *order.Order
	outcome     Outcome
	redirectURL string
	data        map[string]any
	reason      any
}

// NewResult creates a blank result for the given order.
func NewResult(o *order.Order) *Result {
	return &Result{order: o}
}

// Redirect sends the customer to url to finish the payment.
func (r *Result) Redirect(url string) *Result {
	return &Result{order: r.order, outcome: OutcomeRedirect, redirectURL: url}
}

// Success marks the payment as paid.
func (r *Result) Success(data map[string]any) *Result {
	return &Result{order: r.order, outcome: OutcomeSuccess, data: cloneData(data)}
}

// Pending marks the payment as not yet settled by the gateway.
func (r *Result) Pending(data map[string]any, response any) *Result {
	return &Result{order: r.order, outcome: OutcomePending, data: cloneData(data), reason: response}
}

// Fail marks the payment as failed. reason is a message string, an error, a
// gateway response or nil.
func (r *Result) Fail(data map[string]any, reason any) *Result {
	return &Result{order: r.order, outcome: OutcomeFailure, data: cloneData(data), reason: reason}
}

func (r *Result) Order() *order.Order { return r.order }
func (r *Result) Outcome() Outcome { return r.outcome }
func (r *Result) RedirectURL() string { return r.redirectURL }
func (r *Result) Reason() any { return r.reason }
func (r *Result) IsRedirect() bool { return r.outcome == OutcomeRedirect }
func (r *Result) IsSuccessful() bool { return r.outcome == OutcomeSuccess }
func (r *Result) IsPending() bool { return r.outcome == OutcomePending }
func (r *Result) IsFailure() bool { return r.outcome == OutcomeFailure }

// Data returns a deep copy of the raw gateway payload. Failures built with an
// empty payload return an empty, non-nil map.
func (r *Result) Data() map[string]any {
	if r.data == nil {
		return map[string]any{}
	}
	return cloneData(r.data)
}

// cloneData copies nested maps and slices too, so gateway details such as
// card fields cannot be changed through a returned copy.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneData(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Message renders the reason for logs and API responses.
func (r *Result) Message() string {
	switch v := r.reason.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Err returns the reason as an error when it is one.
func (r *Result) Err() error {
	if err, ok := r.reason.(error); ok {
		return err
	}
	return nil
}

package payment

import "time"

// Event announces that a checkout reached an outcome.
type Event struct {
	OrderID     int64
	PaymentHash string
	Provider    string
	Stage       Stage
	Outcome     Outcome
	Message     string
	OccurredAt  time.Time
}

// NewEvent builds the event for a provider result.
func NewEvent(r *Result, provider string, stage Stage) Event {
	ev := Event{
		Provider:   provider,
		Stage:      stage,
		Outcome:    r.Outcome(),
		Message:    r.Message(),
		OccurredAt: time.Now().UTC(),
	}
	if o := r.Order(); o != nil {
		ev.OrderID = o.ID
		ev.PaymentHash = o.PaymentHash
	}
	return ev
}

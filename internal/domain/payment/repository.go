package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Log is an audit record of one provider call.
type Log struct {
	ID        uuid.UUID
	OrderID   int64
	Provider  string
	Stage     Stage
	Outcome   Outcome
	Message   string
	Data      map[string]any
	CreatedAt time.Time
}

// Stage names the provider operation that produced a log entry.
type Stage string

const (
	StageInitiate Stage = "initiate"
	StageComplete Stage = "complete"
)

// NewLog builds a log entry from a provider result.
func NewLog(r *Result, provider string, stage Stage) *Log {
	var orderID int64
	if o := r.Order(); o != nil {
		orderID = o.ID
	}
	return &Log{
		ID:        uuid.New(),
		OrderID:   orderID,
		Provider:  provider,
		Stage:     stage,
		Outcome:   r.Outcome(),
		Message:   r.Message(),
		Data:      r.Data(),
		CreatedAt: time.Now(),
	}
}

// LogRepository defines the interface for payment log persistence
type LogRepository interface {
	// Add stores a log entry
	Add(ctx context.Context, entry *Log) error

	// ListByOrder returns the log entries of an order, oldest first
	ListByOrder(ctx context.Context, orderID int64) ([]*Log, error)
}

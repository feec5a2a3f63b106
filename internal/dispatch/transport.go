package dispatch

import (
	"context"
	"time"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// Message is one resolved campaign action bound for a channel transport
type Message struct {
	ExecutionID string         `json:"execution_id"`
	EventID     string         `json:"event_id"`
	CustomerID  string         `json:"customer_id"`
	Channel     domain.Channel `json:"channel"`
	Campaign    string         `json:"campaign"`
	Content     string         `json:"content"`
}

// Transport delivers messages for one channel. Send makes exactly one attempt.
type Transport interface {
	Send(ctx context.Context, msg Message) Result
}

// Result is the raw answer of a transport.
// StatusCode is zero for transports that do not speak HTTP.
type Result struct {
	StatusCode int
	Error      error
	// Permanent marks a rejection that retrying cannot fix.
	Permanent bool
	Duration  time.Duration
}

func (r Result) IsSuccess() bool {
	if r.Error != nil || r.Permanent {
		return false
	}
	return r.StatusCode == 0 || (r.StatusCode >= 200 && r.StatusCode < 300)
}

func (r Result) IsRetryable() bool {
	if r.Permanent {
		return false
	}
	if r.Error != nil {
		return true
	}
	if r.StatusCode == 429 {
		return true
	}
	return r.StatusCode >= 500
}

// Classify maps a transport result onto the outcome classes. Every result
// lands in exactly one class.
func (r Result) Classify() domain.OutcomeClass {
	switch {
	case r.IsSuccess():
		return domain.OutcomeDelivered
	case r.IsRetryable():
		return domain.OutcomeTransientFailure
	default:
		return domain.OutcomePermanentFailure
	}
}

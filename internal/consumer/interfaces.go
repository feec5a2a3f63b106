package consumer

import (
	"context"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into marketing events
type MessageParser interface {
	Parse(body []byte) (*domain.MarketingEvent, error)
}

// EventExecutor runs the synchronous decisioning path for one event
type EventExecutor interface {
	Execute(ctx context.Context, event domain.MarketingEvent) (domain.ExecutionRecord, error)
}

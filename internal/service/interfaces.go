package service

import (
	"context"
	"time"

	"github.com/paridu/ai-outreach-optimizer/internal/dispatch"
	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/dto"
	"github.com/paridu/ai-outreach-optimizer/internal/personalization"
	"github.com/paridu/ai-outreach-optimizer/internal/rules"
	"github.com/paridu/ai-outreach-optimizer/internal/worker"
)

// TriggerServicer defines the interface for trigger engine operations
type TriggerServicer interface {
	// Execute runs the whole decision for event and returns its record
	Execute(ctx context.Context, event domain.MarketingEvent) (domain.ExecutionRecord, error)
	// Submit validates event and schedules the decision on a background worker
	Submit(event domain.MarketingEvent) (string, error)
	// Enqueue validates event and publishes it to the intake queue
	Enqueue(ctx context.Context, event domain.MarketingEvent) (string, error)
	// GetExecution returns the stored record of an event
	GetExecution(ctx context.Context, eventID string) (domain.ExecutionRecord, error)
	// ReloadRules swaps in the rule table from the configured rule file
	ReloadRules() (*rules.Table, error)
}

// ReportServicer defines the interface for delivery reporting
type ReportServicer interface {
	GetDeliveryReport(ctx context.Context, req *dto.GetDeliveryReportRequest) (*dto.GetDeliveryReportResponse, error)
}

// RuleSource hands out consistent rule table snapshots
type RuleSource interface {
	Current() *rules.Table
	Reload() (*rules.Table, error)
}

// Personalizer renders campaign content for a customer
type Personalizer interface {
	Resolve(ctx context.Context, customerID, template string, locals map[string]string) personalization.Rendered
}

// ActionDispatcher delivers a resolved action and classifies the outcome
type ActionDispatcher interface {
	Dispatch(ctx context.Context, msg dispatch.Message) domain.DispatchOutcome
}

// ExecutionRecorder is the idempotent record store of decisioning runs
type ExecutionRecorder interface {
	Record(ctx context.Context, event domain.MarketingEvent, outcome domain.DispatchOutcome, plan domain.ActionPlan) (domain.ExecutionRecord, bool, error)
	Lookup(ctx context.Context, eventID string) (domain.ExecutionRecord, error)
}

// Scheduler runs fire-and-forget work with bounded capacity
type Scheduler interface {
	TrySubmit(task worker.Task) error
}

// MetricsSink records orchestrator metrics.
// All methods must be non-blocking and fire-and-forget.
type MetricsSink interface {
	RunCompleted(status string, duration time.Duration)
	RunDeduplicated()
	ValidationRejected()
	RulesReloaded(err error)
}

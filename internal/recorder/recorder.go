package recorder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// AuditSink receives every newly created record. Enqueue must not block.
type AuditSink interface {
	Enqueue(rec domain.ExecutionRecord) bool
}

// Recorder turns a finished decisioning run into its execution record. It is
// the idempotency boundary: one record per event id, whatever the number of
// calls.
type Recorder struct {
	store repository.RecordStore
	audit AuditSink // optional, nil = disabled
	log   *zap.Logger
	now   func() time.Time
}

func New(store repository.RecordStore, log *zap.Logger) *Recorder {
	return &Recorder{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// WithAudit forwards created records to sink.
func (r *Recorder) WithAudit(sink AuditSink) *Recorder {
	r.audit = sink
	return r
}

// Build assembles the record of a run without storing it
func (r *Recorder) Build(event domain.MarketingEvent, outcome domain.DispatchOutcome, plan domain.ActionPlan) domain.ExecutionRecord {
	return domain.ExecutionRecord{
		ExecutionID:         domain.ExecutionIDFor(event.EventID),
		EventID:             event.EventID,
		CustomerID:          event.CustomerID,
		EventType:           event.EventType,
		Status:              outcome.Status(),
		ActionTaken:         plan.CampaignName,
		TargetChannel:       plan.Channel,
		PersonalizedContent: plan.Content,
		Personalized:        plan.Personalized,
		Outcome:             outcome.Class,
		OutcomeDetail:       outcome.Detail,
		CreatedAt:           r.now().UTC(),
	}
}

// Record stores the record of a run. When a record for the event already
// exists it is returned unchanged and created is false.
func (r *Recorder) Record(ctx context.Context, event domain.MarketingEvent, outcome domain.DispatchOutcome, plan domain.ActionPlan) (domain.ExecutionRecord, bool, error) {
	rec := r.Build(event, outcome, plan)

	stored, created, err := r.store.InsertIfAbsent(ctx, rec)
	if err != nil {
		return domain.ExecutionRecord{}, false, fmt.Errorf("failed to store execution record: %w", err)
	}

	if !created {
		r.log.Info("Execution record already exists",
			zap.String("event_id", event.EventID),
			zap.String("execution_id", stored.ExecutionID.String()))
		return stored, false, nil
	}

	if r.audit != nil {
		r.audit.Enqueue(stored)
	}

	r.log.Info("Execution recorded",
		zap.String("event_id", stored.EventID),
		zap.String("execution_id", stored.ExecutionID.String()),
		zap.String("status", string(stored.Status)),
		zap.String("action_taken", stored.ActionTaken),
		zap.String("channel", string(stored.TargetChannel)))

	return stored, true, nil
}

// Lookup returns the stored record for eventID, or repository.ErrRecordNotFound
func (r *Recorder) Lookup(ctx context.Context, eventID string) (domain.ExecutionRecord, error) {
	return r.store.Get(ctx, eventID)
}

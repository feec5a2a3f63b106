package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/paridu/ai-outreach-optimizer/internal/dispatch"
	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/metrics"
	"github.com/paridu/ai-outreach-optimizer/internal/personalization"
	"github.com/paridu/ai-outreach-optimizer/internal/queue"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
	"github.com/paridu/ai-outreach-optimizer/internal/rules"
	"github.com/paridu/ai-outreach-optimizer/internal/worker"
)

// State is a step of a decisioning run
type State string

const (
	StateReceived     State = "RECEIVED"
	StateMatched      State = "MATCHED"
	StatePersonalized State = "PERSONALIZED"
	StateDispatched   State = "DISPATCHED"
	StateRecorded     State = "RECORDED"
)

// TriggerService represents the decisioning orchestrator
type TriggerService struct {
	rules      RuleSource
	resolver   Personalizer
	dispatcher ActionDispatcher
	recorder   ExecutionRecorder
	scheduler  Scheduler
	publisher  queue.QueuePublisher // optional, nil = queue intake disabled
	metrics    MetricsSink
	log        *zap.Logger

	inflight singleflight.Group
	now      func() time.Time
}

// NewTriggerService creates a new trigger service
func NewTriggerService(
	ruleSource RuleSource,
	resolver Personalizer,
	dispatcher ActionDispatcher,
	recorder ExecutionRecorder,
	scheduler Scheduler,
	log *zap.Logger,
) *TriggerService {
	return &TriggerService{
		rules:      ruleSource,
		resolver:   resolver,
		dispatcher: dispatcher,
		recorder:   recorder,
		scheduler:  scheduler,
		metrics:    metrics.NewNoopSink(),
		log:        log,
		now:        time.Now,
	}
}

// WithMetrics sets the metrics sink for the trigger service.
func (s *TriggerService) WithMetrics(sink MetricsSink) *TriggerService {
	s.metrics = sink
	return s
}

// WithQueue enables queue intake through publisher.
func (s *TriggerService) WithQueue(publisher queue.QueuePublisher) *TriggerService {
	s.publisher = publisher
	return s
}

// Execute validates event, runs the decision to completion and returns the
// execution record. Cancelling ctx does not abort a run that has started.
func (s *TriggerService) Execute(ctx context.Context, event domain.MarketingEvent) (domain.ExecutionRecord, error) {
	event, err := s.prepare(event)
	if err != nil {
		return domain.ExecutionRecord{}, err
	}
	return s.execute(context.WithoutCancel(ctx), event)
}

// Submit validates event and hands the decision to a background worker. It
// returns the event id without waiting for the run.
func (s *TriggerService) Submit(event domain.MarketingEvent) (string, error) {
	event, err := s.prepare(event)
	if err != nil {
		return "", err
	}

	err = s.scheduler.TrySubmit(func(ctx context.Context) {
		if _, err := s.execute(ctx, event); err != nil {
			s.log.Error("Background decisioning run failed",
				zap.String("event_id", event.EventID),
				zap.Error(err))
		}
	})
	if err != nil {
		if errors.Is(err, worker.ErrCapacityExceeded) || errors.Is(err, worker.ErrPoolClosed) {
			s.log.Warn("Event rejected, no background capacity",
				zap.String("event_id", event.EventID),
				zap.Error(err))
			return "", fmt.Errorf("%w: %v", ErrCapacityExceeded, err)
		}
		return "", fmt.Errorf("failed to schedule event: %w", err)
	}

	return event.EventID, nil
}

// Enqueue validates event and publishes it to the intake queue, where the
// consumer runs it. Defaults are filled before publishing so redeliveries
// keep the same event id.
func (s *TriggerService) Enqueue(ctx context.Context, event domain.MarketingEvent) (string, error) {
	if s.publisher == nil {
		return "", ErrQueueDisabled
	}

	event, err := s.prepare(event)
	if err != nil {
		return "", err
	}

	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		return "", fmt.Errorf("failed to publish event to queue: %w", err)
	}

	return event.EventID, nil
}

// GetExecution returns the stored record of eventID
func (s *TriggerService) GetExecution(ctx context.Context, eventID string) (domain.ExecutionRecord, error) {
	rec, err := s.recorder.Lookup(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return domain.ExecutionRecord{}, ErrExecutionNotFound
		}
		return domain.ExecutionRecord{}, fmt.Errorf("failed to look up execution: %w", err)
	}
	return rec, nil
}

// ReloadRules re-reads the rule file. The active table is kept on failure.
func (s *TriggerService) ReloadRules() (*rules.Table, error) {
	t, err := s.rules.Reload()
	s.metrics.RulesReloaded(err)
	if err != nil {
		return nil, fmt.Errorf("failed to reload rules: %w", err)
	}
	s.log.Info("Rule table reloaded",
		zap.String("version", t.Version()),
		zap.Int("rules", t.Len()))
	return t, nil
}

// prepare fills event defaults and validates the required fields
func (s *TriggerService) prepare(event domain.MarketingEvent) (domain.MarketingEvent, error) {
	event.CustomerID = strings.TrimSpace(event.CustomerID)
	event.EventType = strings.TrimSpace(event.EventType)
	event.EventID = strings.TrimSpace(event.EventID)

	var verr *ValidationError
	switch {
	case event.CustomerID == "":
		verr = &ValidationError{Field: "customer_id", Message: "is required"}
	case event.EventType == "":
		verr = &ValidationError{Field: "event_type", Message: "is required"}
	}
	if verr != nil {
		s.metrics.ValidationRejected()
		s.log.Warn("Event validation failed",
			zap.String("event_id", event.EventID),
			zap.String("field", verr.Field))
		return event, verr
	}

	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]interface{}{}
	}
	return event, nil
}

// execute collapses concurrent runs of one event id into a single run
func (s *TriggerService) execute(ctx context.Context, event domain.MarketingEvent) (domain.ExecutionRecord, error) {
	v, err, shared := s.inflight.Do(event.EventID, func() (interface{}, error) {
		return s.run(ctx, event)
	})
	if err != nil {
		return domain.ExecutionRecord{}, err
	}
	if shared {
		s.log.Debug("Joined in-flight run", zap.String("event_id", event.EventID))
	}
	return v.(domain.ExecutionRecord), nil
}

func (s *TriggerService) run(ctx context.Context, event domain.MarketingEvent) (domain.ExecutionRecord, error) {
	existing, err := s.recorder.Lookup(ctx, event.EventID)
	if err == nil {
		s.metrics.RunDeduplicated()
		s.log.Info("Event already executed",
			zap.String("event_id", event.EventID),
			zap.String("execution_id", existing.ExecutionID.String()))
		return existing, nil
	}
	if !errors.Is(err, repository.ErrRecordNotFound) {
		s.log.Warn("Execution lookup failed, running decision",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}

	start := s.now()
	r := &runState{eventID: event.EventID, state: StateReceived, log: s.log}
	r.advance(StateReceived)

	plan, outcome, err := s.decide(ctx, event, r)
	if err != nil {
		s.log.Error("Decisioning run failed",
			zap.String("event_id", event.EventID),
			zap.String("state", string(r.state)),
			zap.Error(err))
		outcome = domain.DispatchOutcome{
			Class:  domain.OutcomeTransientFailure,
			Detail: err.Error(),
		}
	}

	rec, created, err := s.recorder.Record(ctx, event, outcome, plan)
	if err != nil {
		s.metrics.RunCompleted(metrics.RunStatusError, s.now().Sub(start))
		return domain.ExecutionRecord{}, fmt.Errorf("failed to record execution: %w", err)
	}
	r.advance(StateRecorded)

	if !created {
		s.metrics.RunDeduplicated()
		return rec, nil
	}
	s.metrics.RunCompleted(string(rec.Status), s.now().Sub(start))
	return rec, nil
}

// decide matches, personalizes and dispatches. A panic in any step becomes
// an InternalError carrying the state reached so far.
func (s *TriggerService) decide(ctx context.Context, event domain.MarketingEvent, r *runState) (plan domain.ActionPlan, outcome domain.DispatchOutcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &InternalError{
				EventID: event.EventID,
				State:   r.state,
				Cause:   fmt.Errorf("panic: %v", p),
			}
		}
	}()

	rule := s.rules.Current().MatchEvent(event)
	plan.CampaignName = rule.Name
	plan.Channel = rule.Channel
	r.advance(StateMatched)

	rendered := s.resolver.Resolve(ctx, event.CustomerID, rule.Template, personalization.LocalValues(event))
	plan.Content = rendered.Content
	plan.Personalized = rendered.Personalized
	r.advance(StatePersonalized)

	outcome = s.dispatcher.Dispatch(ctx, dispatch.Message{
		ExecutionID: domain.ExecutionIDFor(event.EventID).String(),
		EventID:     event.EventID,
		CustomerID:  event.CustomerID,
		Channel:     plan.Channel,
		Campaign:    plan.CampaignName,
		Content:     plan.Content,
	})
	r.advance(StateDispatched)

	return plan, outcome, nil
}

// runState tracks the state a run has reached
type runState struct {
	eventID string
	state   State
	log     *zap.Logger
}

func (r *runState) advance(next State) {
	r.state = next
	r.log.Debug("Run state changed",
		zap.String("event_id", r.eventID),
		zap.String("state", string(next)))
}

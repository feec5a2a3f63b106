package consumer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/service"
)

// ackTimeout bounds the SQS call that settles a message
const ackTimeout = 5 * time.Second

// ExecutorStage runs parsed events through the engine and settles their
// messages. A message is acked only once its execution record exists.
type ExecutorStage struct {
	executor    EventExecutor
	concurrency int
	log         *zap.Logger
}

// NewExecutorStage creates a new executor stage
func NewExecutorStage(executor EventExecutor, concurrency int, log *zap.Logger) *ExecutorStage {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ExecutorStage{
		executor:    executor,
		concurrency: concurrency,
		log:         log,
	}
}

// Start consumes envelopes until in is closed
func (s *ExecutorStage) Start(ctx context.Context, in <-chan *Envelope) {
	var wg sync.WaitGroup

	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for envelope := range in {
				s.process(ctx, envelope)
			}
		}()
	}

	wg.Wait()
	s.log.Info("Executor stage stopped")
}

func (s *ExecutorStage) process(ctx context.Context, envelope *Envelope) {
	// settle the message even when shutdown has begun
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()

	rec, err := s.executor.Execute(ctx, *envelope.Event)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			s.log.Warn("Dropping invalid event",
				zap.String("message_id", envelope.MessageID),
				zap.String("field", verr.Field))
			if err := envelope.Ack(settleCtx); err != nil {
				s.log.Error("Failed to delete invalid message",
					zap.String("message_id", envelope.MessageID),
					zap.Error(err))
			}
			return
		}

		s.log.Error("Failed to execute queued event, releasing message",
			zap.String("message_id", envelope.MessageID),
			zap.String("event_id", envelope.Event.EventID),
			zap.Error(err))
		if err := envelope.Nack(settleCtx); err != nil {
			s.log.Error("Failed to release message",
				zap.String("message_id", envelope.MessageID),
				zap.Error(err))
		}
		return
	}

	if err := envelope.Ack(settleCtx); err != nil {
		// the record exists, so a redelivery is answered from the store
		s.log.Error("Failed to acknowledge message",
			zap.String("message_id", envelope.MessageID),
			zap.String("event_id", rec.EventID),
			zap.Error(err))
		return
	}

	s.log.Info("Queued event executed",
		zap.String("message_id", envelope.MessageID),
		zap.String("event_id", rec.EventID),
		zap.String("status", string(rec.Status)))
}

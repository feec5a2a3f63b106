package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/circuitbreaker"
	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// MetricsSink defines the interface for recording dispatcher metrics.
// All methods must be non-blocking and fire-and-forget.
type MetricsSink interface {
	DispatchCompleted(channel, outcome string, duration time.Duration)
}

// Dispatcher routes resolved actions to the transport registered for their
// channel and classifies what came back
type Dispatcher struct {
	transports map[domain.Channel]Transport
	breaker    *circuitbreaker.CircuitBreaker // optional, nil = disabled
	metrics    MetricsSink                    // optional, nil = disabled
	timeout    time.Duration
	log        *zap.Logger
}

func New(timeout time.Duration, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		transports: make(map[domain.Channel]Transport),
		timeout:    timeout,
		log:        log,
	}
}

// Register binds a transport to a channel. Call before the first Dispatch.
func (d *Dispatcher) Register(channel domain.Channel, t Transport) *Dispatcher {
	d.transports[channel] = t
	return d
}

// WithCircuitBreaker short-circuits channels whose transport keeps failing.
func (d *Dispatcher) WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) *Dispatcher {
	d.breaker = cb
	return d
}

// WithMetrics attaches a metrics sink to the dispatcher.
func (d *Dispatcher) WithMetrics(sink MetricsSink) *Dispatcher {
	d.metrics = sink
	return d
}

// Channels lists the channels that have a transport, sorted by name
func (d *Dispatcher) Channels() []domain.Channel {
	out := make([]domain.Channel, 0, len(d.transports))
	for ch := range d.transports {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}

// Dispatch makes one delivery attempt for msg, bounded by the dispatcher
// timeout, and always returns a classified outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) domain.DispatchOutcome {
	start := time.Now()
	outcome := d.dispatch(ctx, msg)
	outcome.Duration = time.Since(start)

	if d.metrics != nil {
		d.metrics.DispatchCompleted(string(msg.Channel), string(outcome.Class), outcome.Duration)
	}

	fields := []zap.Field{
		zap.String("event_id", msg.EventID),
		zap.String("customer_id", msg.CustomerID),
		zap.String("channel", string(msg.Channel)),
		zap.String("outcome", string(outcome.Class)),
		zap.Duration("duration", outcome.Duration),
	}
	if outcome.Class.Failed() {
		d.log.Warn("Dispatch failed", append(fields, zap.String("detail", outcome.Detail))...)
	} else {
		d.log.Info("Dispatch delivered", fields...)
	}

	return outcome
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) domain.DispatchOutcome {
	transport, ok := d.transports[msg.Channel]
	if !ok {
		return domain.DispatchOutcome{
			Class:  domain.OutcomePermanentFailure,
			Detail: fmt.Sprintf("no transport for channel %q", msg.Channel),
		}
	}

	key := string(msg.Channel)
	if d.breaker != nil {
		if err := d.breaker.Allow(key); err != nil {
			return domain.DispatchOutcome{Class: domain.OutcomeTransientFailure, Detail: err.Error()}
		}
	}

	result := d.send(ctx, transport, msg)
	class := result.Classify()

	if d.breaker != nil {
		if class == domain.OutcomeTransientFailure {
			d.breaker.RecordFailure(key)
		} else {
			d.breaker.RecordSuccess(key)
		}
	}

	return domain.DispatchOutcome{Class: class, Detail: describe(result)}
}

// send runs the transport under the dispatch timeout. A transport that ignores
// its context is abandoned at the deadline.
func (d *Dispatcher) send(ctx context.Context, t Transport, msg Message) Result {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- Result{Error: fmt.Errorf("transport panic: %v", p)}
			}
		}()
		done <- t.Send(ctx, msg)
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("transport timeout after %s: %w", d.timeout, err)
		}
		return Result{Error: err}
	}
}

func describe(r Result) string {
	switch {
	case r.Error != nil && r.StatusCode != 0:
		return fmt.Sprintf("status %d: %v", r.StatusCode, r.Error)
	case r.Error != nil:
		return r.Error.Error()
	case r.StatusCode != 0:
		return fmt.Sprintf("status %d", r.StatusCode)
	default:
		return ""
	}
}

package personalization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/recommendation"
)

// FallbackReason explains why a render used local values only
type FallbackReason string

const (
	FallbackNone      FallbackReason = ""
	FallbackDisabled  FallbackReason = "disabled"
	FallbackTimeout   FallbackReason = "timeout"
	FallbackError     FallbackReason = "error"
	FallbackColdStart FallbackReason = "cold_start"
)

// Rendered is the resolved campaign content
type Rendered struct {
	Content      string
	Personalized bool
	Fallback     FallbackReason
}

// MetricsSink records personalization outcomes.
// Methods must be non-blocking.
type MetricsSink interface {
	PersonalizationResolved(reason string, duration time.Duration)
}

// Resolver fills campaign templates, consulting a recommendation scorer when one is configured
type Resolver struct {
	scorer  recommendation.Scorer
	timeout time.Duration
	log     *zap.Logger
	metrics MetricsSink
}

// NewResolver creates a resolver. A nil scorer turns recommendations off.
func NewResolver(scorer recommendation.Scorer, timeout time.Duration, log *zap.Logger) *Resolver {
	return &Resolver{
		scorer:  scorer,
		timeout: timeout,
		log:     log,
	}
}

// WithMetrics attaches a metrics sink to the resolver.
func (r *Resolver) WithMetrics(sink MetricsSink) *Resolver {
	r.metrics = sink
	return r
}

type scoreResult struct {
	result domain.RecommendationResult
	err    error
}

// Resolve renders template for customerID. Scorer timeout, error and cold
// start all degrade to a render from locals; Resolve itself never fails and
// returns within the configured timeout whatever the scorer does.
func (r *Resolver) Resolve(ctx context.Context, customerID, template string, locals map[string]string) Rendered {
	start := time.Now()

	items, reason := r.recommend(ctx, customerID)

	values := make(map[string]string, len(locals)+2)
	for k, v := range locals {
		if isReservedKey(k) {
			continue
		}
		values[k] = v
	}
	if _, ok := values["name"]; !ok {
		values["name"] = DisplayName(customerID)
	}
	for k, v := range recommendationValues(items) {
		values[k] = v
	}

	rendered := Rendered{
		Content:      Render(template, values),
		Personalized: reason == FallbackNone,
		Fallback:     reason,
	}

	if r.metrics != nil {
		label := string(reason)
		if reason == FallbackNone {
			label = "personalized"
		}
		r.metrics.PersonalizationResolved(label, time.Since(start))
	}

	return rendered
}

func (r *Resolver) recommend(ctx context.Context, customerID string) ([]string, FallbackReason) {
	if r.scorer == nil {
		return nil, FallbackDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Buffered so a scorer that ignores ctx can finish after we stop waiting.
	done := make(chan scoreResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- scoreResult{err: fmt.Errorf("scorer panic: %v", p)}
			}
		}()
		res, err := r.scorer.Score(ctx, customerID)
		done <- scoreResult{result: res, err: err}
	}()

	select {
	case <-ctx.Done():
		reason := FallbackTimeout
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = FallbackError
		}
		r.log.Warn("Recommendation scorer did not answer in time, using fallback",
			zap.String("customer_id", customerID),
			zap.Duration("timeout", r.timeout),
			zap.Error(ctx.Err()))
		return nil, reason

	case sr := <-done:
		if sr.err != nil {
			r.log.Warn("Recommendation scorer failed, using fallback",
				zap.String("customer_id", customerID),
				zap.Error(sr.err))
			return nil, FallbackError
		}
		if !sr.result.KnownCustomer {
			r.log.Debug("Cold start customer, using fallback",
				zap.String("customer_id", customerID))
			return nil, FallbackColdStart
		}
		return sr.result.Items, FallbackNone
	}
}

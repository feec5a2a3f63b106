package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or propagate errors.
type Sink interface {
	// Orchestrator metrics
	RunCompleted(status string, duration time.Duration)
	RunDeduplicated()
	ValidationRejected()

	// Personalization metrics
	PersonalizationResolved(reason string, duration time.Duration)

	// Dispatcher metrics
	DispatchCompleted(channel, outcome string, duration time.Duration)

	// Worker pool metrics
	QueueDepthUpdate(depth int)
	TaskRejected()

	// Audit writer metrics
	AuditDropped()
	AuditFlushed(count int, err error)

	// Rule table metrics
	RulesReloaded(err error)
}

// Run status labels for RunCompleted beyond the record statuses
const (
	RunStatusError = "error"
)

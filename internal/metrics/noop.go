package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) RunCompleted(status string, duration time.Duration)                {}
func (n *NoopSink) RunDeduplicated()                                                  {}
func (n *NoopSink) ValidationRejected()                                               {}
func (n *NoopSink) PersonalizationResolved(reason string, duration time.Duration)     {}
func (n *NoopSink) DispatchCompleted(channel, outcome string, duration time.Duration) {}
func (n *NoopSink) QueueDepthUpdate(depth int)                                        {}
func (n *NoopSink) TaskRejected()                                                     {}
func (n *NoopSink) AuditDropped()                                                     {}
func (n *NoopSink) AuditFlushed(count int, err error)                                 {}
func (n *NoopSink) RulesReloaded(err error)                                           {}

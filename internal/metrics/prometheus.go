package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// PrometheusSink implements Sink using Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	log *zap.Logger

	// Orchestrator metrics
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	dedupTotal         prometheus.Counter
	validationRejected prometheus.Counter

	// Personalization metrics
	personalizationTotal    *prometheus.CounterVec
	personalizationDuration prometheus.Histogram

	// Dispatcher metrics
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec

	// Worker pool metrics
	queueDepth    prometheus.Gauge
	tasksRejected prometheus.Counter

	// Audit writer metrics
	auditDropped prometheus.Counter
	auditWritten prometheus.Counter
	auditErrors  prometheus.Counter

	// Rule table metrics
	ruleReloads *prometheus.CounterVec
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// If registration fails, it logs a warning and returns a functional sink.
func NewPrometheusSink(reg prometheus.Registerer, log *zap.Logger) *PrometheusSink {
	s := &PrometheusSink{log: log}
	s.initOrchestratorMetrics(reg)
	s.initDeliveryMetrics(reg)
	s.initInfrastructureMetrics(reg)
	return s
}

func (s *PrometheusSink) initOrchestratorMetrics(reg prometheus.Registerer) {
	s.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_engine_runs_total",
		Help: "Total number of decisioning runs by final status.",
	}, []string{"status"})
	s.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trigger_engine_run_duration_seconds",
		Help:    "End-to-end duration of a decisioning run in seconds.",
		Buckets: latencyBuckets,
	})
	s.dedupTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trigger_engine_runs_deduplicated_total",
		Help: "Total number of submissions answered from an existing execution record.",
	})
	s.validationRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trigger_engine_validation_rejected_total",
		Help: "Total number of events rejected by validation.",
	})

	s.register(reg, s.runsTotal, "trigger_engine_runs_total")
	s.register(reg, s.runDuration, "trigger_engine_run_duration_seconds")
	s.register(reg, s.dedupTotal, "trigger_engine_runs_deduplicated_total")
	s.register(reg, s.validationRejected, "trigger_engine_validation_rejected_total")
}

func (s *PrometheusSink) initDeliveryMetrics(reg prometheus.Registerer) {
	s.personalizationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_engine_personalization_total",
		Help: "Total number of template resolutions by result (personalized or fallback reason).",
	}, []string{"result"})
	s.personalizationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "trigger_engine_personalization_duration_seconds",
		Help:    "Template resolution latency including the scorer call.",
		Buckets: latencyBuckets,
	})
	s.dispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_engine_dispatch_outcomes_total",
		Help: "Total number of dispatch attempts by channel and outcome class.",
	}, []string{"channel", "outcome"})
	s.dispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trigger_engine_dispatch_duration_seconds",
		Help:    "Channel transport latency in seconds.",
		Buckets: latencyBuckets,
	}, []string{"channel"})

	s.register(reg, s.personalizationTotal, "trigger_engine_personalization_total")
	s.register(reg, s.personalizationDuration, "trigger_engine_personalization_duration_seconds")
	s.register(reg, s.dispatchTotal, "trigger_engine_dispatch_outcomes_total")
	s.register(reg, s.dispatchDuration, "trigger_engine_dispatch_duration_seconds")
}

func (s *PrometheusSink) initInfrastructureMetrics(reg prometheus.Registerer) {
	s.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trigger_engine_worker_queue_depth",
		Help: "Current number of fire-and-forget runs waiting for a worker.",
	})
	s.tasksRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trigger_engine_worker_rejected_total",
		Help: "Total number of submissions rejected because the worker pool was saturated.",
	})
	s.auditDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trigger_engine_audit_dropped_total",
		Help: "Total number of records dropped from the audit stream (buffer full).",
	})
	s.auditWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trigger_engine_audit_written_total",
		Help: "Total number of records written to the audit store.",
	})
	s.auditErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trigger_engine_audit_errors_total",
		Help: "Total number of failed audit batch writes.",
	})
	s.ruleReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_engine_rule_reloads_total",
		Help: "Total number of rule table reloads by result.",
	}, []string{"result"})

	s.register(reg, s.queueDepth, "trigger_engine_worker_queue_depth")
	s.register(reg, s.tasksRejected, "trigger_engine_worker_rejected_total")
	s.register(reg, s.auditDropped, "trigger_engine_audit_dropped_total")
	s.register(reg, s.auditWritten, "trigger_engine_audit_written_total")
	s.register(reg, s.auditErrors, "trigger_engine_audit_errors_total")
	s.register(reg, s.ruleReloads, "trigger_engine_rule_reloads_total")
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		s.log.Warn("Failed to register metric", zap.String("name", name), zap.Error(err))
	}
}

func (s *PrometheusSink) RunCompleted(status string, duration time.Duration) {
	s.runsTotal.WithLabelValues(status).Inc()
	s.runDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) RunDeduplicated() {
	s.dedupTotal.Inc()
}

func (s *PrometheusSink) ValidationRejected() {
	s.validationRejected.Inc()
}

func (s *PrometheusSink) PersonalizationResolved(reason string, duration time.Duration) {
	s.personalizationTotal.WithLabelValues(reason).Inc()
	s.personalizationDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) DispatchCompleted(channel, outcome string, duration time.Duration) {
	s.dispatchTotal.WithLabelValues(channel, outcome).Inc()
	s.dispatchDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

func (s *PrometheusSink) QueueDepthUpdate(depth int) {
	s.queueDepth.Set(float64(depth))
}

func (s *PrometheusSink) TaskRejected() {
	s.tasksRejected.Inc()
}

func (s *PrometheusSink) AuditDropped() {
	s.auditDropped.Inc()
}

func (s *PrometheusSink) AuditFlushed(count int, err error) {
	if err != nil {
		s.auditErrors.Inc()
		return
	}
	s.auditWritten.Add(float64(count))
}

func (s *PrometheusSink) RulesReloaded(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	s.ruleReloads.WithLabelValues(result).Inc()
}

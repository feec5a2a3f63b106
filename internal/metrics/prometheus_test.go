package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSink(t *testing.T) (*PrometheusSink, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewPrometheusSink(reg, zap.NewNop()), reg
}

func TestPrometheusSink_Registration(t *testing.T) {
	_, reg := newTestSink(t)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	// vectors without observations are not exported yet
	assert.NotEmpty(t, mfs)
}

func TestPrometheusSink_RunCompleted(t *testing.T) {
	sink, _ := newTestSink(t)

	sink.RunCompleted("success", 10*time.Millisecond)
	sink.RunCompleted("success", 20*time.Millisecond)
	sink.RunCompleted("failed", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.runsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.runsTotal.WithLabelValues("failed")))
}

func TestPrometheusSink_DispatchCompleted(t *testing.T) {
	sink, reg := newTestSink(t)

	sink.DispatchCompleted("push", "delivered", 30*time.Millisecond)
	sink.DispatchCompleted("sms", "transient_failure", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.dispatchTotal.WithLabelValues("push", "delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.dispatchTotal.WithLabelValues("sms", "transient_failure")))

	count, err := testutil.GatherAndCount(reg, "trigger_engine_dispatch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPrometheusSink_WorkerAndAudit(t *testing.T) {
	sink, _ := newTestSink(t)

	sink.QueueDepthUpdate(7)
	sink.TaskRejected()
	sink.AuditFlushed(12, nil)
	sink.AuditFlushed(0, errors.New("down"))
	sink.AuditDropped()

	assert.Equal(t, 7.0, testutil.ToFloat64(sink.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.tasksRejected))
	assert.Equal(t, 12.0, testutil.ToFloat64(sink.auditWritten))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.auditErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.auditDropped))
}

func TestPrometheusSink_RulesReloaded(t *testing.T) {
	sink, _ := newTestSink(t)

	sink.RulesReloaded(nil)
	sink.RulesReloaded(errors.New("bad toml"))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.ruleReloads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.ruleReloads.WithLabelValues("error")))
}

func TestPrometheusSink_DuplicateRegistration_NoPanic(t *testing.T) {
	reg := prometheus.NewRegistry()

	assert.NotPanics(t, func() {
		NewPrometheusSink(reg, zap.NewNop())
		NewPrometheusSink(reg, zap.NewNop())
	})
}

func TestNoopSink_AllMethods(t *testing.T) {
	s := NewNoopSink()

	assert.NotPanics(t, func() {
		s.RunCompleted("success", time.Millisecond)
		s.RunDeduplicated()
		s.ValidationRejected()
		s.PersonalizationResolved("timeout", time.Millisecond)
		s.DispatchCompleted("push", "delivered", time.Millisecond)
		s.QueueDepthUpdate(1)
		s.TaskRejected()
		s.AuditDropped()
		s.AuditFlushed(1, nil)
		s.RulesReloaded(nil)
	})
}

var (
	_ Sink = (*PrometheusSink)(nil)
	_ Sink = (*NoopSink)(nil)
)

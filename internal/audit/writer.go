package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// WriterConfig configures the audit writer
type WriterConfig struct {
	BufferSize   int
	MaxBatchSize int
	FlushTimeout time.Duration
}

// MetricsSink records audit writer activity.
// Methods must be non-blocking.
type MetricsSink interface {
	AuditDropped()
	AuditFlushed(count int, err error)
}

// Writer streams newly created execution records into the audit repository
// in batches. Enqueue never blocks the decisioning path: when the buffer is
// full the record is dropped from the audit trail (it stays in the record
// store).
type Writer struct {
	repository repository.AuditRepository
	config     WriterConfig
	in         chan *domain.ExecutionRecord
	log        *zap.Logger
	metrics    MetricsSink

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewWriter creates a new audit writer
func NewWriter(repo repository.AuditRepository, config WriterConfig, log *zap.Logger) *Writer {
	return &Writer{
		repository: repo,
		config:     config,
		in:         make(chan *domain.ExecutionRecord, config.BufferSize),
		log:        log,
		done:       make(chan struct{}),
	}
}

// WithMetrics attaches a metrics sink to the writer.
func (w *Writer) WithMetrics(sink MetricsSink) *Writer {
	w.metrics = sink
	return w
}

// Enqueue hands rec to the writer without blocking; false means it was dropped
func (w *Writer) Enqueue(rec domain.ExecutionRecord) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return false
	}

	select {
	case w.in <- &rec:
		return true
	default:
		w.log.Warn("Audit buffer full, dropping record", zap.String("event_id", rec.EventID))
		if w.metrics != nil {
			w.metrics.AuditDropped()
		}
		return false
	}
}

// Close stops intake; Start flushes what is buffered and returns
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.closed = true
		close(w.in)
	}
}

// Done is closed once Start has returned
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// Start batches records and writes them to the repository until the writer is
// closed or ctx is cancelled
func (w *Writer) Start(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*domain.ExecutionRecord, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Audit writer shutting down")
			w.flushFinal(ctx, batch)
			return

		case rec, ok := <-w.in:
			if !ok {
				w.log.Info("Audit writer input closed")
				w.flushFinal(ctx, batch)
				return
			}

			batch = append(batch, rec)

			if len(batch) >= w.config.MaxBatchSize {
				w.log.Debug("Audit batch size threshold reached", zap.Int("batch_size", len(batch)))
				w.writeBatch(ctx, batch)
				batch = make([]*domain.ExecutionRecord, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Debug("Audit batch timeout reached", zap.Int("record_count", len(batch)))
				w.writeBatch(ctx, batch)
				batch = make([]*domain.ExecutionRecord, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// flushFinal drains the buffer and writes the last batch on a context that
// outlives the cancelled one
func (w *Writer) flushFinal(ctx context.Context, batch []*domain.ExecutionRecord) {
drain:
	for {
		select {
		case rec, ok := <-w.in:
			if !ok {
				break drain
			}
			batch = append(batch, rec)
		default:
			break drain
		}
	}

	if len(batch) == 0 {
		return
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.config.FlushTimeout)
	defer cancel()

	w.log.Info("Flushing final audit batch", zap.Int("record_count", len(batch)))
	w.writeBatch(flushCtx, batch)
}

func (w *Writer) writeBatch(ctx context.Context, batch []*domain.ExecutionRecord) {
	insertedCount, err := w.repository.InsertBatch(ctx, batch)
	if w.metrics != nil {
		w.metrics.AuditFlushed(insertedCount, err)
	}

	if err != nil {
		w.log.Error("Failed to write audit batch",
			zap.Error(err),
			zap.Int("record_count", len(batch)))
		return
	}

	if insertedCount != len(batch) {
		w.log.Warn("Partial audit insert",
			zap.Int("inserted", insertedCount),
			zap.Int("expected", len(batch)))
		return
	}

	w.log.Info("Audit batch written", zap.Int("count", insertedCount))
}

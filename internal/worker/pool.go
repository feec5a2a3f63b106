package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrCapacityExceeded is returned when the queue is full
	ErrCapacityExceeded = errors.New("worker pool capacity exceeded")
	// ErrPoolClosed is returned for submissions after Shutdown
	ErrPoolClosed = errors.New("worker pool is shut down")
)

// Task is one unit of background work. The context it receives is never
// cancelled: accepted work runs to completion.
type Task func(ctx context.Context)

// MetricsSink records pool activity.
// Methods must be non-blocking.
type MetricsSink interface {
	QueueDepthUpdate(depth int)
	TaskRejected()
}

// Pool runs tasks on a fixed number of workers fed by a bounded queue
type Pool struct {
	size    int
	tasks   chan Task
	log     *zap.Logger
	metrics MetricsSink

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewPool creates a pool of size workers with room for queueSize waiting tasks
func NewPool(size, queueSize int, log *zap.Logger) *Pool {
	return &Pool{
		size:  size,
		tasks: make(chan Task, queueSize),
		log:   log,
	}
}

// WithMetrics attaches a metrics sink to the pool.
func (p *Pool) WithMetrics(sink MetricsSink) *Pool {
	p.metrics = sink
	return p
}

// Start launches the workers
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work(i)
	}

	p.log.Info("Worker pool started",
		zap.Int("workers", p.size),
		zap.Int("queue_size", cap(p.tasks)))
}

func (p *Pool) work(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		p.run(id, task)
		if p.metrics != nil {
			p.metrics.QueueDepthUpdate(len(p.tasks))
		}
	}
}

func (p *Pool) run(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Worker task panicked",
				zap.Int("worker", id),
				zap.Any("panic", r))
		}
	}()
	task(context.Background())
}

// TrySubmit enqueues task without blocking
func (p *Pool) TrySubmit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		if p.metrics != nil {
			p.metrics.QueueDepthUpdate(len(p.tasks))
		}
		return nil
	default:
		if p.metrics != nil {
			p.metrics.TaskRejected()
		}
		return ErrCapacityExceeded
	}
}

// Depth returns the number of queued tasks not yet picked up
func (p *Pool) Depth() int {
	return len(p.tasks)
}

// Shutdown stops intake and waits for queued and running tasks to finish, or
// for ctx to end
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("Worker pool drained")
		return nil
	case <-ctx.Done():
		remaining := len(p.tasks)
		p.log.Warn("Worker pool drain timed out", zap.Int("remaining", remaining))
		return fmt.Errorf("drain timed out with %d queued tasks: %w", remaining, ctx.Err())
	}
}

package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// MockAuditRepository is a mock implementation of repository.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) InsertBatch(ctx context.Context, records []*domain.ExecutionRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockAuditRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuditRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuditRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockAuditRepository) GetDeliveryReport(ctx context.Context, query repository.DeliveryQuery) (*repository.DeliveryReport, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.DeliveryReport), args.Error(1)
}

type countingSink struct {
	dropped int
	flushed int
	errs    int
}

func (s *countingSink) AuditDropped() { s.dropped++ }
func (s *countingSink) AuditFlushed(count int, err error) {
	s.flushed += count
	if err != nil {
		s.errs++
	}
}

func testRecord(eventID string) domain.ExecutionRecord {
	return domain.ExecutionRecord{
		ExecutionID: domain.ExecutionIDFor(eventID),
		EventID:     eventID,
		Status:      domain.ExecutionStatusSuccess,
	}
}

func batchOf(n int) interface{} {
	return mock.MatchedBy(func(records []*domain.ExecutionRecord) bool {
		return len(records) == n
	})
}

func TestWriter_BatchSizeThreshold(t *testing.T) {
	written := make(chan struct{}, 1)
	mockRepo := new(MockAuditRepository)
	mockRepo.On("InsertBatch", mock.Anything, batchOf(3)).Return(3, nil).Run(func(mock.Arguments) {
		written <- struct{}{}
	})

	w := NewWriter(mockRepo, WriterConfig{BufferSize: 10, MaxBatchSize: 3, FlushTimeout: 10 * time.Second}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	for i := 0; i < 3; i++ {
		assert.True(t, w.Enqueue(testRecord(fmt.Sprint(i))))
	}

	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("batch was not written")
	}
	mockRepo.AssertExpectations(t)
}

func TestWriter_TimeoutFlush(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("InsertBatch", mock.Anything, batchOf(2)).Return(2, nil)

	w := NewWriter(mockRepo, WriterConfig{BufferSize: 10, MaxBatchSize: 10, FlushTimeout: 50 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	w.Enqueue(testRecord("1"))
	w.Enqueue(testRecord("2"))

	time.Sleep(150 * time.Millisecond)
	mockRepo.AssertExpectations(t)
}

func TestWriter_CloseFlushesBufferedRecords(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("InsertBatch", mock.Anything, batchOf(2)).Return(2, nil)

	sink := &countingSink{}
	w := NewWriter(mockRepo, WriterConfig{BufferSize: 10, MaxBatchSize: 10, FlushTimeout: time.Hour}, zap.NewNop()).WithMetrics(sink)

	w.Enqueue(testRecord("1"))
	w.Enqueue(testRecord("2"))

	go w.Start(context.Background())
	w.Close()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("writer did not stop after Close")
	}

	mockRepo.AssertExpectations(t)
	assert.Equal(t, 2, sink.flushed)
	assert.False(t, w.Enqueue(testRecord("3")), "closed writer rejects records")
}

func TestWriter_CancelFlushesOnFreshContext(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("InsertBatch", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), batchOf(1)).Return(1, nil)

	w := NewWriter(mockRepo, WriterConfig{BufferSize: 10, MaxBatchSize: 10, FlushTimeout: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)

	w.Enqueue(testRecord("1"))
	time.Sleep(20 * time.Millisecond)
	cancel()

	<-w.Done()
	mockRepo.AssertExpectations(t)
}

func TestWriter_FullBufferDrops(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	sink := &countingSink{}
	w := NewWriter(mockRepo, WriterConfig{BufferSize: 1, MaxBatchSize: 10, FlushTimeout: time.Hour}, zap.NewNop()).WithMetrics(sink)

	assert.True(t, w.Enqueue(testRecord("1")))
	assert.False(t, w.Enqueue(testRecord("2")))
	assert.Equal(t, 1, sink.dropped)
}

func TestWriter_InsertFailureIsCounted(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	mockRepo.On("InsertBatch", mock.Anything, batchOf(1)).Return(0, errors.New("clickhouse down"))

	sink := &countingSink{}
	w := NewWriter(mockRepo, WriterConfig{BufferSize: 10, MaxBatchSize: 1, FlushTimeout: time.Hour}, zap.NewNop()).WithMetrics(sink)

	w.Enqueue(testRecord("1"))
	go w.Start(context.Background())
	w.Close()
	<-w.Done()

	assert.Equal(t, 1, sink.errs)
	mockRepo.AssertExpectations(t)
}

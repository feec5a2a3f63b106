package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// newIntegrationStore connects to POSTGRES_URL and skips the test when it is unset
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL not set, skipping postgres integration test")
	}

	ctx := context.Background()
	s, err := NewStore(ctx, url, 8, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.InitSchema(ctx))
	return s
}

// uniqueEventID keeps runs against a shared database independent
func uniqueEventID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func record(eventID, content string) domain.ExecutionRecord {
	return domain.ExecutionRecord{
		ExecutionID:         domain.ExecutionIDFor(eventID),
		EventID:             eventID,
		CustomerID:          "C1",
		EventType:           "cart_abandoned",
		Status:              domain.ExecutionStatusFailed,
		ActionTaken:         "Recovery-v1",
		TargetChannel:       domain.ChannelPush,
		PersonalizedContent: content,
		Personalized:        false,
		Outcome:             domain.OutcomeTransientFailure,
		OutcomeDetail:       "timeout",
		CreatedAt:           time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC),
	}
}

func TestNewStore_InvalidConnString(t *testing.T) {
	_, err := NewStore(context.Background(), "postgres://%zz", 4, zap.NewNop())
	assert.ErrorContains(t, err, "failed to parse postgres config")
}

func TestStore_InsertIfAbsent(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	eventID := uniqueEventID("E1")
	first := record(eventID, "first")

	stored, created, err := s.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first.ExecutionID, stored.ExecutionID)

	stored, created, err = s.InsertIfAbsent(ctx, record(eventID, "second"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "first", stored.PersonalizedContent)
	assert.Equal(t, first.ExecutionID, stored.ExecutionID)
	assert.Equal(t, first.Status, stored.Status)
	assert.Equal(t, first.TargetChannel, stored.TargetChannel)
	assert.Equal(t, first.Outcome, stored.Outcome)
	assert.Equal(t, "timeout", stored.OutcomeDetail)
	assert.True(t, first.CreatedAt.Equal(stored.CreatedAt))
}

func TestStore_Get(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, uniqueEventID("missing"))
	assert.ErrorIs(t, err, repository.ErrRecordNotFound)
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_ConcurrentInsertsCreateOnce(t *testing.T) {
	s := newIntegrationStore(t)
	eventID := uniqueEventID("E3")
	var createdCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, created, err := s.InsertIfAbsent(context.Background(), record(eventID, fmt.Sprintf("attempt-%d", i)))
			assert.NoError(t, err)
			assert.Equal(t, domain.ExecutionIDFor(eventID), stored.ExecutionID)
			if created {
				createdCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), createdCount.Load())
}

var _ repository.RecordStore = (*Store)(nil)

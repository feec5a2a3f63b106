package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

const keyPrefix = "exec:"

// Store keeps execution records as JSON strings at exec:<event_id>.
// SET NX makes the insert-if-absent a single server-side step.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewStore wraps client. ttl bounds how long a record (and so its idempotency
// guarantee) is kept; zero keeps records forever.
func NewStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *Store {
	return &Store{client: client, ttl: ttl, log: log}
}

func buildKey(eventID string) string {
	return keyPrefix + eventID
}

func (s *Store) InsertIfAbsent(ctx context.Context, rec domain.ExecutionRecord) (domain.ExecutionRecord, bool, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return domain.ExecutionRecord{}, false, fmt.Errorf("marshal record: %w", err)
	}

	created, err := s.client.SetNX(ctx, buildKey(rec.EventID), body, s.ttl).Result()
	if err != nil {
		return domain.ExecutionRecord{}, false, fmt.Errorf("redis setnx: %w", err)
	}
	if created {
		return rec, true, nil
	}

	existing, err := s.Get(ctx, rec.EventID)
	if err != nil {
		return domain.ExecutionRecord{}, false, fmt.Errorf("load existing record: %w", err)
	}

	s.log.Debug("Execution record already present",
		zap.String("event_id", rec.EventID),
		zap.String("execution_id", existing.ExecutionID.String()))

	return existing, false, nil
}

func (s *Store) Get(ctx context.Context, eventID string) (domain.ExecutionRecord, error) {
	body, err := s.client.Get(ctx, buildKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ExecutionRecord{}, repository.ErrRecordNotFound
	}
	if err != nil {
		return domain.ExecutionRecord{}, fmt.Errorf("redis get: %w", err)
	}

	var rec domain.ExecutionRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return domain.ExecutionRecord{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

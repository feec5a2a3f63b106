package memory

import (
	"context"
	"sync"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// Store keeps execution records in process memory. Records do not survive a
// restart; use it for development and single-instance deployments.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.ExecutionRecord
}

func NewStore() *Store {
	return &Store{records: make(map[string]domain.ExecutionRecord)}
}

func (s *Store) InsertIfAbsent(_ context.Context, rec domain.ExecutionRecord) (domain.ExecutionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.EventID]; ok {
		return existing, false, nil
	}
	s.records[rec.EventID] = rec
	return rec, true, nil
}

func (s *Store) Get(_ context.Context, eventID string) (domain.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[eventID]
	if !ok {
		return domain.ExecutionRecord{}, repository.ErrRecordNotFound
	}
	return rec, nil
}

// Len returns the number of stored records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

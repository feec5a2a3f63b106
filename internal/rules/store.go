package rules

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// Store holds the current rule table. A decisioning run takes one snapshot
// via Current and uses it throughout; Reload swaps the whole table.
type Store struct {
	current atomic.Pointer[Table]
	path    string
	log     *zap.Logger
}

// NewStore creates a store serving initial. A non-empty path is the rule file
// that Reload reads.
func NewStore(initial *Table, path string, log *zap.Logger) *Store {
	s := &Store{path: path, log: log}
	s.current.Store(initial)
	return s
}

// Current returns the active snapshot
func (s *Store) Current() *Table {
	return s.current.Load()
}

// Swap installs t as the active snapshot
func (s *Store) Swap(t *Table) {
	old := s.current.Swap(t)
	s.log.Info("Rule table swapped",
		zap.String("old_version", old.Version()),
		zap.String("new_version", t.Version()),
		zap.Int("rules", t.Len()))
}

// Reload re-reads the rule file and swaps it in. On any error the active
// table is left untouched.
func (s *Store) Reload() (*Table, error) {
	if s.path == "" {
		return nil, fmt.Errorf("no rule file configured")
	}

	t, err := LoadFile(s.path)
	if err != nil {
		s.log.Error("Rule table reload failed", zap.String("path", s.path), zap.Error(err))
		return nil, err
	}

	s.Swap(t)
	return t, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// Store keeps execution records in Postgres. The primary key on event_id is
// the idempotency index; ON CONFLICT DO NOTHING makes the insert atomic.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewStore opens a connection pool and verifies it
func NewStore(ctx context.Context, connString string, maxConns int32, log *zap.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Info("Postgres connection established", zap.Int32("max_conns", cfg.MaxConns))
	return &Store{pool: pool, log: log}, nil
}

// InitSchema creates the execution_records table if it does not exist
func (s *Store) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS execution_records (
		event_id             TEXT PRIMARY KEY,
		execution_id         UUID NOT NULL,
		customer_id          TEXT NOT NULL,
		event_type           TEXT NOT NULL,
		status               TEXT NOT NULL,
		action_taken         TEXT NOT NULL,
		target_channel       TEXT NOT NULL,
		personalized_content TEXT NOT NULL DEFAULT '',
		personalized         BOOLEAN NOT NULL DEFAULT FALSE,
		outcome              TEXT NOT NULL,
		outcome_detail       TEXT NOT NULL DEFAULT '',
		created_at           TIMESTAMPTZ NOT NULL
	)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create execution_records table: %w", err)
	}

	s.log.Info("Postgres schema initialized successfully")
	return nil
}

func (s *Store) InsertIfAbsent(ctx context.Context, rec domain.ExecutionRecord) (domain.ExecutionRecord, bool, error) {
	query := `
		INSERT INTO execution_records (
			event_id, execution_id, customer_id, event_type, status, action_taken,
			target_channel, personalized_content, personalized, outcome, outcome_detail, created_at
		) VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		rec.EventID,
		rec.ExecutionID.String(),
		rec.CustomerID,
		rec.EventType,
		string(rec.Status),
		rec.ActionTaken,
		string(rec.TargetChannel),
		rec.PersonalizedContent,
		rec.Personalized,
		string(rec.Outcome),
		rec.OutcomeDetail,
		rec.CreatedAt,
	)
	if err != nil {
		return domain.ExecutionRecord{}, false, fmt.Errorf("failed to insert execution record: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return rec, true, nil
	}

	existing, err := s.Get(ctx, rec.EventID)
	if err != nil {
		return domain.ExecutionRecord{}, false, fmt.Errorf("load existing record: %w", err)
	}
	return existing, false, nil
}

func (s *Store) Get(ctx context.Context, eventID string) (domain.ExecutionRecord, error) {
	query := `
		SELECT event_id, execution_id::text, customer_id, event_type, status, action_taken,
		       target_channel, personalized_content, personalized, outcome, outcome_detail, created_at
		FROM execution_records
		WHERE event_id = $1
	`

	var (
		rec                             domain.ExecutionRecord
		executionID, status, channel, o string
	)
	err := s.pool.QueryRow(ctx, query, eventID).Scan(
		&rec.EventID,
		&executionID,
		&rec.CustomerID,
		&rec.EventType,
		&status,
		&rec.ActionTaken,
		&channel,
		&rec.PersonalizedContent,
		&rec.Personalized,
		&o,
		&rec.OutcomeDetail,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ExecutionRecord{}, repository.ErrRecordNotFound
	}
	if err != nil {
		return domain.ExecutionRecord{}, fmt.Errorf("failed to query execution record: %w", err)
	}

	id, err := uuid.Parse(executionID)
	if err != nil {
		return domain.ExecutionRecord{}, fmt.Errorf("invalid execution id %q: %w", executionID, err)
	}

	rec.ExecutionID = id
	rec.Status = domain.ExecutionStatus(status)
	rec.TargetChannel = domain.Channel(channel)
	rec.Outcome = domain.OutcomeClass(o)
	return rec, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

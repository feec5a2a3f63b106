package repository

import (
	"context"
	"errors"
	"time"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// ErrRecordNotFound is returned when no execution record exists for an event id
var ErrRecordNotFound = errors.New("execution record not found")

// RecordStore is the idempotency index of execution records, keyed by event id
type RecordStore interface {
	// InsertIfAbsent stores rec unless a record for rec.EventID already exists.
	// The check and the insert are one atomic step. It returns the record that
	// is stored after the call and whether this call created it.
	InsertIfAbsent(ctx context.Context, rec domain.ExecutionRecord) (domain.ExecutionRecord, bool, error)

	// Get returns the record for eventID or ErrRecordNotFound
	Get(ctx context.Context, eventID string) (domain.ExecutionRecord, error)

	// Ping checks if the backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend connection
	Close() error
}

// DeliveryQuery represents a delivery report query
type DeliveryQuery struct {
	From    time.Time
	To      time.Time
	GroupBy string
}

// DeliveryGroupResult represents aggregated deliveries for a specific group
type DeliveryGroupResult struct {
	GroupValue   string
	TotalCount   uint64
	SuccessCount uint64
}

// DeliveryReport represents the result of a delivery report query
type DeliveryReport struct {
	TotalCount      uint64
	SuccessCount    uint64
	UniqueCustomers uint64
	Groups          []DeliveryGroupResult
}

// AuditRepository defines the interface for the execution audit trail
type AuditRepository interface {
	// InsertBatch inserts a batch of execution records into the audit store
	InsertBatch(ctx context.Context, records []*domain.ExecutionRecord) (int, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error

	// GetDeliveryReport aggregates stored executions over a time range
	GetDeliveryReport(ctx context.Context, query DeliveryQuery) (*DeliveryReport, error)
}

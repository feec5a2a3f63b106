package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// groupByColumns maps report groupings to ClickHouse expressions
var groupByColumns = map[string]struct {
	selectField string
	groupBy     string
	orderBy     string
}{
	"campaign": {"campaign", "GROUP BY campaign", "ORDER BY total_count DESC"},
	"channel":  {"channel", "GROUP BY channel", "ORDER BY total_count DESC"},
	"outcome":  {"outcome", "GROUP BY outcome", "ORDER BY total_count DESC"},
	"hour": {
		"formatDateTime(toStartOfHour(created_at), '%Y-%m-%d %H:00:00')",
		"GROUP BY toStartOfHour(created_at)",
		"ORDER BY group_value ASC",
	},
	"day": {
		"formatDateTime(toStartOfDay(created_at), '%Y-%m-%d')",
		"GROUP BY toStartOfDay(created_at)",
		"ORDER BY group_value ASC",
	},
}

// ValidGroupBy reports whether the delivery report supports groupBy
func ValidGroupBy(groupBy string) bool {
	_, ok := groupByColumns[groupBy]
	return ok
}

// Repository implements AuditRepository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse audit repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the executions table. ReplacingMergeTree collapses a
// record written twice by concurrent writers into one row.
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS executions (
		execution_id UUID,
		event_id String,
		customer_id String,
		event_type LowCardinality(String),
		campaign LowCardinality(String),
		channel LowCardinality(String),
		status LowCardinality(String),
		outcome LowCardinality(String),
		outcome_detail String,
		personalized Bool,
		content String,
		created_at DateTime64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PRIMARY KEY (event_id)
	ORDER BY (event_id)
	PARTITION BY toYYYYMM(created_at)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create executions table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertBatch inserts a batch of execution records into ClickHouse
func (r *Repository) InsertBatch(ctx context.Context, records []*domain.ExecutionRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO executions")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	version := uint64(time.Now().UnixNano())
	insertedCount := 0
	for _, rec := range records {
		err := batch.Append(
			rec.ExecutionID,
			rec.EventID,
			rec.CustomerID,
			rec.EventType,
			rec.ActionTaken,
			string(rec.TargetChannel),
			string(rec.Status),
			string(rec.Outcome),
			rec.OutcomeDetail,
			rec.Personalized,
			rec.PersonalizedContent,
			rec.CreatedAt,
			version,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to append record to batch: %w", err)
		}
		insertedCount++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// GetDeliveryReport aggregates executions between query.From and query.To
func (r *Repository) GetDeliveryReport(ctx context.Context, query repository.DeliveryQuery) (*repository.DeliveryReport, error) {
	result := &repository.DeliveryReport{
		Groups: []repository.DeliveryGroupResult{},
	}

	whereClause := "WHERE created_at >= ? AND created_at <= ?"
	args := []interface{}{query.From, query.To}

	overallQuery := fmt.Sprintf(`
		SELECT
			count() as total_count,
			countIf(status = 'success') as success_count,
			uniq(customer_id) as unique_customers
		FROM executions FINAL
		%s
	`, whereClause)

	row := r.client.Conn().QueryRow(ctx, overallQuery, args...)
	if err := row.Scan(&result.TotalCount, &result.SuccessCount, &result.UniqueCustomers); err != nil {
		return nil, fmt.Errorf("failed to query delivery totals: %w", err)
	}

	if query.GroupBy == "" {
		return result, nil
	}

	cols, ok := groupByColumns[query.GroupBy]
	if !ok {
		return nil, fmt.Errorf("unsupported group_by value: %s", query.GroupBy)
	}

	groupedQuery := fmt.Sprintf(`
		SELECT
			%s as group_value,
			count() as total_count,
			countIf(status = 'success') as success_count
		FROM executions FINAL
		%s
		%s
		%s
	`, cols.selectField, whereClause, cols.groupBy, cols.orderBy)

	rows, err := r.client.Conn().Query(ctx, groupedQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped deliveries: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close grouped delivery rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var group repository.DeliveryGroupResult
		if err := rows.Scan(&group.GroupValue, &group.TotalCount, &group.SuccessCount); err != nil {
			return nil, fmt.Errorf("failed to scan grouped delivery row: %w", err)
		}
		result.Groups = append(result.Groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grouped delivery rows: %w", err)
	}

	return result, nil
}

package clickhouse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paridu/ai-outreach-optimizer/internal/config"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

func TestValidGroupBy(t *testing.T) {
	for _, g := range []string{"campaign", "channel", "outcome", "hour", "day"} {
		assert.True(t, ValidGroupBy(g), g)
	}
	assert.False(t, ValidGroupBy("status; DROP TABLE executions"))
	assert.False(t, ValidGroupBy(""))
}

func TestOptions(t *testing.T) {
	opts := Options(&config.ClickHouse{
		Host:            "ch.internal",
		Port:            "9440",
		Database:        "audit",
		User:            "writer",
		UseTLS:          true,
		MaxOpenConns:    7,
		ConnMaxLifetime: 60,
	})

	assert.Equal(t, []string{"ch.internal:9440"}, opts.Addr)
	assert.Equal(t, "audit", opts.Auth.Database)
	assert.NotNil(t, opts.TLS)
	assert.Equal(t, 7, opts.MaxOpenConns)

	plain := Options(&config.ClickHouse{Host: "localhost", Port: "9000"})
	assert.Nil(t, plain.TLS)
}

var _ repository.AuditRepository = (*Repository)(nil)

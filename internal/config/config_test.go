package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Service.Environment)
	assert.Equal(t, "8080", cfg.Service.APIPort)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, ScorerNone, cfg.Personalization.Scorer)
	assert.Equal(t, 150*time.Millisecond, cfg.Personalization.ScorerTimeout)
	assert.Equal(t, 16, cfg.Worker.PoolSize)
	assert.Equal(t, 256, cfg.Worker.QueueSize)
	assert.Equal(t, []string{"push"}, cfg.Dispatch.AMQPChannels)
	assert.Zero(t, cfg.Redis.RecordTTL, "records must outlive every possible resubmission by default")
}

func TestLoad_ZeroAuditBatchTimeoutRejected(t *testing.T) {
	t.Setenv("AUDIT_BATCH_TIMEOUT_SEC", "0")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "AUDIT_BATCH_TIMEOUT_SEC")
}

func TestLoad_NestedOverrides(t *testing.T) {
	t.Setenv("SERVICE_ENVIRONMENT", "production")
	t.Setenv("WORKER_POOL_SIZE", "4")
	t.Setenv("DISPATCH_TIMEOUT", "750ms")
	t.Setenv("DISPATCH_SMS_URL", "http://sms.local/send")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Service.Environment)
	assert.Equal(t, 4, cfg.Worker.PoolSize)
	assert.Equal(t, 750*time.Millisecond, cfg.Dispatch.Timeout)
	assert.Equal(t, "http://sms.local/send", cfg.Dispatch.SMSURL)
}

func TestLoad_InvalidStoreBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "cassandra")

	cfg, err := Load()
	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "STORE_BACKEND")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Store:           Store{Backend: StoreMemory},
			Personalization: Personalization{Scorer: ScorerNone, ScorerTimeout: time.Second},
			Dispatch:        Dispatch{Timeout: time.Second, CircuitBreakerThreshold: 5, CircuitBreakerCooldown: time.Second},
			Worker:          Worker{PoolSize: 1, QueueSize: 1},
			Audit:           Audit{BufferSize: 10, BatchSizeMax: 5, BatchTimeoutSec: 1},
			Consumer:        Consumer{Concurrency: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"postgres without url", func(c *Config) { c.Store.Backend = StorePostgres }, "POSTGRES_URL"},
		{"http scorer without url", func(c *Config) { c.Personalization.Scorer = ScorerHTTP }, "PERSONALIZATION_SCORER_URL"},
		{"unknown scorer", func(c *Config) { c.Personalization.Scorer = "lightfm" }, "PERSONALIZATION_SCORER"},
		{"zero scorer timeout", func(c *Config) { c.Personalization.ScorerTimeout = 0 }, "PERSONALIZATION_SCORER_TIMEOUT"},
		{"zero dispatch timeout", func(c *Config) { c.Dispatch.Timeout = 0 }, "DISPATCH_TIMEOUT"},
		{"zero queue", func(c *Config) { c.Worker.QueueSize = 0 }, "WORKER_QUEUE_SIZE"},
		{"zero breaker threshold", func(c *Config) { c.Dispatch.CircuitBreakerThreshold = 0 }, "DISPATCH_CIRCUIT_BREAKER_THRESHOLD"},
		{"zero breaker cooldown", func(c *Config) { c.Dispatch.CircuitBreakerCooldown = 0 }, "DISPATCH_CIRCUIT_BREAKER_COOLDOWN"},
		{"zero audit buffer", func(c *Config) { c.Audit.BufferSize = 0 }, "AUDIT_BUFFER_SIZE"},
		{"zero audit batch size", func(c *Config) { c.Audit.BatchSizeMax = 0 }, "AUDIT_BATCH_SIZE_MAX"},
		{"zero audit batch timeout", func(c *Config) { c.Audit.BatchTimeoutSec = 0 }, "AUDIT_BATCH_TIMEOUT_SEC"},
		{"zero consumer concurrency", func(c *Config) { c.Consumer.Concurrency = 0 }, "CONSUMER_CONCURRENCY"},
		{"negative record ttl", func(c *Config) { c.Redis.RecordTTL = -time.Second }, "REDIS_RECORD_TTL"},
		{"finite record ttl allowed", func(c *Config) { c.Redis.RecordTTL = time.Hour }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

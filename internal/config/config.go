package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Record store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Recommendation scorer backends
const (
	ScorerNone  = "none"
	ScorerHTTP  = "http"
	ScorerRedis = "redis"
)

type Config struct {
	Service         Service
	Rules           Rules
	Personalization Personalization
	Dispatch        Dispatch
	Worker          Worker
	Store           Store
	Redis           Redis
	Postgres        Postgres
	ClickHouse      ClickHouse
	Audit           Audit
	SQS             SQS
	Consumer        Consumer
	Metrics         Metrics
}

type Service struct {
	Environment     string        `env:"SERVICE_ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"SERVICE_LOG_LEVEL" envDefault:"info"`
	APIPort         string        `env:"SERVICE_API_PORT" envDefault:"8080"`
	Host            string        `env:"SERVICE_HOST" envDefault:"localhost:8080"`
	ShutdownTimeout time.Duration `env:"SERVICE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Rules struct {
	// File is an optional TOML rule table; empty keeps the built-in table.
	File string `env:"RULES_FILE"`
}

type Personalization struct {
	Scorer        string        `env:"PERSONALIZATION_SCORER" envDefault:"none"`
	ScorerURL     string        `env:"PERSONALIZATION_SCORER_URL"`
	ScorerTimeout time.Duration `env:"PERSONALIZATION_SCORER_TIMEOUT" envDefault:"150ms"`
	Limit         int           `env:"PERSONALIZATION_RECOMMENDATION_LIMIT" envDefault:"5"`
}

type Dispatch struct {
	Timeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"2s"`
	// Webhook endpoints per channel; a channel without endpoint or AMQP route
	// falls back to the logging transport.
	PushURL  string `env:"DISPATCH_PUSH_URL"`
	SMSURL   string `env:"DISPATCH_SMS_URL"`
	EmailURL string `env:"DISPATCH_EMAIL_URL"`
	Secret   string `env:"DISPATCH_WEBHOOK_SECRET"`
	// AMQPURL routes AMQPChannels through RabbitMQ instead of webhooks.
	AMQPURL                 string        `env:"DISPATCH_AMQP_URL"`
	AMQPExchange            string        `env:"DISPATCH_AMQP_EXCHANGE" envDefault:"marketing.actions"`
	AMQPChannels            []string      `env:"DISPATCH_AMQP_CHANNELS" envDefault:"push"`
	CircuitBreakerThreshold int           `env:"DISPATCH_CIRCUIT_BREAKER_THRESHOLD" envDefault:"5"`
	CircuitBreakerCooldown  time.Duration `env:"DISPATCH_CIRCUIT_BREAKER_COOLDOWN" envDefault:"30s"`
}

type Worker struct {
	PoolSize     int           `env:"WORKER_POOL_SIZE" envDefault:"16"`
	QueueSize    int           `env:"WORKER_QUEUE_SIZE" envDefault:"256"`
	DrainTimeout time.Duration `env:"WORKER_DRAIN_TIMEOUT" envDefault:"30s"`
}

type Store struct {
	Backend string `env:"STORE_BACKEND" envDefault:"memory"`
}

type Redis struct {
	Addr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB" envDefault:"0"`
	// RecordTTL expires records and their idempotency keys; zero keeps them
	// forever. A non-zero value lets an event id run again once it expires.
	RecordTTL time.Duration `env:"REDIS_RECORD_TTL" envDefault:"0s"`
}

type Postgres struct {
	URL      string `env:"POSTGRES_URL"`
	PoolSize int32  `env:"POSTGRES_POOL_SIZE" envDefault:"10"`
}

type ClickHouse struct {
	Enabled         bool   `env:"CLICKHOUSE_ENABLED" envDefault:"false"`
	Host            string `env:"CLICKHOUSE_HOST" envDefault:"localhost"`
	Port            string `env:"CLICKHOUSE_PORT" envDefault:"9000"`
	Database        string `env:"CLICKHOUSE_DB" envDefault:"default"`
	User            string `env:"CLICKHOUSE_USER" envDefault:""`
	Password        string `env:"CLICKHOUSE_PASSWORD" envDefault:""`
	UseTLS          bool   `env:"CLICKHOUSE_USE_TLS" envDefault:"false"`
	MaxOpenConns    int    `env:"CLICKHOUSE_MAX_OPEN_CONNS" envDefault:"5"`
	MaxIdleConns    int    `env:"CLICKHOUSE_MAX_IDLE_CONNS" envDefault:"2"`
	ConnMaxLifetime int    `env:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" envDefault:"3600"`
}

type Audit struct {
	BufferSize      int `env:"AUDIT_BUFFER_SIZE" envDefault:"1000"`
	BatchSizeMax    int `env:"AUDIT_BATCH_SIZE_MAX" envDefault:"500"`
	BatchTimeoutSec int `env:"AUDIT_BATCH_TIMEOUT_SEC" envDefault:"5"`
}

type SQS struct {
	Endpoint string `env:"SQS_ENDPOINT"`
	QueueURL string `env:"SQS_QUEUE_URL"`
	Region   string `env:"SQS_REGION" envDefault:"eu-central-1"`
}

type Consumer struct {
	Concurrency     int    `env:"CONSUMER_CONCURRENCY" envDefault:"4"`
	HealthCheckPort string `env:"CONSUMER_HEALTH_CHECK_PORT" envDefault:"8081"`
}

type Metrics struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"METRICS_PATH" envDefault:"/metrics"`
}

// Load reads configuration from the environment, after loading an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints the env tags cannot express
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("POSTGRES_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of memory, redis, postgres, got %q", c.Store.Backend)
	}

	switch c.Personalization.Scorer {
	case ScorerNone, ScorerRedis:
	case ScorerHTTP:
		if c.Personalization.ScorerURL == "" {
			return fmt.Errorf("PERSONALIZATION_SCORER_URL is required when PERSONALIZATION_SCORER=http")
		}
	default:
		return fmt.Errorf("PERSONALIZATION_SCORER must be one of none, http, redis, got %q", c.Personalization.Scorer)
	}

	if c.Personalization.ScorerTimeout <= 0 {
		return fmt.Errorf("PERSONALIZATION_SCORER_TIMEOUT must be positive")
	}
	if c.Dispatch.Timeout <= 0 {
		return fmt.Errorf("DISPATCH_TIMEOUT must be positive")
	}
	if c.Worker.PoolSize <= 0 || c.Worker.QueueSize <= 0 {
		return fmt.Errorf("WORKER_POOL_SIZE and WORKER_QUEUE_SIZE must be positive")
	}
	if c.Dispatch.CircuitBreakerThreshold <= 0 || c.Dispatch.CircuitBreakerCooldown <= 0 {
		return fmt.Errorf("DISPATCH_CIRCUIT_BREAKER_THRESHOLD and DISPATCH_CIRCUIT_BREAKER_COOLDOWN must be positive")
	}
	if c.Audit.BufferSize <= 0 || c.Audit.BatchSizeMax <= 0 || c.Audit.BatchTimeoutSec <= 0 {
		return fmt.Errorf("AUDIT_BUFFER_SIZE, AUDIT_BATCH_SIZE_MAX and AUDIT_BATCH_TIMEOUT_SEC must be positive")
	}
	if c.Consumer.Concurrency <= 0 {
		return fmt.Errorf("CONSUMER_CONCURRENCY must be positive")
	}
	if c.Redis.RecordTTL < 0 {
		return fmt.Errorf("REDIS_RECORD_TTL must not be negative")
	}

	return nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/audit"
	"github.com/paridu/ai-outreach-optimizer/internal/circuitbreaker"
	"github.com/paridu/ai-outreach-optimizer/internal/config"
	"github.com/paridu/ai-outreach-optimizer/internal/dispatch"
	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/metrics"
	"github.com/paridu/ai-outreach-optimizer/internal/personalization"
	"github.com/paridu/ai-outreach-optimizer/internal/recommendation"
	"github.com/paridu/ai-outreach-optimizer/internal/recorder"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
	"github.com/paridu/ai-outreach-optimizer/internal/repository/clickhouse"
	"github.com/paridu/ai-outreach-optimizer/internal/repository/memory"
	"github.com/paridu/ai-outreach-optimizer/internal/repository/postgres"
	redisstore "github.com/paridu/ai-outreach-optimizer/internal/repository/redis"
	"github.com/paridu/ai-outreach-optimizer/internal/rules"
	"github.com/paridu/ai-outreach-optimizer/internal/service"
	"github.com/paridu/ai-outreach-optimizer/internal/worker"
)

// Engine holds the wired decisioning engine shared by the API and consumer
// processes
type Engine struct {
	Triggers *service.TriggerService
	Reports  *service.ReportService

	// MetricsHandler serves the Prometheus registry; nil when metrics are off
	MetricsHandler http.Handler

	pool        *worker.Pool
	store       repository.RecordStore
	auditWriter *audit.Writer
	auditCancel context.CancelFunc
	closers     []namedCloser
	log         *zap.Logger
}

type namedCloser struct {
	name  string
	close func() error
}

// Build connects every backend named in cfg and assembles the engine. On
// error, whatever was already opened is closed.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (engine *Engine, err error) {
	e := &Engine{log: log}
	defer func() {
		if err != nil {
			e.closeAll()
		}
	}()

	sink := e.buildMetrics(cfg)

	var redisClient *redis.Client
	if cfg.Store.Backend == config.StoreRedis || cfg.Personalization.Scorer == config.ScorerRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		e.addCloser("redis", redisClient.Close)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	store, err := e.buildStore(ctx, cfg, redisClient)
	if err != nil {
		return nil, err
	}
	e.store = store

	ruleStore, err := buildRules(cfg, log)
	if err != nil {
		return nil, err
	}

	resolver := personalization.NewResolver(buildScorer(cfg, redisClient, log), cfg.Personalization.ScorerTimeout, log).
		WithMetrics(sink)

	dispatcher, err := e.buildDispatcher(cfg, sink)
	if err != nil {
		return nil, err
	}
	channels := make([]string, 0, 3)
	for _, ch := range dispatcher.Channels() {
		channels = append(channels, string(ch))
	}

	rec := recorder.New(store, log)

	var auditRepo repository.AuditRepository
	if cfg.ClickHouse.Enabled {
		chRepo, err := e.buildAudit(ctx, cfg, sink)
		if err != nil {
			return nil, err
		}
		auditRepo = chRepo
		rec = rec.WithAudit(e.auditWriter)
	}

	e.pool = worker.NewPool(cfg.Worker.PoolSize, cfg.Worker.QueueSize, log).WithMetrics(sink)
	e.pool.Start()

	e.Triggers = service.NewTriggerService(ruleStore, resolver, dispatcher, rec, e.pool, log).
		WithMetrics(sink)
	e.Reports = service.NewReportService(auditRepo, log)

	log.Info("Decisioning engine ready",
		zap.String("store", cfg.Store.Backend),
		zap.String("scorer", cfg.Personalization.Scorer),
		zap.Strings("channels", channels),
		zap.String("rules_version", ruleStore.Current().Version()),
		zap.Bool("audit", cfg.ClickHouse.Enabled),
		zap.Bool("metrics", cfg.Metrics.Enabled))

	return e, nil
}

func (e *Engine) buildMetrics(cfg *config.Config) metrics.Sink {
	if !cfg.Metrics.Enabled {
		return metrics.NewNoopSink()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	e.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return metrics.NewPrometheusSink(reg, e.log)
}

func (e *Engine) buildStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repository.RecordStore, error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		if cfg.Redis.RecordTTL > 0 {
			e.log.Warn("Redis execution records expire, event ids may run again after the TTL",
				zap.Duration("record_ttl", cfg.Redis.RecordTTL))
		}
		return redisstore.NewStore(redisClient, cfg.Redis.RecordTTL, e.log), nil
	case config.StorePostgres:
		pg, err := postgres.NewStore(ctx, cfg.Postgres.URL, cfg.Postgres.PoolSize, e.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		e.addCloser("postgres", pg.Close)
		if err := pg.InitSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize postgres schema: %w", err)
		}
		e.log.Info("Postgres schema initialized")
		return pg, nil
	default:
		return memory.NewStore(), nil
	}
}

func buildRules(cfg *config.Config, log *zap.Logger) (*rules.Store, error) {
	initial := rules.Builtin()
	if cfg.Rules.File != "" {
		t, err := rules.LoadFile(cfg.Rules.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load rule file: %w", err)
		}
		initial = t
		log.Info("Rule table loaded",
			zap.String("path", cfg.Rules.File),
			zap.String("version", t.Version()),
			zap.Int("rules", t.Len()))
	}
	return rules.NewStore(initial, cfg.Rules.File, log), nil
}

// buildScorer returns nil when recommendations are off
func buildScorer(cfg *config.Config, redisClient *redis.Client, log *zap.Logger) recommendation.Scorer {
	switch cfg.Personalization.Scorer {
	case config.ScorerHTTP:
		return recommendation.NewHTTPScorer(cfg.Personalization.ScorerURL, cfg.Personalization.Limit, log)
	case config.ScorerRedis:
		return recommendation.NewRedisScorer(redisClient, cfg.Personalization.Limit)
	default:
		return nil
	}
}

func (e *Engine) buildDispatcher(cfg *config.Config, sink metrics.Sink) (*dispatch.Dispatcher, error) {
	d := dispatch.New(cfg.Dispatch.Timeout, e.log).
		WithCircuitBreaker(circuitbreaker.New(cfg.Dispatch.CircuitBreakerThreshold, cfg.Dispatch.CircuitBreakerCooldown)).
		WithMetrics(sink)

	var amqpPublisher *dispatch.AMQPPublisher
	if cfg.Dispatch.AMQPURL != "" && len(cfg.Dispatch.AMQPChannels) > 0 {
		p, err := dispatch.NewAMQPPublisher(cfg.Dispatch.AMQPURL, cfg.Dispatch.AMQPExchange, e.log)
		if err != nil {
			return nil, err
		}
		e.addCloser("amqp", p.Close)
		amqpPublisher = p
	}

	webhooks := map[domain.Channel]string{
		domain.ChannelPush:  cfg.Dispatch.PushURL,
		domain.ChannelSMS:   cfg.Dispatch.SMSURL,
		domain.ChannelEmail: cfg.Dispatch.EmailURL,
	}

	for _, ch := range []domain.Channel{domain.ChannelPush, domain.ChannelSMS, domain.ChannelEmail} {
		switch {
		case amqpPublisher != nil && slices.Contains(cfg.Dispatch.AMQPChannels, string(ch)):
			d.Register(ch, amqpPublisher)
			e.log.Info("Channel routed to RabbitMQ", zap.String("channel", string(ch)))
		case webhooks[ch] != "":
			d.Register(ch, dispatch.NewWebhookTransport(webhooks[ch], cfg.Dispatch.Secret))
			e.log.Info("Channel routed to webhook", zap.String("channel", string(ch)))
		default:
			d.Register(ch, dispatch.NewLogTransport(e.log))
			e.log.Info("Channel routed to log transport", zap.String("channel", string(ch)))
		}
	}

	return d, nil
}

func (e *Engine) buildAudit(ctx context.Context, cfg *config.Config, sink metrics.Sink) (*clickhouse.Repository, error) {
	client, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, e.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}

	repo := clickhouse.NewRepository(client, e.log)
	e.addCloser("clickhouse", repo.Close)

	if err := repo.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize ClickHouse schema: %w", err)
	}
	e.log.Info("ClickHouse schema initialized")

	e.auditWriter = audit.NewWriter(repo, audit.WriterConfig{
		BufferSize:   cfg.Audit.BufferSize,
		MaxBatchSize: cfg.Audit.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Audit.BatchTimeoutSec) * time.Second,
	}, e.log).WithMetrics(sink)

	auditCtx, cancel := context.WithCancel(context.Background())
	e.auditCancel = cancel
	go e.auditWriter.Start(auditCtx)

	return repo, nil
}

func (e *Engine) addCloser(name string, fn func() error) {
	e.closers = append(e.closers, namedCloser{name: name, close: fn})
}

// Ping checks the record store, which every run depends on
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// Shutdown drains queued runs, flushes the audit trail and closes every
// backend. Runs still queued when ctx ends are abandoned.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error

	if e.pool != nil {
		if err := e.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if e.auditWriter != nil {
		e.auditWriter.Close()
		select {
		case <-e.auditWriter.Done():
			e.log.Info("Audit writer flushed")
		case <-ctx.Done():
			e.log.Warn("Audit writer flush timed out")
			e.auditCancel()
			<-e.auditWriter.Done()
		}
		e.auditCancel()
	}

	if err := e.closeAll(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (e *Engine) closeAll() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		c := e.closers[i]
		if err := c.close(); err != nil {
			e.log.Error("Failed to close backend", zap.String("backend", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

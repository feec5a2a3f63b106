package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/app"
	"github.com/paridu/ai-outreach-optimizer/internal/config"
	"github.com/paridu/ai-outreach-optimizer/internal/consumer"
	"github.com/paridu/ai-outreach-optimizer/internal/logger"
	"github.com/paridu/ai-outreach-optimizer/internal/queue/sqs"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, cfg.Service.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting consumer service",
		zap.String("environment", cfg.Service.Environment))

	if cfg.SQS.QueueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required for the consumer")
	}

	ctx := context.Background()

	engine, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to build decisioning engine", zap.Error(err))
	}

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize consumer
	c := consumer.NewConsumer(cfg, sqsClient, engine.Triggers, log)

	// Start health check endpoint
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := engine.Ping(r.Context()); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	if engine.MetricsHandler != nil {
		mux.Handle(cfg.Metrics.Path, engine.MetricsHandler)
	}

	healthServer := &http.Server{
		Addr:    ":" + cfg.Consumer.HealthCheckPort,
		Handler: mux,
	}
	go func() {
		log.Info("Health check server starting", zap.String("address", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	// Start consumer
	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("Consumer starting")

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if err := c.Start(consumerCtx); err != nil {
			log.Error("Consumer error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			if _, err := engine.Triggers.ReloadRules(); err != nil {
				log.Error("Rule reload on SIGHUP failed", zap.Error(err))
			}
			continue
		}
		break
	}

	log.Info("Shutting down consumer gracefully")
	cancel()
	<-stopped

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, cfg.Worker.DrainTimeout)
	defer cancelShutdown()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Health check server shutdown failed", zap.Error(err))
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		log.Error("Engine shutdown incomplete", zap.Error(err))
	}

	log.Info("Consumer stopped")
}

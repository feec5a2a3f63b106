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

	"github.com/paridu/ai-outreach-optimizer/docs"
	"github.com/paridu/ai-outreach-optimizer/internal/app"
	"github.com/paridu/ai-outreach-optimizer/internal/config"
	"github.com/paridu/ai-outreach-optimizer/internal/handler"
	"github.com/paridu/ai-outreach-optimizer/internal/logger"
	"github.com/paridu/ai-outreach-optimizer/internal/queue/sqs"
)

// @title Trigger Decisioning Engine API
// @version 1.0
// @description Real-time decisioning for marketing events: match a campaign, personalize it, dispatch it and record the outcome
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
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

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	// Configure Swagger host dynamically
	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	engine, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to build decisioning engine", zap.Error(err))
	}

	// Queue intake is optional for the API process
	if cfg.SQS.QueueURL != "" {
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		engine.Triggers.WithQueue(sqsClient)
	}

	h := handler.NewHandler(engine.Triggers, engine.Reports, log)
	if engine.MetricsHandler != nil {
		h.WithMetricsEndpoint(cfg.Metrics.Path, engine.MetricsHandler)
	}

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
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

	log.Info("Shutting down API service gracefully")

	// Stop intake first so nothing new reaches the worker pool
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Service.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	drainCtx, cancelDrain := context.WithTimeout(ctx, cfg.Worker.DrainTimeout)
	defer cancelDrain()
	if err := engine.Shutdown(drainCtx); err != nil {
		log.Error("Engine shutdown incomplete", zap.Error(err))
	}

	log.Info("API service stopped")
}

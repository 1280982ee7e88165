// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"vahan-chatbot/internal/chatbot/audit"
	"vahan-chatbot/internal/chatbot/executor"
	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/chatbot/querybuilder"
	"vahan-chatbot/internal/common/camunda"
	"vahan-chatbot/internal/common/config"
	"vahan-chatbot/internal/common/database"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/common/observability"

	avq "vahan-chatbot/internal/workers/chatbot/answer-vehicle-query"
)

const healthAddress = ":8080"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	obs := observability.New("worker-manager", nil, log)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	zb, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var pg *database.PostgresClient
	err = database.RetryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client failed", zap.Error(err))
	}
	if esClient != nil {
		if err := esClient.Ping(ctx); err != nil {
			zapLog.Warn("elasticsearch unreachable, audit mirror disabled", zap.Error(err))
			esClient = nil
		}
	}

	exec := executor.NewPostgres(pg.DB, config.GetDuration(cfg.Chat.QueryTimeout), log)
	answers := pipeline.New(querybuilder.NewBuilder(), exec, log)
	recorder := audit.NewRecorder(pg.DB, esClient.Raw(), cfg.Chat.AuditIndex, log)

	wcfg := config.GetWorkerConfig(cfg, avq.TaskType)
	handler := avq.NewHandler(avq.LoadConfig(wcfg), answers, recorder, obs, log)
	jobWorker := camunda.StartWorker(zb.Zeebe(), avq.TaskType, wcfg, handler.Handle, zapLog)

	healthServer := &http.Server{
		Addr: healthAddress,
		Handler: healthRouter(map[string]func(context.Context) error{
			"zeebe":    zb.HealthCheck,
			"postgres": pg.PingContext,
		}),
		ReadTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening on " + healthAddress)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if jobWorker != nil {
		jobWorker.Close()
		jobWorker.AwaitClose()
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down health server", zap.Error(err))
	}
	if err := zb.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

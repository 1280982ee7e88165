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

	"vahan-chatbot/internal/api"
	"vahan-chatbot/internal/chatbot/alerts"
	"vahan-chatbot/internal/chatbot/audit"
	"vahan-chatbot/internal/chatbot/executor"
	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/chatbot/querybuilder"
	"vahan-chatbot/internal/chatbot/session"
	"vahan-chatbot/internal/common/aws"
	"vahan-chatbot/internal/common/config"
	"vahan-chatbot/internal/common/database"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/common/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chat API...", zap.String("environment", cfg.App.Environment))

	obs := observability.New("chat-api", nil, log)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

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

	var rdb *database.RedisClient
	err = database.RetryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client failed", zap.Error(err))
	}
	if esClient != nil {
		if err := esClient.Ping(ctx); err != nil {
			zapLog.Warn("elasticsearch unreachable, audit mirror disabled", zap.Error(err))
			esClient = nil
		} else {
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	notifier := newNotifier(ctx, cfg, log, zapLog)

	exec := executor.NewPostgres(pg.DB, config.GetDuration(cfg.Chat.QueryTimeout), log)
	answers := pipeline.New(querybuilder.NewBuilder(), exec, log)
	recorder := audit.NewRecorder(pg.DB, esClient.Raw(), cfg.Chat.AuditIndex, log)

	tokens := session.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry(), cfg.Auth.Issuer, rdb.Client, log)
	sessions := session.NewService(session.NewUserStore(pg.DB), tokens, session.Config{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockDuration:     cfg.Auth.LockDuration(),
	}, log)

	deps := api.Deps{
		Sessions:      sessions,
		Pipeline:      answers,
		Audit:         recorder,
		DB:            pg,
		Limiter:       api.NewRedisLimiter(rdb.Client, time.Minute, log),
		Observability: obs,
	}
	if notifier != nil {
		sessions.WithNotifier(notifier)
		deps.Alerts = notifier
	}

	server := api.NewServer(api.Config{
		ServiceName:        cfg.App.Name,
		Version:            cfg.App.Version,
		Production:         cfg.App.IsProduction(),
		CORSOrigins:        cfg.Server.CORSOrigins,
		RateLimitPerMinute: cfg.Chat.RateLimitPerMinute,
		AnalyticsDays:      cfg.Chat.AnalyticsDays,
	}, deps, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("Chat API listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	zapLog.Info("Chat API stopped gracefully")
}

// newNotifier returns nil when no alert channel is enabled or AWS config
// cannot be resolved.
func newNotifier(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) *alerts.Notifier {
	n := cfg.Notifications
	if !n.Email.Enabled && !n.Topic.Enabled {
		return nil
	}
	awsCfg, err := aws.LoadConfig(ctx, n.AWS.Region)
	if err != nil {
		zapLog.Warn("security alerts disabled", zap.Error(err))
		return nil
	}
	return alerts.NewNotifier(&alerts.Config{
		EmailEnabled:   n.Email.Enabled,
		TopicEnabled:   n.Topic.Enabled,
		FromEmail:      n.Email.FromEmail,
		SecurityEmails: n.Email.To,
		TopicArn:       n.Topic.Arn,
	}, aws.NewSESClient(awsCfg), aws.NewSNSClient(awsCfg), log)
}

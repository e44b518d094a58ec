package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/billing-service/internal/config"
	"github.com/noah-isme/billing-service/internal/obs"
	"github.com/noah-isme/billing-service/internal/resilience"
	"github.com/noah-isme/billing-service/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()
	if !cfg.RedisEnabled() {
		logger.Fatal().Msg("REDIS_URL is required for the worker")
	}
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.WorkerConcurrency,
		Queues:          map[string]int{cfg.TaskQueue: 1},
		Logger:          tasks.Logger{L: logger},
		ShutdownTimeout: cfg.ShutdownTimeout,
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task_type", task.Type()).Msg("task failed")
		}),
	})

	if err := srv.Start(tasks.NewMux(logger, receipts(cfg, logger))); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Str("queue", cfg.TaskQueue).Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func receipts(cfg *config.Config, logger zerolog.Logger) tasks.ReceiptSender {
	if cfg.ReceiptWebhookURL == "" {
		return nil
	}
	breaker := resilience.NewBreaker("receipt-webhook", cfg.ReceiptBreakerMinReq, cfg.ReceiptBreakerRatio, cfg.ReceiptBreakerOpenFor).
		WithLogger(logger)
	return tasks.WebhookReceipts{
		URL: cfg.ReceiptWebhookURL,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{},
			Breaker:     breaker,
			MaxAttempts: cfg.ReceiptWebhookAttempts,
			Jitter:      0.2,
			Timeout:     cfg.ReceiptWebhookTimeout,
		},
	}
}

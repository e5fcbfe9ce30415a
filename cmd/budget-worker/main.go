package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	// The worker reads what the API wrote, so it needs a shared database.
	if !backend.BackendType(cfg.DataBackend).Persistent() {
		logger.ErrorContext(ctx, "budget-worker requires the sqlite or postgres backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.ErrorContext(context.Background(), "Backend cleanup failed", log.FieldError, err)
		}
	}()

	if res.AMQP == nil {
		logger.ErrorContext(ctx, "budget-worker requires a reachable AMQP broker", "amqp_url_set", cfg.AMQPURL != "")
		os.Exit(1)
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.EmailEnabled() {
		notifier = notify.NewEmailNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.AlertEmailFrom,
		}, logger)
	}

	alerts := worker.NewAlertWorker(services.NewBudgetService(res.Store, time.Now), notifier, logger)

	logger.InfoContext(ctx, "Starting budget-worker",
		"queue", cfg.AMQPQueue,
		"email_enabled", cfg.EmailEnabled())

	if err := res.AMQP.ConsumeExpenseEvents(ctx, alerts.HandleExpenseEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(context.Background(), "Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Worker shutdown complete")
}

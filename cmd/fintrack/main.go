package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.ErrorContext(context.Background(), "Backend cleanup failed", log.FieldError, err)
		}
	}()

	clock := services.Clock(time.Now)
	svc := apphttp.Services{
		Expenses:   services.NewExpenseService(res.Store, res.Publisher),
		Categories: services.NewCategoryService(res.Store),
		Budgets:    services.NewBudgetService(res.Store, clock),
		Goals:      services.NewGoalService(res.Store),
		Insights:   services.NewInsightService(res.Store, res.Generator, clock),
		Reports:    services.NewReportService(res.Store, res.Exporter),
	}

	srv := apphttp.NewServer(":"+cfg.Port, res.Store, svc, auth.NewVerifier(cfg.JWTSecret), apphttp.Options{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(context.Background(), "Shutting down server", log.FieldOperation, log.OpShutdown)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.ErrorContext(context.Background(), "Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.InfoContext(context.Background(), "Server stopped gracefully")
}

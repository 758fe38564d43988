package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fee-management-system/app/config"
	"fee-management-system/app/logging"
	"fee-management-system/app/routes/auth"
	"fee-management-system/app/server"
	"fee-management-system/app/services"

	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Auth.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("timezone not available, using UTC+3", "error", err)
	}
	time.Local = loc
	logger.Info("application time zone set", "zone", time.Local.String())

	// Amounts go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := server.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.Reminders.Enabled {
		fanout := services.NewNotificationFanout(store, store, time.Now, logger)
		reports := services.NewReports(store, store, store, time.Now)
		reminders := services.NewReminders(store, reports, fanout, cfg.Reminders.AuthorEmail, logger)
		services.StartScheduler(ctx, reminders, cfg.Reminders.Hour, time.Now, logger)
	}

	app := server.New(server.Dependencies{
		Store:          store,
		Tokens:         auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Clock:          time.Now,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins(),
		RequestTimeout: cfg.Database.StatementTimeout,
		AccessLog:      os.Stdout,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr(), "driver", cfg.Database.Driver)
		errCh <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

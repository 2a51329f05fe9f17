package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"closeout/internal/amqp"
	"closeout/internal/audit"
	"closeout/internal/auth"
	"closeout/internal/closing"
	"closeout/internal/config"
	apphttp "closeout/internal/http"
	applog "closeout/internal/log"
	"closeout/internal/reports"
	"closeout/internal/services"
	"closeout/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional. Without it, mutations still land in SQLite; only the
	// change feed to the refresh worker goes quiet.
	var publisher services.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without change notifications", applog.FieldError, err.Error())
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP change feed connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	engine := closing.NewEngineWithRate(closing.TerminalConfig{
		Terminals: cfg.Terminals,
		Networks:  closing.DefaultNetworks(),
	}, cfg.VATRate)

	auditLog := audit.New(repo, logger)
	gate := auth.NewSecretGate(cfg.EditSecretHash)
	closingSvc := services.NewClosingService(engine, repo, auditLog, gate, publisher, logger)
	reportSvc := reports.NewService(repo, logger)

	srv := apphttp.NewServer(cfg, closingSvc, reportSvc, logger)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting closeout server", "port", cfg.Port, "terminals", len(cfg.Terminals), "vat_rate", cfg.VATRate)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

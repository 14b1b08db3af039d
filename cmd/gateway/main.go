package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/curalink/triage-gateway/internal/api/perplexity"
	"github.com/curalink/triage-gateway/internal/config"
	"github.com/curalink/triage-gateway/internal/frontdoor/triage"
	"github.com/curalink/triage-gateway/internal/pipeline"
	"github.com/curalink/triage-gateway/internal/server"
	"github.com/curalink/triage-gateway/internal/stages"
	"github.com/curalink/triage-gateway/internal/storage"
	"github.com/curalink/triage-gateway/internal/storage/memory"
	"github.com/curalink/triage-gateway/internal/storage/sqldb"
	"github.com/curalink/triage-gateway/internal/telemetry"
	"github.com/curalink/triage-gateway/internal/tokens"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.InitTracer("curalink-triage-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Perplexity.APIKey == "" {
		log.Fatal("Perplexity API key is required (perplexity.api_key or CURALINK_PERPLEXITY__API_KEY)")
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	if store != nil {
		defer store.Close()
	}

	clientOpts := []perplexity.ClientOption{perplexity.WithModel(cfg.Perplexity.Model)}
	if cfg.Perplexity.BaseURL != "" {
		clientOpts = append(clientOpts, perplexity.WithBaseURL(cfg.Perplexity.BaseURL))
	}
	client := perplexity.NewClient(cfg.Perplexity.APIKey, clientOpts...)

	runner := pipeline.NewRunner(client, stages.All(),
		pipeline.WithLogger(logger),
		pipeline.WithTokenEstimator(tokens.NewEstimator()),
	)

	handler := triage.NewHandler(runner, store, logger)

	timeout := time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
	srv := server.New(cfg.Server.Port, timeout, logger)

	srv.Router.Post("/v1/triage", handler.HandleTriage)
	srv.Router.Post("/v1/stages/{stage}", handler.HandleStage)
	if handler.HasStore() {
		srv.Router.Get("/v1/runs", handler.HandleListRuns)
		srv.Router.Get("/v1/runs/{id}", handler.HandleGetRun)
	}
	srv.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigCh:
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func openStore(cfg config.StorageConfig) (storage.RunStore, error) {
	switch cfg.Type {
	case "sqlite":
		dsn := cfg.Database.DSN
		if dsn == "" {
			dsn = "./data/triage.db"
		}
		return sqldb.NewSQLite(dsn)
	case "postgres":
		return sqldb.New(sqldb.Config{Driver: "postgres", DSN: cfg.Database.DSN})
	case "memory":
		return memory.New(), nil
	case "", "none":
		return nil, nil
	default:
		return sqldb.New(sqldb.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/steemit/postrank/internal/app"
	"github.com/steemit/postrank/internal/indexer"
	"github.com/steemit/postrank/pkg/config"
	"github.com/steemit/postrank/pkg/logging"
	"github.com/steemit/postrank/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.WithComponent("reindex")
	logger.Info("Starting postrank re-index")

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer engine.Close()

	stats, err := indexer.NewReindexer(engine.Accessor, engine.Votes, &cfg.Indexer, logger).Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("Re-index interrupted", zap.Int64("posts", stats.Posts))
	case err != nil:
		logger.Error("Re-index failed", zap.Int64("posts", stats.Posts), zap.Error(err))
		engine.Close()
		os.Exit(1)
	default:
		logger.Info("Re-index complete", zap.Int64("posts", stats.Posts), zap.Int64("missing", stats.Missing))
	}
}

// Command lineage is the entry point for the franchise asset lineage
// pipeline. It loads configuration, validates it, sets up signal handling,
// and runs the requested pipeline stage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/courtdata/assetlineage/internal/app"
	"github.com/courtdata/assetlineage/internal/config"
	"github.com/courtdata/assetlineage/internal/domain"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	stage := flag.String("stage", "all", "pipeline stage to run (all | ingest | normalize | graph | export | visualize | bronze | publish)")
	runMode := flag.String("run-mode", "full", "bronze load mode (full | incremental)")
	sourceSystem := flag.String("source-system", "", "override the bronze source system label")
	dryRun := flag.Bool("dry-run", false, "bronze stage: validate and normalize without DB writes")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	if *sourceSystem != "" {
		cfg.Bronze.SourceSystem = *sourceSystem
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("lineage pipeline starting",
		slog.String("stage", *stage),
		slog.String("config", *configPath),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = application.Run(ctx, app.RunOptions{
		Stage:   *stage,
		RunMode: *runMode,
		DryRun:  *dryRun,
	})
	switch {
	case err == nil:
		logger.Info("lineage pipeline finished")
	case errors.Is(err, domain.ErrTemplatesCreated):
		// Not a failure: the operator needs to fill in the generated files.
		logger.Info("raw templates created, fill them in and re-run",
			slog.String("dir", cfg.Paths.ManualRawDir()),
		)
	case errors.Is(err, context.Canceled):
		logger.Info("pipeline interrupted")
	default:
		logger.Error("pipeline failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// Package app provides the top-level application lifecycle for the asset
// lineage pipeline. It wires together the stage dependencies (bronze sink,
// object storage) and runs the requested pipeline stages in order.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/courtdata/assetlineage/internal/config"
)

// RunOptions selects what one invocation executes.
type RunOptions struct {
	// Stage is one of: all, ingest, normalize, graph, export, visualize,
	// bronze, publish.
	Stage string

	// RunMode labels bronze loads: full or incremental.
	RunMode string

	// DryRun makes the bronze stage validate and normalize raw records
	// without touching the database.
	DryRun bool
}

var validStages = map[string]bool{
	"all":       true,
	"ingest":    true,
	"normalize": true,
	"graph":     true,
	"export":    true,
	"visualize": true,
	"bronze":    true,
	"publish":   true,
}

// Validate checks the run options.
func (o RunOptions) Validate() error {
	if !validStages[strings.ToLower(o.Stage)] {
		return fmt.Errorf("app: unknown stage %q (valid: all, ingest, normalize, graph, export, visualize, bronze, publish)", o.Stage)
	}
	if o.RunMode != "full" && o.RunMode != "incremental" {
		return fmt.Errorf("app: unknown run mode %q (valid: full, incremental)", o.RunMode)
	}
	return nil
}

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies for the requested stage and executes it. On return
// the wired resources are still open; the caller releases them via Close.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	stage := strings.ToLower(opts.Stage)

	a.logger.InfoContext(ctx, "starting pipeline run",
		slog.String("stage", stage),
		slog.String("team_code", a.cfg.Scope.TeamCode),
		slog.String("start_date", a.cfg.Scope.StartDate),
		slog.String("end_date", a.cfg.ResolvedEndDate()),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger, stage, opts.DryRun)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	return a.runStages(ctx, deps, stage, opts)
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

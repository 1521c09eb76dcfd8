package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/courtdata/assetlineage/internal/bronze"
	"github.com/courtdata/assetlineage/internal/csvio"
	"github.com/courtdata/assetlineage/internal/domain"
	"github.com/courtdata/assetlineage/internal/export"
	"github.com/courtdata/assetlineage/internal/pipeline"
)

// runStages executes the selected stage, or the whole CSV pipeline in order
// for "all". Bronze is a separate entry point: it feeds the warehouse, not
// the CSV flow, so "all" does not run it.
func (a *App) runStages(ctx context.Context, deps Dependencies, stage string, opts RunOptions) error {
	switch stage {
	case "ingest":
		return a.runIngest()
	case "normalize":
		return a.runNormalize()
	case "graph":
		return a.runGraph()
	case "export":
		return a.runExport()
	case "visualize":
		return a.runVisualize()
	case "bronze":
		return a.runBronze(ctx, deps, opts)
	case "publish":
		return a.runPublish(ctx, deps)
	case "all":
		if err := a.runIngest(); err != nil {
			if errors.Is(err, domain.ErrTemplatesCreated) {
				a.logger.Warn("raw templates created, fill them in and re-run")
			}
			return err
		}
		if err := a.runNormalize(); err != nil {
			return err
		}
		if err := a.runGraph(); err != nil {
			return err
		}
		if err := a.runExport(); err != nil {
			return err
		}
		if err := a.runVisualize(); err != nil {
			return err
		}
		if a.cfg.Publish.Enabled {
			return a.runPublish(ctx, deps)
		}
		return nil
	default:
		return fmt.Errorf("app: unknown stage %q", stage)
	}
}

func (a *App) runIngest() error {
	stage := pipeline.NewIngest(
		a.cfg.Paths.ManualRawDir(),
		a.cfg.Paths.IngestedRawDir(),
		a.logger.With(slog.String("component", "ingest")),
	)
	return stage.Run(a.cfg.Scope.TeamCode, a.cfg.Scope.StartDate, a.cfg.ResolvedEndDate())
}

func (a *App) runNormalize() error {
	stage := pipeline.NewNormalizeStage(
		a.cfg.Scope.TeamCode,
		a.cfg.Scope.TeamName,
		a.cfg.Scope.StartDate,
		a.cfg.ResolvedEndDate(),
		a.cfg.Paths.IngestedRawDir(),
		a.cfg.Paths.ProcessedDir(),
		a.logger.With(slog.String("component", "normalize")),
	)
	return stage.Run()
}

func (a *App) runGraph() error {
	stage := pipeline.NewGraphStage(
		a.cfg.Paths.ProcessedDir(),
		a.logger.With(slog.String("component", "graph")),
	)
	return stage.Run()
}

func (a *App) runExport() error {
	exporter := export.NewExporter(
		a.cfg.Paths.ProcessedDir(),
		a.cfg.Paths.ExportsDir(),
		a.cfg.Scope.ScopeName,
		a.logger.With(slog.String("component", "export")),
	)
	return exporter.Run()
}

func (a *App) runVisualize() error {
	exportsDir := a.cfg.Paths.ExportsDir()
	viz := export.NewVisualizer(
		filepath.Join(exportsDir, "nodes.csv"),
		filepath.Join(exportsDir, "edges.csv"),
		a.htmlArtifactPath(),
		fmt.Sprintf("%s Asset Lineage Graph", a.cfg.Scope.TeamName),
	)
	if err := viz.Run(); err != nil {
		return err
	}
	a.logger.Info("wrote visualization", slog.String("path", a.htmlArtifactPath()))
	return nil
}

func (a *App) runBronze(ctx context.Context, deps Dependencies, opts RunOptions) error {
	loader := bronze.NewLoader(
		a.cfg.Paths.BronzeRawDir(),
		a.cfg.Paths.BronzeCheckpointsDir(),
		a.cfg.Bronze.PipelineName,
		a.cfg.Bronze.SourceSystem,
		deps.BronzeStore,
		a.logger.With(slog.String("component", "bronze")),
	)
	_, err := loader.Run(ctx, opts.RunMode, opts.DryRun)
	return err
}

func (a *App) runPublish(ctx context.Context, deps Dependencies) error {
	if deps.Publisher == nil {
		return fmt.Errorf("app: publish requested but object storage is not configured")
	}

	paths := export.ArtifactPaths(a.cfg.Paths.ExportsDir(), a.cfg.Scope.ScopeName)
	if htmlPath := a.htmlArtifactPath(); fileExists(htmlPath) {
		paths = append(paths, htmlPath)
	}

	runDate := a.cfg.ResolvedEndDate()
	keys, err := deps.Publisher.PublishFiles(ctx, runDate, paths)
	if err != nil {
		return err
	}

	manifest := publishManifest{
		Stage:        "gold_publish",
		Status:       "success",
		RunDate:      runDate,
		Bucket:       a.cfg.S3.Bucket,
		Keys:         keys,
		UpdatedAtUTC: time.Now().UTC().Format(time.RFC3339),
	}
	manifestPath := filepath.Join(a.cfg.Paths.ExportsDir(), "publish_manifest.json")
	if err := csvio.WriteJSON(manifestPath, manifest); err != nil {
		return fmt.Errorf("app: write publish manifest: %w", err)
	}

	a.logger.Info("publish complete", slog.Int("artifacts", len(keys)))
	return nil
}

// publishManifest is the checkpoint written after a successful gold publish.
type publishManifest struct {
	Stage        string   `json:"stage"`
	Status       string   `json:"status"`
	RunDate      string   `json:"run_date"`
	Bucket       string   `json:"bucket"`
	Keys         []string `json:"keys"`
	UpdatedAtUTC string   `json:"updated_at_utc"`
}

func (a *App) htmlArtifactPath() string {
	return filepath.Join(a.cfg.Paths.ExportsDir(), a.cfg.Scope.ScopeName+".html")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package bronze

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/courtdata/assetlineage/internal/csvio"
	"github.com/courtdata/assetlineage/internal/domain"
)

// Loader runs one bronze load: read raw records, normalize them against the
// raw contracts, and hand the batch to the sink. Dry-run mode stops after
// normalization without touching the database.
type Loader struct {
	rawDir         string
	checkpointsDir string
	pipelineName   string
	sourceSystem   string
	store          domain.BronzeStore
	logger         *slog.Logger
}

// NewLoader creates a Loader reading raw records from rawDir. store may be
// nil only for dry runs.
func NewLoader(rawDir, checkpointsDir, pipelineName, sourceSystem string, store domain.BronzeStore, logger *slog.Logger) *Loader {
	return &Loader{
		rawDir:         rawDir,
		checkpointsDir: checkpointsDir,
		pipelineName:   pipelineName,
		sourceSystem:   sourceSystem,
		store:          store,
		logger:         logger,
	}
}

// Manifest is the stage checkpoint written after every bronze load attempt.
type Manifest struct {
	Stage          string `json:"stage"`
	Status         string `json:"status"`
	RunMode        string `json:"run_mode"`
	SourceSystem   string `json:"source_system"`
	DryRun         bool   `json:"dry_run"`
	RecordsSeen    int    `json:"records_seen"`
	RecordsWritten int    `json:"records_written"`
	RunID          string `json:"run_id,omitempty"`
	Notes          string `json:"notes"`
	UpdatedAtUTC   string `json:"updated_at_utc"`
}

// Run loads the raw records. The returned run reflects the sink outcome;
// sink failures are surfaced after the run row is marked failed, with no
// automatic retry.
func (l *Loader) Run(ctx context.Context, runMode string, dryRun bool) (domain.IngestRun, error) {
	batch, err := l.readBatch()
	if err != nil {
		return domain.IngestRun{}, err
	}

	run := domain.IngestRun{
		PipelineName: l.pipelineName,
		SourceSystem: l.sourceSystem,
		RunMode:      runMode,
	}

	switch {
	case dryRun:
		run.RecordsSeen = batch.Len()
		run.Status = domain.RunStatusSuccess
		if batch.Len() == 0 {
			run.Status = domain.RunStatusNoNewData
		}
		run.Notes = "Dry-run mode: validated and normalized raw input files without DB writes."
	case batch.Len() == 0:
		run.Status = domain.RunStatusNoNewData
		run.Notes = fmt.Sprintf("No raw bronze records found under %s/{events,assets,event_asset_links}/*.jsonl or *.json.", l.rawDir)
	default:
		run, err = l.store.Load(ctx, run, batch)
	}

	manifestErr := l.writeManifest(run, dryRun)
	if err != nil {
		return run, err
	}
	if manifestErr != nil {
		return run, manifestErr
	}

	l.logger.Info("bronze load finished",
		slog.String("status", run.Status),
		slog.Int("records_seen", run.RecordsSeen),
		slog.Int("records_written", run.RecordsWritten),
	)
	return run, nil
}

// readBatch reads and normalizes the three raw entity directories.
func (l *Loader) readBatch() (domain.RawBatch, error) {
	var batch domain.RawBatch

	eventRows, err := LoadRawRecords(l.rawDir, "events")
	if err != nil {
		return batch, err
	}
	assetRows, err := LoadRawRecords(l.rawDir, "assets")
	if err != nil {
		return batch, err
	}
	linkRows, err := LoadRawRecords(l.rawDir, "event_asset_links")
	if err != nil {
		return batch, err
	}

	for _, row := range eventRows {
		record, err := NormalizeEvent(row, l.sourceSystem)
		if err != nil {
			return batch, err
		}
		batch.Events = append(batch.Events, record)
	}
	for _, row := range assetRows {
		record, err := NormalizeAsset(row, l.sourceSystem)
		if err != nil {
			return batch, err
		}
		batch.Assets = append(batch.Assets, record)
	}
	for _, row := range linkRows {
		record, err := NormalizeLink(row, l.sourceSystem)
		if err != nil {
			return batch, err
		}
		batch.Links = append(batch.Links, record)
	}
	return batch, nil
}

func (l *Loader) writeManifest(run domain.IngestRun, dryRun bool) error {
	manifest := Manifest{
		Stage:          "bronze_ingest",
		Status:         run.Status,
		RunMode:        run.RunMode,
		SourceSystem:   run.SourceSystem,
		DryRun:         dryRun,
		RecordsSeen:    run.RecordsSeen,
		RecordsWritten: run.RecordsWritten,
		RunID:          run.RunID,
		Notes:          run.Notes,
		UpdatedAtUTC:   time.Now().UTC().Format(time.RFC3339),
	}
	return csvio.WriteJSON(filepath.Join(l.checkpointsDir, "bronze_stage_manifest.json"), manifest)
}

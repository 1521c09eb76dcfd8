package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/courtdata/assetlineage/internal/csvio"
	"github.com/courtdata/assetlineage/internal/domain"
)

// RawTableColumns maps each expected raw CSV to its full column set. A file
// missing any of these columns fails ingest before any record is processed.
var RawTableColumns = map[string][]string{
	"initial_assets.csv": append([]string{"asset_key"}, domain.AttrNames...),
	"events.csv":         {"event_key", "event_date", "event_type", "event_label", "description", "source_id"},
	"event_assets.csv":   append([]string{"event_key", "asset_key", "action"}, domain.AttrNames...),
	"sources.csv":        {"source_id", "source_name", "source_url", "retrieved_date", "notes"},
}

// Ingest validates the hand-curated raw CSVs and copies them into the
// ingested directory that later stages read from. Missing files are replaced
// with header-only templates and reported as a fatal error so an operator can
// fill them in; automated scraping is deliberately out of scope.
type Ingest struct {
	manualDir   string
	ingestedDir string
	logger      *slog.Logger
}

// NewIngest creates an Ingest stage reading from manualDir and writing to
// ingestedDir.
func NewIngest(manualDir, ingestedDir string, logger *slog.Logger) *Ingest {
	return &Ingest{
		manualDir:   manualDir,
		ingestedDir: ingestedDir,
		logger:      logger,
	}
}

// IngestReport summarizes one ingest run. It is written as
// ingest_report.json next to the ingested tables.
type IngestReport struct {
	TeamCode         string   `json:"team_code"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	ManualRawDir     string   `json:"manual_raw_dir"`
	IngestedRawDir   string   `json:"ingested_raw_dir"`
	CopiedFiles      []string `json:"copied_files"`
	CreatedTemplates []string `json:"created_templates"`
	Notes            string   `json:"notes"`
}

// Run validates and copies every expected raw file. It returns
// domain.ErrTemplatesCreated when any file was absent and a template was
// written in its place.
func (s *Ingest) Run(teamCode, startDate, endDate string) error {
	if err := os.MkdirAll(s.manualDir, 0o755); err != nil {
		return fmt.Errorf("ingest: mkdir %s: %w", s.manualDir, err)
	}
	if err := os.MkdirAll(s.ingestedDir, 0o755); err != nil {
		return fmt.Errorf("ingest: mkdir %s: %w", s.ingestedDir, err)
	}

	fileNames := make([]string, 0, len(RawTableColumns))
	for name := range RawTableColumns {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	var createdTemplates, copiedFiles []string
	for _, fileName := range fileNames {
		expected := RawTableColumns[fileName]
		sourcePath := filepath.Join(s.manualDir, fileName)

		if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
			if err := csvio.WriteTable(sourcePath, nil, expected); err != nil {
				return fmt.Errorf("ingest: write template: %w", err)
			}
			createdTemplates = append(createdTemplates, fileName)
		} else if err != nil {
			return fmt.Errorf("ingest: stat %s: %w", sourcePath, err)
		}

		rows, err := csvio.ReadTable(sourcePath)
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		if err := csvio.RequireColumns(rows, expected, fileName); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		if err := copyFile(sourcePath, filepath.Join(s.ingestedDir, fileName)); err != nil {
			return fmt.Errorf("ingest: copy %s: %w", fileName, err)
		}
		copiedFiles = append(copiedFiles, fileName)
	}

	report := IngestReport{
		TeamCode:         teamCode,
		StartDate:        startDate,
		EndDate:          endDate,
		ManualRawDir:     s.manualDir,
		IngestedRawDir:   s.ingestedDir,
		CopiedFiles:      copiedFiles,
		CreatedTemplates: createdTemplates,
		Notes:            "Non-API scraping is intentionally excluded from automated ingestion. Populate the manual raw CSVs from approved sources.",
	}
	if err := csvio.WriteJSON(filepath.Join(s.ingestedDir, "ingest_report.json"), report); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if len(createdTemplates) > 0 {
		s.logger.Error("created missing raw templates",
			slog.String("files", strings.Join(createdTemplates, ", ")),
		)
		return fmt.Errorf("ingest: %w: %s", domain.ErrTemplatesCreated, strings.Join(createdTemplates, ", "))
	}

	s.logger.Info("ingested raw tables", slog.Int("files", len(copiedFiles)))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

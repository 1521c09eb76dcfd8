package bronze

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtdata/assetlineage/internal/domain"
)

func testDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	batch domain.RawBatch
	fail  error
}

func (s *fakeStore) Load(_ context.Context, run domain.IngestRun, batch domain.RawBatch) (domain.IngestRun, error) {
	s.batch = batch
	if s.fail != nil {
		run.Status = domain.RunStatusFailed
		return run, s.fail
	}
	run.RunID = "run-1"
	run.Status = domain.RunStatusSuccess
	run.RecordsSeen = batch.Len()
	run.RecordsWritten = batch.Len()
	return run, nil
}

func newTestLoader(t *testing.T, store domain.BronzeStore) (*Loader, string, string) {
	t.Helper()
	base := t.TempDir()
	rawDir := filepath.Join(base, "raw")
	checkpointsDir := filepath.Join(base, "checkpoints")
	loader := NewLoader(rawDir, checkpointsDir, "bronze_ingest", "manual", store, testDiscardLogger())
	return loader, rawDir, checkpointsDir
}

func readManifest(t *testing.T, checkpointsDir string) Manifest {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(checkpointsDir, "bronze_stage_manifest.json"))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestLoaderRunEmptyInput(t *testing.T) {
	loader, _, checkpointsDir := newTestLoader(t, nil)

	run, err := loader.Run(context.Background(), "full", false)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusNoNewData, run.Status)

	m := readManifest(t, checkpointsDir)
	assert.Equal(t, domain.RunStatusNoNewData, m.Status)
	assert.Equal(t, 0, m.RecordsSeen)
}

func TestLoaderRunDryRun(t *testing.T) {
	store := &fakeStore{}
	loader, rawDir, checkpointsDir := newTestLoader(t, store)
	writeFile(t, filepath.Join(rawDir, "events", "e.jsonl"), `{"event_key":"k1","event_type":"trade"}`+"\n")

	run, err := loader.Run(context.Background(), "full", true)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSuccess, run.Status)
	assert.Equal(t, 1, run.RecordsSeen)
	assert.Zero(t, store.batch.Len(), "dry run must not reach the store")

	m := readManifest(t, checkpointsDir)
	assert.True(t, m.DryRun)
}

func TestLoaderRunLoadsBatch(t *testing.T) {
	store := &fakeStore{}
	loader, rawDir, checkpointsDir := newTestLoader(t, store)
	writeFile(t, filepath.Join(rawDir, "events", "e.jsonl"), `{"event_key":"k1"}`+"\n")
	writeFile(t, filepath.Join(rawDir, "assets", "a.json"), `[{"asset_key":"player_x"}]`)
	writeFile(t, filepath.Join(rawDir, "event_asset_links", "l.jsonl"), `{"event_key":"k1","asset_key":"player_x","action":"acquire"}`+"\n")

	run, err := loader.Run(context.Background(), "incremental", false)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSuccess, run.Status)
	assert.Equal(t, "run-1", run.RunID)
	assert.Equal(t, 3, store.batch.Len())
	require.Len(t, store.batch.Links, 1)
	assert.Equal(t, "acquire", store.batch.Links[0].ActionRaw)

	m := readManifest(t, checkpointsDir)
	assert.Equal(t, "incremental", m.RunMode)
	assert.Equal(t, "run-1", m.RunID)
}

func TestLoaderRunInvalidRecordFails(t *testing.T) {
	loader, rawDir, _ := newTestLoader(t, &fakeStore{})
	writeFile(t, filepath.Join(rawDir, "events", "e.jsonl"), `{"event_date":"2023-01-01"}`+"\n")

	_, err := loader.Run(context.Background(), "full", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_event_ref")
}

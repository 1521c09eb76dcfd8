package bronze

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadRawRecordsMissingDir(t *testing.T) {
	records, err := LoadRawRecords(t.TempDir(), "events")
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestLoadRawRecordsJSONLThenJSON(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "events")

	writeFile(t, filepath.Join(dir, "b.jsonl"), `{"event_key":"jsonl_b"}`+"\n\n"+`{"event_key":"jsonl_b2"}`+"\n")
	writeFile(t, filepath.Join(dir, "a.jsonl"), `{"event_key":"jsonl_a"}`+"\n")
	writeFile(t, filepath.Join(dir, "list.json"), `[{"event_key":"json_1"},{"event_key":"json_2"}]`)
	writeFile(t, filepath.Join(dir, "single.json"), `{"event_key":"json_single"}`)

	records, err := LoadRawRecords(base, "events")
	require.NoError(t, err)
	require.Len(t, records, 6)

	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r["event_key"].(string)
	}
	// JSONL files first in path order, then JSON files in path order.
	assert.Equal(t, []string{"jsonl_a", "jsonl_b", "jsonl_b2", "json_1", "json_2", "json_single"}, keys)
}

func TestLoadRawRecordsBadJSONLLine(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "events", "bad.jsonl"), `{"ok":true}`+"\n"+`not json`+"\n")

	_, err := LoadRawRecords(base, "events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2", "error names the offending line")
}

func TestLoadRawRecordsUnsupportedJSON(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "events", "bad.json"), `"just a string"`)

	_, err := LoadRawRecords(base, "events")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported JSON payload")
}

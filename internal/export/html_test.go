package export

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtdata/assetlineage/internal/csvio"
	"github.com/courtdata/assetlineage/internal/domain"
)

func TestVisualizerRun(t *testing.T) {
	base := t.TempDir()
	nodesPath := filepath.Join(base, "nodes.csv")
	edgesPath := filepath.Join(base, "edges.csv")
	outputPath := filepath.Join(base, "viz", "lineage.html")

	nodes := []map[string]string{
		{"node_id": "state_start_mem_20220514", "node_type": "state_boundary", "label": "Start", "event_date": "2022-05-14"},
		{"node_id": "evt_b", "node_type": "event", "label": "Waiver", "event_type": "waiver", "event_date": "2023-07-01"},
		{"node_id": "evt_a", "node_type": "event", "label": "Trade", "event_type": "trade", "event_date": "2023-02-09"},
	}
	edges := []map[string]string{
		{"edge_id": "edg_1", "source_node_id": "state_start_mem_20220514", "target_node_id": "evt_a", "asset_key": "player_x"},
	}
	require.NoError(t, csvio.WriteTable(nodesPath, nodes, domain.NodeColumns))
	require.NoError(t, csvio.WriteTable(edgesPath, edges, domain.EdgeColumns))

	viz := NewVisualizer(nodesPath, edgesPath, outputPath, "Memphis Asset Lineage Graph")
	require.NoError(t, viz.Run())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "<title>Memphis Asset Lineage Graph</title>")
	assert.Contains(t, doc, "vis-network")
	// Graph payload is embedded, boundary dates excluded from the defaults.
	assert.Contains(t, doc, `"defaultStart":"2023-02-09"`)
	assert.Contains(t, doc, `"defaultEnd":"2023-07-01"`)
	assert.Contains(t, doc, `"evt_a"`)
	assert.Contains(t, doc, `"player_x"`)
}

func TestVisualizerMissingInputFails(t *testing.T) {
	base := t.TempDir()
	viz := NewVisualizer(
		filepath.Join(base, "nodes.csv"),
		filepath.Join(base, "edges.csv"),
		filepath.Join(base, "out.html"),
		"Lineage",
	)

	err := viz.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NoFileExists(t, filepath.Join(base, "out.html"))
}

func TestSortedEventTypes(t *testing.T) {
	nodes := []map[string]string{
		{"event_type": "waiver"},
		{"event_type": "trade"},
		{"event_type": "trade"},
		{"event_type": ""},
	}
	assert.Equal(t, []string{"trade", "waiver"}, sortedEventTypes(nodes))
}

func TestEventDateBounds(t *testing.T) {
	nodes := []map[string]string{
		{"node_type": "state_boundary", "event_date": "1900-01-01"},
		{"node_type": "event", "event_date": "2023-07-01"},
		{"node_type": "event", "event_date": "2023-02-09"},
	}
	start, end := eventDateBounds(nodes)
	assert.Equal(t, "2023-02-09", start)
	assert.Equal(t, "2023-07-01", end)

	start, end = eventDateBounds(nil)
	assert.Equal(t, "", start)
	assert.Equal(t, "", end)
}

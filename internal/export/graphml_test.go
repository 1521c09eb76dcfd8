package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteGraphML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphs", "lineage.graphml")

	nodes := []map[string]string{
		{"node_id": "state_start_mem_20220514", "node_type": "state_boundary", "label": "Start", "event_date": "2022-05-14"},
		{"node_id": "evt_trade_abc", "node_type": "event", "label": "Big trade", "event_type": "trade", "event_date": "2023-02-09", "description": "a & b <swap>"},
	}
	edges := []map[string]string{
		{
			"edge_id":        "edg_seg_1",
			"source_node_id": "state_start_mem_20220514",
			"target_node_id": "evt_trade_abc",
			"asset_id":       "ast_player_x",
			"asset_key":      "player_x",
			"start_date":     "2022-05-14",
			"end_date":       "2023-02-09",
		},
	}

	require.NoError(t, WriteGraphML(path, "franchise_asset_lineage", nodes, edges))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)

	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `xmlns="http://graphml.graphdrawing.org/xmlns"`)
	assert.Contains(t, doc, `<graph id="franchise_asset_lineage" edgedefault="directed">`)

	// Key declarations mirror the column lists, node_id and the edge endpoint
	// columns excluded.
	assert.Contains(t, doc, `<key id="n_label" for="node" attr.name="label" attr.type="string">`)
	assert.Contains(t, doc, `<key id="e_asset_key" for="edge" attr.name="asset_key" attr.type="string">`)
	assert.NotContains(t, doc, `attr.name="node_id"`)
	assert.NotContains(t, doc, `attr.name="source_node_id"`)

	assert.Contains(t, doc, `<node id="evt_trade_abc">`)
	assert.Contains(t, doc, `<edge id="edg_seg_1" source="state_start_mem_20220514" target="evt_trade_abc">`)

	// XML-reserved characters in values are escaped, not emitted raw.
	assert.Contains(t, doc, "a &amp; b &lt;swap&gt;")
}

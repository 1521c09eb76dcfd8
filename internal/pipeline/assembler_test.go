package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtdata/assetlineage/internal/domain"
)

func TestAssembleMergesAndSorts(t *testing.T) {
	stateNodes := []map[string]string{
		{"node_id": "state_end_mem_20240630", "node_type": domain.StateNodeType, "label": "Memphis End State 2024-06-30", "event_date": "2024-06-30"},
		{"node_id": "state_start_mem_20220514", "node_type": domain.StateNodeType, "label": "Memphis Start State 2022-05-14", "event_date": "2022-05-14"},
	}
	events := []map[string]string{
		{"event_id": "evt_b_222", "event_key": "b", "event_date": "2023-02-09", "event_type": "trade", "event_label": "", "description": "swap", "source_name": "reg", "source_url": "https://example.com"},
		{"event_id": "evt_a_111", "event_key": "a", "event_date": "2023-02-09", "event_type": "waiver", "event_label": "Waived P"},
	}
	segments := []map[string]string{
		{"edge_id": "edg_2", "asset_id": "ast_b", "start_date": "2023-02-09", "source_node_id": "evt_b_222", "target_node_id": "state_end_mem_20240630"},
		{"edge_id": "edg_1", "asset_id": "ast_a", "start_date": "2022-05-14", "source_node_id": "state_start_mem_20220514", "target_node_id": "evt_b_222"},
	}

	nodes, edges := NewAssembler().Assemble(stateNodes, events, segments)

	require.Len(t, nodes, 4)
	// (event_date, node_id) ascending; boundary nodes interleave with events.
	assert.Equal(t, "state_start_mem_20220514", nodes[0]["node_id"])
	assert.Equal(t, "evt_a_111", nodes[1]["node_id"])
	assert.Equal(t, "evt_b_222", nodes[2]["node_id"])
	assert.Equal(t, "state_end_mem_20240630", nodes[3]["node_id"])

	// Boundary nodes leave the event-only fields empty.
	assert.Equal(t, "", nodes[0]["event_type"])
	assert.Equal(t, "", nodes[0]["description"])

	// Missing curated label falls back to the event type.
	assert.Equal(t, "trade", nodes[2]["label"])
	assert.Equal(t, "Waived P", nodes[1]["label"])

	// Every node row carries the full column set.
	for _, node := range nodes {
		for _, col := range domain.NodeColumns {
			_, ok := node[col]
			assert.True(t, ok, col)
		}
	}

	require.Len(t, edges, 2)
	assert.Equal(t, "edg_1", edges[0]["edge_id"], "edges sort by (asset_id, start_date, edge_id)")
	assert.Equal(t, "edg_2", edges[1]["edge_id"])
}

package pipeline

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtdata/assetlineage/internal/csvio"
	"github.com/courtdata/assetlineage/internal/domain"
)

func TestNormalizeStageEndToEnd(t *testing.T) {
	base := t.TempDir()
	ingestedDir := filepath.Join(base, "ingested")
	processDir := filepath.Join(base, "processed")

	writeIngested := func(name string, rows []map[string]string) {
		require.NoError(t, csvio.WriteTable(filepath.Join(ingestedDir, name), rows, RawTableColumns[name]))
	}

	writeIngested("initial_assets.csv", []map[string]string{
		{"asset_key": "player_x", "asset_type": "player", "player_name": "Player X"},
	})
	writeIngested("events.csv", []map[string]string{
		{"event_key": "trade_2023_02_09", "event_date": "2023-02-09", "event_type": "trade", "event_label": "Deadline trade", "source_id": "s1"},
	})
	writeIngested("event_assets.csv", []map[string]string{
		{"event_key": "trade_2023_02_09", "asset_key": "player_x", "action": "relinquish"},
		{"event_key": "trade_2023_02_09", "asset_key": "pick_2027_r1", "action": "acquire", "asset_type": "future_draft_pick", "pick_year": "2027"},
	})
	writeIngested("sources.csv", []map[string]string{
		{"source_id": "s1", "source_name": "League Register", "source_url": "https://example.com/r1"},
	})

	stage := NewNormalizeStage("mem", "Memphis", "2022-05-14", "2024-06-30", ingestedDir, processDir, testLogger())
	require.NoError(t, stage.Run())

	events, err := csvio.ReadTable(filepath.Join(processDir, "events.csv"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "League Register", events[0]["source_name"])

	segments, err := csvio.ReadTable(filepath.Join(processDir, "asset_segments.csv"))
	require.NoError(t, err)
	require.Len(t, segments, 2)

	bySegmentKey := map[string]map[string]string{}
	for _, seg := range segments {
		bySegmentKey[seg["asset_key"]] = seg
	}

	// Relinquished player: start boundary to the trade event, closed.
	player := bySegmentKey["player_x"]
	require.NotNil(t, player)
	assert.Equal(t, "state_start_mem_20220514", player["source_node_id"])
	assert.Equal(t, "2023-02-09", player["end_date"])
	assert.Equal(t, "false", player["is_active_at_end"])
	assert.Equal(t, "Player X", player["player_name"])

	var prior []string
	require.NoError(t, json.Unmarshal([]byte(player["prior_transactions"]), &prior))
	assert.Equal(t, []string{"2022-05-14|initial_state|held"}, prior)

	// Acquired pick: trade event to the end boundary, still active.
	pick := bySegmentKey["pick_2027_r1"]
	require.NotNil(t, pick)
	assert.Equal(t, "state_end_mem_20240630", pick["target_node_id"])
	assert.Equal(t, "", pick["end_date"])
	assert.Equal(t, "true", pick["is_active_at_end"])
	assert.Equal(t, "2027", pick["pick_year"])
	assert.Equal(t, events[0]["event_id"], pick["source_node_id"])

	assets, err := csvio.ReadTable(filepath.Join(processDir, "assets.csv"))
	require.NoError(t, err)
	assert.Len(t, assets, 2)
	for _, asset := range assets {
		assert.Equal(t, "mem", asset["team_code"])
		assert.Equal(t, "Memphis", asset["team_name"])
	}

	links, err := csvio.ReadTable(filepath.Join(processDir, "event_asset_links.csv"))
	require.NoError(t, err)
	require.Len(t, links, 2)
	byLinkKey := map[string]map[string]string{}
	for _, link := range links {
		byLinkKey[link["asset_key"]] = link
	}
	assert.Equal(t, "incoming", byLinkKey["player_x"]["direction"])
	assert.Equal(t, "0", byLinkKey["player_x"]["seq"])
	assert.Equal(t, "outgoing", byLinkKey["pick_2027_r1"]["direction"])
	assert.Equal(t, "1", byLinkKey["pick_2027_r1"]["seq"])

	stateNodes, err := csvio.ReadTable(filepath.Join(processDir, "state_nodes.csv"))
	require.NoError(t, err)
	require.Len(t, stateNodes, 2)
	assert.Equal(t, "Memphis Start State 2022-05-14", stateNodes[0]["label"])
	assert.Equal(t, domain.StateNodeType, stateNodes[0]["node_type"])
	assert.Equal(t, "Memphis End State 2024-06-30", stateNodes[1]["label"])
}

func TestNormalizeStageMissingInputFails(t *testing.T) {
	base := t.TempDir()
	processDir := filepath.Join(base, "processed")

	stage := NewNormalizeStage("mem", "Memphis", "2022-05-14", "2024-06-30",
		filepath.Join(base, "no_such_dir"), processDir, testLogger())

	err := stage.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NoFileExists(t, filepath.Join(processDir, "asset_segments.csv"),
		"a run with no input must not write output tables")
}

func TestNormalizeStageRejectsUnknownAssetType(t *testing.T) {
	base := t.TempDir()
	ingestedDir := filepath.Join(base, "ingested")
	processDir := filepath.Join(base, "processed")

	require.NoError(t, csvio.WriteTable(filepath.Join(ingestedDir, "initial_assets.csv"),
		[]map[string]string{{"asset_key": "coach_k", "asset_type": "coach"}},
		RawTableColumns["initial_assets.csv"]))
	for _, name := range []string{"events.csv", "event_assets.csv", "sources.csv"} {
		require.NoError(t, csvio.WriteTable(filepath.Join(ingestedDir, name), nil, RawTableColumns[name]))
	}

	stage := NewNormalizeStage("mem", "Memphis", "2022-05-14", "2024-06-30", ingestedDir, processDir, testLogger())
	err := stage.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedAssetType)
	assert.Contains(t, err.Error(), "coach")
}

func TestSegmentRow(t *testing.T) {
	seg := domain.AssetSegment{
		EdgeID:       "edg_x",
		AssetID:      "ast_x",
		AssetKey:     "player_x",
		SourceNodeID: "n1",
		TargetNodeID: "n2",
		StartDate:    "2022-05-14",
		EndDate:      "",
		ActiveAtEnd:  true,
		Attrs:        domain.Attrs{"asset_type": "player"},
	}

	row, err := SegmentRow(seg)
	require.NoError(t, err)
	assert.Equal(t, "true", row["is_active_at_end"])
	assert.Equal(t, "player", row["asset_type"])
	assert.Equal(t, "[]", row["prior_transactions"], "nil history serializes as an empty array")
	for _, col := range domain.EdgeColumns {
		_, ok := row[col]
		assert.True(t, ok, col)
	}
}

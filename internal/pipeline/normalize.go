package pipeline

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/courtdata/assetlineage/internal/csvio"
	"github.com/courtdata/assetlineage/internal/domain"
	"github.com/courtdata/assetlineage/internal/ids"
)

// Normalized intermediate table column sets.
var (
	eventColumns = []string{
		"event_id", "event_key", "event_date", "event_type",
		"event_label", "description", "source_id", "source_name", "source_url",
	}
	assetColumns     = []string{"asset_id", "asset_key", "asset_type", "subtype", "team_code", "team_name"}
	linkColumns      = []string{"event_id", "event_key", "asset_id", "asset_key", "action", "direction", "seq"}
	stateNodeColumns = []string{"node_id", "node_type", "label", "event_date"}
)

// NormalizeStage reads the ingested raw tables, runs the event normalizer and
// the asset-segment reconstructor, and writes the normalized intermediate
// tables that the graph stage consumes.
type NormalizeStage struct {
	teamCode    string
	teamName    string
	startDate   string
	endDate     string
	ingestedDir string
	processDir  string
	logger      *slog.Logger
}

// NewNormalizeStage creates a NormalizeStage for one scope.
func NewNormalizeStage(teamCode, teamName, startDate, endDate, ingestedDir, processDir string, logger *slog.Logger) *NormalizeStage {
	return &NormalizeStage{
		teamCode:    teamCode,
		teamName:    teamName,
		startDate:   startDate,
		endDate:     endDate,
		ingestedDir: ingestedDir,
		processDir:  processDir,
		logger:      logger,
	}
}

// Run executes normalization and reconstruction end to end. Vocabulary
// violations abort the run before any table is written; there is no
// partial-output mode.
func (s *NormalizeStage) Run() error {
	startNodeID := ids.StateNodeID(ids.StartStatePrefix, s.teamCode, s.startDate)
	endNodeID := ids.StateNodeID(ids.EndStatePrefix, s.teamCode, s.endDate)

	initialAssets, err := csvio.ReadTable(filepath.Join(s.ingestedDir, "initial_assets.csv"))
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	events, err := csvio.ReadTable(filepath.Join(s.ingestedDir, "events.csv"))
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	eventAssets, err := csvio.ReadTable(filepath.Join(s.ingestedDir, "event_assets.csv"))
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	sources, err := csvio.ReadTable(filepath.Join(s.ingestedDir, "sources.csv"))
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	normalizer := NewNormalizer(s.teamCode, s.startDate, s.endDate, s.logger)
	normalized, err := normalizer.NormalizeEvents(events, sources)
	if err != nil {
		return err
	}

	// Asset types share the closed-vocabulary treatment of event types and
	// actions: validated once here, never re-checked inside the replay.
	if err := validateAssetTypes("initial_assets.csv", initialAssets); err != nil {
		return err
	}
	if err := validateAssetTypes("event_assets.csv", eventAssets); err != nil {
		return err
	}
	if err := validateActions(eventAssets); err != nil {
		return err
	}

	// Action rows grouped by event, preserving input row order within each
	// event: the source makes no finer ordering promise.
	actionsByEventKey := make(map[string][]map[string]string)
	for _, row := range eventAssets {
		actionsByEventKey[row["event_key"]] = append(actionsByEventKey[row["event_key"]], row)
	}

	reconstructor := NewReconstructor(s.teamCode, s.teamName, s.startDate, startNodeID, endNodeID, s.logger)
	result, err := reconstructor.Replay(initialAssets, normalized, actionsByEventKey)
	if err != nil {
		return err
	}

	s.logger.Info("reconstructed asset segments",
		slog.Int("events", len(normalized)),
		slog.Int("segments", len(result.Segments)),
		slog.Int("assets", len(result.Catalog)),
	)

	return s.writeTables(normalized, result, startNodeID, endNodeID)
}

func (s *NormalizeStage) writeTables(events []domain.Event, result ReplayResult, startNodeID, endNodeID string) error {
	eventRows := make([]map[string]string, 0, len(events))
	for _, e := range events {
		eventRows = append(eventRows, map[string]string{
			"event_id":    e.EventID,
			"event_key":   e.EventKey,
			"event_date":  e.EventDate,
			"event_type":  string(e.EventType),
			"event_label": e.EventLabel,
			"description": e.Descr,
			"source_id":   e.SourceID,
			"source_name": e.SourceName,
			"source_url":  e.SourceURL,
		})
	}
	sort.Slice(eventRows, func(i, j int) bool {
		if eventRows[i]["event_date"] != eventRows[j]["event_date"] {
			return eventRows[i]["event_date"] < eventRows[j]["event_date"]
		}
		return eventRows[i]["event_id"] < eventRows[j]["event_id"]
	})

	segmentRows := make([]map[string]string, 0, len(result.Segments))
	for _, seg := range result.Segments {
		row, err := SegmentRow(seg)
		if err != nil {
			return fmt.Errorf("normalize: %w", err)
		}
		segmentRows = append(segmentRows, row)
	}
	sort.Slice(segmentRows, func(i, j int) bool {
		if segmentRows[i]["asset_id"] != segmentRows[j]["asset_id"] {
			return segmentRows[i]["asset_id"] < segmentRows[j]["asset_id"]
		}
		if segmentRows[i]["start_date"] != segmentRows[j]["start_date"] {
			return segmentRows[i]["start_date"] < segmentRows[j]["start_date"]
		}
		return segmentRows[i]["edge_id"] < segmentRows[j]["edge_id"]
	})

	assetRows := make([]map[string]string, 0, len(result.Catalog))
	for _, asset := range result.Catalog {
		assetRows = append(assetRows, map[string]string{
			"asset_id":   asset.AssetID,
			"asset_key":  asset.AssetKey,
			"asset_type": asset.AssetType,
			"subtype":    asset.Subtype,
			"team_code":  asset.TeamCode,
			"team_name":  asset.TeamName,
		})
	}

	linkRows := make([]map[string]string, 0, len(result.Links))
	for _, link := range result.Links {
		linkRows = append(linkRows, map[string]string{
			"event_id":  link.EventID,
			"event_key": link.EventKey,
			"asset_id":  link.AssetID,
			"asset_key": link.AssetKey,
			"action":    string(link.Action),
			"direction": string(link.Direction),
			"seq":       strconv.Itoa(link.Seq),
		})
	}
	sort.SliceStable(linkRows, func(i, j int) bool {
		if linkRows[i]["event_id"] != linkRows[j]["event_id"] {
			return linkRows[i]["event_id"] < linkRows[j]["event_id"]
		}
		if linkRows[i]["asset_id"] != linkRows[j]["asset_id"] {
			return linkRows[i]["asset_id"] < linkRows[j]["asset_id"]
		}
		return linkRows[i]["action"] < linkRows[j]["action"]
	})

	stateNodeRows := []map[string]string{
		{
			"node_id":    startNodeID,
			"node_type":  domain.StateNodeType,
			"label":      fmt.Sprintf("%s Start State %s", s.teamName, s.startDate),
			"event_date": s.startDate,
		},
		{
			"node_id":    endNodeID,
			"node_type":  domain.StateNodeType,
			"label":      fmt.Sprintf("%s End State %s", s.teamName, s.endDate),
			"event_date": s.endDate,
		},
	}

	writes := []struct {
		name    string
		rows    []map[string]string
		columns []string
	}{
		{"events.csv", eventRows, eventColumns},
		{"asset_segments.csv", segmentRows, domain.EdgeColumns},
		{"assets.csv", assetRows, assetColumns},
		{"event_asset_links.csv", linkRows, linkColumns},
		{"state_nodes.csv", stateNodeRows, stateNodeColumns},
	}
	for _, w := range writes {
		if err := csvio.WriteTable(filepath.Join(s.processDir, w.name), w.rows, w.columns); err != nil {
			return fmt.Errorf("normalize: %w", err)
		}
	}
	return nil
}

// validateAssetTypes rejects rows whose asset_type falls outside the closed
// vocabulary. Empty means unspecified and passes.
func validateAssetTypes(tableName string, rows []map[string]string) error {
	for _, row := range rows {
		value := lower(row["asset_type"])
		if value == "" {
			continue
		}
		if !domain.AssetType(value).Valid() {
			return fmt.Errorf("normalize: %s asset %s: %w: %q", tableName, row["asset_key"], domain.ErrUnsupportedAssetType, row["asset_type"])
		}
	}
	return nil
}

// validateActions rejects event_assets rows with an action outside the closed
// verb set. The replay re-checks on conversion, but the vocabulary gate lives
// here with the others.
func validateActions(rows []map[string]string) error {
	for _, row := range rows {
		if !domain.Action(lower(row["action"])).Valid() {
			return fmt.Errorf("normalize: event_assets.csv event %s: %w: %q", row["event_key"], domain.ErrUnsupportedAction, row["action"])
		}
	}
	return nil
}

// SegmentRow flattens one segment to the edge column set. Prior transactions
// serialize as a JSON array of strings.
func SegmentRow(seg domain.AssetSegment) (map[string]string, error) {
	prior := seg.PriorTransactions
	if prior == nil {
		prior = []string{}
	}
	priorJSON, err := json.Marshal(prior)
	if err != nil {
		return nil, fmt.Errorf("marshal prior transactions for %s: %w", seg.EdgeID, err)
	}

	active := "false"
	if seg.ActiveAtEnd {
		active = "true"
	}

	row := map[string]string{
		"edge_id":          seg.EdgeID,
		"asset_id":         seg.AssetID,
		"asset_key":        seg.AssetKey,
		"source_node_id":   seg.SourceNodeID,
		"target_node_id":   seg.TargetNodeID,
		"start_date":       seg.StartDate,
		"end_date":         seg.EndDate,
		"is_active_at_end": active,
	}
	for _, name := range domain.AttrNames {
		row[name] = seg.Attrs[name]
	}
	row["prior_transactions"] = string(priorJSON)
	return row, nil
}

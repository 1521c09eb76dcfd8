package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/courtdata/assetlineage/internal/domain"
	"github.com/courtdata/assetlineage/internal/ids"
)

// openAssetState is the in-flight segment for one currently-controlled asset.
// Exactly one exists per open asset at any point in the replay; it is created
// on acquisition or bootstrap and destroyed on relinquish/terminate.
type openAssetState struct {
	assetID       string
	assetKey      string
	attrs         domain.Attrs
	openNodeID    string
	openStartDate string
	// segmentIndex feeds deterministic edge-ID hashing only; it carries no
	// ordering meaning.
	segmentIndex int
}

// ReplayResult bundles everything one replay emits.
type ReplayResult struct {
	Segments []domain.AssetSegment
	Catalog  []domain.Asset
	Links    []domain.EventAssetLink
}

// Reconstructor replays ordered events over per-asset open segments. Each
// action closes, reopens, or drops the relevant asset's segment; closed
// segments become graph edges. All replay state lives in a replay context
// owned by a single Replay call, never in package state.
type Reconstructor struct {
	teamCode    string
	teamName    string
	startDate   string
	startNodeID string
	endNodeID   string
	logger      *slog.Logger
}

// NewReconstructor creates a Reconstructor anchored at the given boundary
// node IDs.
func NewReconstructor(teamCode, teamName, startDate, startNodeID, endNodeID string, logger *slog.Logger) *Reconstructor {
	return &Reconstructor{
		teamCode:    teamCode,
		teamName:    teamName,
		startDate:   startDate,
		startNodeID: startNodeID,
		endNodeID:   endNodeID,
		logger:      logger,
	}
}

// replayContext carries all mutable replay state through one run.
type replayContext struct {
	active   map[string]*openAssetState // keyed by asset_key
	history  map[string][]string        // keyed by asset_id
	catalog  map[string]domain.Asset    // keyed by asset_id
	segments []domain.AssetSegment
	links    []domain.EventAssetLink
}

// Replay walks the ordered event stream and reconstructs every asset's
// ownership segments.
//
// Events must already be in the normalizer's (event_date, event_key) order.
// Within one event, action rows apply in input order; actionsByEventKey must
// preserve it. Initial-asset rows open segments at the start boundary before
// any event applies.
//
// An unsupported action verb aborts the whole replay; there is no
// partial-output mode. Missing acquisition history is not an error: the
// bootstrap rule synthesizes an open segment from the start boundary instead.
func (r *Reconstructor) Replay(
	initialAssets []map[string]string,
	events []domain.Event,
	actionsByEventKey map[string][]map[string]string,
) (ReplayResult, error) {
	rc := &replayContext{
		active:  make(map[string]*openAssetState),
		history: make(map[string][]string),
		catalog: make(map[string]domain.Asset),
	}

	r.seedInitialAssets(rc, initialAssets)

	for _, event := range events {
		for seq, row := range actionsByEventKey[event.EventKey] {
			if err := r.applyAction(rc, event, seq, row); err != nil {
				return ReplayResult{}, err
			}
		}
	}

	r.closeRemaining(rc)

	return ReplayResult{
		Segments: rc.segments,
		Catalog:  sortedCatalog(rc.catalog),
		Links:    rc.links,
	}, nil
}

// seedInitialAssets opens one segment per snapshot row, anchored at the start
// boundary, and seeds each asset's history with a synthetic held entry.
func (r *Reconstructor) seedInitialAssets(rc *replayContext, rows []map[string]string) {
	for _, row := range rows {
		assetKey := row["asset_key"]
		assetID := ids.AssetID(r.teamCode, assetKey)
		attrs := domain.MergeAttrs(row, nil)

		rc.active[assetKey] = &openAssetState{
			assetID:       assetID,
			assetKey:      assetKey,
			attrs:         attrs,
			openNodeID:    r.startNodeID,
			openStartDate: r.startDate,
			segmentIndex:  0,
		}
		rc.history[assetID] = append(rc.history[assetID], r.startDate+"|initial_state|held")
		rc.catalog[assetID] = r.catalogEntry(assetID, assetKey, attrs)
	}
	r.logger.Info("seeded initial assets", slog.Int("count", len(rows)))
}

// applyAction processes one event-to-asset action row.
func (r *Reconstructor) applyAction(rc *replayContext, event domain.Event, seq int, row map[string]string) error {
	action := domain.Action(lower(row["action"]))
	if !action.Valid() {
		return fmt.Errorf("reconstructor: event %s: %w: %q", event.EventKey, domain.ErrUnsupportedAction, row["action"])
	}

	assetKey := row["asset_key"]
	assetID := ids.AssetID(r.teamCode, assetKey)

	// Bootstrap rule: a close-type action on an asset with no open segment
	// means the acquisition record is missing from the source history.
	// Synthesize an open segment from the start boundary instead of failing.
	if action.Closes() {
		if _, open := rc.active[assetKey]; !open {
			attrs := domain.MergeAttrs(row, nil)
			rc.active[assetKey] = &openAssetState{
				assetID:       assetID,
				assetKey:      assetKey,
				attrs:         attrs,
				openNodeID:    r.startNodeID,
				openStartDate: r.startDate,
				segmentIndex:  0,
			}
			if len(rc.history[assetID]) == 0 {
				rc.history[assetID] = append(rc.history[assetID], r.startDate+"|bootstrap_from_event|held")
			}
			if _, known := rc.catalog[assetID]; !known {
				rc.catalog[assetID] = r.catalogEntry(assetID, assetKey, attrs)
			}
			r.logger.Warn("bootstrapped asset with no acquisition record",
				slog.String("asset_key", assetKey),
				slog.String("event_key", event.EventKey),
				slog.String("action", string(action)),
			)
		}
	}

	// Close step: emit the open segment against this event. The history
	// snapshot excludes the action being applied; it is appended below.
	if action.Closes() {
		if state, open := rc.active[assetKey]; open {
			r.closeSegment(rc, state, event.EventID, event.EventDate, false)
		}
	}

	// Terminal step: the asset leaves the ledger.
	if action.Terminal() {
		delete(rc.active, assetKey)
	}

	// Reopen step: merge this row's non-empty attributes over the existing
	// bag and open a new segment anchored at the event.
	if action.Reopens() {
		var prior domain.Attrs
		previousIndex := -1
		if state, open := rc.active[assetKey]; open {
			prior = state.attrs
			previousIndex = state.segmentIndex
		}
		attrs := domain.MergeAttrs(row, prior)
		rc.active[assetKey] = &openAssetState{
			assetID:       assetID,
			assetKey:      assetKey,
			attrs:         attrs,
			openNodeID:    event.EventID,
			openStartDate: event.EventDate,
			segmentIndex:  previousIndex + 1,
		}
		rc.catalog[assetID] = r.catalogEntry(assetID, assetKey, attrs)
	}

	rc.links = append(rc.links, domain.EventAssetLink{
		EventID:   event.EventID,
		EventKey:  event.EventKey,
		AssetID:   assetID,
		AssetKey:  assetKey,
		Action:    action,
		Direction: domain.DirectionFor(action),
		Seq:       seq,
	})

	// History entry lands after close/reopen handling so a segment's prior
	// transactions never include the action that closed it.
	rc.history[assetID] = append(rc.history[assetID], event.EventDate+"|"+string(event.EventType)+"|"+string(action))
	return nil
}

// closeSegment emits one closed AssetSegment, snapshotting the state's
// attribute bag and the asset's accumulated history.
func (r *Reconstructor) closeSegment(rc *replayContext, state *openAssetState, targetNodeID, endDate string, activeAtEnd bool) {
	attrs := make(domain.Attrs, len(state.attrs))
	for k, v := range state.attrs {
		attrs[k] = v
	}
	history := rc.history[state.assetID]
	prior := make([]string, len(history))
	copy(prior, history)

	rc.segments = append(rc.segments, domain.AssetSegment{
		EdgeID:            ids.EdgeID(state.assetID, state.openNodeID, targetNodeID, state.segmentIndex),
		AssetID:           state.assetID,
		AssetKey:          state.assetKey,
		SourceNodeID:      state.openNodeID,
		TargetNodeID:      targetNodeID,
		StartDate:         state.openStartDate,
		EndDate:           endDate,
		ActiveAtEnd:       activeAtEnd,
		Attrs:             attrs,
		PriorTransactions: prior,
	})
}

// closeRemaining closes every asset still open after the last event against
// the end boundary, in ascending asset_key order for determinism. These
// segments carry an empty end date and is_active_at_end=true.
func (r *Reconstructor) closeRemaining(rc *replayContext) {
	keys := make([]string, 0, len(rc.active))
	for key := range rc.active {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		r.closeSegment(rc, rc.active[key], r.endNodeID, "", true)
		delete(rc.active, key)
	}
}

func (r *Reconstructor) catalogEntry(assetID, assetKey string, attrs domain.Attrs) domain.Asset {
	return domain.Asset{
		AssetID:   assetID,
		AssetKey:  assetKey,
		AssetType: attrs["asset_type"],
		Subtype:   attrs["subtype"],
		TeamCode:  r.teamCode,
		TeamName:  r.teamName,
	}
}

func sortedCatalog(catalog map[string]domain.Asset) []domain.Asset {
	assets := make([]domain.Asset, 0, len(catalog))
	for _, asset := range catalog {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].AssetID < assets[j].AssetID })
	return assets
}

package domain

// AssetType classifies a tracked roster unit.
type AssetType string

const (
	AssetTypePlayer          AssetType = "player"
	AssetTypeFullRoster      AssetType = "full_roster"
	AssetTypeTwoWay          AssetType = "two_way"
	AssetTypeFutureDraftPick AssetType = "future_draft_pick"
)

var allowedAssetTypes = map[AssetType]bool{
	AssetTypePlayer:          true,
	AssetTypeFullRoster:      true,
	AssetTypeTwoWay:          true,
	AssetTypeFutureDraftPick: true,
}

// Valid reports whether t is a recognized asset type. The empty string is not
// valid here; callers treat it as "unspecified" before asking.
func (t AssetType) Valid() bool {
	return allowedAssetTypes[t]
}

// Action is the verb an event applies to one asset.
type Action string

const (
	ActionAcquire    Action = "acquire"
	ActionRelinquish Action = "relinquish"
	ActionModify     Action = "modify"
	ActionTerminate  Action = "terminate"
)

var allowedActions = map[Action]bool{
	ActionAcquire:    true,
	ActionRelinquish: true,
	ActionModify:     true,
	ActionTerminate:  true,
}

// Valid reports whether a is a recognized action verb.
func (a Action) Valid() bool {
	return allowedActions[a]
}

// Closes reports whether the action closes the asset's open segment.
func (a Action) Closes() bool {
	return a == ActionRelinquish || a == ActionTerminate || a == ActionModify
}

// Terminal reports whether the action leaves the asset with no open segment.
func (a Action) Terminal() bool {
	return a == ActionRelinquish || a == ActionTerminate
}

// Reopens reports whether the action opens a new segment at the event.
func (a Action) Reopens() bool {
	return a == ActionAcquire || a == ActionModify
}

// Direction labels the flow of an asset as observed from the transaction
// record. Relinquish and terminate rows read as incoming on the ledger even
// though the team is losing the asset; the mapping is part of the source data
// contract and is preserved as-is.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// DirectionFor derives the ledger direction for an action.
func DirectionFor(a Action) Direction {
	if a.Terminal() {
		return DirectionIncoming
	}
	return DirectionOutgoing
}

// AttrNames lists the sticky attribute columns carried on assets and
// segments, in output column order.
var AttrNames = []string{
	"asset_type",
	"subtype",
	"player_name",
	"contract_expiry_year",
	"average_annual_salary",
	"acquisition_method",
	"original_team",
	"pick_year",
	"pick_number",
	"protections_raw",
	"protections_structured",
	"swap_conditions_raw",
	"swap_conditions_structured",
}

// Attrs is an asset's sticky attribute bag. Fields persist across segments
// until a later action overwrites them with a non-empty value.
type Attrs map[string]string

// MergeAttrs copies fallback and overlays every non-empty attribute column
// from row on top. Empty strings mean "unspecified" and never overwrite.
func MergeAttrs(row map[string]string, fallback Attrs) Attrs {
	merged := make(Attrs, len(AttrNames))
	for k, v := range fallback {
		merged[k] = v
	}
	for _, name := range AttrNames {
		if v := row[name]; v != "" {
			merged[name] = v
		}
	}
	return merged
}

// Asset is a catalog entry for one tracked roster unit. Created on first
// appearance, never deleted.
type Asset struct {
	AssetID   string
	AssetKey  string
	AssetType string
	Subtype   string
	TeamCode  string
	TeamName  string
}

// EventAssetLink records one action binding an event to an asset.
type EventAssetLink struct {
	EventID   string
	EventKey  string
	AssetID   string
	AssetKey  string
	Action    Action
	Direction Direction
	Seq       int // row order within the event, made explicit for review
}

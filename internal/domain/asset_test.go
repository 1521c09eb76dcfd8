package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionPredicates(t *testing.T) {
	tests := []struct {
		action   Action
		valid    bool
		closes   bool
		terminal bool
		reopens  bool
	}{
		{ActionAcquire, true, false, false, true},
		{ActionRelinquish, true, true, true, false},
		{ActionModify, true, true, false, true},
		{ActionTerminate, true, true, true, false},
		{Action("transform"), false, false, false, false},
		{Action(""), false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.action.Valid())
			assert.Equal(t, tt.closes, tt.action.Closes())
			assert.Equal(t, tt.terminal, tt.action.Terminal())
			assert.Equal(t, tt.reopens, tt.action.Reopens())
		})
	}
}

func TestAssetTypeValid(t *testing.T) {
	for _, at := range []AssetType{AssetTypePlayer, AssetTypeFullRoster, AssetTypeTwoWay, AssetTypeFutureDraftPick} {
		assert.True(t, at.Valid(), string(at))
	}
	assert.False(t, AssetType("coach").Valid())
	assert.False(t, AssetType("").Valid())
}

func TestDirectionFor(t *testing.T) {
	assert.Equal(t, DirectionOutgoing, DirectionFor(ActionAcquire))
	assert.Equal(t, DirectionOutgoing, DirectionFor(ActionModify))
	assert.Equal(t, DirectionIncoming, DirectionFor(ActionRelinquish))
	assert.Equal(t, DirectionIncoming, DirectionFor(ActionTerminate))
}

func TestMergeAttrs(t *testing.T) {
	fallback := Attrs{
		"asset_type":  "player",
		"player_name": "Player X",
		"subtype":     "standard",
	}
	row := map[string]string{
		"player_name": "Player X Jr.",
		"subtype":     "", // empty means unspecified, must not overwrite
		"pick_year":   "2027",
		"asset_key":   "ignored_non_attr_column",
	}

	merged := MergeAttrs(row, fallback)

	assert.Equal(t, "player", merged["asset_type"], "fallback survives when row is silent")
	assert.Equal(t, "Player X Jr.", merged["player_name"], "non-empty row value wins")
	assert.Equal(t, "standard", merged["subtype"], "empty row value never overwrites")
	assert.Equal(t, "2027", merged["pick_year"], "new attribute columns are picked up")
	assert.NotContains(t, merged, "asset_key", "columns outside the attribute set are ignored")

	// The fallback bag must not be mutated.
	assert.Equal(t, "Player X", fallback["player_name"])
}

func TestMergeAttrsNilFallback(t *testing.T) {
	merged := MergeAttrs(map[string]string{"asset_type": "future_draft_pick"}, nil)
	assert.Equal(t, Attrs{"asset_type": "future_draft_pick"}, merged)
}

func TestEventTypeValid(t *testing.T) {
	for _, et := range []EventType{
		EventTypeTrade, EventTypeDraftPick, EventTypeContractSigning,
		EventTypeExtension, EventTypeReSigning, EventTypeConversion, EventTypeWaiver,
	} {
		assert.True(t, et.Valid(), string(et))
	}
	assert.False(t, EventType("buyout").Valid())
	assert.False(t, EventType("Trade").Valid(), "vocabulary is lower-case only")
}

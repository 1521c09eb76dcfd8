package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Player X", "player_x"},
		{"collapses runs", "a -- b!!c", "a_b_c"},
		{"trims underscores", "  --hello--  ", "hello"},
		{"empty falls back", "", "na"},
		{"only punctuation falls back", "!!!", "na"},
		{"digits kept", "pick 2027 r1", "pick_2027_r1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug(tt.input))
		})
	}
}

func TestDeterministicID(t *testing.T) {
	a := DeterministicID("evt", "mem", "trade_2024_01", "2024-01-15", "trade")
	b := DeterministicID("evt", "mem", "trade_2024_01", "2024-01-15", "trade")
	require.Equal(t, a, b, "same inputs must produce the same ID")

	c := DeterministicID("evt", "mem", "trade_2024_02", "2024-01-15", "trade")
	assert.NotEqual(t, a, c, "different natural keys must produce different IDs")

	parts := strings.Split(a, "_")
	require.GreaterOrEqual(t, len(parts), 3)
	assert.Equal(t, "evt", parts[0])
	assert.Len(t, parts[len(parts)-1], 10, "hash suffix is a fixed-length hex prefix")
}

func TestDeterministicIDTrimsParts(t *testing.T) {
	a := DeterministicID("ast", "mem", "player_x")
	b := DeterministicID("ast", " mem ", " player_x ")
	assert.Equal(t, a, b, "surrounding whitespace must not change the ID")
}

func TestDeterministicIDSlugTruncation(t *testing.T) {
	long := strings.Repeat("abcde ", 30)
	id := DeterministicID("ast", long)

	body := strings.TrimPrefix(id, "ast_")
	slugPart := body[:len(body)-len("_")-10]
	assert.LessOrEqual(t, len(slugPart), 48)
}

func TestEntityIDPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(EventID("mem", "k", "2024-01-15", "trade"), "evt_"))
	assert.True(t, strings.HasPrefix(AssetID("mem", "player_x"), "ast_"))
	assert.True(t, strings.HasPrefix(EdgeID("ast_x_123", "n1", "n2", 0), "edg_"))
}

func TestEdgeIDVariesWithSegmentIndex(t *testing.T) {
	a := EdgeID("ast_x_123", "n1", "n2", 0)
	b := EdgeID("ast_x_123", "n1", "n2", 1)
	assert.NotEqual(t, a, b)
}

func TestStateNodeID(t *testing.T) {
	assert.Equal(t, "state_start_mem_19950623", StateNodeID(StartStatePrefix, "MEM", "1995-06-23"))
	assert.Equal(t, "state_end_mem_20240115", StateNodeID(EndStatePrefix, "mem", "2024-01-15"))
}

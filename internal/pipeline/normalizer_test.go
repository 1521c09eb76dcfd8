package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtdata/assetlineage/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeEventsOrdersAndResolves(t *testing.T) {
	n := NewNormalizer("mem", "2020-01-01", "2024-12-31", testLogger())

	events := []map[string]string{
		{"event_key": "b_event", "event_date": "2023-05-01", "event_type": "Trade", "event_label": "Big trade", "description": "d", "source_id": "s1"},
		{"event_key": "a_event", "event_date": "2023-05-01", "event_type": "waiver", "source_id": "s2"},
		{"event_key": "z_event", "event_date": "2021-01-10", "event_type": "draft_pick", "source_id": ""},
	}
	sources := []map[string]string{
		{"source_id": "s1", "source_name": "League Register", "source_url": "https://example.com/r1"},
	}

	got, err := n.NormalizeEvents(events, sources)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Date ascending, then event_key for same-date ties.
	assert.Equal(t, "z_event", got[0].EventKey)
	assert.Equal(t, "a_event", got[1].EventKey)
	assert.Equal(t, "b_event", got[2].EventKey)

	// Types are canonicalized to lower case.
	assert.Equal(t, domain.EventTypeTrade, got[2].EventType)

	// Source citation resolved where present, empty where not.
	assert.Equal(t, "League Register", got[2].SourceName)
	assert.Equal(t, "https://example.com/r1", got[2].SourceURL)
	assert.Equal(t, "", got[1].SourceName)

	// Deterministic IDs assigned.
	for _, e := range got {
		assert.Contains(t, e.EventID, "evt_")
	}
}

func TestNormalizeEventsUnknownTypeIsFatal(t *testing.T) {
	n := NewNormalizer("mem", "2020-01-01", "2024-12-31", testLogger())

	events := []map[string]string{
		// Outside the window on purpose: vocabulary enforcement applies to
		// every row, not just retained ones.
		{"event_key": "old", "event_date": "1980-01-01", "event_type": "buyout"},
	}

	_, err := n.NormalizeEvents(events, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedEventType)
	assert.Contains(t, err.Error(), "buyout")
}

func TestNormalizeEventsDropsOutsideWindow(t *testing.T) {
	n := NewNormalizer("mem", "2020-01-01", "2020-12-31", testLogger())

	events := []map[string]string{
		{"event_key": "before", "event_date": "2019-12-31", "event_type": "trade"},
		{"event_key": "first_day", "event_date": "2020-01-01", "event_type": "trade"},
		{"event_key": "last_day", "event_date": "2020-12-31", "event_type": "trade"},
		{"event_key": "after", "event_date": "2021-01-01", "event_type": "trade"},
	}

	got, err := n.NormalizeEvents(events, nil)
	require.NoError(t, err)
	require.Len(t, got, 2, "window is inclusive on both ends")
	assert.Equal(t, "first_day", got[0].EventKey)
	assert.Equal(t, "last_day", got[1].EventKey)
}

func TestNormalizeEventsIdempotent(t *testing.T) {
	n := NewNormalizer("mem", "2020-01-01", "2024-12-31", testLogger())
	events := []map[string]string{
		{"event_key": "k1", "event_date": "2021-02-03", "event_type": "extension"},
	}

	first, err := n.NormalizeEvents(events, nil)
	require.NoError(t, err)
	second, err := n.NormalizeEvents(events, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

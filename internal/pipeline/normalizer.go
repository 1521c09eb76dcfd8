package pipeline

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/courtdata/assetlineage/internal/domain"
	"github.com/courtdata/assetlineage/internal/ids"
)

// Normalizer validates and canonicalizes the raw event log. It enforces the
// event-type vocabulary, filters to the observed window, resolves source
// citations, assigns deterministic event IDs, and establishes the total order
// used by every downstream step.
type Normalizer struct {
	teamCode  string
	startDate string
	endDate   string
	logger    *slog.Logger
}

// NewNormalizer creates a Normalizer for one team and date window. Dates are
// zero-padded ISO strings; the window is inclusive on both ends.
func NewNormalizer(teamCode, startDate, endDate string, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		teamCode:  teamCode,
		startDate: startDate,
		endDate:   endDate,
		logger:    logger,
	}
}

// NormalizeEvents turns raw event rows into ordered normalized events.
//
// An unrecognized event type is fatal: this is a data-quality gate, not a
// best-effort filter, and applies to every row regardless of date. Events
// outside the window are dropped silently. A source_id that resolves to no
// source row yields empty citation fields, not an error.
//
// The result is sorted by (event_date, event_key) ascending. Ties on the same
// date break on the natural key, so the order is independent of input row
// order.
func (n *Normalizer) NormalizeEvents(events, sources []map[string]string) ([]domain.Event, error) {
	sourceByID := make(map[string]map[string]string, len(sources))
	for _, row := range sources {
		sourceByID[row["source_id"]] = row
	}

	ordered := make([]map[string]string, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i]["event_date"] != ordered[j]["event_date"] {
			return ordered[i]["event_date"] < ordered[j]["event_date"]
		}
		return ordered[i]["event_key"] < ordered[j]["event_key"]
	})

	dropped := 0
	normalized := make([]domain.Event, 0, len(ordered))
	for _, row := range ordered {
		eventType := domain.EventType(lower(row["event_type"]))
		if !eventType.Valid() {
			return nil, fmt.Errorf("normalizer: event %s: %w: %q", row["event_key"], domain.ErrUnsupportedEventType, row["event_type"])
		}

		eventDate := row["event_date"]
		if eventDate < n.startDate || eventDate > n.endDate {
			dropped++
			continue
		}

		source := sourceByID[row["source_id"]]
		normalized = append(normalized, domain.Event{
			EventID:    ids.EventID(n.teamCode, row["event_key"], eventDate, string(eventType)),
			EventKey:   row["event_key"],
			EventDate:  eventDate,
			EventType:  eventType,
			EventLabel: row["event_label"],
			Descr:      row["description"],
			SourceID:   row["source_id"],
			SourceName: source["source_name"],
			SourceURL:  source["source_url"],
		})
	}

	if dropped > 0 {
		n.logger.Info("dropped events outside window",
			slog.Int("count", dropped),
			slog.String("start_date", n.startDate),
			slog.String("end_date", n.endDate),
		)
	}
	return normalized, nil
}

func lower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

package domain

// EventType classifies a franchise transaction.
type EventType string

const (
	EventTypeTrade           EventType = "trade"
	EventTypeDraftPick       EventType = "draft_pick"
	EventTypeContractSigning EventType = "contract_signing"
	EventTypeExtension       EventType = "extension"
	EventTypeReSigning       EventType = "re_signing"
	EventTypeConversion      EventType = "conversion"
	EventTypeWaiver          EventType = "waiver"
)

// allowedEventTypes is the closed vocabulary accepted by the normalizer.
var allowedEventTypes = map[EventType]bool{
	EventTypeTrade:           true,
	EventTypeDraftPick:       true,
	EventTypeContractSigning: true,
	EventTypeExtension:       true,
	EventTypeReSigning:       true,
	EventTypeConversion:      true,
	EventTypeWaiver:          true,
}

// Valid reports whether t is a recognized event type.
func (t EventType) Valid() bool {
	return allowedEventTypes[t]
}

// Event is a normalized transaction event occurring on one calendar date.
// Immutable once produced by the normalizer.
type Event struct {
	EventID    string
	EventKey   string
	EventDate  string // ISO-8601, zero-padded, so lexicographic order is date order
	EventType  EventType
	EventLabel string
	Descr      string
	SourceID   string
	SourceName string
	SourceURL  string
}

package domain

import "context"

// RawEventRecord is a raw transaction event as received from a source system,
// before any normalization beyond field extraction.
type RawEventRecord struct {
	SourceSystem   string
	SourceEventRef string
	EventDateRaw   string
	EventTypeRaw   string
	SourceURL      string
	SourcePayload  map[string]any
}

// RawAssetRecord is a raw asset sighting from a source system.
type RawAssetRecord struct {
	SourceSystem   string
	SourceAssetRef string
	AssetTypeRaw   string
	EffectiveRaw   string
	SourcePayload  map[string]any
}

// RawLinkRecord is a raw event-to-asset action from a source system.
type RawLinkRecord struct {
	SourceSystem   string
	SourceEventRef string
	SourceAssetRef string
	ActionRaw      string
	DirectionRaw   string
	EffectiveRaw   string
	SourcePayload  map[string]any
}

// RawBatch bundles the raw records of one bronze load.
type RawBatch struct {
	Events []RawEventRecord
	Assets []RawAssetRecord
	Links  []RawLinkRecord
}

// Len returns the total number of records in the batch.
func (b RawBatch) Len() int {
	return len(b.Events) + len(b.Assets) + len(b.Links)
}

// IngestRun describes one bronze load attempt.
type IngestRun struct {
	RunID          string
	PipelineName   string
	SourceSystem   string
	RunMode        string
	Status         string
	RecordsSeen    int
	RecordsWritten int
	Notes          string
}

// Ingest run terminal statuses.
const (
	RunStatusRunning   = "running"
	RunStatusSuccess   = "success"
	RunStatusNoNewData = "no_new_data"
	RunStatusFailed    = "failed"
)

// BronzeStore persists raw records append-only with idempotent conflict-skip
// semantics. Load writes the whole batch in one transaction: on any failure
// the batch rolls back and the run row is marked failed with the error text;
// on success a single summary row commits with the batch.
type BronzeStore interface {
	Load(ctx context.Context, run IngestRun, batch RawBatch) (IngestRun, error)
}

// Package bronze reads raw JSON/JSONL transaction records and loads them into
// the append-only bronze sink with idempotent conflict-skip semantics.
package bronze

import (
	"fmt"
	"strings"

	"github.com/courtdata/assetlineage/internal/domain"
)

// stringField extracts the first non-empty of the named keys from a raw
// record, trimmed. Raw exports from different source systems disagree on
// field naming, so each contract field carries a fallback alias.
func stringField(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := record[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// payloadOf returns the record's source_payload object, or the record itself
// when the payload is inlined.
func payloadOf(record map[string]any) (map[string]any, error) {
	v, ok := record["source_payload"]
	if !ok || v == nil {
		return record, nil
	}
	payload, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bronze: source_payload must be an object")
	}
	return payload, nil
}

// NormalizeEvent maps one raw record onto the event contract. The natural
// reference is required; everything else degrades to empty strings.
func NormalizeEvent(record map[string]any, defaultSourceSystem string) (domain.RawEventRecord, error) {
	payload, err := payloadOf(record)
	if err != nil {
		return domain.RawEventRecord{}, err
	}

	ref := stringField(record, "source_event_ref", "event_key")
	if ref == "" {
		return domain.RawEventRecord{}, fmt.Errorf("bronze: event source_event_ref is required")
	}

	sourceSystem := stringField(record, "source_system")
	if sourceSystem == "" {
		sourceSystem = defaultSourceSystem
	}

	return domain.RawEventRecord{
		SourceSystem:   sourceSystem,
		SourceEventRef: ref,
		EventDateRaw:   stringField(record, "event_date_raw", "event_date"),
		EventTypeRaw:   stringField(record, "event_type_raw", "event_type"),
		SourceURL:      stringField(record, "source_url"),
		SourcePayload:  payload,
	}, nil
}

// NormalizeAsset maps one raw record onto the asset contract.
func NormalizeAsset(record map[string]any, defaultSourceSystem string) (domain.RawAssetRecord, error) {
	payload, err := payloadOf(record)
	if err != nil {
		return domain.RawAssetRecord{}, err
	}

	ref := stringField(record, "source_asset_ref", "asset_key")
	if ref == "" {
		return domain.RawAssetRecord{}, fmt.Errorf("bronze: asset source_asset_ref is required")
	}

	sourceSystem := stringField(record, "source_system")
	if sourceSystem == "" {
		sourceSystem = defaultSourceSystem
	}

	return domain.RawAssetRecord{
		SourceSystem:   sourceSystem,
		SourceAssetRef: ref,
		AssetTypeRaw:   stringField(record, "asset_type_raw", "asset_type"),
		EffectiveRaw:   stringField(record, "effective_date_raw", "event_date"),
		SourcePayload:  payload,
	}, nil
}

// NormalizeLink maps one raw record onto the event-asset link contract.
func NormalizeLink(record map[string]any, defaultSourceSystem string) (domain.RawLinkRecord, error) {
	payload, err := payloadOf(record)
	if err != nil {
		return domain.RawLinkRecord{}, err
	}

	eventRef := stringField(record, "source_event_ref", "event_key")
	assetRef := stringField(record, "source_asset_ref", "asset_key")
	if eventRef == "" || assetRef == "" {
		return domain.RawLinkRecord{}, fmt.Errorf("bronze: link source_event_ref and source_asset_ref are required")
	}

	sourceSystem := stringField(record, "source_system")
	if sourceSystem == "" {
		sourceSystem = defaultSourceSystem
	}

	return domain.RawLinkRecord{
		SourceSystem:   sourceSystem,
		SourceEventRef: eventRef,
		SourceAssetRef: assetRef,
		ActionRaw:      stringField(record, "action_raw", "action"),
		DirectionRaw:   stringField(record, "direction_raw", "direction"),
		EffectiveRaw:   stringField(record, "effective_date_raw", "event_date"),
		SourcePayload:  payload,
	}, nil
}

package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtdata/assetlineage/internal/domain"
)

// BronzeStore implements domain.BronzeStore using PostgreSQL. Raw records are
// append-only; re-loading the same payload is a no-op thanks to the unique
// (source_system, natural ref, payload_hash) constraints.
type BronzeStore struct {
	pool *pgxpool.Pool
}

// NewBronzeStore creates a BronzeStore backed by the given connection pool.
func NewBronzeStore(pool *pgxpool.Pool) *BronzeStore {
	return &BronzeStore{pool: pool}
}

// payloadHash computes the SHA-256 of the payload's canonical JSON form.
// json.Marshal sorts map keys, so identical payloads hash identically
// regardless of source field order.
func payloadHash(payload map[string]any) (string, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("postgres: marshal payload: %w", err)
	}
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:]), data, nil
}

// Load writes the whole batch in one transaction. The run row is inserted
// up front outside the batch transaction so a failed load still leaves an
// auditable failed run; on success the row is finalized together with the
// batch commit.
func (s *BronzeStore) Load(ctx context.Context, run domain.IngestRun, batch domain.RawBatch) (domain.IngestRun, error) {
	run.RunID = uuid.NewString()
	run.Status = domain.RunStatusRunning
	run.RecordsSeen = batch.Len()

	const insertRun = `
		INSERT INTO bronze.ingest_runs (run_id, pipeline_name, source_system, run_mode, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.pool.Exec(ctx, insertRun,
		run.RunID, run.PipelineName, run.SourceSystem, run.RunMode, run.Status, time.Now().UTC(),
	); err != nil {
		return run, fmt.Errorf("postgres: insert ingest run: %w", err)
	}

	written, err := s.loadBatch(ctx, run.RunID, batch)
	run.RecordsWritten = written
	if err != nil {
		run.Status = domain.RunStatusFailed
		s.finishRun(ctx, run, err.Error())
		return run, fmt.Errorf("postgres: bronze load run %s: %w", run.RunID, err)
	}

	if written > 0 {
		run.Status = domain.RunStatusSuccess
		run.Notes = "Bronze load completed with inserts."
	} else {
		run.Status = domain.RunStatusNoNewData
		run.Notes = "Bronze load completed. All records already present (idempotent no-op)."
	}
	s.finishRun(ctx, run, "")
	return run, nil
}

// loadBatch inserts every record inside one transaction and returns how many
// rows were actually written (conflicts skip silently).
func (s *BronzeStore) loadBatch(ctx context.Context, runID string, batch domain.RawBatch) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	written := 0

	const insertEvent = `
		INSERT INTO bronze.raw_events (
			ingest_run_id, source_system, source_event_ref,
			event_date_raw, event_type_raw, source_url, source_payload, payload_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_system, source_event_ref, payload_hash) DO NOTHING
		RETURNING raw_event_id`
	for _, record := range batch.Events {
		hash, payload, err := payloadHash(record.SourcePayload)
		if err != nil {
			return written, err
		}
		inserted, err := execReturning(ctx, tx, insertEvent,
			runID, record.SourceSystem, record.SourceEventRef,
			record.EventDateRaw, record.EventTypeRaw, record.SourceURL, payload, hash,
		)
		if err != nil {
			return written, fmt.Errorf("insert raw event %s: %w", record.SourceEventRef, err)
		}
		if inserted {
			written++
		}
	}

	const insertAsset = `
		INSERT INTO bronze.raw_assets (
			ingest_run_id, source_system, source_asset_ref,
			asset_type_raw, effective_date_raw, source_payload, payload_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_system, source_asset_ref, payload_hash) DO NOTHING
		RETURNING raw_asset_id`
	for _, record := range batch.Assets {
		hash, payload, err := payloadHash(record.SourcePayload)
		if err != nil {
			return written, err
		}
		inserted, err := execReturning(ctx, tx, insertAsset,
			runID, record.SourceSystem, record.SourceAssetRef,
			record.AssetTypeRaw, record.EffectiveRaw, payload, hash,
		)
		if err != nil {
			return written, fmt.Errorf("insert raw asset %s: %w", record.SourceAssetRef, err)
		}
		if inserted {
			written++
		}
	}

	const insertLink = `
		INSERT INTO bronze.raw_event_asset_links (
			ingest_run_id, source_system, source_event_ref, source_asset_ref,
			action_raw, direction_raw, effective_date_raw, source_payload, payload_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_system, source_event_ref, source_asset_ref, action_raw, payload_hash) DO NOTHING
		RETURNING raw_link_id`
	for _, record := range batch.Links {
		hash, payload, err := payloadHash(record.SourcePayload)
		if err != nil {
			return written, err
		}
		inserted, err := execReturning(ctx, tx, insertLink,
			runID, record.SourceSystem, record.SourceEventRef, record.SourceAssetRef,
			record.ActionRaw, record.DirectionRaw, record.EffectiveRaw, payload, hash,
		)
		if err != nil {
			return written, fmt.Errorf("insert raw link %s/%s: %w", record.SourceEventRef, record.SourceAssetRef, err)
		}
		if inserted {
			written++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return written, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}

// execReturning runs an INSERT ... ON CONFLICT DO NOTHING RETURNING statement
// and reports whether a row was actually inserted.
func execReturning(ctx context.Context, tx pgx.Tx, query string, args ...any) (bool, error) {
	var id int64
	err := tx.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// finishRun finalizes the run row. Failures here are swallowed: the load
// outcome has already been decided and must not be masked by bookkeeping.
func (s *BronzeStore) finishRun(ctx context.Context, run domain.IngestRun, errorText string) {
	const update = `
		UPDATE bronze.ingest_runs
		SET status = $2, finished_at = $3, records_seen = $4, records_written = $5,
		    notes = $6, error_text = NULLIF($7, '')
		WHERE run_id = $1::uuid`
	_, _ = s.pool.Exec(ctx, update,
		run.RunID, run.Status, time.Now().UTC(), run.RecordsSeen, run.RecordsWritten,
		run.Notes, errorText,
	)
}

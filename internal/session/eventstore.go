package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/norioman/rfid-monitoring-demo/internal/models"
)

// EventStore holds an analysis session's snapshots and tag observations in
// a temporary DuckDB file, so the events and tag endpoints can page through
// SQL instead of slicing the in-memory batch. The file is deleted when the
// session is cleaned up.
type EventStore struct {
	db     *sql.DB
	dbPath string
	count  int
}

// NewEventStore creates a session-scoped DuckDB store in tempDir.
func NewEventStore(tempDir, sessionID string) (*EventStore, error) {
	dbPath := filepath.Join(tempDir, fmt.Sprintf("session_%s.duckdb", sessionID))

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb at %s: %w", dbPath, err)
	}

	_, err = db.Exec(`
		CREATE TABLE snapshots (
			idx        INTEGER PRIMARY KEY,
			filename   VARCHAR NOT NULL,
			raw_ts     VARCHAR NOT NULL,
			display_ts VARCHAR NOT NULL,
			scan_ms    BIGINT,
			ts_valid   BOOLEAN NOT NULL,
			sequence   VARCHAR NOT NULL,
			tag_count  INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE observations (
			snapshot_idx INTEGER NOT NULL,
			row_order    INTEGER NOT NULL,
			tag_id       VARCHAR NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		os.Remove(dbPath)
		return nil, fmt.Errorf("creating observations table: %w", err)
	}

	return &EventStore{db: db, dbPath: dbPath}, nil
}

// Load inserts an assembled batch. Called once per session, before any query.
func (es *EventStore) Load(snapshots []models.Snapshot) error {
	tx, err := es.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	insSnap, err := tx.Prepare(`INSERT INTO snapshots VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer insSnap.Close()

	insObs, err := tx.Prepare(`INSERT INTO observations VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing observation insert: %w", err)
	}
	defer insObs.Close()

	for i, snap := range snapshots {
		var scanMs sql.NullInt64
		if snap.ScanTime.Valid {
			scanMs = sql.NullInt64{Int64: snap.ScanTime.Time.UnixMilli(), Valid: true}
		}
		if _, err := insSnap.Exec(i, snap.Filename, snap.RawTimestamp, snap.DisplayTime,
			scanMs, snap.ScanTime.Valid, snap.Sequence, snap.TagCount); err != nil {
			return fmt.Errorf("inserting snapshot %d: %w", i, err)
		}
		for j, tagID := range snap.TagIDs {
			if _, err := insObs.Exec(i, j, tagID); err != nil {
				return fmt.Errorf("inserting observation %d/%d: %w", i, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load: %w", err)
	}

	es.count = len(snapshots)
	return nil
}

// Len returns the number of stored snapshots.
func (es *EventStore) Len() int {
	return es.count
}

// QuerySnapshots returns one page of snapshots in batch order, optionally
// restricted to a sequence code. Tag IDs are rehydrated per snapshot.
func (es *EventStore) QuerySnapshots(ctx context.Context, sequence string, offset, limit int) ([]models.Snapshot, int, error) {
	where := ""
	args := []interface{}{}
	if sequence != "" {
		where = " WHERE sequence = ?"
		args = append(args, sequence)
	}

	var total int
	if err := es.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting snapshots: %w", err)
	}

	query := "SELECT idx, filename, raw_ts, display_ts, scan_ms, ts_valid, sequence, tag_count FROM snapshots" +
		where + " ORDER BY idx LIMIT ? OFFSET ?"
	rows, err := es.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	var indexes []int
	for rows.Next() {
		var idx, tagCount int
		var scanMs sql.NullInt64
		var tsValid bool
		var snap models.Snapshot
		if err := rows.Scan(&idx, &snap.Filename, &snap.RawTimestamp, &snap.DisplayTime,
			&scanMs, &tsValid, &snap.Sequence, &tagCount); err != nil {
			return nil, 0, fmt.Errorf("scanning snapshot row: %w", err)
		}
		snap.ScanTime = decodeScanMs(scanMs, tsValid)
		snap.TagCount = tagCount
		snap.TagIDs = make([]string, 0, tagCount)
		snapshots = append(snapshots, snap)
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating snapshots: %w", err)
	}

	for i, idx := range indexes {
		if snapshots[i].TagCount == 0 {
			continue
		}
		tags, err := es.snapshotTags(ctx, idx)
		if err != nil {
			return nil, 0, err
		}
		snapshots[i].TagIDs = tags
	}

	return snapshots, total, nil
}

func (es *EventStore) snapshotTags(ctx context.Context, idx int) ([]string, error) {
	rows, err := es.db.QueryContext(ctx,
		"SELECT tag_id FROM observations WHERE snapshot_idx = ? ORDER BY row_order", idx)
	if err != nil {
		return nil, fmt.Errorf("querying tags for snapshot %d: %w", idx, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, tagID)
	}
	return tags, rows.Err()
}

// ListTags returns the distinct tag IDs with their observation counts,
// most-seen first.
func (es *EventStore) ListTags(ctx context.Context) (map[string]int, error) {
	rows, err := es.db.QueryContext(ctx,
		"SELECT tag_id, COUNT(*) FROM observations GROUP BY tag_id ORDER BY COUNT(*) DESC, tag_id")
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[string]int)
	for rows.Next() {
		var tagID string
		var count int
		if err := rows.Scan(&tagID, &count); err != nil {
			return nil, fmt.Errorf("scanning tag count: %w", err)
		}
		tags[tagID] = count
	}
	return tags, rows.Err()
}

// TagHistory returns the observations of one tag in snapshot order.
func (es *EventStore) TagHistory(ctx context.Context, tagID string) ([]models.TagObservation, error) {
	rows, err := es.db.QueryContext(ctx, `
		SELECT s.display_ts, s.scan_ms, s.ts_valid, s.sequence, s.filename
		FROM observations o JOIN snapshots s ON s.idx = o.snapshot_idx
		WHERE o.tag_id = ?
		ORDER BY o.snapshot_idx, o.row_order`, tagID)
	if err != nil {
		return nil, fmt.Errorf("querying history for tag %s: %w", tagID, err)
	}
	defer rows.Close()

	var history []models.TagObservation
	for rows.Next() {
		var scanMs sql.NullInt64
		var tsValid bool
		obs := models.TagObservation{TagID: tagID}
		if err := rows.Scan(&obs.DisplayTime, &scanMs, &tsValid, &obs.Sequence, &obs.SourceFile); err != nil {
			return nil, fmt.Errorf("scanning observation row: %w", err)
		}
		obs.ScanTime = decodeScanMs(scanMs, tsValid)
		history = append(history, obs)
	}
	return history, rows.Err()
}

// Close releases the database and removes the session's temp file.
func (es *EventStore) Close() error {
	if es.db != nil {
		es.db.Close()
	}
	if es.dbPath != "" {
		os.Remove(es.dbPath)
	}
	return nil
}

func decodeScanMs(scanMs sql.NullInt64, valid bool) models.ScanTime {
	if !valid || !scanMs.Valid {
		return models.ScanTime{}
	}
	return models.ScanTime{Time: time.UnixMilli(scanMs.Int64).UTC(), Valid: true}
}

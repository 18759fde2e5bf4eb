package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ecapdash/internal/coverage"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		collection   TEXT NOT NULL,
		fetched_at   DATETIME NOT NULL,
		record_count INTEGER NOT NULL,
		payload      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_collection ON snapshots(collection, fetched_at);

	CREATE TABLE IF NOT EXISTS refresh_log (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at    DATETIME NOT NULL,
		finished_at   DATETIME NOT NULL,
		total_records INTEGER NOT NULL,
		errors        TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_refresh_log_started ON refresh_log(started_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// InsertSnapshot stores the raw payload of one fetched collection and prunes
// older snapshots of the same collection, keeping only the latest.
func InsertSnapshot(db *sql.DB, collection string, fetchedAt time.Time, records []coverage.Record) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal %s snapshot: %w", collection, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO snapshots (collection, fetched_at, record_count, payload) VALUES (?, ?, ?, ?)`,
		collection, fetchedAt, len(records), string(payload),
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`DELETE FROM snapshots WHERE collection = ? AND id NOT IN
		 (SELECT id FROM snapshots WHERE collection = ? ORDER BY fetched_at DESC, id DESC LIMIT 1)`,
		collection, collection,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// LatestSnapshot loads the most recent stored payload for a collection.
// A collection never snapshotted yields an empty slice, not an error.
func LatestSnapshot(db *sql.DB, collection string) ([]coverage.Record, time.Time, error) {
	var payload string
	var fetchedAt time.Time
	err := db.QueryRow(
		`SELECT payload, fetched_at FROM snapshots
		 WHERE collection = ? ORDER BY fetched_at DESC, id DESC LIMIT 1`,
		collection,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	var records []coverage.Record
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, time.Time{}, fmt.Errorf("unmarshal %s snapshot: %w", collection, err)
	}
	return records, fetchedAt, nil
}

type SnapshotInfo struct {
	Collection  string    `json:"collection"`
	FetchedAt   time.Time `json:"fetched_at"`
	RecordCount int       `json:"record_count"`
}

func ListSnapshots(db *sql.DB) ([]SnapshotInfo, error) {
	rows, err := db.Query(
		`SELECT collection, fetched_at, record_count FROM snapshots ORDER BY collection`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var s SnapshotInfo
		if err := rows.Scan(&s.Collection, &s.FetchedAt, &s.RecordCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type RefreshLogEntry struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	TotalRecords int       `json:"total_records"`
	Errors       string    `json:"errors,omitempty"`
}

func InsertRefreshLog(db *sql.DB, entry RefreshLogEntry) error {
	_, err := db.Exec(
		`INSERT INTO refresh_log (started_at, finished_at, total_records, errors) VALUES (?, ?, ?, ?)`,
		entry.StartedAt, entry.FinishedAt, entry.TotalRecords, entry.Errors,
	)
	return err
}

func GetRecentRefreshes(db *sql.DB, limit int) ([]RefreshLogEntry, error) {
	rows, err := db.Query(
		`SELECT id, started_at, finished_at, total_records, errors
		 FROM refresh_log ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RefreshLogEntry
	for rows.Next() {
		var e RefreshLogEntry
		if err := rows.Scan(&e.ID, &e.StartedAt, &e.FinishedAt, &e.TotalRecords, &e.Errors); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Package store persists sync bookkeeping and the elevation response cache
// in an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SyncRecord is one recorded portal sync for a state.
type SyncRecord struct {
	ID       string    `json:"id"`
	State    string    `json:"state"`
	ETag     string    `json:"etag"`
	Path     string    `json:"path"`
	Rows     int64     `json:"rows"`
	SyncedAt time.Time `json:"synced_at"`
}

// Store wraps the SQLite database used by the CLI.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database at the given path and configures WAL mode.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS sync_log (
	id        TEXT PRIMARY KEY,
	state     TEXT NOT NULL,
	etag      TEXT NOT NULL DEFAULT '',
	path      TEXT NOT NULL,
	rows      INTEGER NOT NULL DEFAULT 0,
	synced_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS elevation_cache (
	key       TEXT PRIMARY KEY,
	provider  TEXT NOT NULL,
	response  TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_sync_log_state ON sync_log(state, synced_at);
CREATE INDEX IF NOT EXISTS idx_elevation_cache_cached_at ON elevation_cache(cached_at);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSync inserts a sync log entry and returns it.
func (s *Store) RecordSync(ctx context.Context, state, etag, path string, rows int64) (*SyncRecord, error) {
	rec := &SyncRecord{
		ID:       uuid.New().String(),
		State:    state,
		ETag:     etag,
		Path:     path,
		Rows:     rows,
		SyncedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_log (id, state, etag, path, rows, synced_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.State, rec.ETag, rec.Path, rec.Rows, rec.SyncedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert sync log")
	}

	return rec, nil
}

// LastSync returns the most recent sync record for a state, or nil if the
// state has never been synced.
func (s *Store) LastSync(ctx context.Context, state string) (*SyncRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, state, etag, path, rows, synced_at FROM sync_log
		 WHERE state = ? ORDER BY synced_at DESC LIMIT 1`,
		state,
	)

	var rec SyncRecord
	err := row.Scan(&rec.ID, &rec.State, &rec.ETag, &rec.Path, &rec.Rows, &rec.SyncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: query last sync")
	}

	return &rec, nil
}

// ListSyncs returns the most recent sync record per state.
func (s *Store) ListSyncs(ctx context.Context) ([]SyncRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, state, etag, path, rows, synced_at FROM sync_log
		 WHERE synced_at = (SELECT MAX(synced_at) FROM sync_log sl WHERE sl.state = sync_log.state)
		 ORDER BY state`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list syncs")
	}
	defer rows.Close() //nolint:errcheck

	var records []SyncRecord
	for rows.Next() {
		var rec SyncRecord
		if err := rows.Scan(&rec.ID, &rec.State, &rec.ETag, &rec.Path, &rec.Rows, &rec.SyncedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan sync record")
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CacheGet returns the cached elevation response for a key, if present and
// fresher than the TTL. A ttl of zero disables expiry.
func (s *Store) CacheGet(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	query := `SELECT response FROM elevation_cache WHERE key = ?`
	args := []any{key}
	if ttl != 0 {
		query += ` AND cached_at > ?`
		args = append(args, time.Now().UTC().Add(-ttl))
	}

	var response string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&response)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "store: cache get")
	}

	return response, true, nil
}

// CachePut stores an elevation response under the given key, replacing any
// previous entry.
func (s *Store) CachePut(ctx context.Context, key, provider, response string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO elevation_cache (key, provider, response, cached_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET provider = excluded.provider,
			response = excluded.response, cached_at = excluded.cached_at`,
		key, provider, response, time.Now().UTC(),
	)
	return eris.Wrap(err, "store: cache put")
}

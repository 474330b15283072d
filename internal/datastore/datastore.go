// Package datastore is the optional SQLite-backed cache described in
// §4.13's "data-file store" note that PackageData and asset-data caches may
// grow past what's comfortable to keep as one JSON document. It backs
// modules/assetdata once assetdata.EnablePersistence is called;
// modules/packagedata does not use it and keeps its cache in a JSON
// DataFile. JSON (via the datafile package) remains the default for
// everything else, per §4.13. Grounded on the rest of the retrieval pack
// rather than the teacher (steamclient never persists anything beyond
// steamsession's PersistentSession file): modernc.org/sqlite is a pure-Go
// CGo-free sqlite3 driver already a direct requirement here.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a minimal key/blob cache keyed by (bucket, key) pairs, with an
// opaque revision number so callers (asset-data's class/instance ID
// lookups) can skip re-fetching unchanged entries without parsing the blob.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at path and ensures
// the cache table exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("datastore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers anyway

	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	bucket     TEXT NOT NULL,
	key        TEXT NOT NULL,
	revision   INTEGER NOT NULL,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (bucket, key)
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("datastore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Revision returns the cached revision for (bucket, key), or ok=false if
// absent.
func (s *Store) Revision(ctx context.Context, bucket, key string) (revision int64, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT revision FROM cache_entries WHERE bucket = ? AND key = ?`, bucket, key)
	if err := row.Scan(&revision); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("datastore: revision lookup: %w", err)
	}
	return revision, true, nil
}

// Get returns the cached value for (bucket, key).
func (s *Store) Get(ctx context.Context, bucket, key string) (value []byte, revision int64, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value, revision FROM cache_entries WHERE bucket = ? AND key = ?`, bucket, key)
	if err := row.Scan(&value, &revision); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("datastore: get: %w", err)
	}
	return value, revision, true, nil
}

// Put upserts (bucket, key) -> value at revision.
func (s *Store) Put(ctx context.Context, bucket, key string, revision int64, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO cache_entries (bucket, key, revision, value, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (bucket, key) DO UPDATE SET revision = excluded.revision, value = excluded.value, updated_at = excluded.updated_at
`, bucket, key, revision, value, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("datastore: put: %w", err)
	}
	return nil
}

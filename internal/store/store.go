// Package store provides an optional on-disk cache of parsed controller,
// plan, and observation rows, keyed by (area, site), so a repeated batch
// run over the same data directories skips re-parsing fixture files that
// have not changed since they were last cached. Mirrors the read-through
// shape of the teacher's internal/pipeline/resume.SqliteStore, retargeted
// at this engine's (area, site, kind) keyspace.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Mohi32/signal-emulator/internal/persistence/sqlite"
)

const schemaVersion = 1

// Kind identifies which parsed record a cache row holds.
type Kind string

const (
	KindController  Kind = "controller"
	KindPlan        Kind = "plan"
	KindObservation Kind = "observation"
)

// Store is a read-through cache of JSON-encoded parsed rows.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite cache at path and applies
// its schema. Callers treat an empty path as "caching disabled" and skip
// calling Open entirely rather than passing it through.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		area TEXT NOT NULL,
		site TEXT NOT NULL,
		kind TEXT NOT NULL,
		source_path TEXT NOT NULL,
		source_mtime INTEGER NOT NULL,
		payload BLOB NOT NULL,
		cached_at INTEGER NOT NULL,
		PRIMARY KEY (area, site, kind, source_path)
	);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the cached payload for (area, site, kind, sourcePath) if one
// exists and its recorded source mtime is at or after sourceMTime (a stale
// cache entry for a file that has since changed is treated as a miss).
func (s *Store) Get(ctx context.Context, area, site string, kind Kind, sourcePath string, sourceMTime int64) ([]byte, bool, error) {
	var payload []byte
	var cachedMTime int64
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, source_mtime FROM cache_entries WHERE area = ? AND site = ? AND kind = ? AND source_path = ?`,
		area, site, string(kind), sourcePath,
	).Scan(&payload, &cachedMTime)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if cachedMTime < sourceMTime {
		return nil, false, nil
	}
	return payload, true, nil
}

// Put upserts a cached payload for (area, site, kind, sourcePath).
func (s *Store) Put(ctx context.Context, area, site string, kind Kind, sourcePath string, sourceMTime, cachedAt int64, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (area, site, kind, source_path, source_mtime, payload, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(area, site, kind, source_path) DO UPDATE SET
			source_mtime = excluded.source_mtime,
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`, area, site, string(kind), sourcePath, sourceMTime, cachedAt, payload)
	return err
}

// Invalidate removes every cached row for (area, site), whatever their
// kind or source path.
func (s *Store) Invalidate(ctx context.Context, area, site string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE area = ? AND site = ?`, area, site)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

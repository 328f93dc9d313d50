// Package sqlite opens a pure-Go modernc.org/sqlite connection pool with the
// PRAGMAs internal/store's fixture cache needs, adapted from the teacher's
// internal/persistence/sqlite package for a single-writer batch profile
// rather than the teacher's concurrent web-server profile.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go driver
)

// Config defines operational parameters for an opened database.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns defaults for internal/store's cache: it is only
// ever opened and queried from cmd/signal-emulator's single load sequence
// (no concurrent writers, unlike the teacher's HTTP-request-driven pool),
// so MaxOpenConns is small rather than the teacher's request-pool sizing.
// cache_entries carries no foreign keys, so the teacher's foreign_keys(ON)
// pragma is omitted as inapplicable to this schema.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 2,
	}
}

// Open initializes a SQLite connection pool with WAL mode and a busy
// timeout applied via DSN pragmas, so every pooled connection picks them up.
func Open(dbPath string, cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		dbPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return db, nil
}

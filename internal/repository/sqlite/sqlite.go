// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for
// single-server deployments, and ":memory:" gives tests a free throwaway DB.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
//
// CONCURRENCY DISCIPLINE:
// SQLite allows exactly one writer at a time. We cap the database/sql pool at a
// single connection (SetMaxOpenConns(1)), which serializes every transaction in
// this process. That single-writer discipline is what makes the hire transaction
// safe under true parallelism: two concurrent hire attempts on the same gig are
// executed one after the other, so only the first can observe status = 'open'.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	// Side-effect import: the driver's init() registers itself with
	// database/sql under the name "sqlite".
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/gigflow.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection in the pool: SQLite's single-writer model, made explicit.
	// Every transaction in this process runs on this connection, one at a time.
	// With ":memory:" this is also what keeps all queries on the same database —
	// each new pooled connection would otherwise get its own empty memory DB.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (backwards compatibility).
	// We want referential integrity between users, gigs, and bids.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	// If a writer is mid-transaction, wait up to 5s instead of failing
	// immediately with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New().
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent,
// so restarting against an existing database file is safe.
//
// The two UNIQUE constraints here are load-bearing, not decorative:
//   - users.email           — one account per email
//   - bids(gig_id, freelancer_id) — at most one bid per freelancer per gig.
//     Application-level pre-checks are only a fast path; this index is the
//     authoritative guard that closes the check-then-insert race window.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS gigs (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			budget      REAL NOT NULL CHECK (budget >= 1),
			owner_id    TEXT NOT NULL REFERENCES users(id),
			status      TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'assigned')),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_gigs_status ON gigs(status);
		CREATE INDEX IF NOT EXISTS idx_gigs_owner_id ON gigs(owner_id);
		CREATE INDEX IF NOT EXISTS idx_gigs_created_at ON gigs(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating gigs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS bids (
			id            TEXT PRIMARY KEY,
			gig_id        TEXT NOT NULL REFERENCES gigs(id),
			freelancer_id TEXT NOT NULL REFERENCES users(id),
			message       TEXT NOT NULL,
			price         REAL NOT NULL CHECK (price >= 1),
			delivery_time INTEGER NOT NULL DEFAULT 7,
			revisions     INTEGER NOT NULL DEFAULT 1,
			status        TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'hired', 'rejected')),
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_bids_gig_freelancer ON bids(gig_id, freelancer_id);
		CREATE INDEX IF NOT EXISTS idx_bids_freelancer_id ON bids(freelancer_id);
	`)
	if err != nil {
		return fmt.Errorf("creating bids table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite's "UNIQUE constraint failed".
// The driver surfaces it as *sqlite.Error with extended result code 2067
// (SQLITE_CONSTRAINT_UNIQUE). Repositories translate it into a domain
// Conflict so callers never see raw driver errors.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

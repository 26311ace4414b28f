package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the note cache kept in a local SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA foreign_keys=ON",
}

// NewSQLiteStore opens the cache at dbPath, creating it if needed, and
// brings its schema up to date. ":memory:" gives a throwaway cache.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening note cache %s: %w", dbPath, err)
	}
	// One connection keeps an in-memory cache alive between calls and
	// serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) prepare() error {
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if err := s.migrate(); err != nil {
		return fmt.Errorf("migrating note cache: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// schemaVersion is 0 for a cache that has never been migrated.
func (s *SQLiteStore) schemaVersion() (int, error) {
	var found int
	err := s.db.Get(&found,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'")
	if err != nil || found == 0 {
		return 0, err
	}

	var version int
	err = s.db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	return version, err
}

func (s *SQLiteStore) migrate() error {
	current, err := s.schemaVersion()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("schema v%d: %w", m.version, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
// Errors are classified under op.
func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify(op, fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return wrapOnce(op, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(op, fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// wrapOnce classifies err unless it already carries a store error kind.
func wrapOnce(op string, err error) error {
	switch {
	case isNotFound(err), IsStorageError(err), isDuplicate(err):
		return err
	default:
		return classify(op, err)
	}
}

// WipeAll removes every note and body from the cache.
func (s *SQLiteStore) WipeAll(ctx context.Context) error {
	return s.withTx(ctx, "wipe all", func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM body"); err != nil {
			return fmt.Errorf("deleting bodies: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM metadata"); err != nil {
			return fmt.Errorf("deleting metadata: %w", err)
		}
		return nil
	})
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package store

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateIdentifier is returned when an insert violates the
	// uniqueness of a note uuid or body message-id.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("not found")
)

// StorageError wraps any other failure of a store operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err (or any error in its chain) is a
// StorageError.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// classify maps a driver error onto the store's error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrDuplicateIdentifier, err)
	}
	return &StorageError{Op: op, Err: err}
}

// isUniqueViolation detects UNIQUE and PRIMARY KEY constraint failures.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateIdentifier)
}

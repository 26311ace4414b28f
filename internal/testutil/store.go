// Package testutil holds the in-memory note cache and mailbox used by
// package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/notesync/internal/store"
)

// NewTestStore opens a migrated note cache in memory and closes it when
// the test ends.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err, "opening in-memory note cache")
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

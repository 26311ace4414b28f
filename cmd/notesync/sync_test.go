package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/store"
	appsync "github.com/nhle/notesync/internal/sync"
	"github.com/nhle/notesync/internal/testutil"
)

func useDefaultConfig(t *testing.T) {
	t.Helper()
	loaded, err := model.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg = loaded
	t.Cleanup(func() { cfg = nil })
}

func TestExecTaskReportsOutcome(t *testing.T) {
	useDefaultConfig(t)
	s := testutil.NewTestStore(t)
	mb := testutil.NewMailbox("Notes")

	var out bytes.Buffer
	require.NoError(t, execTask(s, mb, appsync.SyncTask(), &out))
	assert.Equal(t, "up to date\n", out.String())
}

func TestExecTaskClosesCacheOnFailure(t *testing.T) {
	useDefaultConfig(t)
	s := testutil.NewTestStore(t)
	mb := testutil.NewMailbox("Notes")
	mb.DialErr = errors.New("connection refused")

	var out bytes.Buffer
	err := execTask(s, mb, appsync.TestTask(), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test failed")
	assert.Empty(t, out.String())

	_, err = s.FetchAll(context.Background(), store.NoteFilter{})
	assert.Error(t, err, "cache should be closed")
}

func TestMergeRequiresUUID(t *testing.T) {
	assert.Equal(t, "merge <uuid>", mergeCmd.Use)
	assert.Error(t, mergeCmd.Args(mergeCmd, nil))
	assert.NoError(t, mergeCmd.Args(mergeCmd, []string{"U1"}))
}

package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/notes"
	"github.com/nhle/notesync/internal/store"
	appsync "github.com/nhle/notesync/internal/sync"
	"github.com/nhle/notesync/internal/testutil"
	"github.com/nhle/notesync/internal/ui/command"
)

var testProfile = model.Profile{Email: "me@example.com"}

type harness struct {
	model Model
	store store.Store
	coord *appsync.Coordinator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := testutil.NewTestStore(t)
	mb := testutil.NewMailbox("Notes")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine := appsync.NewEngine(s, mb, testProfile, appsync.WithLogger(logger))
	resolver := appsync.NewResolver(s, mb, testProfile, appsync.WithLogger(logger))
	coord := appsync.NewCoordinator(engine, resolver, mb,
		appsync.WithLogger(logger), appsync.WithTimeout(10*time.Second))
	coord.Start()
	t.Cleanup(func() {
		coord.Submit(appsync.EndTask())
		for range coord.Outcomes() {
		}
	})

	svc := notes.NewService(s, testProfile, "Notes")
	return &harness{model: New(svc, coord, "Notes"), store: s, coord: coord}
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func nextOutcome(t *testing.T, c *appsync.Coordinator) appsync.Outcome {
	t.Helper()
	select {
	case o, ok := <-c.Outcomes():
		require.True(t, ok)
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return appsync.Outcome{}
	}
}

func TestSyncKeySubmitsTask(t *testing.T) {
	h := newHarness(t)

	h.update(keyPress("s"))
	assert.True(t, h.model.running)
	assert.Equal(t, appsync.TaskSync, h.model.task)
	assert.Equal(t, "sync running", h.model.coordinatorState())

	o := nextOutcome(t, h.coord)
	assert.Equal(t, appsync.OutcomeSuccess, o.Kind)

	h.update(outcomeMsg{outcome: o, ok: true})
	assert.False(t, h.model.running)
	assert.False(t, h.model.failed)
	assert.Equal(t, "sync: up to date", h.model.status)
}

func TestTestKeySubmitsTask(t *testing.T) {
	h := newHarness(t)

	h.update(keyPress("x"))
	assert.True(t, h.model.running)
	assert.Equal(t, appsync.TaskTest, h.model.task)

	o := nextOutcome(t, h.coord)
	assert.Equal(t, appsync.TaskTest, o.Task)
	assert.Equal(t, appsync.OutcomeSuccess, o.Kind)
}

func TestFailureOutcomeIsShownAsError(t *testing.T) {
	h := newHarness(t)

	h.update(outcomeMsg{
		outcome: appsync.Outcome{Kind: appsync.OutcomeFailure, Task: appsync.TaskTest, Message: "connection refused"},
		ok:      true,
	})
	assert.True(t, h.model.failed)
	assert.Equal(t, "test failed: connection refused", h.model.status)
}

func TestQuitEndsCoordinator(t *testing.T) {
	h := newHarness(t)

	cmd := h.update(keyPress("q"))
	assert.Nil(t, cmd, "the program waits for the end outcome")
	assert.True(t, h.model.quitting)

	o := nextOutcome(t, h.coord)
	assert.Equal(t, appsync.OutcomeEnd, o.Kind)
	assert.False(t, h.coord.Submit(appsync.SyncTask()))

	// A second quit does not wait.
	assert.NotNil(t, h.update(keyPress("q")))
}

func TestCommandCreatesNote(t *testing.T) {
	h := newHarness(t)

	cmd := h.update(command.CommandMsg{Name: "new", Arg: "groceries"})
	require.NotNil(t, cmd)
	msg := cmd()
	changed, ok := msg.(noteChangedMsg)
	require.True(t, ok)
	require.NoError(t, changed.err)

	all, err := h.store.FetchAll(context.Background(), store.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "groceries", all[0].Subject())
	assert.Equal(t, "Notes", all[0].Metadata.Subfolder)
	assert.True(t, all[0].Metadata.New)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)

	h.update(command.CommandMsg{Name: "frobnicate"})
	assert.True(t, h.model.failed)
	assert.Contains(t, h.model.status, "frobnicate")
}

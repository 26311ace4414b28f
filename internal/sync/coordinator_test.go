package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notesync/internal/store"
)

func newCoordinator(t *testing.T, f *fixture) *Coordinator {
	t.Helper()
	c := NewCoordinator(f.engine, f.resolver, f.mailbox,
		WithLogger(quietLogger()), WithTimeout(10*time.Second))
	c.Start()
	t.Cleanup(func() {
		c.Submit(EndTask())
		for range c.Outcomes() {
		}
	})
	return c
}

func next(t *testing.T, c *Coordinator) Outcome {
	t.Helper()
	select {
	case o, ok := <-c.Outcomes():
		require.True(t, ok, "outcome channel closed")
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func waitDialing(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never dialed")
	}
}

func TestCoordinatorSync(t *testing.T) {
	f := newFixture(t)
	f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>hello</div>")
	c := newCoordinator(t, f)

	require.True(t, c.Submit(SyncTask()))
	o := next(t, c)
	assert.Equal(t, OutcomeSuccess, o.Kind)
	assert.Equal(t, TaskSync, o.Task)
	assert.Equal(t, "1 pulled", o.Message)
}

func TestCoordinatorRejectsWhileBusy(t *testing.T) {
	f := newFixture(t)
	f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>hello</div>")
	f.mailbox.Gate = make(chan struct{})
	f.mailbox.Dialing = make(chan struct{}, 1)
	c := newCoordinator(t, f)

	require.True(t, c.Submit(SyncTask()))
	waitDialing(t, f.mailbox.Dialing)

	require.True(t, c.Submit(SyncTask()))
	o := next(t, c)
	assert.Equal(t, OutcomeBusy, o.Kind)

	all, err := f.store.FetchAll(context.Background(), store.NoteFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "rejected task must not touch the store")

	close(f.mailbox.Gate)
	o = next(t, c)
	assert.Equal(t, OutcomeSuccess, o.Kind)
	assert.Equal(t, 1, f.mailbox.Dials, "busy task was never run")
}

func TestCoordinatorReportsFailure(t *testing.T) {
	f := newFixture(t)
	f.mailbox.DialErr = errors.New("bad password")
	c := newCoordinator(t, f)

	require.True(t, c.Submit(TestTask()))
	o := next(t, c)
	assert.Equal(t, OutcomeFailure, o.Kind)
	assert.Contains(t, o.Message, "bad password")

	// Back to idle: the next task is admitted.
	f.mailbox.DialErr = nil
	require.True(t, c.Submit(TestTask()))
	o = next(t, c)
	assert.Equal(t, OutcomeSuccess, o.Kind)
	assert.Equal(t, "connection ok, 2 note folders", o.Message)
}

func TestCoordinatorMerge(t *testing.T) {
	f := newFixture(t)
	c := newCoordinator(t, f)

	require.True(t, c.Submit(MergeTask("missing")))
	o := next(t, c)
	assert.Equal(t, OutcomeFailure, o.Kind)
	assert.Equal(t, TaskMerge, o.Task)

	f.mailbox.PutNote(testProfile, "Notes", "U2", "<div>a</div>")
	f.mailbox.PutNote(testProfile, "Notes", "U2", "<div>b</div>")
	require.True(t, c.Submit(SyncTask()))
	assert.Equal(t, OutcomeSuccess, next(t, c).Kind)

	require.True(t, c.Submit(MergeTask("U2")))
	o = next(t, c)
	assert.Equal(t, OutcomeSuccess, o.Kind)
	assert.Equal(t, "merged U2: kept 1 copy, discarded 1", o.Message)
}

func TestCoordinatorEndWaitsForRunningTask(t *testing.T) {
	f := newFixture(t)
	f.mailbox.Gate = make(chan struct{})
	f.mailbox.Dialing = make(chan struct{}, 1)
	c := NewCoordinator(f.engine, f.resolver, f.mailbox, WithLogger(quietLogger()))
	c.Start()

	require.True(t, c.Submit(SyncTask()))
	waitDialing(t, f.mailbox.Dialing)
	require.True(t, c.Submit(EndTask()))
	assert.False(t, c.Submit(SyncTask()), "submissions after End are refused")

	close(f.mailbox.Gate)
	assert.Equal(t, OutcomeSuccess, next(t, c).Kind)
	assert.Equal(t, OutcomeEnd, next(t, c).Kind)

	select {
	case _, ok := <-c.Outcomes():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("outcome channel not closed")
	}
	<-c.Done()
}

func TestCoordinatorEndWhenIdle(t *testing.T) {
	f := newFixture(t)
	c := NewCoordinator(f.engine, f.resolver, f.mailbox, WithLogger(quietLogger()))
	c.Start()

	require.True(t, c.Submit(EndTask()))
	assert.Equal(t, OutcomeEnd, next(t, c).Kind)
	<-c.Done()
}

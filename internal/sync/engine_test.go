package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notesync/internal/builder"
	"github.com/nhle/notesync/internal/convert"
	"github.com/nhle/notesync/internal/header"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/remote"
	"github.com/nhle/notesync/internal/store"
	"github.com/nhle/notesync/internal/testutil"
)

var testProfile = model.Profile{Email: "me@example.com"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store    *store.SQLiteStore
	mailbox  *testutil.Mailbox
	engine   *Engine
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewTestStore(t)
	mb := testutil.NewMailbox("Notes", "Notes/Work", "INBOX")
	return &fixture{
		store:    s,
		mailbox:  mb,
		engine:   NewEngine(s, mb, testProfile, WithLogger(quietLogger())),
		resolver: NewResolver(s, mb, testProfile, WithLogger(quietLogger())),
	}
}

// createLocal stores a never-pushed note the way the notes service does.
func (f *fixture) createLocal(t *testing.T, uuid, plain string) model.NoteMetadata {
	t.Helper()
	md := builder.NewMetadata().WithUUID(uuid).WithFolder("Notes").IsNew(true).Build()
	body := builder.NewBody(testProfile).WithText(convert.PlainToHTML(plain)).Build()
	require.NoError(t, f.store.Insert(context.Background(), md, body))
	return md
}

func (f *fixture) sync(t *testing.T) Summary {
	t.Helper()
	sum, err := f.engine.Sync(context.Background())
	require.NoError(t, err)
	return sum
}

func (f *fixture) fetch(t *testing.T, uuid string) *model.LocalNote {
	t.Helper()
	note, err := f.store.FetchByUUID(context.Background(), uuid)
	require.NoError(t, err)
	return note
}

func TestSyncPushesNewNote(t *testing.T) {
	f := newFixture(t)
	f.createLocal(t, "U1", "Shopping\nmilk")

	sum := f.sync(t)
	assert.Equal(t, 1, sum.Pushed)

	assert.Equal(t, 1, f.mailbox.Appends)
	assert.Equal(t, 1, f.mailbox.UUIDCount("Notes", "U1"))

	note := f.fetch(t, "U1")
	assert.False(t, note.Metadata.New)
	require.NotNil(t, note.Metadata.OldRemoteID)
	require.Len(t, note.Bodies, 1)
	assert.Equal(t, *note.Metadata.OldRemoteID, note.Bodies[0].UID)

	msg := f.mailbox.Messages("Notes")[0]
	assert.Equal(t, "Shopping", msg.Headers.Subject())
	assert.Contains(t, msg.Body, "milk")
	mid, _ := msg.Headers.MessageID()
	assert.Equal(t, note.Bodies[0].MessageID, mid)
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.createLocal(t, "U1", "local")
	f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>remote</div>")
	f.mailbox.PutNote(testProfile, "Notes/Work", "R2", "<div>work</div>")

	first := f.sync(t)
	assert.True(t, first.Changed())
	before, err := f.store.FetchAll(context.Background(), store.NoteFilter{})
	require.NoError(t, err)

	second := f.sync(t)
	assert.False(t, second.Changed())
	assert.Equal(t, "up to date", second.String())
	assert.Equal(t, 1, f.mailbox.Appends)
	assert.Zero(t, f.mailbox.Deletes)

	after, err := f.store.FetchAll(context.Background(), store.NoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSyncPullsRemoteNote(t *testing.T) {
	f := newFixture(t)
	uid, mid := f.mailbox.PutNote(testProfile, "Notes/Work", "R1", "<div>Agenda</div><div>review</div>")

	sum := f.sync(t)
	assert.Equal(t, 1, sum.Pulled)

	note := f.fetch(t, "R1")
	assert.Equal(t, "Notes/Work", note.Metadata.Subfolder)
	assert.Equal(t, model.StateSynced, note.Metadata.State())
	assert.Equal(t, uid, *note.Metadata.OldRemoteID)
	require.Len(t, note.Bodies, 1)
	assert.Equal(t, mid, note.Bodies[0].MessageID)
	assert.Equal(t, "Agenda", note.Subject())
}

func TestSyncDuplicateCopiesThenMerge(t *testing.T) {
	f := newFixture(t)
	f.mailbox.PutNote(testProfile, "Notes", "U2", "<div>first</div>")
	f.mailbox.PutNote(testProfile, "Notes", "U2", "<div>second</div>")

	sum := f.sync(t)
	assert.Equal(t, []string{"U2"}, sum.NeedsMerge)

	note := f.fetch(t, "U2")
	require.Len(t, note.Bodies, 2)
	assert.True(t, note.NeedsMerge())

	result, err := f.resolver.Merge(context.Background(), "U2")
	require.NoError(t, err)
	assert.Len(t, result.Discarded, 1)

	note = f.fetch(t, "U2")
	require.Len(t, note.Bodies, 1)
	assert.Contains(t, note.Bodies[0].TextOrEmpty(), "second", "highest uid wins")
	assert.Equal(t, 1, f.mailbox.UUIDCount("Notes", "U2"))
	assert.Equal(t, note.Bodies[0].UID, *note.Metadata.OldRemoteID)

	assert.False(t, f.sync(t).Changed())
}

func TestSyncPushesEdit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	oldUID, _ := f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>draft</div>")
	f.sync(t)

	note := f.fetch(t, "R1")
	edited := note.Bodies[0]
	text := convert.PlainToHTML("final")
	edited.Text = &text
	require.NoError(t, f.store.UpdateBody(ctx, edited))
	md := note.Metadata
	md.LocallyEdited = true
	require.NoError(t, f.store.Update(ctx, md))

	sum := f.sync(t)
	assert.Equal(t, 1, sum.Updated)

	msgs := f.mailbox.Messages("Notes")
	require.Len(t, msgs, 1)
	assert.NotEqual(t, oldUID, msgs[0].UID)
	assert.Contains(t, msgs[0].Body, "final")

	note = f.fetch(t, "R1")
	assert.False(t, note.Metadata.LocallyEdited)
	assert.Equal(t, msgs[0].UID, *note.Metadata.OldRemoteID)
	require.Len(t, note.Bodies, 1)
	mid, _ := msgs[0].Headers.MessageID()
	assert.Equal(t, mid, note.Bodies[0].MessageID)

	assert.False(t, f.sync(t).Changed())
}

func TestSyncPushesDeletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>gone soon</div>")
	f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>copy</div>")
	f.sync(t)

	md := f.fetch(t, "R1").Metadata
	md.LocallyDeleted = true
	require.NoError(t, f.store.Update(ctx, md))

	sum := f.sync(t)
	assert.Equal(t, 1, sum.Deleted)
	assert.Zero(t, f.mailbox.UUIDCount("Notes", "R1"))

	_, err := f.store.FetchByUUID(ctx, "R1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSyncDeletesUnpushedNoteLocally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	md := f.createLocal(t, "U1", "never sent")
	md.LocallyDeleted = true
	require.NoError(t, f.store.Update(ctx, md))

	sum := f.sync(t)
	assert.Equal(t, 1, sum.Deleted)
	assert.Zero(t, f.mailbox.Appends)
	assert.Zero(t, f.mailbox.Deletes)
}

func TestSyncFollowsRemoteDeletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uid, _ := f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>x</div>")
	f.sync(t)

	f.mailbox.Remove("Notes", uid)
	sum := f.sync(t)
	assert.Equal(t, 1, sum.Removed)

	_, err := f.store.FetchByUUID(ctx, "R1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSyncRefreshesReplacedCopy(t *testing.T) {
	f := newFixture(t)
	oldUID, _ := f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>v1</div>")
	f.sync(t)

	// Another device rewrites the note.
	f.mailbox.Remove("Notes", oldUID)
	newUID, newMID := f.mailbox.PutNote(testProfile, "Notes", "R1", "<div>v2</div>")

	sum := f.sync(t)
	assert.Equal(t, 1, sum.Refreshed)

	note := f.fetch(t, "R1")
	require.Len(t, note.Bodies, 1)
	assert.Equal(t, newMID, note.Bodies[0].MessageID)
	assert.Equal(t, newUID, *note.Metadata.OldRemoteID)
	assert.Contains(t, note.Bodies[0].TextOrEmpty(), "v2")
}

func TestSyncAdoptsInterruptedPush(t *testing.T) {
	f := newFixture(t)
	md := f.createLocal(t, "U1", "half done")
	body := f.fetch(t, "U1").Bodies[0]

	// A previous pass appended the message but stopped before recording it.
	raw, err := header.Encode(builder.Outgoing(testProfile, md, body), body.TextOrEmpty())
	require.NoError(t, err)
	uid := f.mailbox.Put("Notes", raw)

	sum := f.sync(t)
	assert.Equal(t, 1, sum.Adopted)
	assert.Zero(t, f.mailbox.Appends)

	note := f.fetch(t, "U1")
	assert.False(t, note.Metadata.New)
	assert.Equal(t, uid, *note.Metadata.OldRemoteID)
	require.Len(t, note.Bodies, 1)
	assert.Equal(t, uid, note.Bodies[0].UID)
}

func TestSyncSkipsMessagesWithoutIdentifier(t *testing.T) {
	f := newFixture(t)
	raw, err := header.Encode(header.Block{
		{Name: header.Subject, Value: "plain mail"},
		{Name: header.ContentType, Value: "text/plain"},
	}, "hello")
	require.NoError(t, err)
	f.mailbox.Put("Notes", raw)

	sum := f.sync(t)
	assert.False(t, sum.Changed())

	all, err := f.store.FetchAll(context.Background(), store.NoteFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSyncIgnoresUnlistedFolders(t *testing.T) {
	f := newFixture(t)
	f.mailbox.PutNote(testProfile, "INBOX", "X1", "<div>not a note folder</div>")

	f.sync(t)
	_, err := f.store.FetchByUUID(context.Background(), "X1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSyncTransportFailureKeepsFlags(t *testing.T) {
	f := newFixture(t)
	f.createLocal(t, "U1", "pending")
	f.mailbox.AppendErr = errors.New("connection reset")

	_, err := f.engine.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, remote.IsTransportError(err))
	assert.True(t, f.fetch(t, "U1").Metadata.New)

	f.mailbox.AppendErr = nil
	assert.Equal(t, 1, f.sync(t).Pushed)
	assert.False(t, f.fetch(t, "U1").Metadata.New)
}

func TestSyncDialFailure(t *testing.T) {
	f := newFixture(t)
	f.mailbox.DialErr = errors.New("bad password")

	_, err := f.engine.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, remote.IsAuthError(err))
	assert.True(t, strings.Contains(err.Error(), "bad password"))
}

func TestSummaryString(t *testing.T) {
	assert.Equal(t, "up to date", Summary{}.String())
	assert.Equal(t, "2 pushed, 1 pulled, 1 need merge",
		Summary{Pushed: 1, Adopted: 1, Pulled: 1, NeedsMerge: []string{"U"}}.String())
}

package notes_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/notes"
	"github.com/nhle/notesync/internal/store"
	"github.com/nhle/notesync/internal/testutil"
)

var profile = model.Profile{Email: "me@example.com"}

func newService(t *testing.T) (*notes.Service, *store.SQLiteStore) {
	t.Helper()
	s := testutil.NewTestStore(t)
	return notes.NewService(s, profile, "Notes"), s
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	note, err := svc.Create(ctx, "", "Groceries\neggs")
	require.NoError(t, err)
	assert.Equal(t, "Notes", note.Metadata.Subfolder)
	assert.Equal(t, model.StateNew, note.Metadata.State())
	assert.Nil(t, note.Metadata.OldRemoteID)

	stored, err := svc.Get(ctx, note.Metadata.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", stored.Subject())
	assert.Equal(t, "Groceries\neggs", stored.PlainText())
	assert.Equal(t, model.SentinelUID, stored.Bodies[0].UID)

	_, err = svc.Create(ctx, "Notes", "   ")
	assert.Error(t, err)
}

func TestEditNewNoteStaysNew(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	note, err := svc.Create(ctx, "Notes", "draft")
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, note.Metadata.UUID, "final")
	require.NoError(t, err)
	assert.Equal(t, model.StateNew, edited.Metadata.State())

	stored, err := svc.Get(ctx, note.Metadata.UUID)
	require.NoError(t, err)
	assert.Equal(t, "final", stored.PlainText())
	assert.False(t, stored.Metadata.LocallyEdited)
	require.Len(t, stored.Bodies, 1)
	assert.Equal(t, note.Bodies[0].MessageID, stored.Bodies[0].MessageID)
}

func TestEditSyncedNote(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)

	uid := int64(4)
	text := "<div>old</div>"
	md := model.NoteMetadata{UUID: "U1", Subfolder: "Notes", OldRemoteID: &uid, MimeVersion: model.MimeVersion, Date: time.Now()}
	require.NoError(t, s.Insert(ctx, md, model.NoteBody{MessageID: "<m@x>", UID: uid, Text: &text, MetadataUUID: "U1"}))

	unchanged, err := svc.Edit(ctx, "U1", "old")
	require.NoError(t, err)
	assert.Equal(t, model.StateSynced, unchanged.Metadata.State())

	_, err = svc.Edit(ctx, "U1", "new text")
	require.NoError(t, err)

	stored, err := svc.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, model.StateEdited, stored.Metadata.State())
	assert.Equal(t, "new text", stored.PlainText())
}

func TestEditRefusedWhileDuplicated(t *testing.T) {
	ctx := context.Background()
	svc, s := newService(t)

	md := model.NoteMetadata{UUID: "U2", Subfolder: "Notes", MimeVersion: model.MimeVersion, Date: time.Now()}
	require.NoError(t, s.InsertNote(ctx, md, []model.NoteBody{
		{MessageID: "<a@x>", UID: 1},
		{MessageID: "<b@x>", UID: 2},
	}))

	_, err := svc.Edit(ctx, "U2", "anything")
	assert.ErrorIs(t, err, notes.ErrNeedsMerge)

	_, err = svc.Edit(ctx, "missing", "anything")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleDeleted(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	note, err := svc.Create(ctx, "Notes", "temp")
	require.NoError(t, err)

	deleted, err := svc.ToggleDeleted(ctx, note.Metadata.UUID)
	require.NoError(t, err)
	assert.True(t, deleted)

	stored, err := svc.Get(ctx, note.Metadata.UUID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDeleted, stored.Metadata.State())

	deleted, err = svc.ToggleDeleted(ctx, note.Metadata.UUID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Create(ctx, "Notes", "alpha")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "Notes/Work", "beta")
	require.NoError(t, err)

	work := "Notes/Work"
	list, err := svc.List(ctx, store.NoteFilter{Folder: &work})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "beta", list[0].PlainText())
}

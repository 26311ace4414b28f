package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notesync/internal/builder"
	"github.com/nhle/notesync/internal/header"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/store"
)

func TestMergeKeepsBodyWithText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// Without remote copies the resolver must not need a connection.
	f.mailbox.DialErr = errors.New("offline")

	empty := ""
	content := "<div>keep me</div>"
	md := builder.NewMetadata().WithUUID("U3").WithFolder("Notes").Build()
	require.NoError(t, f.store.InsertNote(ctx, md, []model.NoteBody{
		{MessageID: "<a@x>", UID: model.SentinelUID},
		{MessageID: "<b@x>", UID: model.SentinelUID, Text: &content},
		{MessageID: "<c@x>", UID: model.SentinelUID, Text: &empty},
	}))

	result, err := f.resolver.Merge(ctx, "U3")
	require.NoError(t, err)
	assert.Equal(t, "<b@x>", result.Kept.MessageID)
	assert.Len(t, result.Discarded, 2)

	note := f.fetch(t, "U3")
	require.Len(t, note.Bodies, 1)
	assert.Equal(t, "<b@x>", note.Bodies[0].MessageID)
	assert.Equal(t, content, note.Bodies[0].TextOrEmpty())
	assert.Nil(t, note.Metadata.OldRemoteID)
	assert.Zero(t, f.mailbox.Dials)
}

func TestMergeNothingToMerge(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createLocal(t, "U1", "single")

	_, err := f.resolver.Merge(ctx, "U1")
	assert.ErrorIs(t, err, ErrNothingToMerge)
	assert.Len(t, f.fetch(t, "U1").Bodies, 1)

	_, err = f.resolver.Merge(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMergeRemoteFailureLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mailbox.PutNote(testProfile, "Notes", "U2", "<div>a</div>")
	f.mailbox.PutNote(testProfile, "Notes", "U2", "<div>b</div>")
	f.sync(t)

	f.mailbox.DeleteErr = errors.New("connection reset")
	_, err := f.resolver.Merge(ctx, "U2")
	require.Error(t, err)

	assert.Len(t, f.fetch(t, "U2").Bodies, 2)
	assert.Equal(t, 2, f.mailbox.UUIDCount("Notes", "U2"))
}

func TestMergeSharedMessageIDSettlesInOnePass(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	html := "<div>twin</div>"
	md := builder.NewMetadata().WithUUID("U4").WithFolder("Notes").Build()
	body := builder.NewBody(testProfile).WithText(html).Build()
	raw, err := header.Encode(builder.Outgoing(testProfile, md, body), html)
	require.NoError(t, err)
	f.mailbox.Put("Notes", raw)
	second := f.mailbox.Put("Notes", raw)

	first := f.sync(t)
	assert.Equal(t, []string{"U4"}, first.NeedsMerge)
	require.Len(t, f.fetch(t, "U4").Bodies, 2)

	result, err := f.resolver.Merge(ctx, "U4")
	require.NoError(t, err)
	assert.Equal(t, body.MessageID, result.Kept.MessageID)
	assert.Equal(t, second, result.Kept.UID)

	note := f.fetch(t, "U4")
	require.Len(t, note.Bodies, 1)
	assert.Equal(t, body.MessageID, note.Bodies[0].MessageID)
	assert.Equal(t, 1, f.mailbox.UUIDCount("Notes", "U4"))

	after := f.sync(t)
	assert.Equal(t, "up to date", after.String())
}

func TestCanonical(t *testing.T) {
	text := func(s string) *string { return &s }

	tests := []struct {
		name   string
		bodies []model.NoteBody
		want   int
	}{
		{
			name: "text beats higher uid",
			bodies: []model.NoteBody{
				{UID: 9},
				{UID: 2, Text: text("x")},
			},
			want: 1,
		},
		{
			name: "highest uid among bodies with text",
			bodies: []model.NoteBody{
				{UID: 3, Text: text("a")},
				{UID: 7, Text: text("b")},
				{UID: 5, Text: text("c")},
			},
			want: 1,
		},
		{
			name: "whitespace counts as empty",
			bodies: []model.NoteBody{
				{UID: 1, Text: text("a")},
				{UID: 4, Text: text("  \n")},
			},
			want: 0,
		},
		{
			name: "ties keep the earliest",
			bodies: []model.NoteBody{
				{UID: model.SentinelUID, Text: text("a")},
				{UID: model.SentinelUID, Text: text("b")},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canonical(tt.bodies))
		})
	}
}

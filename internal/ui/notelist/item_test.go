package notelist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/notesync/internal/model"
)

func text(s string) *string { return &s }

func TestNoteItemTitle(t *testing.T) {
	single := NoteItem{Note: model.LocalNote{
		Bodies: []model.NoteBody{{Text: text("<div>Shopping</div><div>milk</div>")}},
	}}
	assert.Equal(t, "Shopping", single.Title())

	dup := single
	dup.Note.Bodies = append(dup.Note.Bodies, model.NoteBody{Text: text("<div>Shopping</div>")})
	assert.Equal(t, "[M] Shopping", dup.Title())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "…", truncate("abcdefgh", 1))
	assert.Equal(t, "", truncate("abcdefgh", 0))
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "just now", relativeTime(time.Now()))
	assert.Equal(t, "5m ago", relativeTime(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "3d ago", relativeTime(time.Now().Add(-73*time.Hour)))
	old := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2020-01-02", relativeTime(old))
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState(t *testing.T) {
	tests := []struct {
		name string
		md   NoteMetadata
		want NoteState
	}{
		{"synced", NoteMetadata{}, StateSynced},
		{"new", NoteMetadata{New: true}, StateNew},
		{"new and edited stays new", NoteMetadata{New: true, LocallyEdited: true}, StateNew},
		{"edited", NoteMetadata{LocallyEdited: true}, StateEdited},
		{"deleted wins", NoteMetadata{New: true, LocallyEdited: true, LocallyDeleted: true}, StateDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.md.State())
		})
	}
}

func TestSubjectOf(t *testing.T) {
	assert.Equal(t, "Shopping", SubjectOf("\n  Shopping \nmilk"))
	assert.Equal(t, NoSubject, SubjectOf(" \n\t\n"))
}

func TestUIDsSkipSentinel(t *testing.T) {
	n := LocalNote{Bodies: []NoteBody{{UID: 4}, {UID: SentinelUID}, {UID: 9}}}
	assert.Equal(t, []int64{4, 9}, n.UIDs())
	assert.True(t, n.NeedsMerge())
}

package model

import (
	"strings"
	"time"

	"github.com/nhle/notesync/internal/convert"
)

// MimeVersion is the Mime-Version value written by the Notes application.
// It is stored on every note so pushed copies look like native ones.
const MimeVersion = `1.0 (Mac OS X Notes 4.6 \(879.10\))`

// SentinelUID marks a body that has not been assigned a uid by the
// remote mailbox yet.
const SentinelUID int64 = -1

// NoSubject is shown for notes whose body has no text line.
const NoSubject = "<no subject>"

// NoteState is the lifecycle state derived from a note's local flags.
type NoteState string

const (
	StateSynced  NoteState = "synced"
	StateNew     NoteState = "new"
	StateEdited  NoteState = "edited"
	StateDeleted NoteState = "deleted"
)

// NoteMetadata is the single row describing a logical note.
type NoteMetadata struct {
	// UUID is the stable identifier carried in the
	// X-Universally-Unique-Identifier header.
	UUID string `json:"uuid" db:"uuid"`

	// OldRemoteID is the uid of the last successfully synced remote copy.
	// Nil for notes that were never pushed.
	OldRemoteID *int64 `json:"old_remote_id,omitempty" db:"old_remote_id"`

	// Subfolder is the remote mailbox the note lives in.
	Subfolder string `json:"subfolder" db:"subfolder"`

	LocallyDeleted bool `json:"locally_deleted" db:"locally_deleted"`
	LocallyEdited  bool `json:"locally_edited" db:"locally_edited"`
	New            bool `json:"new" db:"new"`

	// Date is the creation time, fixed when the note is created.
	Date time.Time `json:"date" db:"date"`

	MimeVersion string `json:"mime_version" db:"mime_version"`
}

// State derives the lifecycle state from the local flags. Deletion wins
// over every other flag, and a note that was never pushed stays new even
// when it is edited again.
func (m NoteMetadata) State() NoteState {
	switch {
	case m.LocallyDeleted:
		return StateDeleted
	case m.New:
		return StateNew
	case m.LocallyEdited:
		return StateEdited
	default:
		return StateSynced
	}
}

// NoteBody is one physical copy of a note's content.
type NoteBody struct {
	MessageID string `json:"message_id" db:"message_id"`

	// UID is the remote uid within the note's folder, or SentinelUID.
	UID int64 `json:"uid" db:"uid"`

	// Text is nil when the body was fetched but not loaded.
	Text *string `json:"text,omitempty" db:"text"`

	MetadataUUID string `json:"metadata_uuid" db:"metadata_uuid"`
}

// HasText reports whether the body carries non-empty content.
func (b NoteBody) HasText() bool {
	return b.Text != nil && strings.TrimSpace(*b.Text) != ""
}

// TextOrEmpty returns the body text, or "" when it is absent.
func (b NoteBody) TextOrEmpty() string {
	if b.Text == nil {
		return ""
	}
	return *b.Text
}

// LocalNote is a metadata row together with all of its bodies, in
// insertion order.
type LocalNote struct {
	Metadata NoteMetadata `json:"metadata"`
	Bodies   []NoteBody   `json:"bodies"`
}

// NeedsMerge reports whether more than one copy of the note is cached.
func (n LocalNote) NeedsMerge() bool {
	return len(n.Bodies) > 1
}

// PlainText returns the first body converted to plain text.
func (n LocalNote) PlainText() string {
	if len(n.Bodies) == 0 {
		return ""
	}
	return convert.HTMLToPlain(n.Bodies[0].TextOrEmpty())
}

// Subject returns the first non-empty line of the note's plain text, which
// is how the Notes application titles a note.
func (n LocalNote) Subject() string {
	return SubjectOf(n.PlainText())
}

// SubjectOf returns the first non-empty line of plain text.
func SubjectOf(plain string) string {
	for _, line := range strings.Split(plain, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return NoSubject
}

// UIDs returns the remote uids of all bodies that have one.
func (n LocalNote) UIDs() []int64 {
	var uids []int64
	for _, b := range n.Bodies {
		if b.UID != SentinelUID {
			uids = append(uids, b.UID)
		}
	}
	return uids
}

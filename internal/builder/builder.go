// Package builder constructs note metadata, bodies and header blocks with
// generated defaults. Test fixtures and the outgoing message path use the
// same builders, so both agree on what a valid note looks like.
package builder

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/notesync/internal/model"
)

// NewUUID returns a fresh note identifier in the upper-case form used by
// the Notes application.
func NewUUID() string {
	return strings.ToUpper(uuid.New().String())
}

// MessageID formats token as a message-id scoped to the profile's domain.
func MessageID(p model.Profile, token string) string {
	return fmt.Sprintf("<%s@%s>", token, p.Domain())
}

// BodyBuilder builds a model.NoteBody.
type BodyBuilder struct {
	body model.NoteBody
}

// NewBody starts a body with the sentinel uid and a generated message-id.
func NewBody(p model.Profile) *BodyBuilder {
	return &BodyBuilder{
		body: model.NoteBody{
			MessageID: MessageID(p, NewUUID()),
			UID:       model.SentinelUID,
		},
	}
}

func (b *BodyBuilder) WithUID(uid int64) *BodyBuilder {
	b.body.UID = uid
	return b
}

func (b *BodyBuilder) WithMessageID(id string) *BodyBuilder {
	b.body.MessageID = id
	return b
}

func (b *BodyBuilder) WithMetadataUUID(id string) *BodyBuilder {
	b.body.MetadataUUID = id
	return b
}

func (b *BodyBuilder) WithText(text string) *BodyBuilder {
	b.body.Text = &text
	return b
}

// Build returns the body.
func (b *BodyBuilder) Build() model.NoteBody {
	return b.body
}

// MetadataBuilder builds a model.NoteMetadata.
type MetadataBuilder struct {
	md model.NoteMetadata
}

// NewMetadata starts a synced, undeleted note dated now with a fresh uuid.
func NewMetadata() *MetadataBuilder {
	return &MetadataBuilder{
		md: model.NoteMetadata{
			UUID:        NewUUID(),
			Date:        time.Now().UTC().Truncate(time.Second),
			MimeVersion: model.MimeVersion,
		},
	}
}

func (b *MetadataBuilder) WithUUID(id string) *MetadataBuilder {
	b.md.UUID = id
	return b
}

func (b *MetadataBuilder) WithFolder(folder string) *MetadataBuilder {
	b.md.Subfolder = folder
	return b
}

func (b *MetadataBuilder) WithDate(date time.Time) *MetadataBuilder {
	b.md.Date = date.UTC().Truncate(time.Second)
	return b
}

func (b *MetadataBuilder) WithOldRemoteID(uid int64) *MetadataBuilder {
	b.md.OldRemoteID = &uid
	return b
}

func (b *MetadataBuilder) WithMimeVersion(v string) *MetadataBuilder {
	b.md.MimeVersion = v
	return b
}

func (b *MetadataBuilder) IsNew(isNew bool) *MetadataBuilder {
	b.md.New = isNew
	return b
}

func (b *MetadataBuilder) IsEdited(edited bool) *MetadataBuilder {
	b.md.LocallyEdited = edited
	return b
}

func (b *MetadataBuilder) IsFlaggedForDeletion(deleted bool) *MetadataBuilder {
	b.md.LocallyDeleted = deleted
	return b
}

// Build returns the metadata.
func (b *MetadataBuilder) Build() model.NoteMetadata {
	return b.md
}

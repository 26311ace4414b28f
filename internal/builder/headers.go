package builder

import (
	"time"

	"github.com/nhle/notesync/internal/header"
	"github.com/nhle/notesync/internal/model"
)

// HeaderBuilder assembles the header block of a note message.
type HeaderBuilder struct {
	profile model.Profile
	date    time.Time
	fields  header.Block
}

// NewHeaders starts a block with the fixed note identification fields
// dated now.
func NewHeaders(p model.Profile) *HeaderBuilder {
	return &HeaderBuilder{
		profile: p,
		date:    time.Now(),
	}
}

// WithDate sets the Date and X-Mail-Created-Date fields.
func (b *HeaderBuilder) WithDate(date time.Time) *HeaderBuilder {
	b.date = date
	return b
}

// WithMessageID sets the Message-Id to a complete message-id value.
func (b *HeaderBuilder) WithMessageID(id string) *HeaderBuilder {
	b.fields = b.fields.Add(header.MessageID, id)
	return b
}

// WithUUID sets the note's stable identifier.
func (b *HeaderBuilder) WithUUID(id string) *HeaderBuilder {
	b.fields = b.fields.Add(header.UniqueIdentifier, id)
	return b
}

func (b *HeaderBuilder) WithSubject(subject string) *HeaderBuilder {
	b.fields = b.fields.Add(header.Subject, subject)
	return b
}

// Build returns the complete block. The identifier and message-id are
// generated only when they were not supplied.
func (b *HeaderBuilder) Build() header.Block {
	date := b.date.Format(time.RFC1123Z)

	block := header.Block{
		{Name: header.UniformTypeIdentifier, Value: header.NoteTypeIdentifier},
		{Name: header.ContentType, Value: header.NoteContentType},
		{Name: header.ContentTransferEncoding, Value: header.NoteEncoding},
		{Name: header.MimeVersion, Value: model.MimeVersion},
		{Name: header.Date, Value: date},
		{Name: header.MailCreatedDate, Value: date},
		{Name: header.From, Value: b.profile.Email},
	}
	block = append(block, b.fields...)

	if !block.Has(header.UniqueIdentifier) {
		block = block.Add(header.UniqueIdentifier, NewUUID())
	}
	if !block.Has(header.MessageID) {
		block = block.Add(header.MessageID, MessageID(b.profile, NewUUID()))
	}

	return block
}

// Outgoing builds the header block for pushing body as a copy of the note
// described by md. The subject is the first line of the note's text.
func Outgoing(p model.Profile, md model.NoteMetadata, body model.NoteBody) header.Block {
	note := model.LocalNote{Metadata: md, Bodies: []model.NoteBody{body}}
	return NewHeaders(p).
		WithDate(md.Date).
		WithSubject(note.Subject()).
		WithUUID(md.UUID).
		WithMessageID(body.MessageID).
		Build()
}

// Package header holds the ordered header list that carries a note's
// identity inside a mail message, and its wire encoding.
package header

import (
	"net/mail"
	"time"
)

// Header names written and read by the codec.
const (
	UniformTypeIdentifier   = "X-Uniform-Type-Identifier"
	ContentType             = "Content-Type"
	ContentTransferEncoding = "Content-Transfer-Encoding"
	MimeVersion             = "Mime-Version"
	Date                    = "Date"
	MailCreatedDate         = "X-Mail-Created-Date"
	From                    = "From"
	Subject                 = "Subject"
	UniqueIdentifier        = "X-Universally-Unique-Identifier"
	MessageID               = "Message-Id"
)

// Fixed values of a note message.
const (
	NoteTypeIdentifier = "com.apple.mail-note"
	NoteContentType    = "text/html; charset=utf-8"
	NoteEncoding       = "quoted-printable"
)

// Field is a single header name-value pair.
type Field struct {
	Name  string
	Value string
}

// Block is an ordered header list. Names may repeat; lookups return the
// first match.
type Block []Field

// Lookup returns the value of the first field named name. Names are
// compared case-sensitively.
func (b Block) Lookup(name string) (string, bool) {
	for _, f := range b {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether a field named name is present.
func (b Block) Has(name string) bool {
	_, ok := b.Lookup(name)
	return ok
}

// Add appends a field and returns the extended block.
func (b Block) Add(name, value string) Block {
	return append(b, Field{Name: name, Value: value})
}

// UUID returns the note's stable identifier.
func (b Block) UUID() (string, bool) {
	return b.Lookup(UniqueIdentifier)
}

// MessageID returns the Message-Id value.
func (b Block) MessageID() (string, bool) {
	return b.Lookup(MessageID)
}

// Subject returns the subject or the empty string.
func (b Block) Subject() string {
	s, _ := b.Lookup(Subject)
	return s
}

// CreatedDate returns the note's creation time, preferring
// X-Mail-Created-Date over Date.
func (b Block) CreatedDate() (time.Time, bool) {
	for _, name := range []string{MailCreatedDate, Date} {
		v, ok := b.Lookup(name)
		if !ok {
			continue
		}
		if t, err := mail.ParseDate(v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/notesync/internal/header"
)

// Kind classifies a transport failure.
type Kind string

const (
	KindConnection Kind = "connection"
	KindAuth       Kind = "auth"
	KindProtocol   Kind = "protocol"
)

// TransportError reports a failure of the remote mailbox. Every kind aborts
// the current sync pass; none is fatal to the process.
type TransportError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s error (%s): %v", e.Kind, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err (or any error in its chain) is a
// TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsAuthError reports whether err (or any error in its chain) is an
// authentication failure.
func IsAuthError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) && transportErr.Kind == KindAuth
}

// Message is one message fetched from a note folder.
type Message struct {
	Folder  string
	UID     int64
	Headers header.Block
	Body    string
}

// Dialer opens authenticated sessions against the remote mailbox.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// Session is an authenticated connection. It is used by one goroutine at a
// time and must be closed with Logout.
type Session interface {
	// ListFolders returns the mailbox names matching pattern, which may
	// contain IMAP wildcards.
	ListFolders(ctx context.Context, pattern string) ([]string, error)

	// FetchAll selects folder and returns every message in it.
	FetchAll(ctx context.Context, folder string) ([]Message, error)

	// Append stores raw in folder and returns the uid it was assigned.
	Append(ctx context.Context, folder string, raw []byte) (int64, error)

	// Delete permanently removes the message with uid from folder.
	Delete(ctx context.Context, folder string, uid int64) error

	Logout() error
}

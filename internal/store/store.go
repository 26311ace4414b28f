package store

import (
	"context"

	"github.com/nhle/notesync/internal/model"
)

// NoteFilter narrows FetchAll results. Nil fields match everything.
type NoteFilter struct {
	// Folder matches the note's subfolder exactly.
	Folder *string

	// Keyword matches any body text, case-insensitively.
	Keyword *string
}

// Store defines the persistence interface for the local note cache.
// Every mutating call runs in its own transaction and blocks until it
// commits or fails; failures are never retried.
type Store interface {
	// === Inserts ===

	Insert(ctx context.Context, md model.NoteMetadata, body model.NoteBody) error
	InsertNote(ctx context.Context, md model.NoteMetadata, bodies []model.NoteBody) error
	AppendBody(ctx context.Context, body model.NoteBody) error

	// === Updates ===

	Update(ctx context.Context, md model.NoteMetadata) error
	UpdateBody(ctx context.Context, body model.NoteBody) error
	ReplaceBodies(
		ctx context.Context,
		md model.NoteMetadata,
		add []model.NoteBody,
		removeMessageIDs []string,
	) error

	// === Deletes ===

	DeleteMetadata(ctx context.Context, uuid string) error
	WipeAll(ctx context.Context) error

	// === Reads ===

	FetchByUUID(ctx context.Context, uuid string) (*model.LocalNote, error)
	FetchAll(ctx context.Context, filter NoteFilter) ([]model.LocalNote, error)
	BodyCount(ctx context.Context, uuid string) (int, error)
	NeedsMerge(ctx context.Context) ([]string, error)
}

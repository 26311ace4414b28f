// Package notes holds the local note operations that run outside a sync
// pass: creating, editing and flagging notes for deletion.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/notesync/internal/builder"
	"github.com/nhle/notesync/internal/convert"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/store"
)

// ErrNeedsMerge is returned when editing a note that still holds more than
// one copy.
var ErrNeedsMerge = errors.New("note needs merge before editing")

// Service applies local changes to cached notes. The next sync pass pushes
// them.
type Service struct {
	store         store.Store
	profile       model.Profile
	defaultFolder string
}

// NewService creates a Service. New notes without a folder go to
// defaultFolder.
func NewService(s store.Store, p model.Profile, defaultFolder string) *Service {
	return &Service{store: s, profile: p, defaultFolder: defaultFolder}
}

// Create stores a new note holding plain as its text.
func (s *Service) Create(ctx context.Context, folder, plain string) (*model.LocalNote, error) {
	if strings.TrimSpace(plain) == "" {
		return nil, errors.New("note text must not be empty")
	}
	if folder == "" {
		folder = s.defaultFolder
	}

	md := builder.NewMetadata().WithFolder(folder).IsNew(true).Build()
	body := builder.NewBody(s.profile).
		WithText(convert.PlainToHTML(plain)).
		WithMetadataUUID(md.UUID).
		Build()

	if err := s.store.Insert(ctx, md, body); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return &model.LocalNote{Metadata: md, Bodies: []model.NoteBody{body}}, nil
}

// Edit replaces the note's text with plain. A note that was pushed before
// is flagged as edited; a new note stays new.
func (s *Service) Edit(ctx context.Context, uuid, plain string) (*model.LocalNote, error) {
	note, err := s.store.FetchByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if note.NeedsMerge() {
		return nil, fmt.Errorf("editing %s: %w", uuid, ErrNeedsMerge)
	}

	html := convert.PlainToHTML(plain)
	md := note.Metadata

	var body model.NoteBody
	var remove []string
	if len(note.Bodies) == 1 {
		body = note.Bodies[0]
		if note.PlainText() == convert.HTMLToPlain(html) {
			return note, nil
		}
		remove = []string{body.MessageID}
		body.Text = &html
	} else {
		body = builder.NewBody(s.profile).WithText(html).WithMetadataUUID(uuid).Build()
	}

	if !md.New {
		md.LocallyEdited = true
	}

	if err := s.store.ReplaceBodies(ctx, md, []model.NoteBody{body}, remove); err != nil {
		return nil, fmt.Errorf("editing %s: %w", uuid, err)
	}
	return &model.LocalNote{Metadata: md, Bodies: []model.NoteBody{body}}, nil
}

// ToggleDeleted flips the note's deletion flag and returns the new value.
func (s *Service) ToggleDeleted(ctx context.Context, uuid string) (bool, error) {
	note, err := s.store.FetchByUUID(ctx, uuid)
	if err != nil {
		return false, err
	}

	md := note.Metadata
	md.LocallyDeleted = !md.LocallyDeleted
	if err := s.store.Update(ctx, md); err != nil {
		return false, fmt.Errorf("flagging %s: %w", uuid, err)
	}
	return md.LocallyDeleted, nil
}

// List returns the notes matching filter.
func (s *Service) List(ctx context.Context, filter store.NoteFilter) ([]model.LocalNote, error) {
	return s.store.FetchAll(ctx, filter)
}

// Get returns a single note.
func (s *Service) Get(ctx context.Context, uuid string) (*model.LocalNote, error) {
	return s.store.FetchByUUID(ctx, uuid)
}

package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/remote"
	"github.com/nhle/notesync/internal/store"
)

// ErrNothingToMerge is returned when a note holds fewer than two copies.
var ErrNothingToMerge = errors.New("nothing to merge")

// MergeResult describes a completed merge.
type MergeResult struct {
	UUID      string
	Kept      model.NoteBody
	Discarded []model.NoteBody
}

// Resolver collapses the copies of a note into one. Merging is destructive
// and only runs when asked to.
type Resolver struct {
	settings
	store   store.Store
	dialer  remote.Dialer
	profile model.Profile
}

// NewResolver creates a Resolver.
func NewResolver(s store.Store, d remote.Dialer, p model.Profile, opts ...Option) *Resolver {
	return &Resolver{
		settings: applyOptions(opts),
		store:    s,
		dialer:   d,
		profile:  p,
	}
}

// Merge keeps the canonical body of the note and discards the rest, first
// on the remote side and then locally in one transaction.
func (r *Resolver) Merge(ctx context.Context, uuid string) (MergeResult, error) {
	note, err := r.store.FetchByUUID(ctx, uuid)
	if err != nil {
		return MergeResult{}, fmt.Errorf("loading %s: %w", uuid, err)
	}
	if len(note.Bodies) < 2 {
		return MergeResult{}, fmt.Errorf("note %s has %d copies: %w", uuid, len(note.Bodies), ErrNothingToMerge)
	}

	keepIdx := canonical(note.Bodies)
	keep := note.Bodies[keepIdx]
	result := MergeResult{UUID: uuid, Kept: keep}

	discardIDs := make(map[string]bool)
	remove := []string{keep.MessageID}
	remoteCopies := false
	for i, b := range note.Bodies {
		if i == keepIdx {
			continue
		}
		result.Discarded = append(result.Discarded, b)
		discardIDs[b.MessageID] = true
		remove = append(remove, b.MessageID)
		if b.UID != model.SentinelUID {
			remoteCopies = true
		}
	}

	md := note.Metadata
	if remoteCopies || keep.UID != model.SentinelUID {
		kept, err := r.deleteRemote(ctx, uuid, keep, discardIDs)
		if err != nil {
			return MergeResult{}, err
		}
		if kept != nil {
			keep.UID = kept.UID
			md.Subfolder = kept.Folder
			// A copy that repeated another's Message-Id was cached under a
			// folder.uid id. Once the other copy is gone, cache it under its
			// own id so the next pass indexes it the same way.
			if id, ok := kept.Headers.MessageID(); ok && id != keep.MessageID && discardIDs[id] {
				keep.MessageID = id
			}
		}
	}
	if keep.UID != model.SentinelUID {
		uid := keep.UID
		md.OldRemoteID = &uid
	}
	result.Kept = keep

	if err := r.store.ReplaceBodies(ctx, md, []model.NoteBody{keep}, remove); err != nil {
		return MergeResult{}, fmt.Errorf("recording merge of %s: %w", uuid, err)
	}

	r.logger.Info("note merged", "uuid", uuid, "kept", keep.MessageID,
		"discarded", len(result.Discarded), "action", "merge")
	return result, nil
}

// deleteRemote deletes the remote copies of the discarded bodies and
// returns the remote copy of the kept body, if it still exists.
func (r *Resolver) deleteRemote(
	ctx context.Context,
	uuid string,
	keep model.NoteBody,
	discard map[string]bool,
) (*remoteCopy, error) {
	sess, err := r.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer logout(sess, r.logger)

	idx, err := fetchRemote(ctx, sess, r.folderPattern, r.profile, r.logger)
	if err != nil {
		return nil, err
	}

	var kept *remoteCopy
	for _, c := range idx.copies(uuid) {
		switch {
		case c.MessageID == keep.MessageID:
			kept = &c
		case discard[c.MessageID]:
			if err := sess.Delete(ctx, c.Folder, c.UID); err != nil {
				return nil, fmt.Errorf("deleting copy %d of %s: %w", c.UID, uuid, err)
			}
		}
	}
	return kept, nil
}

// canonical picks the body to keep: one with text over one without, then
// the highest remote uid, then the earliest cached.
func canonical(bodies []model.NoteBody) int {
	best := 0
	for i := 1; i < len(bodies); i++ {
		a, b := bodies[i], bodies[best]
		if a.HasText() != b.HasText() {
			if a.HasText() {
				best = i
			}
			continue
		}
		if a.UID > b.UID {
			best = i
		}
	}
	return best
}

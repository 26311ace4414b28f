// Package sync reconciles the local note cache with the remote mailbox,
// resolves duplicate copies, and runs both behind a single-worker
// coordinator.
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/notesync/internal/builder"
	"github.com/nhle/notesync/internal/convert"
	"github.com/nhle/notesync/internal/header"
	"github.com/nhle/notesync/internal/model"
	"github.com/nhle/notesync/internal/remote"
	"github.com/nhle/notesync/internal/store"
)

// Summary counts the note actions of one sync pass.
type Summary struct {
	Deleted   int // locally deleted notes removed on both sides
	Pushed    int // new notes appended to the remote
	Adopted   int // new notes found already appended by an interrupted pass
	Updated   int // edited notes pushed as replacement copies
	Pulled    int // remote notes inserted locally
	Refreshed int // cached notes whose copies changed remotely
	Removed   int // cached notes whose remote copies are gone
	Skipped   int

	// NeedsMerge lists the notes holding more than one copy after the pass.
	NeedsMerge []string
}

// Changed reports whether the pass modified anything.
func (s Summary) Changed() bool {
	return s.Deleted+s.Pushed+s.Adopted+s.Updated+s.Pulled+s.Refreshed+s.Removed > 0
}

func (s Summary) String() string {
	if !s.Changed() && s.Skipped == 0 && len(s.NeedsMerge) == 0 {
		return "up to date"
	}

	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(s.Pushed+s.Adopted, "pushed")
	add(s.Updated, "updated")
	add(s.Pulled, "pulled")
	add(s.Refreshed, "refreshed")
	add(s.Deleted+s.Removed, "deleted")
	add(s.Skipped, "skipped")
	add(len(s.NeedsMerge), "need merge")
	if len(parts) == 0 {
		return "up to date"
	}
	return strings.Join(parts, ", ")
}

// Engine runs sync passes. A pass derives every action from the current
// local flags and remote state, so running it again after a failure, or
// twice in a row, is safe.
type Engine struct {
	settings
	store   store.Store
	dialer  remote.Dialer
	profile model.Profile
}

// NewEngine creates an Engine.
func NewEngine(s store.Store, d remote.Dialer, p model.Profile, opts ...Option) *Engine {
	return &Engine{
		settings: applyOptions(opts),
		store:    s,
		dialer:   d,
		profile:  p,
	}
}

// Sync runs one full pass: deletions, pushes of new notes, pushes of
// edits, then pulls and refreshes of remote notes. Every note action
// commits on its own; the first failure stops the pass.
func (e *Engine) Sync(ctx context.Context) (Summary, error) {
	var sum Summary
	start := time.Now()

	sess, err := e.dialer.Dial(ctx)
	if err != nil {
		return sum, fmt.Errorf("connecting: %w", err)
	}
	defer logout(sess, e.logger)

	idx, err := fetchRemote(ctx, sess, e.folderPattern, e.profile, e.logger)
	if err != nil {
		return sum, err
	}

	notes, err := e.store.FetchAll(ctx, store.NoteFilter{})
	if err != nil {
		return sum, fmt.Errorf("loading notes: %w", err)
	}

	local := make(map[string]model.LocalNote, len(notes))
	for _, n := range notes {
		local[n.Metadata.UUID] = n
	}
	handled := make(map[string]bool)

	for _, n := range notes {
		if !n.Metadata.LocallyDeleted {
			continue
		}
		handled[n.Metadata.UUID] = true
		if err := e.pushDeletion(ctx, sess, idx, n); err != nil {
			return sum, err
		}
		sum.Deleted++
	}

	for _, n := range notes {
		if handled[n.Metadata.UUID] || !n.Metadata.New {
			continue
		}
		handled[n.Metadata.UUID] = true
		if copies := idx.copies(n.Metadata.UUID); adoptable(n, copies) {
			md := n.Metadata
			md.New = false
			if _, err := e.follow(ctx, n, md, copies); err != nil {
				return sum, err
			}
			sum.Adopted++
			continue
		}
		pushed, err := e.pushNew(ctx, sess, n)
		if err != nil {
			return sum, err
		}
		if pushed {
			sum.Pushed++
		} else {
			sum.Skipped++
		}
	}

	for _, n := range notes {
		if handled[n.Metadata.UUID] || !n.Metadata.LocallyEdited {
			continue
		}
		handled[n.Metadata.UUID] = true
		pushed, err := e.pushEdit(ctx, sess, idx, n)
		if err != nil {
			return sum, err
		}
		if pushed {
			sum.Updated++
		} else {
			sum.Skipped++
		}
	}

	for _, uuid := range idx.order {
		if handled[uuid] {
			continue
		}
		handled[uuid] = true
		copies := idx.copies(uuid)

		n, ok := local[uuid]
		if !ok {
			if err := e.pull(ctx, uuid, copies); err != nil {
				return sum, err
			}
			sum.Pulled++
			continue
		}

		changed, err := e.follow(ctx, n, n.Metadata, copies)
		if err != nil {
			return sum, err
		}
		if changed {
			sum.Refreshed++
		}
	}

	for _, n := range notes {
		md := n.Metadata
		if handled[md.UUID] || md.OldRemoteID == nil || !idx.listed(md.Subfolder) {
			continue
		}
		if err := e.store.DeleteMetadata(ctx, md.UUID); err != nil {
			return sum, fmt.Errorf("removing %s: %w", md.UUID, err)
		}
		e.logger.Info("note deleted remotely", "uuid", md.UUID, "folder", md.Subfolder, "action", "remove")
		sum.Removed++
	}

	sum.NeedsMerge, err = e.store.NeedsMerge(ctx)
	if err != nil {
		return sum, fmt.Errorf("counting duplicates: %w", err)
	}

	e.logger.Info("sync finished", "summary", sum.String(), "elapsed", time.Since(start))
	return sum, nil
}

// pushDeletion removes every remote copy of the note, then the note itself.
func (e *Engine) pushDeletion(
	ctx context.Context,
	sess remote.Session,
	idx *remoteIndex,
	n model.LocalNote,
) error {
	uuid := n.Metadata.UUID
	for _, c := range idx.copies(uuid) {
		if err := sess.Delete(ctx, c.Folder, c.UID); err != nil {
			return fmt.Errorf("deleting remote copy of %s: %w", uuid, err)
		}
	}
	if err := e.store.DeleteMetadata(ctx, uuid); err != nil {
		return fmt.Errorf("deleting %s: %w", uuid, err)
	}
	e.logger.Info("note deleted", "uuid", uuid, "copies", len(idx.copies(uuid)), "action", "delete")
	return nil
}

// pushNew appends a never-pushed note and records its uid.
func (e *Engine) pushNew(ctx context.Context, sess remote.Session, n model.LocalNote) (bool, error) {
	md := n.Metadata
	if len(n.Bodies) == 0 {
		e.logger.Warn("new note has no body", "uuid", md.UUID)
		return false, nil
	}

	body := n.Bodies[0]
	folder := e.folderFor(md)
	uid, err := e.appendCopy(ctx, sess, folder, md, body)
	if err != nil {
		return false, err
	}

	body.UID = uid
	md.New = false
	md.LocallyEdited = false
	md.OldRemoteID = &uid
	md.Subfolder = folder
	if err := e.store.ReplaceBodies(ctx, md, []model.NoteBody{body}, []string{body.MessageID}); err != nil {
		return false, fmt.Errorf("recording push of %s: %w", md.UUID, err)
	}

	e.logger.Info("note pushed", "uuid", md.UUID, "folder", folder, "uid", uid, "action", "push")
	return true, nil
}

// pushEdit appends the edited text as a new copy, deletes the copy it
// replaces, and records the new uid.
func (e *Engine) pushEdit(
	ctx context.Context,
	sess remote.Session,
	idx *remoteIndex,
	n model.LocalNote,
) (bool, error) {
	md := n.Metadata
	if len(n.Bodies) != 1 {
		e.logger.Warn("edited note needs merge first", "uuid", md.UUID, "copies", len(n.Bodies))
		return false, nil
	}

	old := n.Bodies[0]
	folder := e.folderFor(md)
	body := builder.NewBody(e.profile).
		WithText(old.TextOrEmpty()).
		WithMetadataUUID(md.UUID).
		Build()

	uid, err := e.appendCopy(ctx, sess, folder, md, body)
	if err != nil {
		return false, err
	}
	body.UID = uid

	for _, c := range idx.copies(md.UUID) {
		if c.MessageID != old.MessageID && !isOldRemote(md, c) {
			continue
		}
		if err := sess.Delete(ctx, c.Folder, c.UID); err != nil {
			return false, fmt.Errorf("deleting replaced copy of %s: %w", md.UUID, err)
		}
	}

	md.LocallyEdited = false
	md.OldRemoteID = &uid
	md.Subfolder = folder
	if err := e.store.ReplaceBodies(ctx, md, []model.NoteBody{body}, []string{old.MessageID}); err != nil {
		return false, fmt.Errorf("recording edit of %s: %w", md.UUID, err)
	}

	e.logger.Info("note updated", "uuid", md.UUID, "folder", folder, "uid", uid, "action", "edit")
	return true, nil
}

// pull caches a note that only exists remotely, with one body per copy.
func (e *Engine) pull(ctx context.Context, uuid string, copies []remoteCopy) error {
	folder, uid := primary(copies)

	mb := builder.NewMetadata().
		WithUUID(uuid).
		WithFolder(folder).
		WithOldRemoteID(uid)
	if date, ok := copies[0].Headers.CreatedDate(); ok {
		mb = mb.WithDate(date)
	}
	if v, ok := copies[0].Headers.Lookup(header.MimeVersion); ok && v != "" {
		mb = mb.WithMimeVersion(v)
	}
	md := mb.Build()

	bodies := make([]model.NoteBody, len(copies))
	for i, c := range copies {
		bodies[i] = e.bodyFor(uuid, c)
	}

	if err := e.store.InsertNote(ctx, md, bodies); err != nil {
		return fmt.Errorf("caching %s: %w", uuid, err)
	}

	e.logger.Info("note pulled", "uuid", uuid, "folder", folder, "copies", len(copies), "action", "pull")
	return nil
}

// follow makes the cached bodies of n match the remote copies, writing md
// with the primary copy's folder and uid. Bodies are matched by
// message-id; a body whose uid changed or whose text was never loaded is
// replaced. It reports whether anything was written.
func (e *Engine) follow(
	ctx context.Context,
	n model.LocalNote,
	md model.NoteMetadata,
	copies []remoteCopy,
) (bool, error) {
	folder, uid := primary(copies)
	md.Subfolder = folder
	md.OldRemoteID = &uid

	cached := make(map[string]model.NoteBody, len(n.Bodies))
	for _, b := range n.Bodies {
		cached[b.MessageID] = b
	}
	current := make(map[string]bool, len(copies))

	var add []model.NoteBody
	var remove []string
	for _, c := range copies {
		current[c.MessageID] = true
		b, ok := cached[c.MessageID]
		if ok && b.UID == c.UID && b.Text != nil {
			continue
		}
		if ok {
			remove = append(remove, b.MessageID)
		}
		add = append(add, e.bodyFor(md.UUID, c))
	}
	for _, b := range n.Bodies {
		if !current[b.MessageID] {
			remove = append(remove, b.MessageID)
		}
	}

	if len(add) == 0 && len(remove) == 0 && sameMetadata(n.Metadata, md) {
		return false, nil
	}

	if err := e.store.ReplaceBodies(ctx, md, add, remove); err != nil {
		return false, fmt.Errorf("refreshing %s: %w", md.UUID, err)
	}

	e.logger.Info("note refreshed", "uuid", md.UUID, "folder", folder,
		"added", len(add), "removed", len(remove), "action", "refresh")
	return true, nil
}

func (e *Engine) appendCopy(
	ctx context.Context,
	sess remote.Session,
	folder string,
	md model.NoteMetadata,
	body model.NoteBody,
) (int64, error) {
	raw, err := header.Encode(builder.Outgoing(e.profile, md, body), body.TextOrEmpty())
	if err != nil {
		return 0, fmt.Errorf("encoding %s: %w", md.UUID, err)
	}
	uid, err := sess.Append(ctx, folder, raw)
	if err != nil {
		return 0, fmt.Errorf("appending %s to %s: %w", md.UUID, folder, err)
	}
	return uid, nil
}

func (e *Engine) bodyFor(uuid string, c remoteCopy) model.NoteBody {
	return builder.NewBody(e.profile).
		WithMessageID(c.MessageID).
		WithUID(c.UID).
		WithText(convert.Sanitize(c.Body)).
		WithMetadataUUID(uuid).
		Build()
}

func (e *Engine) folderFor(md model.NoteMetadata) string {
	if md.Subfolder != "" {
		return md.Subfolder
	}
	return e.defaultFolder
}

// adoptable reports whether a new note was already appended by an earlier
// pass that stopped before recording it.
func adoptable(n model.LocalNote, copies []remoteCopy) bool {
	for _, c := range copies {
		for _, b := range n.Bodies {
			if b.MessageID == c.MessageID {
				return true
			}
		}
	}
	return false
}

func isOldRemote(md model.NoteMetadata, c remoteCopy) bool {
	return md.OldRemoteID != nil && c.Folder == md.Subfolder && c.UID == *md.OldRemoteID
}

func sameMetadata(a, b model.NoteMetadata) bool {
	if (a.OldRemoteID == nil) != (b.OldRemoteID == nil) {
		return false
	}
	if a.OldRemoteID != nil && *a.OldRemoteID != *b.OldRemoteID {
		return false
	}
	return a.Subfolder == b.Subfolder &&
		a.New == b.New &&
		a.LocallyEdited == b.LocallyEdited &&
		a.LocallyDeleted == b.LocallyDeleted
}

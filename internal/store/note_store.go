package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/notesync/internal/model"
)

const insertMetadataQuery = `
	INSERT INTO metadata (
		uuid, old_remote_id, subfolder,
		locally_deleted, locally_edited, new,
		date, mime_version
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// Insert writes a metadata row and its first body atomically.
func (s *SQLiteStore) Insert(ctx context.Context, md model.NoteMetadata, body model.NoteBody) error {
	return s.InsertNote(ctx, md, []model.NoteBody{body})
}

// InsertNote writes a metadata row and all of its bodies atomically. Bodies
// are attached to md regardless of their MetadataUUID.
func (s *SQLiteStore) InsertNote(ctx context.Context, md model.NoteMetadata, bodies []model.NoteBody) error {
	return s.withTx(ctx, "insert note "+md.UUID, func(tx *sqlx.Tx) error {
		if err := insertMetadata(ctx, tx, md); err != nil {
			return err
		}
		for _, b := range bodies {
			b.MetadataUUID = md.UUID
			if err := insertBody(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update overwrites every column of an existing metadata row.
func (s *SQLiteStore) Update(ctx context.Context, md model.NoteMetadata) error {
	return s.withTx(ctx, "update note "+md.UUID, func(tx *sqlx.Tx) error {
		return updateMetadata(ctx, tx, md)
	})
}

// ReplaceBodies updates md, removes the listed bodies of the note, and
// attaches add to it, all in one transaction.
func (s *SQLiteStore) ReplaceBodies(
	ctx context.Context,
	md model.NoteMetadata,
	add []model.NoteBody,
	removeMessageIDs []string,
) error {
	return s.withTx(ctx, "replace bodies "+md.UUID, func(tx *sqlx.Tx) error {
		if err := updateMetadata(ctx, tx, md); err != nil {
			return err
		}
		for _, id := range removeMessageIDs {
			_, err := tx.ExecContext(ctx,
				"DELETE FROM body WHERE message_id = ? AND metadata_uuid = ?",
				id, md.UUID,
			)
			if err != nil {
				return fmt.Errorf("deleting body %s: %w", id, err)
			}
		}
		for _, b := range add {
			b.MetadataUUID = md.UUID
			if err := insertBody(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteMetadata removes a note and all of its bodies.
func (s *SQLiteStore) DeleteMetadata(ctx context.Context, uuid string) error {
	return s.withTx(ctx, "delete note "+uuid, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM body WHERE metadata_uuid = ?", uuid); err != nil {
			return fmt.Errorf("deleting bodies: %w", err)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM metadata WHERE uuid = ?", uuid)
		if err != nil {
			return fmt.Errorf("deleting metadata: %w", err)
		}
		return requireRow(result, "note "+uuid)
	})
}

// FetchByUUID returns a note with all of its bodies in insertion order.
func (s *SQLiteStore) FetchByUUID(ctx context.Context, uuid string) (*model.LocalNote, error) {
	var md model.NoteMetadata
	err := s.db.GetContext(ctx, &md, "SELECT * FROM metadata WHERE uuid = ?", uuid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", uuid, ErrNotFound)
	}
	if err != nil {
		return nil, classify("fetch note "+uuid, err)
	}

	var bodies []model.NoteBody
	err = s.db.SelectContext(ctx, &bodies,
		"SELECT * FROM body WHERE metadata_uuid = ? ORDER BY rowid", uuid,
	)
	if err != nil {
		return nil, classify("fetch bodies "+uuid, err)
	}

	return &model.LocalNote{Metadata: md, Bodies: bodies}, nil
}

// likeEscaper makes a keyword match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// FetchAll returns every note matching filter, newest first.
func (s *SQLiteStore) FetchAll(ctx context.Context, filter NoteFilter) ([]model.LocalNote, error) {
	var conditions []string
	var args []interface{}

	if filter.Folder != nil {
		conditions = append(conditions, "m.subfolder = ?")
		args = append(args, *filter.Folder)
	}
	if filter.Keyword != nil && *filter.Keyword != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM body b WHERE b.metadata_uuid = m.uuid AND b.text LIKE ? ESCAPE '\\')")
		args = append(args, "%"+likeEscaper.Replace(*filter.Keyword)+"%")
	}

	query := "SELECT m.* FROM metadata m"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY m.date DESC, m.uuid"

	var metas []model.NoteMetadata
	if err := s.db.SelectContext(ctx, &metas, query, args...); err != nil {
		return nil, classify("fetch notes", err)
	}
	if len(metas) == 0 {
		return nil, nil
	}

	uuids := make([]string, len(metas))
	for i, md := range metas {
		uuids[i] = md.UUID
	}
	bodyQuery, bodyArgs, err := sqlx.In(
		"SELECT * FROM body WHERE metadata_uuid IN (?) ORDER BY rowid", uuids,
	)
	if err != nil {
		return nil, classify("fetch bodies", err)
	}

	var bodies []model.NoteBody
	if err := s.db.SelectContext(ctx, &bodies, s.db.Rebind(bodyQuery), bodyArgs...); err != nil {
		return nil, classify("fetch bodies", err)
	}

	byUUID := make(map[string][]model.NoteBody, len(metas))
	for _, b := range bodies {
		byUUID[b.MetadataUUID] = append(byUUID[b.MetadataUUID], b)
	}

	notes := make([]model.LocalNote, len(metas))
	for i, md := range metas {
		notes[i] = model.LocalNote{Metadata: md, Bodies: byUUID[md.UUID]}
	}
	return notes, nil
}

// NeedsMerge returns the uuids of notes holding more than one body.
func (s *SQLiteStore) NeedsMerge(ctx context.Context) ([]string, error) {
	var uuids []string
	err := s.db.SelectContext(ctx, &uuids, `
		SELECT metadata_uuid FROM body
		GROUP BY metadata_uuid
		HAVING COUNT(*) > 1
		ORDER BY metadata_uuid`)
	if err != nil {
		return nil, classify("needs merge", err)
	}
	return uuids, nil
}

func insertMetadata(ctx context.Context, tx *sqlx.Tx, md model.NoteMetadata) error {
	_, err := tx.ExecContext(ctx, insertMetadataQuery,
		md.UUID, md.OldRemoteID, md.Subfolder,
		boolToInt(md.LocallyDeleted), boolToInt(md.LocallyEdited), boolToInt(md.New),
		md.Date.UTC(), md.MimeVersion,
	)
	if err != nil {
		return fmt.Errorf("inserting metadata %s: %w", md.UUID, err)
	}
	return nil
}

func updateMetadata(ctx context.Context, tx *sqlx.Tx, md model.NoteMetadata) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE metadata SET
			old_remote_id = ?, subfolder = ?,
			locally_deleted = ?, locally_edited = ?, new = ?,
			date = ?, mime_version = ?
		WHERE uuid = ?`,
		md.OldRemoteID, md.Subfolder,
		boolToInt(md.LocallyDeleted), boolToInt(md.LocallyEdited), boolToInt(md.New),
		md.Date.UTC(), md.MimeVersion,
		md.UUID,
	)
	if err != nil {
		return fmt.Errorf("updating metadata %s: %w", md.UUID, err)
	}
	return requireRow(result, "note "+md.UUID)
}

// requireRow turns a zero-row result into ErrNotFound.
func requireRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

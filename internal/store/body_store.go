package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/notesync/internal/model"
)

// AppendBody attaches another body to an existing note. The note must
// exist; a missing owner is reported as ErrNotFound.
func (s *SQLiteStore) AppendBody(ctx context.Context, body model.NoteBody) error {
	return s.withTx(ctx, "append body "+body.MessageID, func(tx *sqlx.Tx) error {
		var owners int
		err := tx.GetContext(ctx, &owners,
			"SELECT COUNT(*) FROM metadata WHERE uuid = ?", body.MetadataUUID)
		if err != nil {
			return fmt.Errorf("checking owner: %w", err)
		}
		if owners == 0 {
			return fmt.Errorf("note %s: %w", body.MetadataUUID, ErrNotFound)
		}
		return insertBody(ctx, tx, body)
	})
}

// UpdateBody overwrites the uid and text of an existing body.
func (s *SQLiteStore) UpdateBody(ctx context.Context, body model.NoteBody) error {
	return s.withTx(ctx, "update body "+body.MessageID, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE body SET uid = ?, text = ? WHERE message_id = ?",
			body.UID, body.Text, body.MessageID,
		)
		if err != nil {
			return fmt.Errorf("updating body: %w", err)
		}
		return requireRow(result, "body "+body.MessageID)
	})
}

// BodyCount returns how many bodies a note holds.
func (s *SQLiteStore) BodyCount(ctx context.Context, uuid string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM body WHERE metadata_uuid = ?", uuid)
	if err != nil {
		return 0, classify("body count "+uuid, err)
	}
	return n, nil
}

func insertBody(ctx context.Context, tx *sqlx.Tx, b model.NoteBody) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO body (message_id, uid, text, metadata_uuid) VALUES (?, ?, ?, ?)",
		b.MessageID, b.UID, b.Text, b.MetadataUUID,
	)
	if err != nil {
		return fmt.Errorf("inserting body %s: %w", b.MessageID, err)
	}
	return nil
}

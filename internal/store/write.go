package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/acterstore/internal/ir"
	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
)

// Save upserts a model record by event id and replaces its index
// memberships. An existing redaction marker is kept.
func (s *Store) Save(ctx context.Context, rec model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write model: begin: %w", err)
	}
	defer tx.Rollback()

	var redactedBy sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT redacted_by FROM models WHERE event_id = ?`, rec.EventID).Scan(&redactedBy)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("write model: read existing: %w", err)
	case redactedBy.Valid && rec.Redacted == nil:
		rec = model.ApplyRedaction(rec, redactedBy.String)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO models
		(event_id, room_id, sender, origin_server_ts, kind, content, content_hash, redacted_by, record_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			room_id = excluded.room_id,
			sender = excluded.sender,
			origin_server_ts = excluded.origin_server_ts,
			kind = excluded.kind,
			content = excluded.content,
			content_hash = excluded.content_hash,
			redacted_by = excluded.redacted_by,
			record_version = excluded.record_version
		WHERE models.content_hash != excluded.content_hash
			OR models.redacted_by IS NOT excluded.redacted_by
	`,
		rec.EventID,
		rec.RoomID,
		rec.Sender,
		int64(rec.OriginServerTS),
		string(rec.Kind),
		string(rec.Content),
		rec.ContentHash,
		nullString(rec.Redacted),
		ir.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	if err := replaceIndexes(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write model: commit: %w", err)
	}
	return nil
}

// Redact marks a stored model as redacted and adds it to the Redacted index.
func (s *Store) Redact(ctx context.Context, eventID, redactedBy string) ([]ref.ExecuteReference, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("redact: begin: %w", err)
	}
	defer tx.Rollback()

	var ts int64
	err = tx.QueryRowContext(ctx, `SELECT origin_server_ts FROM models WHERE event_id = ?`, eventID).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("redact %s: %w", eventID, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redact %s: %w", eventID, err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE models SET redacted_by = ? WHERE event_id = ?`, redactedBy, eventID); err != nil {
		return nil, fmt.Errorf("redact %s: %w", eventID, err)
	}

	key, err := encodeIndexKey(ref.Redacted())
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_members (index_key, event_id, origin_server_ts)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, key, eventID, ts)
	if err != nil {
		return nil, fmt.Errorf("redact %s: index: %w", eventID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("redact %s: commit: %w", eventID, err)
	}
	return model.RedactionRefs(eventID), nil
}

func replaceIndexes(ctx context.Context, tx *sql.Tx, rec model.Record) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM index_members WHERE event_id = ?`, rec.EventID); err != nil {
		return fmt.Errorf("write indexes: clear: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_members (index_key, event_id, origin_server_ts)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write indexes: prepare: %w", err)
	}
	defer stmt.Close()

	for _, k := range rec.Indexes {
		key, err := encodeIndexKey(k)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, key, rec.EventID, int64(rec.OriginServerTS)); err != nil {
			return fmt.Errorf("write indexes: %s: %w", k, err)
		}
	}
	return nil
}

// encodeIndexKey renders k in its stable, persisted JSON form.
func encodeIndexKey(k ref.IndexKey) (string, error) {
	data, err := k.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode index key: %w", err)
	}
	return string(data), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

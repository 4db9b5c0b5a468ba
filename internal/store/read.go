package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matrix-org/gomatrixserverlib/spec"

	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
)

const selectModel = `
	SELECT m.event_id, m.room_id, m.sender, m.origin_server_ts, m.kind, m.content, m.content_hash, m.redacted_by
	FROM models m`

// Get returns the record for eventID, or an error wrapping model.ErrNotFound.
func (s *Store) Get(ctx context.Context, eventID string) (model.Record, error) {
	row := s.db.QueryRowContext(ctx, selectModel+` WHERE m.event_id = ?`, eventID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, fmt.Errorf("get %s: %w", eventID, model.ErrNotFound)
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("get %s: %w", eventID, err)
	}

	indexes, err := s.readIndexes(ctx, eventID)
	if err != nil {
		return model.Record{}, err
	}
	rec.Indexes = indexes
	return rec, nil
}

// GetByStorageKey resolves a Model storage key ("acter::<event_id>").
func (s *Store) GetByStorageKey(ctx context.Context, key string) (model.Record, error) {
	eventID, err := model.ParseModelStorageKey(key)
	if err != nil {
		return model.Record{}, err
	}
	return s.Get(ctx, eventID)
}

// ListIndex returns the records in an index bucket.
// Results are ordered deterministically: ORDER BY origin_server_ts ASC, event_id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the bucket is empty.
func (s *Store) ListIndex(ctx context.Context, key ref.IndexKey) ([]model.Record, error) {
	encoded, err := encodeIndexKey(key)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, selectModel+`
		JOIN index_members i ON i.event_id = m.event_id
		WHERE i.index_key = ?
		ORDER BY i.origin_server_ts ASC, i.event_id COLLATE BINARY ASC
	`, encoded)
	if err != nil {
		return nil, fmt.Errorf("list index %s: %w", key, err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list index %s: %w", key, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list index %s: iterate: %w", key, err)
	}

	// Rows must be closed before issuing more queries on the single connection.
	rows.Close()
	for i := range records {
		indexes, err := s.readIndexes(ctx, records[i].EventID)
		if err != nil {
			return nil, err
		}
		records[i].Indexes = indexes
	}
	return records, nil
}

// Count returns the number of stored models.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count models: %w", err)
	}
	return n, nil
}

func (s *Store) readIndexes(ctx context.Context, eventID string) ([]ref.IndexKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT index_key FROM index_members WHERE event_id = ?
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("read indexes %s: %w", eventID, err)
	}
	defer rows.Close()

	var keys []ref.IndexKey
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("read indexes %s: %w", eventID, err)
		}
		var k ref.IndexKey
		if err := json.Unmarshal([]byte(raw), &k); err != nil {
			return nil, fmt.Errorf("read indexes %s: %w", eventID, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read indexes %s: %w", eventID, err)
	}
	return ref.SortIndexKeys(keys), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.Record, error) {
	var (
		rec        model.Record
		ts         int64
		kind       string
		content    string
		redactedBy sql.NullString
	)
	if err := row.Scan(&rec.EventID, &rec.RoomID, &rec.Sender, &ts, &kind, &content, &rec.ContentHash, &redactedBy); err != nil {
		return model.Record{}, err
	}
	rec.OriginServerTS = spec.Timestamp(ts)
	rec.Kind = model.Kind(kind)
	rec.Content = json.RawMessage(content)
	if redactedBy.Valid {
		by := redactedBy.String
		rec.Redacted = &by
	}
	return rec, nil
}

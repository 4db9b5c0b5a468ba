// Package memstore is an in-memory model.Backend used by the scenario
// harness and the CLI's memory backend.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
)

// Store keeps records in a concurrent map keyed by event id.
type Store struct {
	userID  string
	records *xsync.MapOf[string, model.Record]
}

// New returns an empty store acting for userID.
func New(userID string) *Store {
	return &Store{
		userID:  userID,
		records: xsync.NewMapOf[string, model.Record](),
	}
}

// UserID implements model.Store.
func (s *Store) UserID() string { return s.userID }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Save upserts rec atomically per event id.
func (s *Store) Save(_ context.Context, rec model.Record) error {
	s.records.Compute(rec.EventID, func(old model.Record, loaded bool) (model.Record, bool) {
		if loaded {
			return model.MergeForSave(&old, rec), false
		}
		return rec, false
	})
	return nil
}

// Redact marks eventID as redacted by redactedBy.
func (s *Store) Redact(_ context.Context, eventID, redactedBy string) ([]ref.ExecuteReference, error) {
	var found bool
	s.records.Compute(eventID, func(old model.Record, loaded bool) (model.Record, bool) {
		found = loaded
		if !loaded {
			return old, true
		}
		return model.ApplyRedaction(old, redactedBy), false
	})
	if !found {
		return nil, fmt.Errorf("redact %s: %w", eventID, model.ErrNotFound)
	}
	return model.RedactionRefs(eventID), nil
}

// Get returns the record for eventID.
func (s *Store) Get(_ context.Context, eventID string) (model.Record, error) {
	rec, ok := s.records.Load(eventID)
	if !ok {
		return model.Record{}, fmt.Errorf("get %s: %w", eventID, model.ErrNotFound)
	}
	return rec, nil
}

// GetByStorageKey resolves a Model storage key.
func (s *Store) GetByStorageKey(ctx context.Context, key string) (model.Record, error) {
	eventID, err := model.ParseModelStorageKey(key)
	if err != nil {
		return model.Record{}, err
	}
	return s.Get(ctx, eventID)
}

// ListIndex scans every record; fine for the sizes a memory store holds.
func (s *Store) ListIndex(_ context.Context, key ref.IndexKey) ([]model.Record, error) {
	records := []model.Record{}
	s.records.Range(func(_ string, rec model.Record) bool {
		if rec.InIndex(key) {
			records = append(records, rec)
		}
		return true
	})
	slices.SortFunc(records, func(a, b model.Record) int {
		return cmp.Or(
			cmp.Compare(a.OriginServerTS, b.OriginServerTS),
			cmp.Compare(a.EventID, b.EventID),
		)
	})
	return records, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int { return s.records.Size() }

// Records returns every stored record ordered by event id.
func (s *Store) Records() []model.Record {
	records := make([]model.Record, 0, s.records.Size())
	s.records.Range(func(_ string, rec model.Record) bool {
		records = append(records, rec)
		return true
	})
	slices.SortFunc(records, func(a, b model.Record) int { return cmp.Compare(a.EventID, b.EventID) })
	return records
}

// Package kvstore implements model.Backend on pebble.
//
// Key layout:
//
//	m/<event_id>                               record JSON
//	i/<index key JSON> 0x00 <ts BE64><event_id> empty, one per index membership
//	v/index_encoding                           ref.EncodingVersion of the i/ keys
//
// Index entries sort by origin timestamp and then by event id bytes, so a
// bounded iteration over one index key yields records in listing order.
// Decoded records are kept in an LRU cache keyed by event id.
package kvstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/matrix-org/gomatrixserverlib/spec"

	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
)

// DefaultCacheSize is the number of records kept in the read cache.
const DefaultCacheSize = 1024

const (
	modelPrefix = "m/"
	indexPrefix = "i/"
	indexSep    = 0x00

	indexEncodingKey = "v/index_encoding"
)

// Store is a pebble-backed model store.
type Store struct {
	db     *pebble.DB
	userID string
	cache  *lru.Cache[string, model.Record]

	// Serializes read-modify-write cycles on model slots.
	mu sync.Mutex
}

// Open opens or creates a pebble database in dir. cacheSize <= 0 selects
// DefaultCacheSize.
func Open(dir, userID string, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, model.Record](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("kvstore: cache: %w", err)
	}

	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", dir, err)
	}
	if err := checkIndexEncoding(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: open %s: %w", dir, err)
	}
	return &Store{db: db, userID: userID, cache: cache}, nil
}

// checkIndexEncoding records ref.EncodingVersion in a new database and
// rejects one written with another version.
func checkIndexEncoding(db *pebble.DB) error {
	val, closer, err := db.Get([]byte(indexEncodingKey))
	if errors.Is(err, pebble.ErrNotFound) {
		return db.Set([]byte(indexEncodingKey), []byte(ref.EncodingVersion), pebble.Sync)
	}
	if err != nil {
		return err
	}
	stored := string(val)
	closer.Close()
	return ref.CheckEncoding(stored)
}

// UserID implements model.Store.
func (s *Store) UserID() string { return s.userID }

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Save upserts rec and replaces its index entries in a single synced batch.
func (s *Store) Save(_ context.Context, rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(rec.EventID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		existing = nil
	case err != nil:
		return fmt.Errorf("write model: %w", err)
	}
	rec = model.MergeForSave(existing, rec)
	return s.commit(existing, rec)
}

// Redact marks eventID as redacted by redactedBy.
func (s *Store) Redact(_ context.Context, eventID, redactedBy string) ([]ref.ExecuteReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(eventID)
	if err != nil {
		return nil, fmt.Errorf("redact %s: %w", eventID, err)
	}
	if err := s.commit(existing, model.ApplyRedaction(*existing, redactedBy)); err != nil {
		return nil, fmt.Errorf("redact %s: %w", eventID, err)
	}
	return model.RedactionRefs(eventID), nil
}

// Get returns the record for eventID, or an error wrapping model.ErrNotFound.
func (s *Store) Get(_ context.Context, eventID string) (model.Record, error) {
	rec, err := s.load(eventID)
	if err != nil {
		return model.Record{}, fmt.Errorf("get %s: %w", eventID, err)
	}
	return *rec, nil
}

// GetByStorageKey resolves a Model storage key.
func (s *Store) GetByStorageKey(ctx context.Context, key string) (model.Record, error) {
	eventID, err := model.ParseModelStorageKey(key)
	if err != nil {
		return model.Record{}, err
	}
	return s.Get(ctx, eventID)
}

// ListIndex returns the records in key ordered by origin timestamp, then
// event id. An empty bucket yields an empty, non-nil slice.
func (s *Store) ListIndex(ctx context.Context, key ref.IndexKey) ([]model.Record, error) {
	prefix, err := indexBucket(key)
	if err != nil {
		return nil, err
	}
	upper := append(bytes.Clone(prefix[:len(prefix)-1]), indexSep+1)

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("list index %s: %w", key, err)
	}
	defer iter.Close()

	records := []model.Record{}
	for valid := iter.First(); valid; valid = iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		eventID := string(iter.Key()[len(prefix)+8:])
		rec, err := s.load(eventID)
		if err != nil {
			return nil, fmt.Errorf("list index %s: %w", key, err)
		}
		records = append(records, *rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("list index %s: %w", key, err)
	}
	return records, nil
}

// load returns the stored record for eventID, consulting the cache first.
func (s *Store) load(eventID string) (*model.Record, error) {
	if rec, ok := s.cache.Get(eventID); ok {
		return &rec, nil
	}

	val, closer, err := s.db.Get(modelKey(eventID))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var rec model.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", eventID, err)
	}
	s.cache.Add(eventID, rec)
	return &rec, nil
}

// commit writes rec, dropping the index entries of prev first.
func (s *Store) commit(prev *model.Record, rec model.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.EventID, err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if prev != nil {
		for _, k := range prev.Indexes {
			entry, err := indexEntry(k, prev.OriginServerTS, prev.EventID)
			if err != nil {
				return err
			}
			if err := batch.Delete(entry, nil); err != nil {
				return err
			}
		}
	}
	for _, k := range rec.Indexes {
		entry, err := indexEntry(k, rec.OriginServerTS, rec.EventID)
		if err != nil {
			return err
		}
		if err := batch.Set(entry, nil, nil); err != nil {
			return err
		}
	}
	if err := batch.Set(modelKey(rec.EventID), data, nil); err != nil {
		return err
	}

	// A failed commit must not leave the new record cached.
	s.cache.Remove(rec.EventID)
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit %s: %w", rec.EventID, err)
	}
	s.cache.Add(rec.EventID, rec)
	return nil
}

func modelKey(eventID string) []byte {
	return append([]byte(modelPrefix), eventID...)
}

// indexBucket returns the key prefix shared by every entry of k, including
// the trailing separator.
func indexBucket(k ref.IndexKey) ([]byte, error) {
	encoded, err := k.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode index key: %w", err)
	}
	buf := make([]byte, 0, len(indexPrefix)+len(encoded)+1)
	buf = append(buf, indexPrefix...)
	buf = append(buf, encoded...)
	return append(buf, indexSep), nil
}

func indexEntry(k ref.IndexKey, ts spec.Timestamp, eventID string) ([]byte, error) {
	buf, err := indexBucket(k)
	if err != nil {
		return nil, err
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(ts))
	return append(buf, eventID...), nil
}

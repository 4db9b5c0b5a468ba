package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/acterstore/internal/ir"
	"github.com/roach88/acterstore/internal/ref"
)

// Model is the capability contract every decoded model satisfies.
type Model interface {
	// IndexMemberships returns every bucket the model belongs to for actor.
	// Pure: the same model and actor always yield the same keys.
	IndexMemberships(actor string) []ref.IndexKey

	// Meta returns the model's provenance.
	Meta() *EventMeta

	// Capabilities returns the operations callers may offer on the model.
	Capabilities() []Capability

	// ParentReferences returns the ids of the objects this model edits or
	// replies to. Nil means no parent refresh is triggered.
	ParentReferences() []string

	// Record renders the model as a persisted record for actor.
	Record(actor string) (Record, error)

	// Execute persists the model and returns every stale reference.
	Execute(ctx context.Context, store Store) ([]ref.ExecuteReference, error)
}

// Record is the persisted form of a model, keyed by event id.
//
// Content is canonical JSON (RFC 8785) so that two records built from the
// same event are byte-identical; ContentHash is its domain-separated hash.
type Record struct {
	EventMeta
	Kind        Kind            `json:"kind"`
	Content     json.RawMessage `json:"content"`
	ContentHash string          `json:"content_hash"`
	Indexes     []ref.IndexKey  `json:"indexes"`
}

// StorageKey returns the canonical slot key of the record.
func (r Record) StorageKey() string {
	return ref.ModelStorageKey(r.EventID)
}

// InIndex reports whether the record belongs to key.
func (r Record) InIndex(key ref.IndexKey) bool {
	for _, k := range r.Indexes {
		if k == key {
			return true
		}
	}
	return false
}

// NewRecord builds a record with canonical content and sorted indexes.
func NewRecord(meta EventMeta, kind Kind, content any, indexes []ref.IndexKey) (Record, error) {
	canonical, hash, err := ir.CanonicalHash(content)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: %w", meta.EventID, err)
	}
	return Record{
		EventMeta:   meta,
		Kind:        kind,
		Content:     canonical,
		ContentHash: hash,
		Indexes:     ref.SortIndexKeys(indexes),
	}, nil
}

// Store is the persistence surface models execute against.
type Store interface {
	// UserID is the acting user index memberships are computed for.
	UserID() string

	// Save upserts rec by event id. Saving identical content again is a
	// no-op; index memberships are replaced by those on rec.
	Save(ctx context.Context, rec Record) error
}

// Reader resolves records back from a store.
type Reader interface {
	Get(ctx context.Context, eventID string) (Record, error)

	// ListIndex returns the records in key ordered by origin timestamp,
	// then event id.
	ListIndex(ctx context.Context, key ref.IndexKey) ([]Record, error)

	// GetByStorageKey resolves a Model storage key ("acter::<event_id>").
	GetByStorageKey(ctx context.Context, key string) (Record, error)
}

// Backend is the full surface of a concrete store.
type Backend interface {
	Store
	Reader

	// Redact marks eventID as redacted by redactedBy and moves it into the
	// Redacted index. It returns the references made stale.
	Redact(ctx context.Context, eventID, redactedBy string) ([]ref.ExecuteReference, error)

	Close() error
}

// Persist saves m through store and returns the stale references: the
// model's own slot, every index it belongs to and every parent model, sorted
// and deduplicated. Store failures are returned wrapped, never masked.
func Persist(ctx context.Context, store Store, m Model) ([]ref.ExecuteReference, error) {
	rec, err := m.Record(store.UserID())
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save %s: %w", rec.EventID, err)
	}

	refs := make([]ref.ExecuteReference, 0, 1+len(rec.Indexes))
	refs = append(refs, ref.ModelRef(rec.EventID))
	for _, k := range rec.Indexes {
		refs = append(refs, ref.IndexRef(k))
	}
	for _, parent := range m.ParentReferences() {
		refs = append(refs, ref.ModelRef(parent))
	}
	return ref.Normalize(refs), nil
}

// RedactionRefs returns the references a redaction of eventID makes stale.
func RedactionRefs(eventID string) []ref.ExecuteReference {
	return ref.Normalize([]ref.ExecuteReference{
		ref.ModelRef(eventID),
		ref.IndexRef(ref.Redacted()),
	})
}

// ParseModelStorageKey extracts the event id from a Model storage key.
func ParseModelStorageKey(key string) (string, error) {
	id, ok := strings.CutPrefix(key, "acter::")
	if !ok || id == "" {
		return "", fmt.Errorf("%w: not a model storage key: %q", ErrNotFound, key)
	}
	return id, nil
}

// ApplyRedaction returns rec marked as redacted by redactedBy and moved
// into the Redacted index. Existing index memberships are kept.
func ApplyRedaction(rec Record, redactedBy string) Record {
	by := redactedBy
	rec.Redacted = &by
	if !rec.InIndex(ref.Redacted()) {
		rec.Indexes = ref.SortIndexKeys(append(append([]ref.IndexKey(nil), rec.Indexes...), ref.Redacted()))
	}
	return rec
}

// MergeForSave keeps the redaction marker of an existing record when the
// same event is saved again without one.
func MergeForSave(existing *Record, rec Record) Record {
	if existing != nil && existing.Redacted != nil && rec.Redacted == nil {
		return ApplyRedaction(rec, *existing.Redacted)
	}
	return rec
}

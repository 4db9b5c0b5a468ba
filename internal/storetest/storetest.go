// Package storetest is a conformance suite shared by every model.Backend.
//
// Each backend's tests call Run with a constructor returning a fresh, empty
// backend; the suite covers upsert idempotency, index replacement, listing
// order, storage key lookups, redaction and concurrent same-id saves.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
)

// Observer is the acting user backends under test are opened for.
const Observer = "@observer:example.org"

// Factory returns an empty backend. Cleanup is registered on t.
type Factory func(t *testing.T) model.Backend

// Run executes the full conformance suite against backends built by open.
func Run(t *testing.T, open Factory) {
	t.Run("UserID", func(t *testing.T) { testUserID(t, open) })
	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, open) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open) })
	t.Run("SaveIdempotent", func(t *testing.T) { testSaveIdempotent(t, open) })
	t.Run("SaveReplacesIndexes", func(t *testing.T) { testSaveReplacesIndexes(t, open) })
	t.Run("ListIndexOrder", func(t *testing.T) { testListIndexOrder(t, open) })
	t.Run("ListIndexEmpty", func(t *testing.T) { testListIndexEmpty(t, open) })
	t.Run("GetByStorageKey", func(t *testing.T) { testGetByStorageKey(t, open) })
	t.Run("Redact", func(t *testing.T) { testRedact(t, open) })
	t.Run("RedactMissing", func(t *testing.T) { testRedactMissing(t, open) })
	t.Run("ResaveKeepsRedaction", func(t *testing.T) { testResaveKeepsRedaction(t, open) })
	t.Run("ConcurrentSameID", func(t *testing.T) { testConcurrentSameID(t, open) })
	t.Run("ExecuteThroughBackend", func(t *testing.T) { testExecuteThroughBackend(t, open) })
}

// NewRecord builds a topic record in room with the given indexes.
func NewRecord(t *testing.T, eventID, room string, ts spec.Timestamp, topic string, indexes ...ref.IndexKey) model.Record {
	t.Helper()
	if len(indexes) == 0 {
		indexes = []ref.IndexKey{ref.RoomHistory(room), ref.AllHistory()}
	}
	rec, err := model.NewRecord(model.EventMeta{
		EventID:        eventID,
		RoomID:         room,
		Sender:         "@alice:example.org",
		OriginServerTS: ts,
	}, model.KindRoomTopic, model.RoomTopicContent{
		StateContent: model.StateContent[model.TopicEventContent]{
			Current: model.TopicEventContent{Topic: topic},
		},
	}, indexes)
	require.NoError(t, err)
	return rec
}

func testUserID(t *testing.T, open Factory) {
	assert.Equal(t, Observer, open(t).UserID())
}

func testSaveAndGet(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)

	rec := NewRecord(t, "$a", "!r:x", 1000, "hello")
	require.NoError(t, b.Save(ctx, rec))

	got, err := b.Get(ctx, "$a")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func testGetMissing(t *testing.T, open Factory) {
	_, err := open(t).Get(context.Background(), "$missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testSaveIdempotent(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)

	rec := NewRecord(t, "$a", "!r:x", 1000, "hello")
	require.NoError(t, b.Save(ctx, rec))
	require.NoError(t, b.Save(ctx, rec))

	got, err := b.Get(ctx, "$a")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	list, err := b.ListIndex(ctx, ref.AllHistory())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testSaveReplacesIndexes(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)

	require.NoError(t, b.Save(ctx, NewRecord(t, "$a", "!r:x", 1000, "v1")))
	updated := NewRecord(t, "$a", "!r:x", 1000, "v2", ref.AllHistory())
	require.NoError(t, b.Save(ctx, updated))

	room, err := b.ListIndex(ctx, ref.RoomHistory("!r:x"))
	require.NoError(t, err)
	assert.Empty(t, room)

	got, err := b.Get(ctx, "$a")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func testListIndexOrder(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)

	// Saved out of order; equal timestamps tie-break on event id bytes.
	for _, r := range []struct {
		id string
		ts spec.Timestamp
	}{
		{"$c", 2000},
		{"$b", 1000},
		{"$a", 3000},
		{"$B", 1000},
	} {
		require.NoError(t, b.Save(ctx, NewRecord(t, r.id, "!r:x", r.ts, r.id)))
	}
	require.NoError(t, b.Save(ctx, NewRecord(t, "$other", "!other:x", 500, "elsewhere")))

	list, err := b.ListIndex(ctx, ref.RoomHistory("!r:x"))
	require.NoError(t, err)

	ids := make([]string, len(list))
	for i, rec := range list {
		ids[i] = rec.EventID
	}
	assert.Equal(t, []string{"$B", "$b", "$c", "$a"}, ids)

	all, err := b.ListIndex(ctx, ref.AllHistory())
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "$other", all[0].EventID)
}

func testListIndexEmpty(t *testing.T, open Factory) {
	list, err := open(t).ListIndex(context.Background(), ref.RoomSection("!none:x", ref.SectionTasks))
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func testGetByStorageKey(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)

	rec := NewRecord(t, "$a", "!r:x", 1000, "hello")
	require.NoError(t, b.Save(ctx, rec))

	got, err := b.GetByStorageKey(ctx, rec.StorageKey())
	require.NoError(t, err)
	assert.Equal(t, rec.EventID, got.EventID)

	_, err = b.GetByStorageKey(ctx, "$a::comments_stats")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func testRedact(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)

	require.NoError(t, b.Save(ctx, NewRecord(t, "$a", "!r:x", 1000, "hello")))

	refs, err := b.Redact(ctx, "$a", "$redaction")
	require.NoError(t, err)
	assert.Equal(t, model.RedactionRefs("$a"), refs)

	got, err := b.Get(ctx, "$a")
	require.NoError(t, err)
	require.NotNil(t, got.Redacted)
	assert.Equal(t, "$redaction", *got.Redacted)
	assert.True(t, got.InIndex(ref.Redacted()))
	assert.True(t, got.InIndex(ref.RoomHistory("!r:x")))

	redacted, err := b.ListIndex(ctx, ref.Redacted())
	require.NoError(t, err)
	require.Len(t, redacted, 1)
	assert.Equal(t, "$a", redacted[0].EventID)
}

func testRedactMissing(t *testing.T, open Factory) {
	refs, err := open(t).Redact(context.Background(), "$missing", "$r")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Nil(t, refs)
}

func testResaveKeepsRedaction(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)

	rec := NewRecord(t, "$a", "!r:x", 1000, "hello")
	require.NoError(t, b.Save(ctx, rec))
	_, err := b.Redact(ctx, "$a", "$redaction")
	require.NoError(t, err)

	require.NoError(t, b.Save(ctx, rec))

	got, err := b.Get(ctx, "$a")
	require.NoError(t, err)
	require.NotNil(t, got.Redacted)
	assert.True(t, got.InIndex(ref.Redacted()))
}

func testConcurrentSameID(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)
	rec := NewRecord(t, "$a", "!r:x", 1000, "same")

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.Save(ctx, rec)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, fmt.Sprintf("save %d", i))
	}

	got, err := b.Get(ctx, "$a")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	list, err := b.ListIndex(ctx, ref.RoomHistory("!r:x"))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testExecuteThroughBackend(t *testing.T, open Factory) {
	ctx := context.Background()
	b := open(t)

	rec := NewRecord(t, "$topic", "!r:x", 1000, "hello")
	status, err := model.LoadRoomStatus(rec)
	require.NoError(t, err)

	refs, err := status.Execute(ctx, b)
	require.NoError(t, err)
	assert.Contains(t, refs, ref.ModelRef("$topic"))

	got, err := b.Get(ctx, "$topic")
	require.NoError(t, err)
	assert.Equal(t, rec.Content, got.Content)
}

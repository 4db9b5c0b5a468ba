package kvstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
	"github.com/roach88/acterstore/internal/storetest"
)

func openTestStore(t *testing.T, cacheSize int) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), storetest.Observer, cacheSize)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) model.Backend { return openTestStore(t, 0) })
}

func TestConformance_TinyCache(t *testing.T) {
	storetest.Run(t, func(t *testing.T) model.Backend { return openTestStore(t, 1) })
}

func TestReopenReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := Open(dir, storetest.Observer, 0)
	require.NoError(t, err)
	rec := storetest.NewRecord(t, "$a", "!r:x", 1000, "persisted")
	require.NoError(t, s1.Save(ctx, rec))
	_, err = s1.Redact(ctx, "$a", "$r")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(dir, storetest.Observer, 0)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "$a")
	require.NoError(t, err)
	assert.Equal(t, rec.Content, got.Content)
	require.NotNil(t, got.Redacted)

	redacted, err := s2.ListIndex(ctx, ref.Redacted())
	require.NoError(t, err)
	assert.Len(t, redacted, 1)
}

func TestOpenChecksIndexEncoding(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, storetest.Observer, 0)
	require.NoError(t, err)
	val, closer, err := s.db.Get([]byte(indexEncodingKey))
	require.NoError(t, err)
	assert.Equal(t, ref.EncodingVersion, string(val))
	require.NoError(t, closer.Close())
	require.NoError(t, s.db.Set([]byte(indexEncodingKey), []byte("0"), pebble.Sync))
	require.NoError(t, s.Close())

	_, err = Open(dir, storetest.Observer, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ref.ErrEncodingMismatch)
}

func TestIndexEntryOrdering(t *testing.T) {
	k := ref.RoomHistory("!r:x")
	early, err := indexEntry(k, 255, "$z")
	require.NoError(t, err)
	late, err := indexEntry(k, 256, "$a")
	require.NoError(t, err)
	assert.Negative(t, bytes.Compare(early, late), "timestamp dominates event id")

	bucket, err := indexBucket(k)
	require.NoError(t, err)
	assert.Equal(t, bucket, early[:len(bucket)])
}

func TestListIndexDoesNotLeakAcrossBuckets(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)

	// Room ids sharing a textual prefix land in distinct buckets.
	require.NoError(t, s.Save(ctx, storetest.NewRecord(t, "$a", "!r:x", 1000, "a")))
	require.NoError(t, s.Save(ctx, storetest.NewRecord(t, "$b", "!r:xy", 1000, "b")))

	list, err := s.ListIndex(ctx, ref.RoomHistory("!r:x"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "$a", list[0].EventID)
}

func TestListIndexHonoursContext(t *testing.T) {
	s := openTestStore(t, 0)
	require.NoError(t, s.Save(context.Background(), storetest.NewRecord(t, "$a", "!r:x", 1000, "a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ListIndex(ctx, ref.AllHistory())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseTwice(t *testing.T) {
	s, err := Open(t.TempDir(), storetest.Observer, 0)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

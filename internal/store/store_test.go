package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
	"github.com/roach88/acterstore/internal/storetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), storetest.Observer)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) model.Backend { return openTestStore(t) })
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", strconv.Itoa(schemaVersion())))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path, storetest.Observer)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, storetest.NewRecord(t, "$a", "!r:x", 1000, "kept")))
	require.NoError(t, s1.Close())

	s2, err := Open(path, storetest.Observer)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, "$a")
	require.NoError(t, err)
	assert.Equal(t, "$a", got.EventID)
	assert.True(t, got.InIndex(ref.AllHistory()))
}

func TestOpen_MigratesOlderDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Open(path, storetest.Observer)
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.verifyPragma("user_version", "2"))

	var name string
	err = s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_models_redacted'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_models_redacted", name)
}

func TestOpen_RejectsOtherIndexEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path, storetest.Observer)
	require.NoError(t, err)
	assert.NoError(t, s.verifyMeta("index_encoding", ref.EncodingVersion))
	_, err = s.db.Exec(`UPDATE meta SET value = '0' WHERE key = 'index_encoding'`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path, storetest.Observer)
	require.Error(t, err)
	assert.ErrorIs(t, err, ref.ErrEncodingMismatch)
}

func TestSave_RecordVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, storetest.NewRecord(t, "$a", "!r:x", 1000, "v")))

	var version string
	require.NoError(t, s.db.QueryRow(`SELECT record_version FROM models WHERE event_id = ?`, "$a").Scan(&version))
	assert.Equal(t, "1", version)
}

func TestCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Save(ctx, storetest.NewRecord(t, "$a", "!r:x", 1000, "v")))
	require.NoError(t, s.Save(ctx, storetest.NewRecord(t, "$b", "!r:x", 2000, "v")))
	require.NoError(t, s.Save(ctx, storetest.NewRecord(t, "$a", "!r:x", 1000, "v")))

	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestClose_NilDB(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}

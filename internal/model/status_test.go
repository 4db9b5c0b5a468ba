package model

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acterstore/internal/ref"
	"github.com/roach88/acterstore/internal/testutil"
)

// recordingStore keeps the last saved record per event id.
type recordingStore struct {
	mu      sync.Mutex
	user    string
	records map[string]Record
	saves   int
	err     error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{user: "@observer:example.org", records: map[string]Record{}}
}

func (s *recordingStore) UserID() string { return s.user }

func (s *recordingStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records[rec.EventID] = rec
	s.saves++
	return nil
}

func TestRoomStatusContract(t *testing.T) {
	b := testutil.NewEventBuilder()
	status, err := Decode(b.Topic("new", "old"))
	require.NoError(t, err)

	first := status.IndexMemberships("@a:x")
	second := status.IndexMemberships("@a:x")
	assert.Equal(t, first, second)
	assert.Contains(t, first, ref.RoomHistory(testutil.DefaultRoom))
	assert.Contains(t, first, ref.AllHistory())
	assert.Equal(t, first, status.IndexMemberships("@someone-else:x"), "actor does not matter")

	assert.Empty(t, status.Capabilities())
	assert.Nil(t, status.ParentReferences())
}

func TestExecuteRoomTopicScenario(t *testing.T) {
	b := testutil.NewEventBuilder()
	ev := b.Topic("new", "old")
	status, err := Decode(ev)
	require.NoError(t, err)

	store := newRecordingStore()
	refs, err := status.Execute(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, []ref.ExecuteReference{
		ref.IndexRef(ref.RoomHistory(testutil.DefaultRoom)),
		ref.IndexRef(ref.AllHistory()),
		ref.ModelRef(ev.EventID),
	}, refs)

	rec, ok := store.records[ev.EventID]
	require.True(t, ok)
	assert.Equal(t, KindRoomTopic, rec.Kind)
	assert.Equal(t, `{"content":{"topic":"new"},"prev_content":{"topic":"old"}}`, string(rec.Content))
	assert.Len(t, rec.ContentHash, 64)
	assert.Equal(t, "acter::"+ev.EventID, rec.StorageKey())
}

func TestExecuteIdempotent(t *testing.T) {
	b := testutil.NewEventBuilder()
	ev := b.Member("@bob:example.org", "join", "invite")

	first, err := Decode(ev)
	require.NoError(t, err)
	second, err := Decode(ev)
	require.NoError(t, err)

	store := newRecordingStore()
	refs1, err := first.Execute(context.Background(), store)
	require.NoError(t, err)
	saved := store.records[ev.EventID]

	refs2, err := second.Execute(context.Background(), store)
	require.NoError(t, err)

	assert.ElementsMatch(t, refs1, refs2)
	assert.Equal(t, saved, store.records[ev.EventID])
	assert.Len(t, store.records, 1)
}

func TestExecuteConcurrentSameEvent(t *testing.T) {
	b := testutil.NewEventBuilder()
	ev := b.Topic("same", "")
	store := newRecordingStore()

	var wg sync.WaitGroup
	results := make([][]ref.ExecuteReference, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, err := Decode(ev)
			if err != nil {
				return
			}
			results[i], _ = status.Execute(context.Background(), store)
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
	assert.Len(t, store.records, 1)
}

func TestExecutePropagatesStoreFailure(t *testing.T) {
	b := testutil.NewEventBuilder()
	status, err := Decode(b.Topic("x", ""))
	require.NoError(t, err)

	boom := errors.New("disk full")
	store := newRecordingStore()
	store.err = boom

	refs, err := status.Execute(context.Background(), store)
	require.Error(t, err)
	assert.Nil(t, refs)
	assert.ErrorIs(t, err, boom)
}

func TestLoadRoomStatusRoundTrip(t *testing.T) {
	b := testutil.NewEventBuilder()
	events := []struct {
		eventType string
		stateKey  string
		content   map[string]any
		prev      map[string]any
	}{
		{TypeRoomTopic, "", map[string]any{"topic": "new"}, map[string]any{"topic": "old"}},
		{TypeRoomName, "", map[string]any{"name": "cafe\u0301"}, map[string]any{"name": "caf\u00e9"}},
		{TypePolicyRuleRoom, "r", map[string]any{"entity": "!x:y", "reason": "r", "recommendation": "m.ban"}, nil},
		{TypeSpaceChild, "!c:x", map[string]any{"via": []string{"x"}, "suggested": true}, nil},
		{TypeRoomMember, "@bob:x", map[string]any{"membership": "join", "displayname": "Bob"}, map[string]any{"membership": "join"}},
		{TypeRoomPowerLevels, "", map[string]any{"users": map[string]int{"@a:x": 100}, "ban": 50}, nil},
	}

	for _, e := range events {
		t.Run(e.eventType, func(t *testing.T) {
			var prev any
			if e.prev != nil {
				prev = e.prev
			}
			status, err := Decode(b.State(e.eventType, e.stateKey, e.content, prev))
			require.NoError(t, err)

			rec, err := status.Record("@a:x")
			require.NoError(t, err)

			loaded, err := LoadRoomStatus(rec)
			require.NoError(t, err)
			assert.Equal(t, status.Content(), loaded.Content())
			assert.Equal(t, *status.Meta(), *loaded.Meta())
		})
	}
}

func TestLoadRoomStatusUnknownKind(t *testing.T) {
	_, err := LoadRoomStatus(Record{EventMeta: EventMeta{EventID: "$e"}, Kind: "taskList"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestApplyRedaction(t *testing.T) {
	rec := Record{
		EventMeta: EventMeta{EventID: "$e"},
		Indexes:   []ref.IndexKey{ref.RoomHistory("!r:x"), ref.AllHistory()},
	}

	red := ApplyRedaction(rec, "$redaction")
	require.NotNil(t, red.Redacted)
	assert.Equal(t, "$redaction", *red.Redacted)
	assert.True(t, red.InIndex(ref.Redacted()))
	assert.True(t, red.InIndex(ref.AllHistory()))
	assert.Nil(t, rec.Redacted, "input untouched")
	assert.Len(t, rec.Indexes, 2)

	again := ApplyRedaction(red, "$redaction")
	assert.Len(t, again.Indexes, 3)
}

func TestMergeForSaveKeepsRedaction(t *testing.T) {
	existing := ApplyRedaction(Record{EventMeta: EventMeta{EventID: "$e"}, Indexes: []ref.IndexKey{ref.AllHistory()}}, "$r")
	incoming := Record{EventMeta: EventMeta{EventID: "$e"}, Indexes: []ref.IndexKey{ref.AllHistory()}}

	merged := MergeForSave(&existing, incoming)
	require.NotNil(t, merged.Redacted)
	assert.True(t, merged.InIndex(ref.Redacted()))

	assert.Equal(t, incoming, MergeForSave(nil, incoming))
}

func TestRedactionRefs(t *testing.T) {
	assert.Equal(t, []ref.ExecuteReference{
		ref.IndexRef(ref.Redacted()),
		ref.ModelRef("$e"),
	}, RedactionRefs("$e"))
}

func TestParseModelStorageKey(t *testing.T) {
	id, err := ParseModelStorageKey("acter::$abc")
	require.NoError(t, err)
	assert.Equal(t, "$abc", id)

	for _, bad := range []string{"$abc::comments_stats", "acter::", "global_invited"} {
		_, err := ParseModelStorageKey(bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}
}

package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acterstore/internal/model"
)

func runScenario(t *testing.T, path string) *Result {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)
	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	return result
}

func TestRun_Scenarios(t *testing.T) {
	files, err := Discover("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(f, func(t *testing.T) {
			result := runScenario(t, f)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_TraceFollowsInputOrder(t *testing.T) {
	result := runScenario(t, "testdata/scenarios/membership.yaml")

	ids := make([]string, len(result.Trace))
	for i, te := range result.Trace {
		ids[i] = te.EventID
		assert.Equal(t, i+1, te.Seq)
	}
	assert.Equal(t, []string{"$invite", "$join", "$rename", "$kick"}, ids)
	assert.Equal(t, model.KindProfileChange, result.Trace[2].Kind)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: mismatch
events:
  - { event_id: "$a", room_id: "!r:x", sender: "@a:x", type: m.room.topic, state_key: "", content: { topic: t } }
  - { event_id: "$b", room_id: "!r:x", sender: "@a:x", type: m.room.message, content: { body: hi } }
  - { event_id: "$c", room_id: "!r:x", sender: "@a:x", type: m.room.name, state_key: "", content: { name: n } }
expect:
  - { event_id: "$a", rejected: true }
  - { event_id: "$b", kind: roomTopic }
  - { event_id: "$c", kind: roomTopic }
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected rejection")
	assert.Contains(t, result.Errors[1], "rejected")
	assert.Contains(t, result.Errors[2], "expected kind roomTopic, got roomName")
}

func TestRun_MalformedEvent(t *testing.T) {
	s := &Scenario{
		Name:   "bad",
		Events: []map[string]any{{"event_id": "$a", "content": "not an object", "type": "m.room.topic"}},
	}
	_, err := Run(context.Background(), s)
	require.Error(t, err)
}

func TestRun_ModelsSnapshot(t *testing.T) {
	result := runScenario(t, "testdata/scenarios/redaction.yaml")

	require.Len(t, result.Models, 1)
	m := result.Models[0]
	assert.Equal(t, "acter::$t", m.Key)
	assert.Equal(t, "$r", m.RedactedBy)
	assert.Equal(t, []string{"RoomHistory(!room:example.org)", "Redacted", "AllHistory"}, m.Indexes)
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int     { return &n }
func boolPtr(b bool) *bool { return &b }

func sampleResult() *Result {
	r := NewResult()
	r.Trace = []TraceEvent{
		{Seq: 1, EventID: "$a", Type: "m.room.topic", Kind: "roomTopic", References: []string{"Model($a)"}},
		{Seq: 2, EventID: "$b", Type: "m.room.message", Rejected: true, Reason: "nope"},
		{Seq: 3, EventID: "$r", Type: "m.room.redaction", Redacts: "$a"},
	}
	r.References = []string{"Index(AllHistory)", "Model($a)"}
	r.Models = []StoredModel{
		{Key: "acter::$a", Kind: "roomTopic", RedactedBy: "$r", Indexes: []string{"Redacted", "AllHistory"}},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertReference, Ref: "Model($a)"},
		{Type: AssertReferenceCount, Count: intPtr(2)},
		{Type: AssertModel, Key: "acter::$a", Kind: "roomTopic", Redacted: boolPtr(true)},
		{Type: AssertIndexCount, Index: "Redacted", Count: intPtr(1)},
		{Type: AssertIndexCount, Index: "RoomHistory(!r:x)", Count: intPtr(0)},
		{Type: AssertRejectedCount, Count: intPtr(1)},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"missing reference", Assertion{Type: AssertReference, Ref: "Model($z)"}, "Expected: Model($z)"},
		{"reference count", Assertion{Type: AssertReferenceCount, Count: intPtr(5)}, "Expected: 5 references"},
		{"missing model", Assertion{Type: AssertModel, Key: "acter::$z"}, "Actual: no record"},
		{"wrong kind", Assertion{Type: AssertModel, Key: "acter::$a", Kind: "roomName"}, "Actual: kind roomTopic"},
		{"not redacted", Assertion{Type: AssertModel, Key: "acter::$a", Redacted: boolPtr(false)}, "Actual: redacted=true"},
		{"index count", Assertion{Type: AssertIndexCount, Index: "AllHistory", Count: intPtr(3)}, "Expected: 3 records in AllHistory"},
		{"rejected count", Assertion{Type: AssertRejectedCount, Count: intPtr(0)}, "Actual: 1"},
		{"unknown", Assertion{Type: "trace_order"}, `unknown assertion type "trace_order"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertReference,
		Expected: "Model($z)",
		Actual:   "missing",
		Trace:    sampleResult().Trace,
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: reference")
	assert.Contains(t, msg, "[1] $a m.room.topic -> roomTopic")
	assert.Contains(t, msg, "[2] $b m.room.message rejected")
	assert.Contains(t, msg, "[3] $r redacts $a")
}

package harness

import (
	"encoding/json"

	"github.com/roach88/acterstore/internal/model"
)

// TraceEvent records what happened to one scenario event.
type TraceEvent struct {
	Seq        int        `json:"seq"`
	EventID    string     `json:"event_id"`
	Type       string     `json:"type"`
	Kind       model.Kind `json:"kind,omitempty"`
	Redacts    string     `json:"redacts,omitempty"`
	Rejected   bool       `json:"rejected,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	References []string   `json:"references,omitempty"`
}

// StoredModel is one record left in the store after a run.
type StoredModel struct {
	Key        string          `json:"key"`
	Kind       model.Kind      `json:"kind"`
	RedactedBy string          `json:"redacted_by,omitempty"`
	Indexes    []string        `json:"indexes"`
	Content    json.RawMessage `json:"content"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one entry per scenario event, in input order.
	Trace []TraceEvent `json:"trace"`

	// References is the sorted union of stale references.
	References []string `json:"references"`

	// Models is the final store contents ordered by event id.
	Models []StoredModel `json:"models"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Trace:      []TraceEvent{},
		References: []string{},
		Models:     []StoredModel{},
		Errors:     []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

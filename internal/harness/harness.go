package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/acterstore/internal/ingest"
	"github.com/roach88/acterstore/internal/memstore"
	"github.com/roach88/acterstore/internal/model"
	"github.com/roach88/acterstore/internal/ref"
)

// Run ingests the scenario's events into a fresh memory store, then checks
// expectations and assertions.
//
// The returned error covers failures to run at all (bad events, store
// failures); failed checks are reported on the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	events, err := scenario.ParsedEvents()
	if err != nil {
		return nil, err
	}

	st := memstore.New(scenario.ActingUser())
	defer st.Close()

	p := &ingest.Pipeline{
		Store:  st,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	res, err := p.Ingest(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	for i, o := range res.Outcomes {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:        i + 1,
			EventID:    o.EventID,
			Type:       o.Type,
			Kind:       o.Kind,
			Redacts:    o.Redacts,
			Rejected:   o.Rejected,
			Reason:     o.Reason,
			References: refStrings(o.References),
		})
	}
	result.References = refStrings(res.References)
	result.Models = storedModels(st.Records())

	checkExpectations(result, scenario.Expect)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func checkExpectations(result *Result, expect []Expectation) {
	byID := make(map[string]TraceEvent, len(result.Trace))
	for _, te := range result.Trace {
		byID[te.EventID] = te
	}

	for _, e := range expect {
		te := byID[e.EventID]
		switch {
		case e.Rejected && !te.Rejected:
			result.AddError(fmt.Sprintf("event %s: expected rejection, decoded as %s", e.EventID, te.Kind))
		case !e.Rejected && te.Rejected:
			result.AddError(fmt.Sprintf("event %s: expected kind %s, rejected: %s", e.EventID, e.Kind, te.Reason))
		case !e.Rejected && te.Kind != e.Kind:
			result.AddError(fmt.Sprintf("event %s: expected kind %s, got %s", e.EventID, e.Kind, te.Kind))
		}
	}
}

func refStrings(refs []ref.ExecuteReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.String()
	}
	return out
}

func storedModels(records []model.Record) []StoredModel {
	out := make([]StoredModel, 0, len(records))
	for _, rec := range records {
		sm := StoredModel{
			Key:     rec.StorageKey(),
			Kind:    rec.Kind,
			Indexes: make([]string, len(rec.Indexes)),
			Content: rec.Content,
		}
		for i, k := range rec.Indexes {
			sm.Indexes[i] = k.String()
		}
		if rec.Redacted != nil {
			sm.RedactedBy = *rec.Redacted
		}
		out = append(out, sm)
	}
	return out
}

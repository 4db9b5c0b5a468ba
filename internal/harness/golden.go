package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/acterstore/internal/ir"
)

// TraceSnapshot is the golden form of a run: the per-event trace, the
// reported references and the final store contents.
type TraceSnapshot struct {
	ScenarioName string        `json:"scenario_name"`
	UserID       string        `json:"user_id"`
	Trace        []TraceEvent  `json:"trace"`
	References   []string      `json:"references"`
	Models       []StoredModel `json:"models"`
}

// Snapshot renders result as canonical JSON.
func Snapshot(name, userID string, result *Result) ([]byte, error) {
	return ir.Canonicalize(TraceSnapshot{
		ScenarioName: name,
		UserID:       userID,
		Trace:        result.Trace,
		References:   result.References,
		Models:       result.Models,
	})
}

// RunWithGolden runs scenario and compares its snapshot with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, scenario.ActingUser(), result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name, userID string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, userID, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		switch {
		case ev.Rejected:
			fmt.Fprintf(&buf, "  [%d] %s %s rejected\n", ev.Seq, ev.EventID, ev.Type)
		case ev.Redacts != "":
			fmt.Fprintf(&buf, "  [%d] %s redacts %s\n", ev.Seq, ev.EventID, ev.Redacts)
		default:
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", ev.Seq, ev.EventID, ev.Type, ev.Kind)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns one
// message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertReference:
			err = assertReference(result, a)
		case AssertReferenceCount:
			err = assertCount(result, a, "references", len(result.References))
		case AssertModel:
			err = assertModel(result, a)
		case AssertIndexCount:
			err = assertCount(result, a, "records in "+a.Index, countIndex(result, a.Index))
		case AssertRejectedCount:
			err = assertCount(result, a, "rejected events", countRejected(result))
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertReference(result *Result, a Assertion) error {
	if slices.Contains(result.References, a.Ref) {
		return nil
	}
	return &AssertionError{
		Type:     AssertReference,
		Expected: a.Ref,
		Actual:   fmt.Sprintf("references %v", result.References),
		Trace:    result.Trace,
	}
}

func assertModel(result *Result, a Assertion) error {
	fail := func(actual string) error {
		return &AssertionError{
			Type:     AssertModel,
			Expected: describeModel(a),
			Actual:   actual,
			Trace:    result.Trace,
		}
	}

	i := slices.IndexFunc(result.Models, func(m StoredModel) bool { return m.Key == a.Key })
	if i < 0 {
		return fail("no record")
	}
	m := result.Models[i]
	if a.Kind != "" && m.Kind != a.Kind {
		return fail("kind " + string(m.Kind))
	}
	if a.Redacted != nil && *a.Redacted != (m.RedactedBy != "") {
		return fail(fmt.Sprintf("redacted=%t", m.RedactedBy != ""))
	}
	return nil
}

func describeModel(a Assertion) string {
	s := "record " + a.Key
	if a.Kind != "" {
		s += " of kind " + string(a.Kind)
	}
	if a.Redacted != nil {
		s += fmt.Sprintf(" with redacted=%t", *a.Redacted)
	}
	return s
}

func assertCount(result *Result, a Assertion, what string, actual int) error {
	if actual == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d %s", *a.Count, what),
		Actual:   fmt.Sprintf("%d", actual),
		Trace:    result.Trace,
	}
}

func countIndex(result *Result, index string) int {
	n := 0
	for _, m := range result.Models {
		if slices.Contains(m.Indexes, index) {
			n++
		}
	}
	return n
}

func countRejected(result *Result) int {
	n := 0
	for _, ev := range result.Trace {
		if ev.Rejected {
			n++
		}
	}
	return n
}

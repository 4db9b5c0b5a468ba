package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/acterstore/internal/event"
	"github.com/roach88/acterstore/internal/model"
)

// DefaultUserID is the acting user when a scenario names none.
const DefaultUserID = "@observer:example.org"

// Scenario is one event ingestion test case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// UserID is the acting user index memberships are computed for.
	UserID string `yaml:"user_id,omitempty"`

	// Events are client-format events, ingested in order as one batch.
	Events []map[string]any `yaml:"events"`

	// Expect lists per-event outcomes. Events without an entry are not checked.
	Expect []Expectation `yaml:"expect,omitempty"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation is the expected outcome for one event.
type Expectation struct {
	EventID  string     `yaml:"event_id"`
	Kind     model.Kind `yaml:"kind,omitempty"`
	Rejected bool       `yaml:"rejected,omitempty"`
}

// Assertion validates the run as a whole.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Ref is a reference in String form (reference).
	Ref string `yaml:"ref,omitempty"`

	// Key is a Model storage key (model).
	Key string `yaml:"key,omitempty"`

	// Kind optionally constrains the record kind (model).
	Kind model.Kind `yaml:"kind,omitempty"`

	// Redacted optionally constrains the redaction state (model).
	Redacted *bool `yaml:"redacted,omitempty"`

	// Index is an index key in String form (index_count).
	Index string `yaml:"index,omitempty"`

	// Count is the expected number (reference_count, index_count, rejected_count).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertReference      = "reference"
	AssertReferenceCount = "reference_count"
	AssertModel          = "model"
	AssertIndexCount     = "index_count"
	AssertRejectedCount  = "rejected_count"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so typos
// surface instead of silently skipping checks.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ParsedEvents converts the scenario's events into protocol events.
func (s *Scenario) ParsedEvents() ([]event.Event, error) {
	events := make([]event.Event, 0, len(s.Events))
	for i, raw := range s.Events {
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		ev, err := event.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// ActingUser returns UserID or DefaultUserID.
func (s *Scenario) ActingUser() string {
	if s.UserID == "" {
		return DefaultUserID
	}
	return s.UserID
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("events must contain at least one event")
	}

	ids := make(map[string]bool, len(s.Events))
	for i, raw := range s.Events {
		id, _ := raw["event_id"].(string)
		if id == "" {
			return fmt.Errorf("events[%d]: event_id is required", i)
		}
		ids[id] = true
	}

	for i, e := range s.Expect {
		if e.EventID == "" {
			return fmt.Errorf("expect[%d]: event_id is required", i)
		}
		if !ids[e.EventID] {
			return fmt.Errorf("expect[%d]: unknown event %q", i, e.EventID)
		}
		if e.Rejected == (e.Kind != "") {
			return fmt.Errorf("expect[%d]: exactly one of kind or rejected is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a, i); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(a Assertion, index int) error {
	switch a.Type {
	case AssertReference:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for reference", index)
		}
	case AssertModel:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for model", index)
		}
	case AssertIndexCount:
		if a.Index == "" {
			return fmt.Errorf("assertions[%d]: index is required for index_count", index)
		}
		fallthrough
	case AssertReferenceCount, AssertRejectedCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

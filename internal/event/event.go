// Package event defines the protocol event envelope consumed by the decoder
// and parses it from client-format JSON.
package event

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/tidwall/gjson"
)

// ErrMalformed is returned when raw JSON cannot be read as an event envelope.
var ErrMalformed = errors.New("malformed event")

// Event is an already-authenticated protocol event.
//
// PrevContent and StateKey are nil when absent. Original is false for events
// that were redacted or stripped before they reached us.
type Event struct {
	EventID        string         `json:"event_id"`
	RoomID         string         `json:"room_id"`
	Sender         string         `json:"sender"`
	OriginServerTS spec.Timestamp `json:"origin_server_ts"`
	Type           string         `json:"type"`
	Content        spec.RawJSON   `json:"content"`
	PrevContent    spec.RawJSON   `json:"prev_content,omitempty"`
	StateKey       *string        `json:"state_key,omitempty"`
	Original       bool           `json:"-"`

	// Raw is the JSON the event was parsed from, if any.
	Raw spec.RawJSON `json:"-"`
}

// IsState reports whether the event carries a state key.
func (e Event) IsState() bool {
	return e.StateKey != nil
}

// StateKeyOrEmpty returns the state key, or "" for timeline events.
func (e Event) StateKeyOrEmpty() string {
	if e.StateKey == nil {
		return ""
	}
	return *e.StateKey
}

// Redacts returns the id of the event a redaction targets, or "" when e is
// not a redaction. Newer room versions carry it in content, older ones at
// the top level.
func (e Event) Redacts() string {
	if e.Type != spec.MRoomRedaction {
		return ""
	}
	if id := gjson.GetBytes(e.Content, "redacts").String(); id != "" {
		return id
	}
	return gjson.GetBytes(e.Raw, "redacts").String()
}

// Parse reads one event in client format. The previous content comes from
// unsigned.prev_content (or a top-level prev_content); the presence of
// unsigned.redacted_because marks the event as non-original.
func Parse(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return Event{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Event{}, fmt.Errorf("%w: expected object, got %s", ErrMalformed, root.Type)
	}
	return fromResult(root)
}

// ParseMany reads a JSON array of events, a single event, or
// newline-delimited events. Every line of newline-delimited input must be
// valid JSON on its own; the first one that is not fails the whole input
// with its line number.
func ParseMany(data []byte) ([]Event, error) {
	if gjson.ValidBytes(data) {
		root := gjson.ParseBytes(data)
		switch {
		case root.IsArray():
			return collect(root.Array())
		case root.IsObject():
			return collect([]gjson.Result{root})
		}
	}

	var results []gjson.Result
	var lines []int
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			return nil, fmt.Errorf("%w: line %d: invalid JSON", ErrMalformed, i+1)
		}
		results = append(results, gjson.Parse(line))
		lines = append(lines, i+1)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no events", ErrMalformed)
	}

	events := make([]Event, 0, len(results))
	for i, r := range results {
		ev, err := fromObject(r)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lines[i], err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// collect parses each result as an event, naming failures by position.
func collect(results []gjson.Result) ([]Event, error) {
	events := make([]Event, 0, len(results))
	for i, r := range results {
		ev, err := fromObject(r)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func fromObject(r gjson.Result) (Event, error) {
	if !r.IsObject() {
		return Event{}, fmt.Errorf("%w: expected object, got %s", ErrMalformed, r.Type)
	}
	return fromResult(r)
}

func fromResult(root gjson.Result) (Event, error) {
	ev := Event{
		EventID:  root.Get("event_id").String(),
		RoomID:   root.Get("room_id").String(),
		Sender:   root.Get("sender").String(),
		Type:     root.Get("type").String(),
		Original: !root.Get("unsigned.redacted_because").Exists(),
		Raw:      spec.RawJSON(root.Raw),
	}

	if ev.EventID == "" {
		return Event{}, fmt.Errorf("%w: missing event_id", ErrMalformed)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	ts := root.Get("origin_server_ts")
	if ts.Exists() && ts.Type != gjson.Number {
		return Event{}, fmt.Errorf("%w: origin_server_ts must be a number", ErrMalformed)
	}
	ev.OriginServerTS = spec.Timestamp(ts.Uint())

	content := root.Get("content")
	switch {
	case !content.Exists():
		ev.Content = spec.RawJSON("{}")
	case content.IsObject():
		ev.Content = spec.RawJSON(content.Raw)
	default:
		return Event{}, fmt.Errorf("%w: content must be an object", ErrMalformed)
	}

	prev := root.Get("unsigned.prev_content")
	if !prev.Exists() {
		prev = root.Get("prev_content")
	}
	if prev.IsObject() {
		ev.PrevContent = spec.RawJSON(prev.Raw)
	}

	if sk := root.Get("state_key"); sk.Exists() {
		if sk.Type != gjson.String {
			return Event{}, fmt.Errorf("%w: state_key must be a string", ErrMalformed)
		}
		key := sk.String()
		ev.StateKey = &key
	}

	return ev, nil
}

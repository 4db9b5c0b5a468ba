package testutil

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/matrix-org/gomatrixserverlib/spec"

	"github.com/roach88/acterstore/internal/event"
)

// Default fixture identities.
const (
	DefaultRoom   = "!room:example.org"
	DefaultSender = "@alice:example.org"
)

// EventBuilder builds deterministic fixture events: ids are sequential
// ("$evt-0001", ...) and timestamps come from a DeterministicClock.
type EventBuilder struct {
	Room   string
	Sender string
	Clock  *DeterministicClock

	seq atomic.Int64
}

// NewEventBuilder creates a builder for the default room and sender.
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{
		Room:   DefaultRoom,
		Sender: DefaultSender,
		Clock:  NewDeterministicClock(0),
	}
}

// NextID returns the next sequential event id.
func (b *EventBuilder) NextID() string {
	return fmt.Sprintf("$evt-%04d", b.seq.Add(1))
}

// State builds an original state event. prev may be nil.
func (b *EventBuilder) State(eventType, stateKey string, content, prev any) event.Event {
	key := stateKey
	ev := event.Event{
		EventID:        b.NextID(),
		RoomID:         b.Room,
		Sender:         b.Sender,
		OriginServerTS: b.Clock.Next(),
		Type:           eventType,
		Content:        mustJSON(content),
		StateKey:       &key,
		Original:       true,
	}
	if prev != nil {
		ev.PrevContent = mustJSON(prev)
	}
	return ev
}

// Topic builds an m.room.topic event. An empty old topic means no previous
// content.
func (b *EventBuilder) Topic(topic, old string) event.Event {
	var prev any
	if old != "" {
		prev = map[string]any{"topic": old}
	}
	return b.State("m.room.topic", "", map[string]any{"topic": topic}, prev)
}

// Member builds an m.room.member event for target. An empty prevMembership
// means no previous content.
func (b *EventBuilder) Member(target, membership, prevMembership string) event.Event {
	var prev any
	if prevMembership != "" {
		prev = map[string]any{"membership": prevMembership}
	}
	return b.State(spec.MRoomMember, target, map[string]any{"membership": membership}, prev)
}

// Timeline builds an original event without a state key.
func (b *EventBuilder) Timeline(eventType string, content any) event.Event {
	return event.Event{
		EventID:        b.NextID(),
		RoomID:         b.Room,
		Sender:         b.Sender,
		OriginServerTS: b.Clock.Next(),
		Type:           eventType,
		Content:        mustJSON(content),
		Original:       true,
	}
}

// Redaction builds an m.room.redaction event targeting eventID.
func (b *EventBuilder) Redaction(eventID string) event.Event {
	return b.Timeline(spec.MRoomRedaction, map[string]any{"redacts": eventID})
}

// Redacted returns a copy of ev as delivered after redaction.
func Redacted(ev event.Event) event.Event {
	ev.Original = false
	ev.Content = spec.RawJSON("{}")
	ev.PrevContent = nil
	return ev
}

func mustJSON(v any) spec.RawJSON {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal fixture content: %v", err))
	}
	return spec.RawJSON(data)
}

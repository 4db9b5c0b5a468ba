package ref

import "fmt"

// EncodingVersion names the version of the serialized reference format.
const EncodingVersion = "1"

// enumTable maps enum ordinals to their persisted names.
type enumTable struct {
	kind    string
	names   []string
	aliases map[string]uint8
}

func (t enumTable) name(v uint8) string {
	if int(v) < len(t.names) {
		return t.names[v]
	}
	return fmt.Sprintf("%s(%d)", t.kind, v)
}

func (t enumTable) valid(v uint8) bool {
	return int(v) < len(t.names)
}

func (t enumTable) parse(s string) (uint8, error) {
	for i, n := range t.names {
		if n == s {
			return uint8(i), nil
		}
	}
	if v, ok := t.aliases[s]; ok {
		return v, nil
	}
	return 0, invalidf("unknown %s %q", t.kind, s)
}

func (t enumTable) marshal(v uint8) ([]byte, error) {
	if !t.valid(v) {
		return nil, invalidf("%s out of range: %d", t.kind, v)
	}
	return []byte(t.names[v]), nil
}

// SectionIndex names a global section of the app.
type SectionIndex uint8

const (
	SectionBoosts SectionIndex = iota
	SectionCalendar
	SectionPins
	SectionStories
	SectionTasks
)

// "news" is the legacy name for boosts.
var sectionTable = enumTable{
	kind:    "SectionIndex",
	names:   []string{"boosts", "calendar", "pins", "stories", "tasks"},
	aliases: map[string]uint8{"news": uint8(SectionBoosts)},
}

// ParseSectionIndex parses a persisted section name.
func ParseSectionIndex(s string) (SectionIndex, error) {
	v, err := sectionTable.parse(s)
	return SectionIndex(v), err
}

func (s SectionIndex) String() string { return sectionTable.name(uint8(s)) }

// MarshalText implements encoding.TextMarshaler.
func (s SectionIndex) MarshalText() ([]byte, error) { return sectionTable.marshal(uint8(s)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SectionIndex) UnmarshalText(b []byte) error {
	v, err := ParseSectionIndex(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ObjectListIndex names a per-object sub-list.
type ObjectListIndex uint8

const (
	ListAttachments ObjectListIndex = iota
	ListComments
	ListReactions
	ListReadReceipt
	ListRsvp
	ListTasks
	ListInvites
)

var objectListTable = enumTable{
	kind:  "ObjectListIndex",
	names: []string{"attachments", "comments", "reactions", "read_receipt", "rsvp", "tasks", "invites"},
}

// ParseObjectListIndex parses a persisted object list name.
func ParseObjectListIndex(s string) (ObjectListIndex, error) {
	v, err := objectListTable.parse(s)
	return ObjectListIndex(v), err
}

func (l ObjectListIndex) String() string { return objectListTable.name(uint8(l)) }

// MarshalText implements encoding.TextMarshaler.
func (l ObjectListIndex) MarshalText() ([]byte, error) { return objectListTable.marshal(uint8(l)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *ObjectListIndex) UnmarshalText(b []byte) error {
	v, err := ParseObjectListIndex(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// SpecialListsIndex names a global, user-scoped list.
type SpecialListsIndex uint8

const (
	SpecialMyOpenTasks SpecialListsIndex = iota
	SpecialMyDoneTasks
	SpecialInvitedTo
)

var specialTable = enumTable{
	kind:  "SpecialListsIndex",
	names: []string{"my_open_tasks", "my_done_tasks", "invited_to"},
}

// ParseSpecialListsIndex parses a persisted special list name.
func ParseSpecialListsIndex(s string) (SpecialListsIndex, error) {
	v, err := specialTable.parse(s)
	return SpecialListsIndex(v), err
}

func (l SpecialListsIndex) String() string { return specialTable.name(uint8(l)) }

// MarshalText implements encoding.TextMarshaler.
func (l SpecialListsIndex) MarshalText() ([]byte, error) { return specialTable.marshal(uint8(l)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *SpecialListsIndex) UnmarshalText(b []byte) error {
	v, err := ParseSpecialListsIndex(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ModelParam names a per-model statistic slot.
type ModelParam uint8

const (
	ParamCommentsStats ModelParam = iota
	ParamAttachmentsStats
	ParamReactionStats
	ParamRsvpStats
	ParamReadReceipts
	ParamInvites
)

var modelParamTable = enumTable{
	kind:  "ModelParam",
	names: []string{"comments_stats", "attachments_stats", "reaction_stats", "rsvp_stats", "read_receipts", "invites"},
}

// ParseModelParam parses a persisted model parameter name.
func ParseModelParam(s string) (ModelParam, error) {
	v, err := modelParamTable.parse(s)
	return ModelParam(v), err
}

func (p ModelParam) String() string { return modelParamTable.name(uint8(p)) }

// MarshalText implements encoding.TextMarshaler.
func (p ModelParam) MarshalText() ([]byte, error) { return modelParamTable.marshal(uint8(p)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ModelParam) UnmarshalText(b []byte) error {
	v, err := ParseModelParam(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// RoomParam names a per-room slot.
type RoomParam uint8

const (
	RoomParamLatestMessage RoomParam = iota
)

var roomParamTable = enumTable{
	kind:  "RoomParam",
	names: []string{"latest_message"},
}

// ParseRoomParam parses a persisted room parameter name.
func ParseRoomParam(s string) (RoomParam, error) {
	v, err := roomParamTable.parse(s)
	return RoomParam(v), err
}

func (p RoomParam) String() string { return roomParamTable.name(uint8(p)) }

// MarshalText implements encoding.TextMarshaler.
func (p RoomParam) MarshalText() ([]byte, error) { return roomParamTable.marshal(uint8(p)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *RoomParam) UnmarshalText(b []byte) error {
	v, err := ParseRoomParam(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

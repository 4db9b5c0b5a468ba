package ref

import (
	"cmp"
	"fmt"
	"slices"
)

// IndexKind discriminates IndexKey variants. The ordinal order is the
// primary sort order of IndexKey.Compare.
type IndexKind uint8

const (
	KindRoomHistory IndexKind = iota + 1
	KindRoomModels
	KindObjectHistory
	KindSection
	KindRoomSection
	KindObjectList
	KindSpecial
	KindRedacted
	KindAllHistory
)

var indexKindNames = map[IndexKind]string{
	KindRoomHistory:   "RoomHistory",
	KindRoomModels:    "RoomModels",
	KindObjectHistory: "ObjectHistory",
	KindSection:       "Section",
	KindRoomSection:   "RoomSection",
	KindObjectList:    "ObjectList",
	KindSpecial:       "Special",
	KindRedacted:      "Redacted",
	KindAllHistory:    "AllHistory",
}

func (k IndexKind) String() string {
	if name, ok := indexKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("IndexKind(%d)", k)
}

// IndexKey identifies a queryable bucket of models.
//
// Construct values with RoomHistory, RoomModels, ObjectHistory, Section,
// RoomSection, ObjectList, Special, Redacted or AllHistory. Fields not used
// by a variant stay at their zero value so == and map lookups behave.
type IndexKey struct {
	kind    IndexKind
	room    string
	event   string
	section SectionIndex
	list    ObjectListIndex
	special SpecialListsIndex
}

// RoomHistory is the per-room history bucket.
func RoomHistory(roomID string) IndexKey {
	return IndexKey{kind: KindRoomHistory, room: roomID}
}

// RoomModels is the bucket of all models in a room.
func RoomModels(roomID string) IndexKey {
	return IndexKey{kind: KindRoomModels, room: roomID}
}

// ObjectHistory is the history of a single object.
func ObjectHistory(eventID string) IndexKey {
	return IndexKey{kind: KindObjectHistory, event: eventID}
}

// Section is a global section bucket.
func Section(s SectionIndex) IndexKey {
	return IndexKey{kind: KindSection, section: s}
}

// RoomSection is a section bucket scoped to one room.
func RoomSection(roomID string, s SectionIndex) IndexKey {
	return IndexKey{kind: KindRoomSection, room: roomID, section: s}
}

// ObjectList is a sub-list attached to an object.
func ObjectList(eventID string, l ObjectListIndex) IndexKey {
	return IndexKey{kind: KindObjectList, event: eventID, list: l}
}

// Special is a global user-scoped list.
func Special(l SpecialListsIndex) IndexKey {
	return IndexKey{kind: KindSpecial, special: l}
}

// Redacted is the index of redacted models.
func Redacted() IndexKey {
	return IndexKey{kind: KindRedacted}
}

// AllHistory is the global catch-all history index.
func AllHistory() IndexKey {
	return IndexKey{kind: KindAllHistory}
}

// Kind returns the variant discriminant.
func (k IndexKey) Kind() IndexKind { return k.kind }

// RoomID returns the room of RoomHistory, RoomModels and RoomSection keys.
func (k IndexKey) RoomID() string { return k.room }

// EventID returns the object of ObjectHistory and ObjectList keys.
func (k IndexKey) EventID() string { return k.event }

// SectionIndex returns the section of Section and RoomSection keys.
func (k IndexKey) SectionIndex() SectionIndex { return k.section }

// ObjectListIndex returns the list of ObjectList keys.
func (k IndexKey) ObjectListIndex() ObjectListIndex { return k.list }

// SpecialListsIndex returns the list of Special keys.
func (k IndexKey) SpecialListsIndex() SpecialListsIndex { return k.special }

// IsZero reports whether k was never constructed.
func (k IndexKey) IsZero() bool { return k.kind == 0 }

// Compare orders keys by variant ordinal, then by fields in declaration order.
// Unused fields are zero so a single field chain covers every variant.
func (k IndexKey) Compare(o IndexKey) int {
	return cmp.Or(
		cmp.Compare(k.kind, o.kind),
		cmp.Compare(k.room, o.room),
		cmp.Compare(k.event, o.event),
		cmp.Compare(k.section, o.section),
		cmp.Compare(k.list, o.list),
		cmp.Compare(k.special, o.special),
	)
}

func (k IndexKey) fields() []any {
	switch k.kind {
	case KindRoomHistory, KindRoomModels:
		return []any{k.room}
	case KindObjectHistory:
		return []any{k.event}
	case KindSection:
		return []any{k.section}
	case KindRoomSection:
		return []any{k.room, k.section}
	case KindObjectList:
		return []any{k.event, k.list}
	case KindSpecial:
		return []any{k.special}
	default:
		return nil
	}
}

func (k IndexKey) String() string {
	fields := k.fields()
	if len(fields) == 0 {
		return k.kind.String()
	}
	s := k.kind.String() + "("
	for i, f := range fields {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(f)
	}
	return s + ")"
}

// StorageKey returns the persistence key for the bucket. Only the invited-to
// special list has one; every other kind returns ErrKeyNotImplemented.
func (k IndexKey) StorageKey() (string, error) {
	if k.kind == KindSpecial && k.special == SpecialInvitedTo {
		return "global_invited", nil
	}
	return "", &KeyError{Ref: IndexRef(k)}
}

// MarshalJSON implements json.Marshaler.
func (k IndexKey) MarshalJSON() ([]byte, error) {
	if _, ok := indexKindNames[k.kind]; !ok {
		return nil, invalidf("cannot encode %s", k.kind)
	}
	return marshalTagged(k.kind.String(), k.fields()...)
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *IndexKey) UnmarshalJSON(data []byte) error {
	tag, payload, err := unmarshalTagged(data)
	if err != nil {
		return err
	}

	var out IndexKey
	switch tag {
	case "RoomHistory":
		out.kind = KindRoomHistory
		err = decodeFields(tag, payload, &out.room)
	case "RoomModels":
		out.kind = KindRoomModels
		err = decodeFields(tag, payload, &out.room)
	case "ObjectHistory":
		out.kind = KindObjectHistory
		err = decodeFields(tag, payload, &out.event)
	case "Section":
		out.kind = KindSection
		err = decodeFields(tag, payload, &out.section)
	case "RoomSection":
		out.kind = KindRoomSection
		err = decodeFields(tag, payload, &out.room, &out.section)
	case "ObjectList":
		out.kind = KindObjectList
		err = decodeFields(tag, payload, &out.event, &out.list)
	case "Special":
		out.kind = KindSpecial
		err = decodeFields(tag, payload, &out.special)
	case "Redacted":
		out.kind = KindRedacted
		err = decodeFields(tag, payload)
	case "AllHistory":
		out.kind = KindAllHistory
		err = decodeFields(tag, payload)
	default:
		return invalidf("unknown index key %q", tag)
	}
	if err != nil {
		return err
	}
	*k = out
	return nil
}

// SortIndexKeys sorts keys in Compare order and removes duplicates.
func SortIndexKeys(keys []IndexKey) []IndexKey {
	out := slices.Clone(keys)
	slices.SortFunc(out, IndexKey.Compare)
	return slices.Compact(out)
}

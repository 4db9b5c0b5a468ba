package ref

import (
	"cmp"
	"fmt"
	"slices"
)

// RefKind discriminates ExecuteReference variants. The ordinal order is the
// primary sort order of ExecuteReference.Compare.
type RefKind uint8

const (
	RefIndex RefKind = iota + 1
	RefModel
	RefRoom
	RefRoomAccountData
	RefModelParam
	RefRoomParam
	RefAccountData
	RefModelType
)

var refKindNames = map[RefKind]string{
	RefIndex:           "Index",
	RefModel:           "Model",
	RefRoom:            "Room",
	RefRoomAccountData: "RoomAccountData",
	RefModelParam:      "ModelParam",
	RefRoomParam:       "RoomParam",
	RefAccountData:     "AccountData",
	RefModelType:       "ModelType",
}

func (k RefKind) String() string {
	if name, ok := refKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RefKind(%d)", k)
}

// ExecuteReference identifies a storage slot that persisting a model may
// have made stale.
type ExecuteReference struct {
	kind       RefKind
	index      IndexKey
	event      string
	room       string
	name       string
	modelParam ModelParam
	roomParam  RoomParam
}

// IndexRef references an index bucket.
func IndexRef(k IndexKey) ExecuteReference {
	return ExecuteReference{kind: RefIndex, index: k}
}

// ModelRef references the canonical slot of a model.
func ModelRef(eventID string) ExecuteReference {
	return ExecuteReference{kind: RefModel, event: eventID}
}

// RoomRef references a room-level slot.
func RoomRef(roomID string) ExecuteReference {
	return ExecuteReference{kind: RefRoom, room: roomID}
}

// RoomAccountDataRef references room-scoped account data.
func RoomAccountDataRef(roomID, name string) ExecuteReference {
	return ExecuteReference{kind: RefRoomAccountData, room: roomID, name: name}
}

// ModelParamRef references a per-model statistic slot.
func ModelParamRef(eventID string, p ModelParam) ExecuteReference {
	return ExecuteReference{kind: RefModelParam, event: eventID, modelParam: p}
}

// RoomParamRef references a per-room statistic slot.
func RoomParamRef(roomID string, p RoomParam) ExecuteReference {
	return ExecuteReference{kind: RefRoomParam, room: roomID, roomParam: p}
}

// AccountDataRef references global account data.
func AccountDataRef(name string) ExecuteReference {
	return ExecuteReference{kind: RefAccountData, name: name}
}

// ModelTypeRef references a model-type-level slot.
func ModelTypeRef(tag string) ExecuteReference {
	return ExecuteReference{kind: RefModelType, name: tag}
}

// Kind returns the variant discriminant.
func (r ExecuteReference) Kind() RefKind { return r.kind }

// IndexKey returns the bucket of an Index reference.
func (r ExecuteReference) IndexKey() IndexKey { return r.index }

// EventID returns the event of Model and ModelParam references.
func (r ExecuteReference) EventID() string { return r.event }

// RoomID returns the room of Room, RoomAccountData and RoomParam references.
func (r ExecuteReference) RoomID() string { return r.room }

// Name returns the account data name or model type tag.
func (r ExecuteReference) Name() string { return r.name }

// ModelParam returns the parameter of a ModelParam reference.
func (r ExecuteReference) ModelParam() ModelParam { return r.modelParam }

// RoomParam returns the parameter of a RoomParam reference.
func (r ExecuteReference) RoomParam() RoomParam { return r.roomParam }

// Compare orders references by variant ordinal, then by fields in
// declaration order.
func (r ExecuteReference) Compare(o ExecuteReference) int {
	return cmp.Or(
		cmp.Compare(r.kind, o.kind),
		r.index.Compare(o.index),
		cmp.Compare(r.event, o.event),
		cmp.Compare(r.room, o.room),
		cmp.Compare(r.name, o.name),
		cmp.Compare(r.modelParam, o.modelParam),
		cmp.Compare(r.roomParam, o.roomParam),
	)
}

func (r ExecuteReference) fields() []any {
	switch r.kind {
	case RefIndex:
		return []any{r.index}
	case RefModel:
		return []any{r.event}
	case RefRoom:
		return []any{r.room}
	case RefRoomAccountData:
		return []any{r.room, r.name}
	case RefModelParam:
		return []any{r.event, r.modelParam}
	case RefRoomParam:
		return []any{r.room, r.roomParam}
	case RefAccountData, RefModelType:
		return []any{r.name}
	default:
		return nil
	}
}

func (r ExecuteReference) String() string {
	s := r.kind.String() + "("
	for i, f := range r.fields() {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprint(f)
	}
	return s + ")"
}

// StorageKey returns the persistence and change-notification key for r.
//
//	Model       acter::<event_id>
//	ModelParam  <event_id>::<param>
//	RoomParam   <room_id>::<param>
//	ModelType   <tag>
//	Index       see IndexKey.StorageKey
//
// Room, RoomAccountData and AccountData return ErrKeyNotImplemented.
func (r ExecuteReference) StorageKey() (string, error) {
	switch r.kind {
	case RefModel:
		return ModelStorageKey(r.event), nil
	case RefModelParam:
		return r.event + "::" + r.modelParam.String(), nil
	case RefRoomParam:
		return r.room + "::" + r.roomParam.String(), nil
	case RefModelType:
		return r.name, nil
	case RefIndex:
		return r.index.StorageKey()
	default:
		return "", &KeyError{Ref: r}
	}
}

// MustStorageKey is like StorageKey but panics for kinds without a key.
func (r ExecuteReference) MustStorageKey() string {
	key, err := r.StorageKey()
	if err != nil {
		panic(err)
	}
	return key
}

// ModelStorageKey returns the canonical slot key of a model.
func ModelStorageKey(eventID string) string {
	return "acter::" + eventID
}

// MarshalJSON implements json.Marshaler.
func (r ExecuteReference) MarshalJSON() ([]byte, error) {
	if _, ok := refKindNames[r.kind]; !ok {
		return nil, invalidf("cannot encode %s", r.kind)
	}
	return marshalTagged(r.kind.String(), r.fields()...)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ExecuteReference) UnmarshalJSON(data []byte) error {
	tag, payload, err := unmarshalTagged(data)
	if err != nil {
		return err
	}

	var out ExecuteReference
	switch tag {
	case "Index":
		out.kind = RefIndex
		err = decodeFields(tag, payload, &out.index)
	case "Model":
		out.kind = RefModel
		err = decodeFields(tag, payload, &out.event)
	case "Room":
		out.kind = RefRoom
		err = decodeFields(tag, payload, &out.room)
	case "RoomAccountData":
		out.kind = RefRoomAccountData
		err = decodeFields(tag, payload, &out.room, &out.name)
	case "ModelParam":
		out.kind = RefModelParam
		err = decodeFields(tag, payload, &out.event, &out.modelParam)
	case "RoomParam":
		out.kind = RefRoomParam
		err = decodeFields(tag, payload, &out.room, &out.roomParam)
	case "AccountData":
		out.kind = RefAccountData
		err = decodeFields(tag, payload, &out.name)
	case "ModelType":
		out.kind = RefModelType
		err = decodeFields(tag, payload, &out.name)
	default:
		return invalidf("unknown reference %q", tag)
	}
	if err != nil {
		return err
	}
	*r = out
	return nil
}

// Normalize returns refs sorted in Compare order with duplicates removed.
// The input slice is not modified.
func Normalize(refs []ExecuteReference) []ExecuteReference {
	out := slices.Clone(refs)
	slices.SortFunc(out, ExecuteReference.Compare)
	return slices.Compact(out)
}

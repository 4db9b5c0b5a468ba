package model

import (
	"encoding/json"
	"slices"

	"github.com/matrix-org/gomatrixserverlib/spec"

	"github.com/roach88/acterstore/internal/event"
)

// Supported state event types.
const (
	TypeRoomMember            = spec.MRoomMember
	TypePolicyRuleRoom        = "m.policy.rule.room"
	TypePolicyRuleServer      = "m.policy.rule.server"
	TypePolicyRuleUser        = "m.policy.rule.user"
	TypeRoomAvatar            = "m.room.avatar"
	TypeRoomCreate            = "m.room.create"
	TypeRoomEncryption        = "m.room.encryption"
	TypeRoomGuestAccess       = "m.room.guest_access"
	TypeRoomHistoryVisibility = "m.room.history_visibility"
	TypeRoomJoinRules         = "m.room.join_rules"
	TypeRoomName              = "m.room.name"
	TypeRoomPinnedEvents      = "m.room.pinned_events"
	TypeRoomPowerLevels       = "m.room.power_levels"
	TypeRoomServerACL         = "m.room.server_acl"
	TypeRoomTombstone         = "m.room.tombstone"
	TypeRoomTopic             = "m.room.topic"
	TypeSpaceChild            = "m.space.child"
	TypeSpaceParent           = "m.space.parent"
)

type decodeFunc func(ev event.Event) (StatusContent, error)

// decoders maps every supported event type to its pure decode function.
var decoders = map[string]decodeFunc{
	TypeRoomMember: decodeMember,

	TypePolicyRuleRoom: stateDecoder(func(s StateContent[PolicyRuleEventContent]) StatusContent {
		return PolicyRuleRoomContent{policyRule{s}}
	}),
	TypePolicyRuleServer: stateDecoder(func(s StateContent[PolicyRuleEventContent]) StatusContent {
		return PolicyRuleServerContent{policyRule{s}}
	}),
	TypePolicyRuleUser: stateDecoder(func(s StateContent[PolicyRuleEventContent]) StatusContent {
		return PolicyRuleUserContent{policyRule{s}}
	}),
	TypeRoomAvatar: stateDecoder(func(s StateContent[AvatarEventContent]) StatusContent {
		return RoomAvatarContent{s}
	}),
	TypeRoomCreate: stateDecoder(func(s StateContent[CreateEventContent]) StatusContent {
		return RoomCreateContent{s}
	}),
	TypeRoomEncryption: stateDecoder(func(s StateContent[EncryptionEventContent]) StatusContent {
		return RoomEncryptionContent{s}
	}),
	TypeRoomGuestAccess: stateDecoder(func(s StateContent[GuestAccessEventContent]) StatusContent {
		return RoomGuestAccessContent{s}
	}),
	TypeRoomHistoryVisibility: stateDecoder(func(s StateContent[HistoryVisibilityEventContent]) StatusContent {
		return RoomHistoryVisibilityContent{s}
	}),
	TypeRoomJoinRules: stateDecoder(func(s StateContent[JoinRulesEventContent]) StatusContent {
		return RoomJoinRulesContent{s}
	}),
	TypeRoomName: stateDecoder(func(s StateContent[NameEventContent]) StatusContent {
		return RoomNameContent{s}
	}),
	TypeRoomPinnedEvents: stateDecoder(func(s StateContent[PinnedEventsEventContent]) StatusContent {
		return RoomPinnedEventsContent{s}
	}),
	TypeRoomPowerLevels: stateDecoder(func(s StateContent[PowerLevelsEventContent]) StatusContent {
		return RoomPowerLevelsContent{s}
	}),
	TypeRoomServerACL: stateDecoder(func(s StateContent[ServerACLEventContent]) StatusContent {
		return RoomServerACLContent{s}
	}),
	TypeRoomTombstone: stateDecoder(func(s StateContent[TombstoneEventContent]) StatusContent {
		return RoomTombstoneContent{s}
	}),
	TypeRoomTopic: stateDecoder(func(s StateContent[TopicEventContent]) StatusContent {
		return RoomTopicContent{s}
	}),
	TypeSpaceChild: keyedDecoder(func(key string, s StateContent[SpaceChildEventContent]) StatusContent {
		return SpaceChildContent{StateKey: key, StateContent: s}
	}),
	TypeSpaceParent: keyedDecoder(func(key string, s StateContent[SpaceParentEventContent]) StatusContent {
		return SpaceParentContent{StateKey: key, StateContent: s}
	}),
}

// SupportedEventTypes returns every decodable event type, sorted.
func SupportedEventTypes() []string {
	types := make([]string, 0, len(decoders))
	for t := range decoders {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Decode converts one protocol event into a RoomStatus.
//
// Non-original events, timeline events, unknown types, content that does not
// match its type and unclassifiable membership transitions all yield a
// *DecodeError with ErrCodeUnsupportedEvent carrying ev unchanged.
func Decode(ev event.Event) (*RoomStatus, error) {
	if !ev.Original {
		return nil, unsupported(ev, nil, "event is not original")
	}
	if !ev.IsState() {
		return nil, unsupported(ev, nil, "not a state event")
	}
	decode, ok := decoders[ev.Type]
	if !ok {
		return nil, unsupported(ev, nil, "unsupported event type %q", ev.Type)
	}

	content, err := decode(ev)
	if err != nil {
		return nil, err
	}

	return &RoomStatus{
		meta: EventMeta{
			EventID:        ev.EventID,
			RoomID:         ev.RoomID,
			Sender:         ev.Sender,
			OriginServerTS: ev.OriginServerTS,
		},
		content: content,
	}, nil
}

func stateDecoder[T any](wrap func(StateContent[T]) StatusContent) decodeFunc {
	return func(ev event.Event) (StatusContent, error) {
		s, err := unmarshalState[T](ev)
		if err != nil {
			return nil, err
		}
		return wrap(s), nil
	}
}

func keyedDecoder[T any](wrap func(string, StateContent[T]) StatusContent) decodeFunc {
	return func(ev event.Event) (StatusContent, error) {
		s, err := unmarshalState[T](ev)
		if err != nil {
			return nil, err
		}
		return wrap(ev.StateKeyOrEmpty(), s), nil
	}
}

func unmarshalState[T any](ev event.Event) (StateContent[T], error) {
	var s StateContent[T]
	if err := json.Unmarshal(ev.Content, &s.Current); err != nil {
		return s, unsupported(ev, err, "content does not match %s", ev.Type)
	}
	if len(ev.PrevContent) > 0 {
		var prev T
		if err := json.Unmarshal(ev.PrevContent, &prev); err != nil {
			return s, unsupported(ev, err, "previous content does not match %s", ev.Type)
		}
		s.Previous = &prev
	}
	return s, nil
}

func decodeMember(ev event.Event) (StatusContent, error) {
	s, err := unmarshalState[MemberEventContent](ev)
	if err != nil {
		return nil, err
	}
	userID := ev.StateKeyOrEmpty()

	change, kind := classifyMembership(s.Current, s.Previous, ev.Sender, userID)
	switch kind {
	case transitionProfile:
		return profileDiff(userID, s.Current, s.Previous), nil
	case transitionChange:
		return MembershipContent{UserID: userID, Change: change, Reason: s.Current.Reason}, nil
	default:
		return nil, unsupported(ev, nil, "membership %s", kind)
	}
}

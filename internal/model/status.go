package model

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/roach88/acterstore/internal/ref"
)

// RoomStatus is the generic room-scoped status model: one room state change
// such as a topic edit, a membership transition or a policy rule.
type RoomStatus struct {
	meta    EventMeta
	content StatusContent
}

// Content returns the typed payload.
func (s *RoomStatus) Content() StatusContent { return s.content }

// Kind returns the persisted variant tag.
func (s *RoomStatus) Kind() Kind { return s.content.Kind() }

// Meta implements Model.
func (s *RoomStatus) Meta() *EventMeta { return &s.meta }

// IndexMemberships implements Model. Status models are indexed coarsely:
// the room history and the global history, for every actor.
func (s *RoomStatus) IndexMemberships(string) []ref.IndexKey {
	return []ref.IndexKey{ref.RoomHistory(s.meta.RoomID), ref.AllHistory()}
}

// Capabilities implements Model. Status models have none.
func (s *RoomStatus) Capabilities() []Capability { return nil }

// ParentReferences implements Model. Room status updates never refresh a
// parent object.
func (s *RoomStatus) ParentReferences() []string { return nil }

// Record implements Model.
func (s *RoomStatus) Record(actor string) (Record, error) {
	return NewRecord(s.meta, s.Kind(), s.content, s.IndexMemberships(actor))
}

// Execute implements Model.
func (s *RoomStatus) Execute(ctx context.Context, store Store) ([]ref.ExecuteReference, error) {
	return Persist(ctx, store, s)
}

// As returns the payload of s as T.
func As[T StatusContent](s *RoomStatus) (T, bool) {
	c, ok := s.content.(T)
	return c, ok
}

type loadFunc func(raw json.RawMessage) (StatusContent, error)

// loaders maps every kind back to its content type.
var loaders = map[Kind]loadFunc{
	KindMembershipChange:      load[MembershipContent],
	KindProfileChange:         load[ProfileContent],
	KindPolicyRuleRoom:        load[PolicyRuleRoomContent],
	KindPolicyRuleServer:      load[PolicyRuleServerContent],
	KindPolicyRuleUser:        load[PolicyRuleUserContent],
	KindRoomAvatar:            load[RoomAvatarContent],
	KindRoomCreate:            load[RoomCreateContent],
	KindRoomEncryption:        load[RoomEncryptionContent],
	KindRoomGuestAccess:       load[RoomGuestAccessContent],
	KindRoomHistoryVisibility: load[RoomHistoryVisibilityContent],
	KindRoomJoinRules:         load[RoomJoinRulesContent],
	KindRoomName:              load[RoomNameContent],
	KindRoomPinnedEvents:      load[RoomPinnedEventsContent],
	KindRoomPowerLevels:       load[RoomPowerLevelsContent],
	KindRoomServerACL:         load[RoomServerACLContent],
	KindRoomTombstone:         load[RoomTombstoneContent],
	KindRoomTopic:             load[RoomTopicContent],
	KindSpaceChild:            load[SpaceChildContent],
	KindSpaceParent:           load[SpaceParentContent],
}

func load[T StatusContent](raw json.RawMessage) (StatusContent, error) {
	var c T
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// Kinds returns every persisted kind, sorted.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(loaders))
	for k := range loaders {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// LoadRoomStatus rebuilds a RoomStatus from its persisted record.
func LoadRoomStatus(rec Record) (*RoomStatus, error) {
	loadContent, ok := loaders[rec.Kind]
	if !ok {
		return nil, fmt.Errorf("load %s: unknown kind %q", rec.EventID, rec.Kind)
	}
	content, err := loadContent(rec.Content)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rec.EventID, err)
	}
	return &RoomStatus{meta: rec.EventMeta, content: content}, nil
}

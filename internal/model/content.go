package model

// Kind is the persisted tag of a RoomStatus variant. Renaming a kind is a
// breaking storage-format change.
type Kind string

const (
	KindMembershipChange      Kind = "membershipChange"
	KindProfileChange         Kind = "profileChange"
	KindPolicyRuleRoom        Kind = "policyRuleRoom"
	KindPolicyRuleServer      Kind = "policyRuleServer"
	KindPolicyRuleUser        Kind = "policyRuleUser"
	KindRoomAvatar            Kind = "roomAvatar"
	KindRoomCreate            Kind = "roomCreate"
	KindRoomEncryption        Kind = "roomEncryption"
	KindRoomGuestAccess       Kind = "roomGuestAccess"
	KindRoomHistoryVisibility Kind = "roomHistoryVisibility"
	KindRoomJoinRules         Kind = "roomJoinRules"
	KindRoomName              Kind = "roomName"
	KindRoomPinnedEvents      Kind = "roomPinnedEvents"
	KindRoomPowerLevels       Kind = "roomPowerLevels"
	KindRoomServerACL         Kind = "roomServerAcl"
	KindRoomTombstone         Kind = "roomTombstone"
	KindRoomTopic             Kind = "roomTopic"
	KindSpaceChild            Kind = "spaceChild"
	KindSpaceParent           Kind = "spaceParent"
)

// StatusContent is the closed set of RoomStatus payloads.
type StatusContent interface {
	Kind() Kind
	isStatusContent()
}

// StateContent pairs the current content of a state event with the
// previous content carried on it, if any.
type StateContent[T any] struct {
	Current  T  `json:"content"`
	Previous *T `json:"prev_content,omitempty"`
}

type RoomTopicContent struct {
	StateContent[TopicEventContent]
}

func (RoomTopicContent) Kind() Kind { return KindRoomTopic }
func (RoomTopicContent) isStatusContent() {}

// TopicChange describes how the topic changed.
func (c RoomTopicContent) TopicChange() *FieldChange {
	get := func(t TopicEventContent) *string { return optional(t.Topic) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

type RoomNameContent struct {
	StateContent[NameEventContent]
}

func (RoomNameContent) Kind() Kind { return KindRoomName }
func (RoomNameContent) isStatusContent() {}

// NameChange describes how the room name changed.
func (c RoomNameContent) NameChange() *FieldChange {
	get := func(n NameEventContent) *string { return optional(n.Name) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

type RoomAvatarContent struct {
	StateContent[AvatarEventContent]
}

func (RoomAvatarContent) Kind() Kind { return KindRoomAvatar }
func (RoomAvatarContent) isStatusContent() {}

// URLChange describes how the avatar url changed.
func (c RoomAvatarContent) URLChange() *FieldChange {
	get := func(a AvatarEventContent) *string { return optional(a.URL) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

type RoomCreateContent struct {
	StateContent[CreateEventContent]
}

func (RoomCreateContent) Kind() Kind { return KindRoomCreate }
func (RoomCreateContent) isStatusContent() {}

// Federate reports whether users on other servers may join. Defaults to true.
func (c RoomCreateContent) Federate() bool {
	return c.Current.Federate == nil || *c.Current.Federate
}

type RoomEncryptionContent struct {
	StateContent[EncryptionEventContent]
}

func (RoomEncryptionContent) Kind() Kind { return KindRoomEncryption }
func (RoomEncryptionContent) isStatusContent() {}

// AlgorithmChange describes how the encryption algorithm changed.
func (c RoomEncryptionContent) AlgorithmChange() *FieldChange {
	get := func(e EncryptionEventContent) *string { return optional(e.Algorithm) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

type RoomGuestAccessContent struct {
	StateContent[GuestAccessEventContent]
}

func (RoomGuestAccessContent) Kind() Kind { return KindRoomGuestAccess }
func (RoomGuestAccessContent) isStatusContent() {}

// GuestAccessChange describes how guest access changed.
func (c RoomGuestAccessContent) GuestAccessChange() *FieldChange {
	get := func(g GuestAccessEventContent) *string { return optional(g.GuestAccess) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

type RoomHistoryVisibilityContent struct {
	StateContent[HistoryVisibilityEventContent]
}

func (RoomHistoryVisibilityContent) Kind() Kind { return KindRoomHistoryVisibility }
func (RoomHistoryVisibilityContent) isStatusContent() {}

// HistoryVisibilityChange describes how history visibility changed.
func (c RoomHistoryVisibilityContent) HistoryVisibilityChange() *FieldChange {
	get := func(h HistoryVisibilityEventContent) *string { return optional(h.HistoryVisibility) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

type RoomJoinRulesContent struct {
	StateContent[JoinRulesEventContent]
}

func (RoomJoinRulesContent) Kind() Kind { return KindRoomJoinRules }
func (RoomJoinRulesContent) isStatusContent() {}

// JoinRuleChange describes how the join rule changed.
func (c RoomJoinRulesContent) JoinRuleChange() *FieldChange {
	get := func(j JoinRulesEventContent) *string { return optional(j.JoinRule) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

type RoomPinnedEventsContent struct {
	StateContent[PinnedEventsEventContent]
}

func (RoomPinnedEventsContent) Kind() Kind { return KindRoomPinnedEvents }
func (RoomPinnedEventsContent) isStatusContent() {}

// Added returns event ids pinned now but not before, in current order.
func (c RoomPinnedEventsContent) Added() []string {
	var prev []string
	if c.Previous != nil {
		prev = c.Previous.Pinned
	}
	return missingFrom(c.Current.Pinned, prev)
}

// Removed returns event ids pinned before but not now, in previous order.
func (c RoomPinnedEventsContent) Removed() []string {
	if c.Previous == nil {
		return nil
	}
	return missingFrom(c.Previous.Pinned, c.Current.Pinned)
}

type RoomPowerLevelsContent struct {
	StateContent[PowerLevelsEventContent]
}

func (RoomPowerLevelsContent) Kind() Kind { return KindRoomPowerLevels }
func (RoomPowerLevelsContent) isStatusContent() {}

type RoomServerACLContent struct {
	StateContent[ServerACLEventContent]
}

func (RoomServerACLContent) Kind() Kind { return KindRoomServerACL }
func (RoomServerACLContent) isStatusContent() {}

// AllowIPLiterals defaults to true when unset.
func (c RoomServerACLContent) AllowIPLiterals() bool {
	return c.Current.AllowIPLiterals == nil || *c.Current.AllowIPLiterals
}

type RoomTombstoneContent struct {
	StateContent[TombstoneEventContent]
}

func (RoomTombstoneContent) Kind() Kind { return KindRoomTombstone }
func (RoomTombstoneContent) isStatusContent() {}

// ReplacementRoomChange describes how the replacement room changed.
func (c RoomTombstoneContent) ReplacementRoomChange() *FieldChange {
	get := func(t TombstoneEventContent) *string { return optional(t.ReplacementRoom) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

// BodyChange describes how the tombstone message changed.
func (c RoomTombstoneContent) BodyChange() *FieldChange {
	get := func(t TombstoneEventContent) *string { return optional(t.Body) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

// policyRule holds the accessors shared by the three policy rule variants.
type policyRule struct {
	StateContent[PolicyRuleEventContent]
}

// EntityChange describes how the rule's entity glob changed.
func (c policyRule) EntityChange() *FieldChange {
	get := func(p PolicyRuleEventContent) *string { return optional(p.Entity) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

// ReasonChange describes how the rule's reason changed.
func (c policyRule) ReasonChange() *FieldChange {
	get := func(p PolicyRuleEventContent) *string { return optional(p.Reason) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

// RecommendationChange describes how the rule's recommendation changed.
func (c policyRule) RecommendationChange() *FieldChange {
	get := func(p PolicyRuleEventContent) *string { return optional(p.Recommendation) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

type PolicyRuleRoomContent struct {
	policyRule
}

func (PolicyRuleRoomContent) Kind() Kind { return KindPolicyRuleRoom }
func (PolicyRuleRoomContent) isStatusContent() {}

type PolicyRuleServerContent struct {
	policyRule
}

func (PolicyRuleServerContent) Kind() Kind { return KindPolicyRuleServer }
func (PolicyRuleServerContent) isStatusContent() {}

type PolicyRuleUserContent struct {
	policyRule
}

func (PolicyRuleUserContent) Kind() Kind { return KindPolicyRuleUser }
func (PolicyRuleUserContent) isStatusContent() {}

// SpaceChildContent relates a space to the child room named by StateKey.
type SpaceChildContent struct {
	StateKey string `json:"state_key"`
	StateContent[SpaceChildEventContent]
}

func (SpaceChildContent) Kind() Kind { return KindSpaceChild }
func (SpaceChildContent) isStatusContent() {}

// OrderChange describes how the child's ordering key changed.
func (c SpaceChildContent) OrderChange() *FieldChange {
	get := func(s SpaceChildEventContent) *string { return optional(s.Order) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

// Removed reports whether the child relation was removed (no via servers).
func (c SpaceChildContent) Removed() bool {
	return len(c.Current.Via) == 0
}

// SpaceParentContent relates a room to the parent space named by StateKey.
type SpaceParentContent struct {
	StateKey string `json:"state_key"`
	StateContent[SpaceParentEventContent]
}

func (SpaceParentContent) Kind() Kind { return KindSpaceParent }
func (SpaceParentContent) isStatusContent() {}

// CanonicalChange describes how the canonical flag changed, rendered as
// "true" or "false".
func (c SpaceParentContent) CanonicalChange() *FieldChange {
	get := func(s SpaceParentEventContent) *string { return optionalBool(s.Canonical) }
	return diffField(get(c.Current), prevField(c.Previous, get))
}

func missingFrom(items, other []string) []string {
	seen := make(map[string]struct{}, len(other))
	for _, o := range other {
		seen[o] = struct{}{}
	}
	var out []string
	for _, it := range items {
		if _, ok := seen[it]; !ok {
			out = append(out, it)
		}
	}
	return out
}

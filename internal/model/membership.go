package model

import "github.com/matrix-org/gomatrixserverlib/spec"

// MembershipChange names a classified membership transition.
type MembershipChange string

const (
	MembershipJoined             MembershipChange = "joined"
	MembershipInvitationAccepted MembershipChange = "invitation_accepted"
	MembershipInvitationRejected MembershipChange = "invitation_rejected"
	MembershipInvitationRevoked  MembershipChange = "invitation_revoked"
	MembershipBanned             MembershipChange = "banned"
	MembershipLeft               MembershipChange = "left"
	MembershipKicked             MembershipChange = "kicked"
	MembershipKickedAndBanned    MembershipChange = "kicked_and_banned"
	MembershipInvited            MembershipChange = "invited"
	MembershipUnbanned           MembershipChange = "unbanned"
	MembershipKnocked            MembershipChange = "knocked"
	MembershipKnockAccepted      MembershipChange = "knock_accepted"
	MembershipKnockRetracted     MembershipChange = "knock_retracted"
	MembershipKnockDenied        MembershipChange = "knock_denied"
)

// MembershipContent is a membership transition of UserID.
type MembershipContent struct {
	UserID string           `json:"user_id"`
	Change MembershipChange `json:"change"`
	Reason *string          `json:"reason,omitempty"`
}

func (MembershipContent) Kind() Kind { return KindMembershipChange }
func (MembershipContent) isStatusContent() {}

// Change is an old/new pair for a profile field. Either side may be absent.
type Change struct {
	NewVal *string `json:"new_val,omitempty"`
	OldVal *string `json:"old_val,omitempty"`
}

// ProfileContent is a join to join transition. Fields that did not change
// are nil.
type ProfileContent struct {
	UserID      string  `json:"user_id"`
	DisplayName *Change `json:"display_name,omitempty"`
	AvatarURL   *Change `json:"avatar_url,omitempty"`
}

func (ProfileContent) Kind() Kind { return KindProfileChange }
func (ProfileContent) isStatusContent() {}

// transition is the outcome of classifying a member event.
type transition int

const (
	transitionChange transition = iota
	transitionProfile
	transitionNone
	transitionError
	transitionNotImplemented
)

func (t transition) String() string {
	switch t {
	case transitionChange:
		return "change"
	case transitionProfile:
		return "profile change"
	case transitionNone:
		return "no change"
	case transitionError:
		return "invalid transition"
	default:
		return "transition not implemented"
	}
}

// classifyMembership classifies prev -> cur. A missing previous content
// counts as leave. The returned change is only meaningful for
// transitionChange.
func classifyMembership(cur MemberEventContent, prev *MemberEventContent, sender, stateKey string) (MembershipChange, transition) {
	from := spec.Leave
	if prev != nil {
		from = prev.Membership
	}
	to := cur.Membership
	self := sender == stateKey

	switch {
	case from == spec.Leave && to == spec.Join:
		return MembershipJoined, transitionChange
	case from == spec.Invite && to == spec.Join:
		return MembershipInvitationAccepted, transitionChange
	case from == spec.Invite && to == spec.Leave && self:
		return MembershipInvitationRejected, transitionChange
	case from == spec.Invite && to == spec.Leave:
		return MembershipInvitationRevoked, transitionChange
	case (from == spec.Invite || from == spec.Leave || from == spec.Knock) && to == spec.Ban:
		return MembershipBanned, transitionChange
	case from == spec.Join && to == spec.Invite,
		from == spec.Ban && to == spec.Invite,
		from == spec.Ban && to == spec.Join,
		(from == spec.Join || from == spec.Ban) && to == spec.Knock,
		from == spec.Knock && to == spec.Knock:
		return "", transitionError
	case from == spec.Join && to == spec.Join:
		return "", transitionProfile
	case from == spec.Join && to == spec.Leave && self:
		return MembershipLeft, transitionChange
	case from == spec.Join && to == spec.Leave:
		return MembershipKicked, transitionChange
	case from == spec.Join && to == spec.Ban:
		return MembershipKickedAndBanned, transitionChange
	case from == spec.Leave && to == spec.Invite:
		return MembershipInvited, transitionChange
	case from == spec.Ban && to == spec.Leave:
		return MembershipUnbanned, transitionChange
	case (from == spec.Leave || from == spec.Invite) && to == spec.Knock:
		return MembershipKnocked, transitionChange
	case from == spec.Knock && to == spec.Invite:
		return MembershipKnockAccepted, transitionChange
	case from == spec.Knock && to == spec.Leave && self:
		return MembershipKnockRetracted, transitionChange
	case from == spec.Knock && to == spec.Leave:
		return MembershipKnockDenied, transitionChange
	case from == to:
		return "", transitionNone
	default:
		return "", transitionNotImplemented
	}
}

// profileDiff builds the profile change of a join to join transition. Each
// field is set only when its value differs.
func profileDiff(userID string, cur MemberEventContent, prev *MemberEventContent) ProfileContent {
	var prevName, prevAvatar *string
	if prev != nil {
		prevName, prevAvatar = prev.DisplayName, prev.AvatarURL
	}
	return ProfileContent{
		UserID:      userID,
		DisplayName: diffPair(cur.DisplayName, prevName),
		AvatarURL:   diffPair(cur.AvatarURL, prevAvatar),
	}
}

func diffPair(newVal, oldVal *string) *Change {
	if newVal == nil && oldVal == nil {
		return nil
	}
	if newVal != nil && oldVal != nil && *newVal == *oldVal {
		return nil
	}
	return &Change{NewVal: newVal, OldVal: oldVal}
}

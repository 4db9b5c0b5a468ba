package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Protocol content of the supported state events. Only the fields the
// models use are decoded; integers only, as everywhere in the record layer.

type TopicEventContent struct {
	Topic string `json:"topic"`
}

type NameEventContent struct {
	Name string `json:"name"`
}

type AvatarEventContent struct {
	URL  string     `json:"url,omitempty"`
	Info *ImageInfo `json:"info,omitempty"`
}

type ImageInfo struct {
	Mimetype string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Width    int64  `json:"w,omitempty"`
	Height   int64  `json:"h,omitempty"`
}

type PreviousRoom struct {
	RoomID  string `json:"room_id"`
	EventID string `json:"event_id"`
}

type CreateEventContent struct {
	Creator     string        `json:"creator,omitempty"`
	RoomVersion string        `json:"room_version,omitempty"`
	Federate    *bool         `json:"m.federate,omitempty"`
	RoomType    string        `json:"type,omitempty"`
	Predecessor *PreviousRoom `json:"predecessor,omitempty"`
}

type EncryptionEventContent struct {
	Algorithm          string `json:"algorithm"`
	RotationPeriodMs   *int64 `json:"rotation_period_ms,omitempty"`
	RotationPeriodMsgs *int64 `json:"rotation_period_msgs,omitempty"`
}

type GuestAccessEventContent struct {
	GuestAccess string `json:"guest_access"`
}

type HistoryVisibilityEventContent struct {
	HistoryVisibility string `json:"history_visibility"`
}

type AllowRule struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id,omitempty"`
}

type JoinRulesEventContent struct {
	JoinRule string      `json:"join_rule"`
	Allow    []AllowRule `json:"allow,omitempty"`
}

type PinnedEventsEventContent struct {
	Pinned []string `json:"pinned"`
}

type PowerLevelsEventContent struct {
	Ban           *PowerLevel           `json:"ban,omitempty"`
	Events        map[string]PowerLevel `json:"events,omitempty"`
	EventsDefault *PowerLevel           `json:"events_default,omitempty"`
	Invite        *PowerLevel           `json:"invite,omitempty"`
	Kick          *PowerLevel           `json:"kick,omitempty"`
	Redact        *PowerLevel           `json:"redact,omitempty"`
	StateDefault  *PowerLevel           `json:"state_default,omitempty"`
	Users         map[string]PowerLevel `json:"users,omitempty"`
	UsersDefault  *PowerLevel           `json:"users_default,omitempty"`
	Notifications map[string]PowerLevel `json:"notifications,omitempty"`
}

// PowerLevel is a power level value. Rooms before version 10 may carry
// levels as integer strings ("50"); they decode to the same value and
// re-encode as numbers.
type PowerLevel int64

// UnmarshalJSON accepts a JSON integer or a string holding one.
func (p *PowerLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("power level %q is not an integer", s)
		}
		*p = PowerLevel(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("power level %s is not an integer", data)
	}
	*p = PowerLevel(n)
	return nil
}

type ServerACLEventContent struct {
	Allow           []string `json:"allow,omitempty"`
	Deny            []string `json:"deny,omitempty"`
	AllowIPLiterals *bool    `json:"allow_ip_literals,omitempty"`
}

type TombstoneEventContent struct {
	Body            string `json:"body"`
	ReplacementRoom string `json:"replacement_room"`
}

type PolicyRuleEventContent struct {
	Entity         string `json:"entity"`
	Reason         string `json:"reason"`
	Recommendation string `json:"recommendation"`
}

type SpaceChildEventContent struct {
	Via       []string `json:"via,omitempty"`
	Order     string   `json:"order,omitempty"`
	Suggested bool     `json:"suggested,omitempty"`
}

type SpaceParentEventContent struct {
	Via       []string `json:"via,omitempty"`
	Canonical bool     `json:"canonical,omitempty"`
}

type MemberEventContent struct {
	Membership  string  `json:"membership"`
	DisplayName *string `json:"displayname,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Reason      *string `json:"reason,omitempty"`
	IsDirect    bool    `json:"is_direct,omitempty"`
}

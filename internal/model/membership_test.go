package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/acterstore/internal/testutil"
)

func TestClassifyMembership(t *testing.T) {
	const (
		self  = "@bob:example.org"
		other = "@admin:example.org"
	)

	tests := []struct {
		prev, cur string
		sender    string
		change    MembershipChange
		kind      transition
	}{
		{"", "join", self, MembershipJoined, transitionChange},
		{"leave", "join", self, MembershipJoined, transitionChange},
		{"invite", "join", self, MembershipInvitationAccepted, transitionChange},
		{"invite", "leave", self, MembershipInvitationRejected, transitionChange},
		{"invite", "leave", other, MembershipInvitationRevoked, transitionChange},
		{"invite", "ban", other, MembershipBanned, transitionChange},
		{"leave", "ban", other, MembershipBanned, transitionChange},
		{"knock", "ban", other, MembershipBanned, transitionChange},
		{"join", "leave", self, MembershipLeft, transitionChange},
		{"join", "leave", other, MembershipKicked, transitionChange},
		{"join", "ban", other, MembershipKickedAndBanned, transitionChange},
		{"", "invite", other, MembershipInvited, transitionChange},
		{"ban", "leave", other, MembershipUnbanned, transitionChange},
		{"leave", "knock", self, MembershipKnocked, transitionChange},
		{"invite", "knock", self, MembershipKnocked, transitionChange},
		{"knock", "invite", other, MembershipKnockAccepted, transitionChange},
		{"knock", "leave", self, MembershipKnockRetracted, transitionChange},
		{"knock", "leave", other, MembershipKnockDenied, transitionChange},
		{"join", "join", self, "", transitionProfile},
		{"join", "invite", other, "", transitionError},
		{"ban", "invite", other, "", transitionError},
		{"ban", "join", self, "", transitionError},
		{"join", "knock", self, "", transitionError},
		{"ban", "knock", self, "", transitionError},
		{"knock", "knock", self, "", transitionError},
		{"leave", "leave", self, "", transitionNone},
		{"ban", "ban", other, "", transitionNone},
		{"invite", "invite", other, "", transitionNone},
		{"join", "custom", self, "", transitionNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.prev+"->"+tt.cur+" by "+tt.sender, func(t *testing.T) {
			var prev *MemberEventContent
			if tt.prev != "" {
				prev = &MemberEventContent{Membership: tt.prev}
			}
			change, kind := classifyMembership(MemberEventContent{Membership: tt.cur}, prev, tt.sender, self)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.change, change)
		})
	}
}

func TestDecodeMembershipChange(t *testing.T) {
	b := testutil.NewEventBuilder()
	b.Sender = "@admin:example.org"

	status, err := Decode(b.State(TypeRoomMember, "@bob:example.org",
		map[string]any{"membership": "ban", "reason": "spam"},
		map[string]any{"membership": "join"}))
	require.NoError(t, err)

	m, ok := As[MembershipContent](status)
	require.True(t, ok)
	assert.Equal(t, "@bob:example.org", m.UserID)
	assert.Equal(t, MembershipKickedAndBanned, m.Change)
	require.NotNil(t, m.Reason)
	assert.Equal(t, "spam", *m.Reason)
}

func TestDecodeProfileChangeDisplayNameOnly(t *testing.T) {
	b := testutil.NewEventBuilder()

	status, err := Decode(b.State(TypeRoomMember, testutil.DefaultSender,
		map[string]any{"membership": "join", "displayname": "Alice B", "avatar_url": "mxc://x/a"},
		map[string]any{"membership": "join", "displayname": "Alice", "avatar_url": "mxc://x/a"}))
	require.NoError(t, err)

	p, ok := As[ProfileContent](status)
	require.True(t, ok, "got %T", status.Content())
	assert.Equal(t, testutil.DefaultSender, p.UserID)
	require.NotNil(t, p.DisplayName)
	assert.Equal(t, "Alice B", *p.DisplayName.NewVal)
	assert.Equal(t, "Alice", *p.DisplayName.OldVal)
	assert.Nil(t, p.AvatarURL, "unchanged field is absent")
}

func TestDecodeProfileChangeAvatarSetAndNameRemoved(t *testing.T) {
	b := testutil.NewEventBuilder()

	status, err := Decode(b.State(TypeRoomMember, testutil.DefaultSender,
		map[string]any{"membership": "join", "avatar_url": "mxc://x/new"},
		map[string]any{"membership": "join", "displayname": "Alice"}))
	require.NoError(t, err)

	p, ok := As[ProfileContent](status)
	require.True(t, ok)

	require.NotNil(t, p.AvatarURL)
	assert.Equal(t, "mxc://x/new", *p.AvatarURL.NewVal)
	assert.Nil(t, p.AvatarURL.OldVal)

	require.NotNil(t, p.DisplayName)
	assert.Nil(t, p.DisplayName.NewVal)
	assert.Equal(t, "Alice", *p.DisplayName.OldVal)
}

func TestDecodeJoinToJoinWithoutChanges(t *testing.T) {
	b := testutil.NewEventBuilder()

	status, err := Decode(b.Member(testutil.DefaultSender, "join", "join"))
	require.NoError(t, err)

	p, ok := As[ProfileContent](status)
	require.True(t, ok)
	assert.Nil(t, p.DisplayName)
	assert.Nil(t, p.AvatarURL)
}

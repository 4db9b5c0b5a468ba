package model

import "github.com/matrix-org/gomatrixserverlib/spec"

// EventMeta is the provenance of a model. Only Redacted changes after
// decode, and only through a store's redaction operation.
type EventMeta struct {
	EventID        string         `json:"event_id"`
	RoomID         string         `json:"room_id"`
	Sender         string         `json:"sender"`
	OriginServerTS spec.Timestamp `json:"origin_server_ts"`

	// Redacted holds the id of the redacting event.
	Redacted *string `json:"redacted,omitempty"`
}

// IsRedacted reports whether a later event redacted this one.
func (m EventMeta) IsRedacted() bool {
	return m.Redacted != nil
}

// Capability is a model-level feature flag callers check before offering
// an operation on the model.
type Capability string

const (
	CapCommentable    Capability = "commentable"
	CapHasAttachments Capability = "has_attachments"
	CapReactable      Capability = "reactable"
	CapReadTracking   Capability = "read_tracking"
	CapInvitable      Capability = "invitable"
)

package model

import "strconv"

// ChangeKind describes how a single field moved between the previous and
// the current content.
type ChangeKind string

const (
	ChangeSet     ChangeKind = "Set"
	ChangeChanged ChangeKind = "Changed"
	ChangeUnset   ChangeKind = "Unset"
)

// FieldChange is the change of one field. NewVal is nil for Unset; OldVal
// is nil for Set.
type FieldChange struct {
	Kind   ChangeKind `json:"kind"`
	NewVal *string    `json:"new_val,omitempty"`
	OldVal *string    `json:"old_val,omitempty"`
}

// diffField compares an optional field. It returns nil when nothing changed.
func diffField(newVal, oldVal *string) *FieldChange {
	switch {
	case newVal == nil && oldVal == nil:
		return nil
	case oldVal == nil:
		return &FieldChange{Kind: ChangeSet, NewVal: newVal}
	case newVal == nil:
		return &FieldChange{Kind: ChangeUnset, OldVal: oldVal}
	case *newVal == *oldVal:
		return nil
	default:
		return &FieldChange{Kind: ChangeChanged, NewVal: newVal, OldVal: oldVal}
	}
}

// optional treats the empty string as absent.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalBool(b bool) *string {
	s := strconv.FormatBool(b)
	return &s
}

// prevField extracts a field from optional previous content.
func prevField[T any](prev *T, get func(T) *string) *string {
	if prev == nil {
		return nil
	}
	return get(*prev)
}

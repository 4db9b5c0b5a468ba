// Package labels implements the label codec: a small set of tagged labels
// (type, tag, category, section) carried as an ordered list of
// "<prefix>:<value>" strings on a model's protocol representation.
package labels

import (
	"encoding/json"
	"slices"
	"strings"
)

// Recognized prefixes.
const (
	PrefixType    = "m.type"
	PrefixTag     = "m.tag"
	PrefixCat     = "m.cat"
	PrefixSection = "m.section"
)

// Labels is the decoded form of a label list.
//
// Msgtype is a singleton: when several m.type entries are present the first
// one wins and the rest land in Others verbatim. Others keeps every entry
// without a recognized prefix, in its original order.
type Labels struct {
	Msgtype    *string
	Tags       []string
	Categories []string
	Sections   []string
	Others     []string
}

// Encode renders l in the fixed order: m.type, tags, categories, sections,
// then others verbatim.
func Encode(l Labels) []string {
	out := make([]string, 0, 1+len(l.Tags)+len(l.Categories)+len(l.Sections)+len(l.Others))
	if l.Msgtype != nil {
		out = append(out, PrefixType+":"+*l.Msgtype)
	}
	for _, v := range l.Tags {
		out = append(out, PrefixTag+":"+v)
	}
	for _, v := range l.Categories {
		out = append(out, PrefixCat+":"+v)
	}
	for _, v := range l.Sections {
		out = append(out, PrefixSection+":"+v)
	}
	return append(out, l.Others...)
}

// Decode parses entries, splitting each on its first ':'.
//
// Entries in Others that happen to start with a recognized prefix are
// reinterpreted as labels; Decode(Encode(l)) == l holds only when Others
// holds no such entries.
func Decode(entries []string) Labels {
	var acc Labels
	for _, entry := range entries {
		acc = fold(acc, entry)
	}
	return acc
}

// fold adds one entry to the accumulator. Msgtype is never overwritten once set.
func fold(acc Labels, entry string) Labels {
	prefix, value, ok := strings.Cut(entry, ":")
	if !ok {
		acc.Others = append(acc.Others, entry)
		return acc
	}

	switch prefix {
	case PrefixType:
		if acc.Msgtype != nil {
			acc.Others = append(acc.Others, entry)
			return acc
		}
		acc.Msgtype = &value
	case PrefixTag:
		acc.Tags = append(acc.Tags, value)
	case PrefixCat:
		acc.Categories = append(acc.Categories, value)
	case PrefixSection:
		acc.Sections = append(acc.Sections, value)
	default:
		acc.Others = append(acc.Others, entry)
	}
	return acc
}

// Equal reports whether two label sets hold the same entries. Nil and empty
// collections compare equal.
func (l Labels) Equal(o Labels) bool {
	if (l.Msgtype == nil) != (o.Msgtype == nil) {
		return false
	}
	if l.Msgtype != nil && *l.Msgtype != *o.Msgtype {
		return false
	}
	return slices.Equal(l.Tags, o.Tags) &&
		slices.Equal(l.Categories, o.Categories) &&
		slices.Equal(l.Sections, o.Sections) &&
		slices.Equal(l.Others, o.Others)
}

// IsEmpty reports whether l carries no labels.
func (l Labels) IsEmpty() bool {
	return l.Msgtype == nil && len(l.Tags) == 0 && len(l.Categories) == 0 &&
		len(l.Sections) == 0 && len(l.Others) == 0
}

// MarshalJSON encodes l as its label list.
func (l Labels) MarshalJSON() ([]byte, error) {
	return json.Marshal(Encode(l))
}

// UnmarshalJSON decodes a label list.
func (l *Labels) UnmarshalJSON(data []byte) error {
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*l = Decode(entries)
	return nil
}

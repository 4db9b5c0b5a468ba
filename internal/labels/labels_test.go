package labels

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestEncodeOrder(t *testing.T) {
	l := Labels{
		Msgtype: ptr("m.message"),
		Tags:    []string{"dog"},
		Others:  []string{"free-text"},
	}

	assert.Equal(t, []string{"m.type:m.message", "m.tag:dog", "free-text"}, Encode(l))
}

func TestEncodeAllCollections(t *testing.T) {
	l := Labels{
		Msgtype:    ptr("news"),
		Tags:       []string{"a", "b"},
		Categories: []string{"work"},
		Sections:   []string{"tasks"},
		Others:     []string{"x", "y"},
	}

	assert.Equal(t, []string{
		"m.type:news",
		"m.tag:a", "m.tag:b",
		"m.cat:work",
		"m.section:tasks",
		"x", "y",
	}, Encode(l))
}

func TestEncodeEmpty(t *testing.T) {
	assert.Empty(t, Encode(Labels{}))
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		labels Labels
	}{
		{"empty", Labels{}},
		{"msgtype only", Labels{Msgtype: ptr("m.text")}},
		{"empty msgtype value", Labels{Msgtype: ptr("")}},
		{"tags keep order", Labels{Tags: []string{"z", "a", "m"}}},
		{"values containing colons", Labels{Tags: []string{"url:https://x"}, Sections: []string{"a:b"}}},
		{"full", Labels{
			Msgtype:    ptr("m.message"),
			Tags:       []string{"dog", "cat"},
			Categories: []string{"pets"},
			Sections:   []string{"boosts"},
			Others:     []string{"free-text", "other:prefix"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := Decode(Encode(tt.labels))
			assert.True(t, tt.labels.Equal(decoded), "got %+v", decoded)
		})
	}
}

func TestDecodeFirstMsgtypeWins(t *testing.T) {
	l := Decode([]string{"m.type:first", "m.tag:x", "m.type:second"})

	require.NotNil(t, l.Msgtype)
	assert.Equal(t, "first", *l.Msgtype)
	assert.Equal(t, []string{"x"}, l.Tags)
	assert.Equal(t, []string{"m.type:second"}, l.Others)
}

func TestDecodeUnrecognizedEntries(t *testing.T) {
	l := Decode([]string{"plain", "m.unknown:v", "m.tag:t", ":leading", "trailing:"})

	assert.Nil(t, l.Msgtype)
	assert.Equal(t, []string{"t"}, l.Tags)
	assert.Equal(t, []string{"plain", "m.unknown:v", ":leading", "trailing:"}, l.Others)
}

func TestDecodeSplitsOnFirstColon(t *testing.T) {
	l := Decode([]string{"m.cat:a:b:c"})
	assert.Equal(t, []string{"a:b:c"}, l.Categories)
}

func TestDecodeReinterpretsPrefixedOthers(t *testing.T) {
	// A free-text entry that looks like a label is read back as a label.
	l := Labels{Others: []string{"m.tag:looks-like-a-tag"}}
	decoded := Decode(Encode(l))

	assert.Equal(t, []string{"looks-like-a-tag"}, decoded.Tags)
	assert.Empty(t, decoded.Others)
	assert.False(t, l.Equal(decoded))
}

func TestJSONForm(t *testing.T) {
	l := Labels{Msgtype: ptr("m.message"), Tags: []string{"dog"}, Others: []string{"free-text"}}

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, `["m.type:m.message","m.tag:dog","free-text"]`, string(data))

	var parsed Labels
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, l.Equal(parsed))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Labels{}.IsEmpty())
	assert.True(t, Decode(nil).IsEmpty())
	assert.False(t, Labels{Others: []string{"x"}}.IsEmpty())
}

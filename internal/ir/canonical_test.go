package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", -100, "-100"},
		{"max int64", int64(9223372036854775807), "9223372036854775807"},
		{"bool", true, "true"},
		{"null", nil, "null"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array of ints", []int{1, 2, 3}, "[1,2,3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCanonicalizeSortsStructFields(t *testing.T) {
	type content struct {
		Topic  string `json:"topic"`
		Author string `json:"author"`
	}

	result, err := Canonicalize(content{Topic: "t", Author: "a"})
	require.NoError(t, err)
	assert.Equal(t, `{"author":"a","topic":"t"}`, string(result))
}

func TestCanonicalizeJSONNestedSortedKeys(t *testing.T) {
	result, err := CanonicalizeJSON([]byte(`{"z":{"b":1,"a":2},"a":3}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestCanonicalizeJSONUTF16Ordering(t *testing.T) {
	// UTF-16: 0xD800 < 0xE000, so the supplementary-plane key sorts first
	obj := map[string]any{
		"\uE000":     1,
		"\U00010000": 2,
	}

	result, err := Canonicalize(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestCanonicalizeNoHTMLEscape(t *testing.T) {
	result, err := Canonicalize(map[string]any{"body": "<b>a & b</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"body":"<b>a & b</b>"}`, string(result))
	assert.NotContains(t, string(result), "\\u003c")
	assert.NotContains(t, string(result), "\\u0026")
}

func TestCanonicalizeRejectsFloats(t *testing.T) {
	for _, input := range []string{`1.5`, `{"a":1e10}`, `[2E3]`} {
		_, err := CanonicalizeJSON([]byte(input))
		require.Error(t, err, input)
		assert.Contains(t, err.Error(), "floats are forbidden")
	}
}

func TestCanonicalizeLargeIntegers(t *testing.T) {
	// Above 2^53 float64 loses precision
	result, err := CanonicalizeJSON([]byte(`{"ts":9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, `{"ts":9007199254740993}`, string(result))
}

func TestCanonicalizeNFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed form
	result, err := Canonicalize("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestCanonicalizeJSONRejectsTrailingData(t *testing.T) {
	_, err := CanonicalizeJSON([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)
}

func TestCanonicalizeU2028U2029NotEscaped(t *testing.T) {
	result, err := Canonicalize("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
	assert.NotContains(t, string(result), `\u2028`)
	assert.NotContains(t, string(result), `\u2029`)
}

func TestCanonicalizeLiteralBackslashU2028(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"literal text", `escape is \u2028`, `"escape is \\u2028"`},
		{"mixed", "literal \\u2029 and actual \u2029", "\"literal \\\\u2029 and actual \u2029\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Canonicalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	inputs := []string{
		`{"b":[1,"two",false],"a":{"y":null,"x":"v"}}`,
		"[\"e\u0301\", {\"k\": 1}]",
		`"plain"`,
	}
	for _, input := range inputs {
		first, err := CanonicalizeJSON([]byte(input))
		require.NoError(t, err)
		second, err := CanonicalizeJSON(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func FuzzCanonicalizeIdempotent(f *testing.F) {
	f.Add(`{"a":1,"b":"test"}`)
	f.Add(`[1,2,3]`)
	f.Add(`{"nested":{"deep":{"value":123}}}`)

	f.Fuzz(func(t *testing.T, input string) {
		first, err := CanonicalizeJSON([]byte(input))
		if err != nil {
			t.Skip()
		}
		second, err := CanonicalizeJSON(first)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestCanonicalizePreservingKeepsStrings(t *testing.T) {
	result, err := CanonicalizePreserving(map[string]any{"b": "e\u0301", "a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1,\"b\":\"e\u0301\"}", string(result))

	_, err = CanonicalizePreserving(map[string]any{"f": 1.5})
	assert.Error(t, err)
}

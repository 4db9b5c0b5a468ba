package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashDeterminism(t *testing.T) {
	data := []byte(`{"topic":"new"}`)

	h1 := ContentHash(data)
	h2 := ContentHash(data)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestContentHashUsesDomainSeparation(t *testing.T) {
	data := []byte(`{"topic":"new"}`)
	assert.NotEqual(t, hashWithDomain("other/v1", data), ContentHash(data))
}

func TestCanonicalHashIgnoresKeyOrder(t *testing.T) {
	_, h1, err := CanonicalHash(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	_, h2, err := CanonicalHash(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestCanonicalHashChangesWithContent(t *testing.T) {
	_, h1, err := CanonicalHash(map[string]any{"topic": "old"})
	require.NoError(t, err)
	_, h2, err := CanonicalHash(map[string]any{"topic": "new"})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCanonicalHashRejectsFloats(t *testing.T) {
	_, _, err := CanonicalHash(map[string]any{"ratio": 0.5})
	require.Error(t, err)
}

func TestCanonicalHashPreservesStrings(t *testing.T) {
	decomposed, h1, err := CanonicalHash(map[string]any{"topic": "cafe\u0301"})
	require.NoError(t, err)
	composed, h2, err := CanonicalHash(map[string]any{"topic": "caf\u00e9"})
	require.NoError(t, err)

	assert.Equal(t, "{\"topic\":\"cafe\u0301\"}", string(decomposed))
	assert.Equal(t, "{\"topic\":\"caf\u00e9\"}", string(composed))
	assert.Equal(t, h1, h2, "hash is taken over the NFC form")
}

package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher("salt")
	digest := h.Hash("secret")

	assert.Len(t, digest, 128)
	assert.True(t, h.Equal("secret", digest))
	assert.False(t, h.Equal("other", digest))
	assert.NotEqual(t, digest, NewHasher("pepper").Hash("secret"))
}

func TestGenerate(t *testing.T) {
	a, err := Generate(32)
	require.NoError(t, err)
	b, err := Generate(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	_, err = Generate(0)
	assert.Error(t, err)
}

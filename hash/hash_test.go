package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromBytesRoundTrip(t *testing.T) {
	h := KV([]byte("a"), []byte("ayya"))
	b := h.Bytes()
	h2, err := FromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, h, h2)
}

func TestFromBytesBadLength(t *testing.T) {
	_, err := FromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestHexRoundTrip(t *testing.T) {
	h := KV([]byte("k"), []byte("v"))
	h2, err := FromHex(h.Hex())
	require.NoError(t, err)
	assert.Equal(t, h, h2)
}

func TestNodeHashZeroChildren(t *testing.T) {
	kv := KV([]byte("k"), []byte("v"))
	n1 := Node(kv, Zero, Zero)
	n2 := Node(kv, Zero, Zero)
	assert.Equal(t, n1, n2)
	assert.NotEqual(t, kv, n1)
}

func TestKVDifferentForDifferentInputs(t *testing.T) {
	a := KV([]byte("a"), []byte("ayya"))
	b := KV([]byte("a"), []byte("ayyb"))
	assert.NotEqual(t, a, b)
}

func TestZeroIsZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	nz := KV([]byte("x"), []byte("y"))
	assert.False(t, nz.IsZero())
}

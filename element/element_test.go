package element_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grovedb/grovedb/element"
	"github.com/grovedb/grovedb/hash"
	"github.com/grovedb/grovedb/merk"
	pebblestore "github.com/grovedb/grovedb/storage/pebble"
)

func openTestMerk(t *testing.T) *merk.Merk {
	t.Helper()
	dir, err := os.MkdirTemp("", "grovedb-element-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	backend, err := pebblestore.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := backend.GetContext([]byte("leaf"))
	m, err := merk.Open(context.Background(), store)
	require.NoError(t, err)
	return m
}

func TestEncodeDecodeItemRoundTrip(t *testing.T) {
	el := element.NewItem([]byte("hello"))
	decoded, err := element.Decode(element.Encode(el))
	require.NoError(t, err)
	require.Equal(t, el, decoded)
}

func TestEncodeDecodeReferenceRoundTrip(t *testing.T) {
	el := element.NewReference([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	decoded, err := element.Decode(element.Encode(el))
	require.NoError(t, err)
	require.Equal(t, el, decoded)
}

func TestEncodeDecodeEmptyReferenceRoundTrip(t *testing.T) {
	el := element.NewReference(nil)
	decoded, err := element.Decode(element.Encode(el))
	require.NoError(t, err)
	require.Equal(t, 0, len(decoded.Reference))
}

func TestEncodeDecodeTreeRoundTrip(t *testing.T) {
	h := hash.Combine([]byte("subtree-root"))
	el := element.NewTree(h)
	decoded, err := element.Decode(element.Encode(el))
	require.NoError(t, err)
	require.Equal(t, el, decoded)
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, err := element.Decode([]byte{0xFF})
	require.ErrorIs(t, err, element.ErrCorruptElement)
}

func TestGetInsertItemRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := openTestMerk(t)

	require.NoError(t, element.Insert(ctx, m, []byte("k"), element.NewItem([]byte("v"))))
	got, err := element.Get(ctx, m, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, element.NewItem([]byte("v")), got)
}

func TestGetMissingKey(t *testing.T) {
	ctx := context.Background()
	m := openTestMerk(t)
	_, err := element.Get(ctx, m, []byte("missing"))
	require.ErrorIs(t, err, element.ErrKeyNotFound)
}

func TestDeleteRemovesEntry(t *testing.T) {
	ctx := context.Background()
	m := openTestMerk(t)
	require.NoError(t, element.Insert(ctx, m, []byte("k"), element.NewItem([]byte("v"))))
	require.NoError(t, element.Delete(ctx, m, []byte("k")))
	_, err := element.Get(ctx, m, []byte("k"))
	require.ErrorIs(t, err, element.ErrKeyNotFound)
}

func TestInsertIfNotExists(t *testing.T) {
	ctx := context.Background()
	m := openTestMerk(t)

	inserted, err := element.InsertIfNotExists(ctx, m, []byte("k"), element.NewItem([]byte("first")))
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = element.InsertIfNotExists(ctx, m, []byte("k"), element.NewItem([]byte("second")))
	require.NoError(t, err)
	require.False(t, inserted)

	got, err := element.Get(ctx, m, []byte("k"))
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte("first"), got.Item))
}

func TestTreeElementUpdatesWithChildRoot(t *testing.T) {
	ctx := context.Background()
	parent := openTestMerk(t)
	child := openTestMerk(t)

	require.NoError(t, element.Insert(ctx, child, []byte("x"), element.NewItem([]byte("y"))))
	require.NoError(t, element.Insert(ctx, parent, []byte("child"), element.NewTree(child.RootHash())))

	before, err := element.Get(ctx, parent, []byte("child"))
	require.NoError(t, err)
	require.Equal(t, child.RootHash(), before.Tree)

	require.NoError(t, element.Insert(ctx, child, []byte("x2"), element.NewItem([]byte("y2"))))
	require.NoError(t, element.Insert(ctx, parent, []byte("child"), element.NewTree(child.RootHash())))

	after, err := element.Get(ctx, parent, []byte("child"))
	require.NoError(t, err)
	require.Equal(t, child.RootHash(), after.Tree)
	require.NotEqual(t, before.Tree, after.Tree)
}

package merk_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grovedb/grovedb/merk"
	"github.com/grovedb/grovedb/storage"
	pebblestore "github.com/grovedb/grovedb/storage/pebble"
)

func openTestMerk(t *testing.T) (*merk.Merk, storage.Context) {
	t.Helper()
	dir, err := os.MkdirTemp("", "grovedb-merk-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	backend, err := pebblestore.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := backend.GetContext([]byte("test-subtree"))
	m, err := merk.Open(context.Background(), store)
	require.NoError(t, err)
	return m, store
}

func TestEmptyTreeHasZeroRootHash(t *testing.T) {
	m, _ := openTestMerk(t)
	require.True(t, m.IsEmpty())
	require.True(t, m.RootHash().IsZero())
}

func TestPutThenGet(t *testing.T) {
	m, _ := openTestMerk(t)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, []merk.Op{{Key: []byte("k1"), Value: []byte("v1")}}))

	v, err := m.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))
	require.False(t, m.RootHash().IsZero())
}

func TestGetMissingKey(t *testing.T) {
	m, _ := openTestMerk(t)
	_, err := m.Get(context.Background(), []byte("nope"))
	require.ErrorIs(t, err, merk.ErrKeyNotFound)
}

func TestUpdateExistingKeyChangesRootHash(t *testing.T) {
	m, _ := openTestMerk(t)
	ctx := context.Background()
	require.NoError(t, m.Apply(ctx, []merk.Op{{Key: []byte("k"), Value: []byte("v1")}}))
	h1 := m.RootHash()

	require.NoError(t, m.Apply(ctx, []merk.Op{{Key: []byte("k"), Value: []byte("v2")}}))
	h2 := m.RootHash()

	require.NotEqual(t, h1, h2)
	v, err := m.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(v))
}

func TestDeleteRemovesKey(t *testing.T) {
	m, _ := openTestMerk(t)
	ctx := context.Background()
	require.NoError(t, m.Apply(ctx, []merk.Op{{Key: []byte("k"), Value: []byte("v")}}))
	require.NoError(t, m.Apply(ctx, []merk.Op{{Key: []byte("k"), Delete: true}}))

	_, err := m.Get(ctx, []byte("k"))
	require.ErrorIs(t, err, merk.ErrKeyNotFound)
	require.True(t, m.IsEmpty())
}

func TestLargeBatchStaysOrdered(t *testing.T) {
	m, _ := openTestMerk(t)
	ctx := context.Background()

	var ops []merk.Op
	for i := 0; i < 500; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		ops = append(ops, merk.Op{Key: key, Value: []byte(fmt.Sprintf("val-%d", i))})
	}
	require.NoError(t, m.Apply(ctx, ops))

	for i := 0; i < 500; i++ {
		key := []byte(fmt.Sprintf("key-%04d", i))
		v, err := m.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("val-%d", i), string(v))
	}

	leaves, err := m.DumpLeaves(ctx)
	require.NoError(t, err)
	require.Len(t, leaves, 500)
	for i := 1; i < len(leaves); i++ {
		require.True(t, string(leaves[i-1].Key) < string(leaves[i].Key))
	}
}

func TestRootHashPersistsAcrossReopen(t *testing.T) {
	dir, err := os.MkdirTemp("", "grovedb-merk-reopen-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	ctx := context.Background()

	backend, err := pebblestore.Open(dir)
	require.NoError(t, err)

	store := backend.GetContext([]byte("s"))
	m, err := merk.Open(ctx, store)
	require.NoError(t, err)
	require.NoError(t, m.Apply(ctx, []merk.Op{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("c"), Value: []byte("3")},
	}))
	before := m.RootHash()
	require.NoError(t, backend.Close())

	backend2, err := pebblestore.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend2.Close() })

	store2 := backend2.GetContext([]byte("s"))
	m2, err := merk.Open(ctx, store2)
	require.NoError(t, err)
	require.Equal(t, before, m2.RootHash())

	v, err := m2.Get(ctx, []byte("b"))
	require.NoError(t, err)
	require.Equal(t, "2", string(v))
}

func TestDumpAndImportLeaves(t *testing.T) {
	m, store := openTestMerk(t)
	ctx := context.Background()
	require.NoError(t, m.Apply(ctx, []merk.Op{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	}))
	dumped, err := m.DumpLeaves(ctx)
	require.NoError(t, err)

	m2, err := merk.Open(ctx, store)
	require.NoError(t, err)
	require.NoError(t, merk.ImportDumpedLeaves(ctx, m2, dumped))
	require.Equal(t, m.RootHash(), m2.RootHash())
}

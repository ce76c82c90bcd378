package pebble

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grovedb/grovedb/storage"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	dir, err := os.MkdirTemp("", "grovedb-pebble-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	b, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestPutGetDeletePerColumnFamily(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	c := b.GetContext([]byte("subtree/a"))

	for _, cf := range []storage.ColumnFamily{storage.CFDefault, storage.CFAux, storage.CFRoots, storage.CFMeta} {
		require.NoError(t, c.Put(ctx, cf, []byte("k"), []byte(cf.String())))
	}
	for _, cf := range []storage.ColumnFamily{storage.CFDefault, storage.CFAux, storage.CFRoots, storage.CFMeta} {
		v, err := c.Get(ctx, cf, []byte("k"))
		require.NoError(t, err)
		require.Equal(t, cf.String(), string(v))
	}

	require.NoError(t, c.Delete(ctx, storage.CFDefault, []byte("k")))
	v, err := c.Get(ctx, storage.CFDefault, []byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestGetMissingKeyReturnsNilNotError(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	c := b.GetContext([]byte("subtree"))

	v, err := c.Get(ctx, storage.CFDefault, []byte("nope"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestContextsAreIsolatedByPrefix(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	a := b.GetContext([]byte("a"))
	other := b.GetContext([]byte("b"))

	require.NoError(t, a.Put(ctx, storage.CFDefault, []byte("k"), []byte("v")))

	v, err := other.Get(ctx, storage.CFDefault, []byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestBatchAppliesAtomically(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	c := b.GetContext([]byte("subtree"))

	batch := c.NewBatch()
	batch.Put(storage.CFDefault, []byte("k1"), []byte("v1"))
	batch.Put(storage.CFAux, []byte("k2"), []byte("v2"))
	batch.Delete(storage.CFDefault, []byte("k3"))
	require.NoError(t, c.CommitBatch(ctx, batch))

	v1, err := c.Get(ctx, storage.CFDefault, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(v1))

	v2, err := c.Get(ctx, storage.CFAux, []byte("k2"))
	require.NoError(t, err)
	require.Equal(t, "v2", string(v2))
}

func TestTransactionReadsOwnWritesButIsolatedUntilCommit(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	outside := b.GetContext([]byte("subtree"))

	txn, err := b.BeginTransaction(ctx)
	require.NoError(t, err)
	txCtx := txn.Context([]byte("subtree"))

	require.NoError(t, txCtx.Put(ctx, storage.CFDefault, []byte("k"), []byte("v")))

	// Visible within the transaction's own context.
	v, err := txCtx.Get(ctx, storage.CFDefault, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v", string(v))

	// Not yet visible from outside.
	v, err = outside.Get(ctx, storage.CFDefault, []byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, txn.Commit(ctx))

	v, err = outside.Get(ctx, storage.CFDefault, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, "v", string(v))
}

func TestTransactionRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	outside := b.GetContext([]byte("subtree"))

	txn, err := b.BeginTransaction(ctx)
	require.NoError(t, err)
	txCtx := txn.Context([]byte("subtree"))
	require.NoError(t, txCtx.Put(ctx, storage.CFDefault, []byte("k"), []byte("v")))
	require.NoError(t, txn.Rollback())

	v, err := outside.Get(ctx, storage.CFDefault, []byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestRawIteratorScopedToPrefixAscendingOrder(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	c := b.GetContext([]byte("p"))
	other := b.GetContext([]byte("q"))

	for _, k := range []string{"b", "a", "c"} {
		require.NoError(t, c.Put(ctx, storage.CFDefault, []byte(k), []byte(k)))
	}
	require.NoError(t, other.Put(ctx, storage.CFDefault, []byte("z"), []byte("z")))

	it, err := c.RawIter(ctx)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for it.SeekToFirst(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestRawIteratorSeekAndSeekForPrev(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	c := b.GetContext([]byte("p"))

	for _, k := range []string{"a", "c", "e"} {
		require.NoError(t, c.Put(ctx, storage.CFDefault, []byte(k), []byte(k)))
	}

	it, err := c.RawIter(ctx)
	require.NoError(t, err)
	defer it.Close()

	it.Seek([]byte("b"))
	require.True(t, it.Valid())
	require.Equal(t, "c", string(it.Key()))

	it.SeekForPrev([]byte("d"))
	require.True(t, it.Valid())
	require.Equal(t, "c", string(it.Key()))

	it.SeekForPrev([]byte("c"))
	require.True(t, it.Valid())
	require.Equal(t, "c", string(it.Key()))

	it.Seek([]byte("z"))
	require.False(t, it.Valid())
}

func TestListRespectsLimit(t *testing.T) {
	ctx := context.Background()
	b := openTestBackend(t)
	c := b.GetContext([]byte("p"))
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, c.Put(ctx, storage.CFDefault, []byte(k), []byte(k)))
	}

	kvs, err := c.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, kvs, 2)
}

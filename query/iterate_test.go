package query_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grovedb/grovedb/merk"
	"github.com/grovedb/grovedb/query"
	"github.com/grovedb/grovedb/storage"
	pebblestore "github.com/grovedb/grovedb/storage/pebble"
)

func openPopulatedStore(t *testing.T, keys []string) storage.Context {
	t.Helper()
	dir, err := os.MkdirTemp("", "grovedb-query-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	backend, err := pebblestore.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	store := backend.GetContext([]byte("q"))
	ctx := context.Background()
	m, err := merk.Open(ctx, store)
	require.NoError(t, err)

	var ops []merk.Op
	for _, k := range keys {
		ops = append(ops, merk.Op{Key: []byte(k), Value: []byte("v-" + k)})
	}
	require.NoError(t, m.Apply(ctx, ops))
	return store
}

func keysOf(results []query.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = string(r.Key)
	}
	return out
}

func TestRunRangeQueryAscending(t *testing.T) {
	store := openPopulatedStore(t, []string{"a", "b", "c", "d", "e"})
	q := query.New()
	q.InsertItem(query.Range([]byte("b"), []byte("e")))

	results, err := query.Run(context.Background(), store, query.SizedQuery{Query: q})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c", "d"}, keysOf(results))
}

func TestRunRangeInclusive(t *testing.T) {
	store := openPopulatedStore(t, []string{"a", "b", "c", "d", "e"})
	q := query.New()
	q.InsertItem(query.RangeInclusive([]byte("b"), []byte("d")))

	results, err := query.Run(context.Background(), store, query.SizedQuery{Query: q})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c", "d"}, keysOf(results))
}

func TestRunDescendingOrder(t *testing.T) {
	store := openPopulatedStore(t, []string{"a", "b", "c", "d", "e"})
	q := query.New()
	q.LeftToRight = false
	q.InsertItem(query.RangeFull())

	results, err := query.Run(context.Background(), store, query.SizedQuery{Query: q})
	require.NoError(t, err)
	require.Equal(t, []string{"e", "d", "c", "b", "a"}, keysOf(results))
}

func TestRunLimitAndOffset(t *testing.T) {
	store := openPopulatedStore(t, []string{"a", "b", "c", "d", "e"})
	q := query.New()
	q.InsertItem(query.RangeFull())

	limit := uint32(2)
	offset := uint32(1)
	results, err := query.Run(context.Background(), store, query.SizedQuery{
		Query: q, Limit: &limit, Offset: &offset,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, keysOf(results))
}

func TestRunMergedDisjointRanges(t *testing.T) {
	var keys []string
	for i := 0; i < 10; i++ {
		keys = append(keys, fmt.Sprintf("k%d", i))
	}
	store := openPopulatedStore(t, keys)

	q := query.New()
	q.InsertItem(query.Range([]byte("k0"), []byte("k2"))) // k0, k1
	q.InsertItem(query.Key([]byte("k5")))

	results, err := query.Run(context.Background(), store, query.SizedQuery{Query: q})
	require.NoError(t, err)
	require.Equal(t, []string{"k0", "k1", "k5"}, keysOf(results))
}

func TestRunValuesAreDecoded(t *testing.T) {
	store := openPopulatedStore(t, []string{"a"})
	q := query.New()
	q.InsertItem(query.Key([]byte("a")))

	results, err := query.Run(context.Background(), store, query.SizedQuery{Query: q})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "v-a", string(results[0].Value))
}

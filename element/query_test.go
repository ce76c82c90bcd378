package element_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grovedb/grovedb/element"
	"github.com/grovedb/grovedb/grovedberrors"
	"github.com/grovedb/grovedb/merk"
	"github.com/grovedb/grovedb/query"
	"github.com/grovedb/grovedb/storage"
	pebblestore "github.com/grovedb/grovedb/storage/pebble"
)

// testDB is a minimal multi-subtree harness for exercising element's
// query integration: it opens one pebble backend and hands out a distinct,
// cached Merk per path, the same shape grove.Database's open method
// provides in production.
type testDB struct {
	backend *pebblestore.Backend
	merks   map[string]*merk.Merk
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()
	dir, err := os.MkdirTemp("", "grovedb-element-query-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	backend, err := pebblestore.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	return &testDB{backend: backend, merks: map[string]*merk.Merk{}}
}

func prefixFor(path [][]byte) []byte {
	return bytes.Join(path, []byte{0})
}

func (db *testDB) open(ctx context.Context, path [][]byte) (*merk.Merk, storage.Context, error) {
	key := string(prefixFor(path))
	store := db.backend.GetContext(prefixFor(path))
	if m, ok := db.merks[key]; ok {
		return m, store, nil
	}
	m, err := merk.Open(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	db.merks[key] = m
	return m, store, nil
}

func (db *testDB) put(t *testing.T, path [][]byte, key []byte, el element.Element) {
	t.Helper()
	ctx := context.Background()
	m, _, err := db.open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, element.Insert(ctx, m, key, el))
}

func itemsOf(els []element.Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = string(el.Item)
	}
	return out
}

func populateTestLeaf(t *testing.T, db *testDB) [][]byte {
	path := [][]byte{[]byte("TEST_LEAF")}
	db.put(t, path, []byte("a"), element.NewItem([]byte("ayya")))
	db.put(t, path, []byte("b"), element.NewItem([]byte("ayyb")))
	db.put(t, path, []byte("c"), element.NewItem([]byte("ayyc")))
	db.put(t, path, []byte("d"), element.NewItem([]byte("ayyd")))
	return path
}

// spec.md §8 scenario 1: Query{keys: {a, c}} returns [ayya, ayyc].
func TestGetQueryKeySet(t *testing.T) {
	db := newTestDB(t)
	path := populateTestLeaf(t, db)

	q := query.New()
	q.InsertItem(query.Key([]byte("a")))
	q.InsertItem(query.Key([]byte("c")))

	els, err := element.GetQuery(context.Background(), db.open, path, q)
	require.NoError(t, err)
	require.Equal(t, []string{"ayya", "ayyc"}, itemsOf(els))
}

// spec.md §8 scenario 2: Range(b..d) and RangeInclusive(b..=d).
func TestGetQueryRangeVariants(t *testing.T) {
	db := newTestDB(t)
	path := populateTestLeaf(t, db)

	half := query.New()
	half.InsertItem(query.Range([]byte("b"), []byte("d")))
	els, err := element.GetQuery(context.Background(), db.open, path, half)
	require.NoError(t, err)
	require.Equal(t, []string{"ayyb", "ayyc"}, itemsOf(els))

	inclusive := query.New()
	inclusive.InsertItem(query.RangeInclusive([]byte("b"), []byte("d")))
	els, err = element.GetQuery(context.Background(), db.open, path, inclusive)
	require.NoError(t, err)
	require.Equal(t, []string{"ayyb", "ayyc", "ayyd"}, itemsOf(els))
}

// spec.md §8 scenario 3: overlapping Key(a)+Range(b..d)+Range(a..c) merges
// into effectively [a..=c], returning [ayya, ayyb, ayyc].
func TestGetQueryOverlappingItemsMerge(t *testing.T) {
	db := newTestDB(t)
	path := populateTestLeaf(t, db)

	q := query.New()
	q.InsertItem(query.Key([]byte("a")))
	q.InsertItem(query.Range([]byte("b"), []byte("d")))
	q.InsertItem(query.Range([]byte("a"), []byte("c")))
	require.Len(t, q.Items(), 1)

	els, err := element.GetQuery(context.Background(), db.open, path, q)
	require.NoError(t, err)
	require.Equal(t, []string{"ayya", "ayyb", "ayyc"}, itemsOf(els))
}

// spec.md §8 scenario 4: Range(b..d) merged with Range(a..c) into a single
// [a,d) span, limit=2, offset=1, reverse returns [ayyb, ayya] with one
// entry skipped (grounded on original_source/grovedb/src/subtree.rs's
// equivalent backwards-range-with-offset test).
func TestGetSizedQueryLimitOffsetReverse(t *testing.T) {
	db := newTestDB(t)
	path := populateTestLeaf(t, db)

	q := query.New()
	q.LeftToRight = false
	q.InsertItem(query.Range([]byte("b"), []byte("d")))
	q.InsertItem(query.Range([]byte("a"), []byte("c")))

	limit := uint32(2)
	offset := uint32(1)
	els, limitUsed, offsetUsed, err := element.GetPathQuery(context.Background(), db.open, query.PathQuery{
		Path: path,
		Query: query.SizedQuery{
			Query: q, Limit: &limit, Offset: &offset,
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ayyb", "ayya"}, itemsOf(els))
	require.Equal(t, uint32(1), offsetUsed)
	require.Equal(t, uint32(2), limitUsed)
}

func TestGetPathQueryRecursesIntoNestedSubquery(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	leafPath := [][]byte{[]byte("TEST_LEAF"), []byte("inner")}
	db.put(t, leafPath, []byte("key1"), element.NewItem([]byte("value1")))

	innerMerk, _, err := db.open(ctx, leafPath)
	require.NoError(t, err)

	topPath := [][]byte{[]byte("TEST_LEAF")}
	db.put(t, topPath, []byte("inner"), element.NewTree(innerMerk.RootHash()))

	sub := query.New()
	sub.InsertItem(query.Key([]byte("key1")))

	outer := query.New()
	outer.InsertItem(query.Key([]byte("inner")))
	outer.Subquery = sub

	els, err := element.GetQuery(ctx, db.open, topPath, outer)
	require.NoError(t, err)
	require.Equal(t, []string{"value1"}, itemsOf(els))
}

func TestGetPathQuerySubqueryKeyDirectGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	leafPath := [][]byte{[]byte("TEST_LEAF"), []byte("inner")}
	db.put(t, leafPath, []byte("only"), element.NewItem([]byte("onlyval")))

	innerMerk, _, err := db.open(ctx, leafPath)
	require.NoError(t, err)

	topPath := [][]byte{[]byte("TEST_LEAF")}
	db.put(t, topPath, []byte("inner"), element.NewTree(innerMerk.RootHash()))

	outer := query.New()
	outer.InsertItem(query.Key([]byte("inner")))
	outer.SubqueryKey = []byte("only")

	els, err := element.GetQuery(ctx, db.open, topPath, outer)
	require.NoError(t, err)
	require.Equal(t, []string{"onlyval"}, itemsOf(els))
}

func TestGetPathQueryTreeWithoutSubqueryErrors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	leafPath := [][]byte{[]byte("TEST_LEAF"), []byte("inner")}
	innerMerk, _, err := db.open(ctx, leafPath)
	require.NoError(t, err)

	topPath := [][]byte{[]byte("TEST_LEAF")}
	db.put(t, topPath, []byte("inner"), element.NewTree(innerMerk.RootHash()))

	q := query.New()
	q.InsertItem(query.Key([]byte("inner")))

	_, err = element.GetQuery(ctx, db.open, topPath, q)
	require.Error(t, err)
	require.True(t, grovedberrors.Is(err, grovedberrors.KindMissingParameter))
}

package query

import (
	"bytes"
	"context"

	"github.com/grovedb/grovedb/merk"
	"github.com/grovedb/grovedb/storage"
)

// Result is one matched key/value pair.
type Result struct {
	Key   []byte
	Value []byte
}

// Run executes sq against store's default column family (where element
// nodes live), honoring the query's scan direction and the SizedQuery's
// limit and offset. Offset entries are skipped without counting against
// limit. See spec.md §4.3 "Materialization".
func Run(ctx context.Context, store storage.Context, sq SizedQuery) ([]Result, error) {
	it, err := store.RawIter(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	items := sq.Query.Items()
	ascending := sq.Query.LeftToRight
	if !ascending {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	var offset uint32
	if sq.Offset != nil {
		offset = *sq.Offset
	}
	var limit *uint32
	if sq.Limit != nil {
		l := *sq.Limit
		limit = &l
	}

	var out []Result
	for _, item := range items {
		if limit != nil && *limit == 0 {
			break
		}
		stop, err := scanItem(it, item, ascending, &offset, limit, &out)
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
	}
	return out, nil
}

// scanItem walks item's bound in the given direction, applying offset/limit
// bookkeeping, and reports whether the overall scan should stop (limit
// exhausted).
func scanItem(it storage.RawIterator, item QueryItem, ascending bool, offset *uint32, limit *uint32, out *[]Result) (bool, error) {
	seekForIter(it, item, ascending)
	for it.Valid() {
		key := it.Key()
		if !item.Contains(key) {
			return false, nil
		}
		if !IterValidForType(it) {
			advance(it, ascending)
			continue
		}
		if *offset > 0 {
			*offset--
			advance(it, ascending)
			continue
		}
		value, err := merk.ValueFromRaw(it.Value())
		if err != nil {
			return false, err
		}
		*out = append(*out, Result{Key: append([]byte(nil), key...), Value: value})
		if limit != nil {
			*limit--
			if *limit == 0 {
				return true, nil
			}
		}
		advance(it, ascending)
	}
	return false, nil
}

// seekForIter positions it at the first entry the scan should consider,
// given item's bound and the scan direction.
func seekForIter(it storage.RawIterator, item QueryItem, ascending bool) {
	lo, hi := item.lower(), item.upper()
	if ascending {
		if lo.negInf {
			it.SeekToFirst()
			return
		}
		it.Seek(lo.key)
		if lo.order > 0 && it.Valid() && bytes.Equal(it.Key(), lo.key) {
			it.Next()
		}
		return
	}
	if hi.posInf {
		it.SeekToLast()
		return
	}
	it.SeekForPrev(hi.key)
	if hi.order < 0 && it.Valid() && bytes.Equal(it.Key(), hi.key) {
		it.Prev()
	}
}

func advance(it storage.RawIterator, ascending bool) {
	if ascending {
		it.Next()
	} else {
		it.Prev()
	}
}

// IterValidForType reports whether the iterator's current entry should be
// considered a match candidate at all. Every stored node is a live element
// in this tree, so this is always true for now; the hook exists for parity
// with spec.md §4.3's validity predicate, ready to filter by element kind
// if a future representation (e.g. tombstones) needs it.
func IterValidForType(it storage.RawIterator) bool {
	return it.Valid()
}

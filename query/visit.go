package query

import (
	"context"

	"github.com/grovedb/grovedb/merk"
	"github.com/grovedb/grovedb/storage"
)

// VisitFunc is called once per candidate key/value a query's items match,
// in scan order, before any offset/limit bookkeeping is applied to it. It
// is told how much offset and limit budget remain (remainingLimit is nil
// when the query is unbounded) and reports how much of each the candidate
// actually consumed.
//
// Run's own offset-then-limit bookkeeping ("skip while offset>0, otherwise
// append and decrement limit") is just one possible VisitFunc — the one
// Run itself uses. The element layer needs a different one: when a
// candidate decodes to a Tree element with a subquery, the whole remaining
// offset/limit budget is handed to a nested recursion, and whatever that
// recursion reports consuming is what this candidate consumed, which may
// be far more than one slot. See spec.md §4.3 "Path-query descent".
type VisitFunc func(key, value []byte, remainingOffset uint32, remainingLimit *uint32) (offsetConsumed, limitConsumed uint32, err error)

// Visit drives the same candidate enumeration as Run (item merge order,
// scan direction, per-item seek/step) but defers all offset/limit
// accounting to visit instead of baking in Run's one-slot-per-candidate
// rule.
func Visit(ctx context.Context, store storage.Context, sq SizedQuery, visit VisitFunc) error {
	it, err := store.RawIter(ctx)
	if err != nil {
		return err
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

	for _, item := range items {
		if limit != nil && *limit == 0 {
			break
		}
		stop, err := visitItem(it, item, ascending, &offset, limit, visit)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

func visitItem(it storage.RawIterator, item QueryItem, ascending bool, offset *uint32, limit *uint32, visit VisitFunc) (bool, error) {
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
		if limit != nil && *limit == 0 {
			return true, nil
		}

		value, err := merk.ValueFromRaw(it.Value())
		if err != nil {
			return false, err
		}

		offsetUsed, limitUsed, err := visit(append([]byte(nil), key...), value, *offset, limit)
		if err != nil {
			return false, err
		}
		if offsetUsed > *offset {
			offsetUsed = *offset
		}
		*offset -= offsetUsed
		if limit != nil {
			if limitUsed > *limit {
				limitUsed = *limit
			}
			*limit -= limitUsed
		}

		advance(it, ascending)
		if limit != nil && *limit == 0 {
			return true, nil
		}
	}
	return false, nil
}

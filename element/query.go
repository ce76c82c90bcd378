package element

import (
	"context"
	"errors"

	"github.com/grovedb/grovedb/grovedberrors"
	"github.com/grovedb/grovedb/merk"
	"github.com/grovedb/grovedb/query"
	"github.com/grovedb/grovedb/storage"
)

// OpenFunc opens the Merk tree and storage context backing the subtree at
// path. Supplied by the outer façade (package grove), which owns deriving
// a subtree's storage prefix from its path — the element layer only needs
// to be handed one, per spec.md Design Note "Dynamic dispatch".
type OpenFunc func(ctx context.Context, path [][]byte) (*merk.Merk, storage.Context, error)

// GetQuery runs q against the subtree at path with no limit or offset,
// returning every matched Element (recursing through any nested Tree
// elements q's Subquery/SubqueryKey name). See spec.md §4.4.
func GetQuery(ctx context.Context, open OpenFunc, path [][]byte, q *query.Query) ([]Element, error) {
	els, err := GetSizedQuery(ctx, open, path, query.SizedQuery{Query: q})
	return els, err
}

// GetSizedQuery runs sq against the subtree at path.
func GetSizedQuery(ctx context.Context, open OpenFunc, path [][]byte, sq query.SizedQuery) ([]Element, error) {
	els, _, _, err := GetPathQuery(ctx, open, query.PathQuery{Path: path, Query: sq})
	return els, err
}

// GetPathQuery runs pq against the subtree it names, recursing into any
// matched Tree element per its Query's Subquery/SubqueryKey, and reports
// how many limit and offset slots this level of recursion consumed —
// spec.md §8's "Path-query accounting" invariant, limitConsumed +
// offsetConsumed = len(elements) + skipped, is maintained by construction
// at every level: query.Visit only ever reports consumption exactly as
// basicPush/treePush compute it below.
func GetPathQuery(ctx context.Context, open OpenFunc, pq query.PathQuery) (elements []Element, limitConsumed, offsetConsumed uint32, err error) {
	_, store, err := open(ctx, pq.Path)
	if err != nil {
		return nil, 0, 0, err
	}

	var results []Element
	var limitUsed, offsetUsed uint32

	visit := func(key, value []byte, remainingOffset uint32, remainingLimit *uint32) (uint32, uint32, error) {
		el, err := Decode(value)
		if err != nil {
			return 0, 0, err
		}

		if el.Kind == KindTree {
			offsetConsumedHere, limitConsumedHere, pushed, err := treePush(ctx, open, pq, key, remainingOffset, remainingLimit)
			if err != nil {
				return 0, 0, err
			}
			results = append(results, pushed...)
			offsetUsed += offsetConsumedHere
			limitUsed += limitConsumedHere
			return offsetConsumedHere, limitConsumedHere, nil
		}

		offsetConsumedHere, limitConsumedHere, keep := basicPush(remainingOffset)
		if keep {
			results = append(results, el)
		}
		offsetUsed += offsetConsumedHere
		limitUsed += limitConsumedHere
		return offsetConsumedHere, limitConsumedHere, nil
	}

	if err := query.Visit(ctx, store, pq.Query, visit); err != nil {
		return nil, 0, 0, err
	}
	return results, limitUsed, offsetUsed, nil
}

// basicPush implements spec.md §4.3's basic_push: offset-before-limit. A
// nonzero remaining offset consumes one offset slot and discards the
// element; otherwise the element is kept and consumes one limit slot.
func basicPush(remainingOffset uint32) (offsetConsumed, limitConsumed uint32, keep bool) {
	if remainingOffset > 0 {
		return 1, 0, false
	}
	return 0, 1, true
}

// treePush implements spec.md §4.3's path_query_push for a matched Tree
// element: descend into the nested subtree at path+key (optionally
// +SubqueryKey) and run the Subquery there, inheriting the caller's
// current remaining offset/limit, or perform a direct single-key get when
// only SubqueryKey is set. It is an error for a Tree element to be matched
// by a query with neither Subquery nor SubqueryKey set.
func treePush(ctx context.Context, open OpenFunc, pq query.PathQuery, key []byte, remainingOffset uint32, remainingLimit *uint32) (offsetConsumed, limitConsumed uint32, elements []Element, err error) {
	nextPath := append(append([][]byte(nil), pq.Path...), append([]byte(nil), key...))

	q := pq.Query.Query
	switch {
	case q.Subquery != nil:
		innerPath := nextPath
		if q.SubqueryKey != nil {
			innerPath = append(append([][]byte(nil), nextPath...), q.SubqueryKey)
		}
		innerSQ := query.SizedQuery{Query: q.Subquery, Offset: &remainingOffset}
		if remainingLimit != nil {
			l := *remainingLimit
			innerSQ.Limit = &l
		}
		els, limitUsed, offsetUsed, err := GetPathQuery(ctx, open, query.PathQuery{Path: innerPath, Query: innerSQ})
		if err != nil {
			return 0, 0, nil, err
		}
		return offsetUsed, limitUsed, els, nil

	case q.SubqueryKey != nil:
		if remainingOffset > 0 {
			return 1, 0, nil, nil
		}
		m, _, err := open(ctx, nextPath)
		if err != nil {
			return 0, 0, nil, err
		}
		el, err := Get(ctx, m, q.SubqueryKey)
		if errors.Is(err, ErrKeyNotFound) {
			return 0, 0, nil, nil
		}
		if err != nil {
			return 0, 0, nil, err
		}
		return 0, 1, []Element{el}, nil

	default:
		return 0, 0, nil, grovedberrors.New(
			grovedberrors.KindMissingParameter,
			"must provide subquery or subquery_key when interacting with a tree of trees",
		)
	}
}

// Package query implements the QueryItem/Query/PathQuery algebra and the
// iteration driver that runs a query against a storage.Context's raw
// iterator. See spec.md §3 "QueryItem, Query, SizedQuery, PathQuery" and
// §4.3 "Query Engine".
package query

import "bytes"

// Kind discriminates the shape of a QueryItem's bound.
type Kind int

const (
	KindKey Kind = iota
	KindRange
	KindRangeInclusive
	KindRangeFull
	KindRangeFrom
	KindRangeTo
	KindRangeToInclusive
	KindRangeAfter
	KindRangeAfterTo
	KindRangeAfterToInclusive
)

// QueryItem is one bound or range of keys to match, as a tagged variant
// rather than a Go interface hierarchy (spec.md Design Note "Dynamic
// dispatch" — plain data, plain functions).
type QueryItem struct {
	Kind  Kind
	Start []byte
	End   []byte
}

func Key(k []byte) QueryItem                      { return QueryItem{Kind: KindKey, Start: k} }
func Range(start, end []byte) QueryItem            { return QueryItem{Kind: KindRange, Start: start, End: end} }
func RangeInclusive(start, end []byte) QueryItem   { return QueryItem{Kind: KindRangeInclusive, Start: start, End: end} }
func RangeFull() QueryItem                         { return QueryItem{Kind: KindRangeFull} }
func RangeFrom(start []byte) QueryItem             { return QueryItem{Kind: KindRangeFrom, Start: start} }
func RangeTo(end []byte) QueryItem                 { return QueryItem{Kind: KindRangeTo, End: end} }
func RangeToInclusive(end []byte) QueryItem        { return QueryItem{Kind: KindRangeToInclusive, End: end} }
func RangeAfter(start []byte) QueryItem            { return QueryItem{Kind: KindRangeAfter, Start: start} }
func RangeAfterTo(start, end []byte) QueryItem     { return QueryItem{Kind: KindRangeAfterTo, Start: start, End: end} }
func RangeAfterToInclusive(start, end []byte) QueryItem {
	return QueryItem{Kind: KindRangeAfterToInclusive, Start: start, End: end}
}

// endpoint is an (key, tie-break order) pair used to compare lower and
// upper bounds uniformly, including unbounded (-inf/+inf) ends. For equal
// keys, a lower-inclusive bound sorts before a lower-exclusive one, and an
// upper-exclusive bound sorts before an upper-inclusive one — matching how
// an inclusive start/end behaves relative to an adjacent exclusive one.
type endpoint struct {
	negInf bool
	posInf bool
	key    []byte
	order  int
}

func compareEndpoints(a, b endpoint) int {
	switch {
	case a.negInf && b.negInf:
		return 0
	case a.negInf:
		return -1
	case b.negInf:
		return 1
	case a.posInf && b.posInf:
		return 0
	case a.posInf:
		return 1
	case b.posInf:
		return -1
	}
	if c := bytes.Compare(a.key, b.key); c != 0 {
		return c
	}
	switch {
	case a.order < b.order:
		return -1
	case a.order > b.order:
		return 1
	default:
		return 0
	}
}

// lower returns this item's lower endpoint.
func (q QueryItem) lower() endpoint {
	switch q.Kind {
	case KindKey:
		return endpoint{key: q.Start, order: 0}
	case KindRange, KindRangeInclusive, KindRangeFrom:
		return endpoint{key: q.Start, order: 0}
	case KindRangeAfter, KindRangeAfterTo, KindRangeAfterToInclusive:
		return endpoint{key: q.Start, order: 1}
	default: // RangeFull, RangeTo, RangeToInclusive
		return endpoint{negInf: true}
	}
}

// upper returns this item's upper endpoint.
func (q QueryItem) upper() endpoint {
	switch q.Kind {
	case KindKey:
		return endpoint{key: q.Start, order: 0}
	case KindRange:
		return endpoint{key: q.End, order: -1}
	case KindRangeInclusive, KindRangeToInclusive, KindRangeAfterToInclusive:
		return endpoint{key: q.End, order: 0}
	case KindRangeTo, KindRangeAfterTo:
		return endpoint{key: q.End, order: -1}
	default: // RangeFull, RangeFrom, RangeAfter
		return endpoint{posInf: true}
	}
}

// Contains reports whether key falls within q's bound.
func (q QueryItem) Contains(key []byte) bool {
	lo, hi := q.lower(), q.upper()
	point := endpoint{key: key}
	return compareEndpoints(lo, point) <= 0 && compareEndpoints(point, hi) <= 0
}

// LowerBefore reports whether q's lower bound lies strictly before key —
// used by proof construction to decide whether a node's left subtree still
// needs to be searched for the rest of an item straddling the node's key.
func (q QueryItem) LowerBefore(key []byte) bool {
	return compareEndpoints(q.lower(), endpoint{key: key}) < 0
}

// UpperAfter reports whether q's upper bound lies strictly after key — the
// right-subtree counterpart of LowerBefore.
func (q QueryItem) UpperAfter(key []byte) bool {
	return compareEndpoints(endpoint{key: key}, q.upper()) < 0
}

// CompareKey reports where key falls relative to q's span: -1 if key lies
// strictly below q's lower bound, +1 if strictly above q's upper bound, 0
// if key falls within [lower, upper]. Used to binary-search a sorted,
// non-overlapping []QueryItem by key during proof construction.
func (q QueryItem) CompareKey(key []byte) int {
	point := endpoint{key: key}
	if compareEndpoints(point, q.lower()) < 0 {
		return -1
	}
	if compareEndpoints(q.upper(), point) < 0 {
		return 1
	}
	return 0
}

// Overlaps reports whether a and b share at least one key.
func Overlaps(a, b QueryItem) bool {
	return compareEndpoints(a.lower(), b.upper()) <= 0 && compareEndpoints(b.lower(), a.upper()) <= 0
}

// Compare orders two items by lower bound, then by upper bound — the
// ordering Query's internal set is kept sorted under.
func Compare(a, b QueryItem) int {
	if c := compareEndpoints(a.lower(), b.lower()); c != 0 {
		return c
	}
	return compareEndpoints(a.upper(), b.upper())
}

// Merge returns the smallest QueryItem covering both a and b. Callers are
// expected to call this only when Overlaps(a, b) holds.
func Merge(a, b QueryItem) QueryItem {
	lo := a.lower()
	if compareEndpoints(b.lower(), lo) < 0 {
		lo = b.lower()
	}
	hi := a.upper()
	if compareEndpoints(b.upper(), hi) > 0 {
		hi = b.upper()
	}
	return fromEndpoints(lo, hi)
}

func fromEndpoints(lo, hi endpoint) QueryItem {
	switch {
	case lo.negInf && hi.posInf:
		return RangeFull()
	case lo.negInf && hi.order == 0:
		return RangeToInclusive(hi.key)
	case lo.negInf:
		return RangeTo(hi.key)
	case hi.posInf && lo.order == 0:
		return RangeFrom(lo.key)
	case hi.posInf:
		return RangeAfter(lo.key)
	case lo.order == 0 && hi.order == 0:
		if bytes.Equal(lo.key, hi.key) {
			return Key(lo.key)
		}
		return RangeInclusive(lo.key, hi.key)
	case lo.order == 0:
		return Range(lo.key, hi.key)
	case hi.order == 0:
		return RangeAfterToInclusive(lo.key, hi.key)
	default:
		return RangeAfterTo(lo.key, hi.key)
	}
}

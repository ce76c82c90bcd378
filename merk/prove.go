package merk

import (
	"context"

	"github.com/grovedb/grovedb/merk/proof"
	"github.com/grovedb/grovedb/query"
)

// Prove builds a proof over items — a sorted, non-overlapping []QueryItem,
// exactly the set a Query's own set discipline maintains — by recursively
// splitting the query against each visited node's key (spec.md §4.2
// "Proofs — creation"). The op stream's own structure is what guarantees
// completeness: a subtree is only ever collapsed to its bare hash once no
// item in the (sub-)query can reach it, so an in-range key can never be
// silently dropped the way proving a precomputed key list could drop one.
//
// limit/offset (nil meaning unbounded) are consumed in scan order exactly
// as query.Run would consume them, decrementing as genuine KV pushes occur
// and pruning recursion once limit reaches zero; offset-skipped matches are
// still proven present (as KindKVHash) without being revealed as KV.
// leftToRight selects which side's budget is spent first, matching
// SizedQuery's own scan direction.
//
// The two returned bools report whether items extended past this
// subtree's leftmost/rightmost key, so an ancestor (or grove's per-path
// proof chain) can witness edge absence. Verifiers replay the returned
// blob with merk/proof.Execute against RootHash.
func (m *Merk) Prove(ctx context.Context, items []query.QueryItem, limit, offset *uint32, leftToRight bool) ([]byte, bool, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.root == nil {
		return proof.Encode(nil), len(items) > 0, len(items) > 0, nil
	}

	var ops []proof.Op
	leftAbsence, rightAbsence, _, _, err := m.buildProof(ctx, m.root, items, limit, offset, leftToRight, &ops)
	if err != nil {
		return nil, false, false, err
	}
	return proof.Encode(ops), leftAbsence, rightAbsence, nil
}

func limitExhausted(limit *uint32) bool {
	return limit != nil && *limit == 0
}

// splitAroundKey binary-searches a sorted, non-overlapping []QueryItem for
// the item (if any) whose span contains key, mirroring step 1 of spec.md
// §4.2's proof-creation algorithm ("binary-searches the query slice
// against the node's key"). When found, idx is that item's index; when
// not, idx is the insertion point separating items entirely below key
// from items entirely above it.
func splitAroundKey(items []query.QueryItem, key []byte) (idx int, found bool) {
	lo, hi := 0, len(items)
	for lo < hi {
		mid := (lo + hi) / 2
		switch items[mid].CompareKey(key) {
		case 0:
			return mid, true
		case -1:
			hi = mid
		default:
			lo = mid + 1
		}
	}
	return lo, false
}

// partitionItems splits items into the slices a node's left and right
// children should each be searched against, given where key falls (as
// returned by splitAroundKey). An item whose span straddles key is handed
// to whichever side(s) still need it; it is never clipped, since deeper
// splits against descendants' keys narrow it further.
func partitionItems(items []query.QueryItem, idx int, found bool, key []byte) (left, right []query.QueryItem) {
	if !found {
		return items[:idx], items[idx:]
	}
	item := items[idx]
	if item.LowerBefore(key) {
		left = items[:idx+1]
	} else {
		left = items[:idx]
	}
	if item.UpperAfter(key) {
		right = items[idx:]
	} else {
		right = items[idx+1:]
	}
	return left, right
}

// buildProof appends the post-order op sequence proving n's subtree against
// items, and returns whether items reached past n's own leftmost/rightmost
// key (for an ancestor to witness edge absence) plus the limit/offset
// remaining after any KV pushes made along the way.
func (m *Merk) buildProof(ctx context.Context, n *Node, items []query.QueryItem, limit, offset *uint32, leftToRight bool, ops *[]proof.Op) (leftAbsence, rightAbsence bool, newLimit, newOffset *uint32, err error) {
	if limitExhausted(limit) {
		*ops = append(*ops, proof.Op{Code: proof.OpPush, Node: &proof.Node{Kind: proof.KindHash, Hash: n.nodeHash()}})
		return false, false, limit, offset, nil
	}

	idx, found := splitAroundKey(items, n.key)
	leftItems, rightItems := partitionItems(items, idx, found, n.key)

	var leftOps, rightOps []proof.Op
	var leftAbsL, leftAbsR, rightAbsL, rightAbsR bool

	doLeft := func() error {
		var err error
		leftOps, leftAbsL, leftAbsR, limit, offset, err = m.buildChildProof(ctx, n.left, leftItems, limit, offset, leftToRight)
		return err
	}
	doRight := func() error {
		var err error
		rightOps, rightAbsL, rightAbsR, limit, offset, err = m.buildChildProof(ctx, n.right, rightItems, limit, offset, leftToRight)
		return err
	}

	if leftToRight {
		if err := doLeft(); err != nil {
			return false, false, nil, nil, err
		}
	} else {
		if err := doRight(); err != nil {
			return false, false, nil, nil, err
		}
	}

	var nodeNode *proof.Node
	switch {
	case found && offset != nil && *offset > 0:
		o := *offset - 1
		offset = &o
		nodeNode = &proof.Node{Kind: proof.KindKVHash, Hash: n.kvHash()}
	case found && !limitExhausted(limit):
		nodeNode = &proof.Node{Kind: proof.KindKV, Key: n.key, Value: n.value}
		if limit != nil {
			l := *limit - 1
			limit = &l
		}
	default:
		nodeNode = &proof.Node{Kind: proof.KindKVHash, Hash: n.kvHash()}
	}

	if leftToRight {
		err = doRight()
	} else {
		err = doLeft()
	}
	if err != nil {
		return false, false, nil, nil, err
	}
	if !found && (leftAbsR || rightAbsL) {
		// Neither range-contained nor an exact match, but a neighboring
		// subtree's scan ran off its near edge without finding anything:
		// this node is the in-order predecessor/successor that witnesses
		// the absence, so it must be revealed, not just hashed.
		nodeNode = &proof.Node{Kind: proof.KindKV, Key: n.key, Value: n.value}
	}

	*ops = append(*ops, leftOps...)
	*ops = append(*ops, proof.Op{Code: proof.OpPush, Node: nodeNode})
	if len(leftOps) > 0 {
		*ops = append(*ops, proof.Op{Code: proof.OpParent})
	}
	*ops = append(*ops, rightOps...)
	if len(rightOps) > 0 {
		*ops = append(*ops, proof.Op{Code: proof.OpChild})
	}

	return leftAbsL, rightAbsR, limit, offset, nil
}

// buildChildProof handles one child link: recurse into it if items is
// nonempty (there is still query coverage that might reach it), collapse
// it to its stored hash without loading it if items is empty (or the
// budget is already spent), or report it as unresolved absence if items
// expected a match there but no such child exists.
func (m *Merk) buildChildProof(ctx context.Context, link *Link, items []query.QueryItem, limit, offset *uint32, leftToRight bool) ([]proof.Op, bool, bool, *uint32, *uint32, error) {
	if len(items) == 0 || limitExhausted(limit) {
		if link == nil {
			return nil, false, false, limit, offset, nil
		}
		return []proof.Op{{Code: proof.OpPush, Node: &proof.Node{Kind: proof.KindHash, Hash: link.Hash()}}}, false, false, limit, offset, nil
	}
	if link == nil {
		return nil, true, true, limit, offset, nil
	}
	child, err := m.load(ctx, link)
	if err != nil {
		return nil, false, false, nil, nil, err
	}
	var childOps []proof.Op
	leftAbsence, rightAbsence, newLimit, newOffset, err := m.buildProof(ctx, child, items, limit, offset, leftToRight, &childOps)
	if err != nil {
		return nil, false, false, nil, nil, err
	}
	return childOps, leftAbsence, rightAbsence, newLimit, newOffset, nil
}

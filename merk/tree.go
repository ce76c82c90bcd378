// Package merk implements a single AVL-balanced Merkle search tree over a
// storage.Context: the authenticated subtree GroveDB nests at every path
// element. See spec.md §3 "Tree node, Link" and §4.2 "Merk Tree".
package merk

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/grovedb/grovedb/grovedberrors"
	"github.com/grovedb/grovedb/hash"
	"github.com/grovedb/grovedb/storage"
)

// Op is a single write in a batch passed to Apply: either a put (Delete
// false) or a delete (Delete true, Value ignored).
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Merk is one subtree: an in-memory AVL tree backed by a storage.Context,
// guarded by a single read-write lock the way the teacher's MerkleTree
// embeds sync.RWMutex (merkletree.go).
type Merk struct {
	mu    sync.RWMutex
	store storage.Context
	root  *Node
}

// Open loads an existing subtree from store, or returns an empty one if the
// roots column family has no entry at this prefix yet. The root reference is
// stored at the empty local key, since the context's own prefix already
// identifies the subtree (spec.md §6 "Roots-CF entry").
func Open(ctx context.Context, store storage.Context) (*Merk, error) {
	m := &Merk{store: store}

	rootKey, err := store.Get(ctx, storage.CFRoots, nil)
	if err != nil {
		return nil, err
	}
	if rootKey == nil {
		return m, nil
	}

	raw, err := store.Get(ctx, storage.CFDefault, rootKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrCorruptNode
	}
	node, err := decodeNode(rootKey, raw)
	if err != nil {
		return nil, err
	}
	m.root = node
	return m, nil
}

// Store returns the storage.Context this Merk was opened over, letting
// higher layers (the query engine, the outer façade's proof assembly) run
// a raw scan against the same keyspace without duplicating Merk's own
// notion of where its nodes live.
func (m *Merk) Store() storage.Context {
	return m.store
}

// RootHash is this subtree's Merkle root, or the zero hash if it is empty.
func (m *Merk) RootHash() hash.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.root == nil {
		return hash.Zero
	}
	return m.root.nodeHash()
}

// IsEmpty reports whether the subtree currently has no entries.
func (m *Merk) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root == nil
}

// Get returns the value stored at key, or ErrKeyNotFound.
func (m *Merk) Get(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node := m.root
	for node != nil {
		switch bytes.Compare(key, node.key) {
		case 0:
			return append([]byte(nil), node.value...), nil
		case -1:
			child, err := m.load(ctx, node.left)
			if err != nil {
				return nil, err
			}
			node = child
		default:
			child, err := m.load(ctx, node.right)
			if err != nil {
				return nil, err
			}
			node = child
		}
	}
	return nil, ErrKeyNotFound
}

func (m *Merk) load(ctx context.Context, l *Link) (*Node, error) {
	if l == nil {
		return nil, nil
	}
	if l.child != nil {
		return l.child, nil
	}
	raw, err := m.store.Get(ctx, storage.CFDefault, l.key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrCorruptNode
	}
	node, err := decodeNode(l.key, raw)
	if err != nil {
		return nil, err
	}
	l.child = node
	return node, nil
}

// Apply applies a batch of puts/deletes atomically: the batch must already
// be sorted in strictly ascending key order with no duplicate keys (spec.md
// §9 Design Note "Batched operations" — "apply takes a pre-sorted,
// deduplicated batch; the core does not sort... violation is
// InternalError"); Apply checks this and rejects a malformed batch rather
// than silently re-sorting it. Operations are then applied one at a time
// against the in-memory tree (rebalancing and rehashing as it goes), and
// every touched node is written in a single storage batch together with the
// updated root reference. This is a simplified cousin of a true
// divide-and-conquer batch merge: it gives the same end state (a balanced
// tree with correct hashes) at the cost of doing one descent per operation
// rather than one descent for the whole batch.
func (m *Merk) Apply(ctx context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 1; i < len(ops); i++ {
		switch bytes.Compare(ops[i-1].Key, ops[i].Key) {
		case 0:
			return grovedberrors.New(grovedberrors.KindInternalError, fmt.Sprintf("apply batch contains duplicate key %q", ops[i].Key))
		case 1:
			return grovedberrors.New(grovedberrors.KindInternalError, "apply batch is not sorted in strictly ascending key order")
		}
	}

	var deletedKeys [][]byte
	for _, op := range ops {
		if op.Delete {
			newRoot, err := m.deleteKey(ctx, m.root, op.Key, &deletedKeys)
			if err != nil {
				return err
			}
			m.root = newRoot
			continue
		}
		newRoot, err := m.insertKey(ctx, m.root, op.Key, op.Value)
		if err != nil {
			return err
		}
		m.root = newRoot
	}

	batch := m.store.NewBatch()
	if m.root != nil {
		if err := m.persist(m.root, batch); err != nil {
			return err
		}
		batch.Put(storage.CFRoots, nil, append([]byte(nil), m.root.key...))
	} else {
		batch.Delete(storage.CFRoots, nil)
	}
	for _, k := range deletedKeys {
		batch.Delete(storage.CFDefault, k)
	}
	return m.store.CommitBatch(ctx, batch)
}

// persist writes every node reachable through a dirty link, recomputing and
// freezing that link's hash/height as it goes, then writes n itself if n.dirty.
func (m *Merk) persist(n *Node, batch storage.Batch) error {
	if n.left.dirty() {
		if err := m.persist(n.left.child, batch); err != nil {
			return err
		}
		n.left.hash = n.left.child.nodeHash()
		n.left.height = n.left.child.height()
		n.left.state = linkLoaded
	}
	if n.right.dirty() {
		if err := m.persist(n.right.child, batch); err != nil {
			return err
		}
		n.right.hash = n.right.child.nodeHash()
		n.right.height = n.right.child.height()
		n.right.state = linkLoaded
	}
	if n.dirty {
		batch.Put(storage.CFDefault, n.key, encodeNode(n))
		n.dirty = false
	}
	return nil
}

func (m *Merk) insertKey(ctx context.Context, n *Node, key, value []byte) (*Node, error) {
	if n == nil {
		return newLeaf(key, value), nil
	}
	switch bytes.Compare(key, n.key) {
	case 0:
		n.value = value
		n.dirty = true
		return n, nil
	case -1:
		child, err := m.load(ctx, n.left)
		if err != nil {
			return nil, err
		}
		newChild, err := m.insertKey(ctx, child, key, value)
		if err != nil {
			return nil, err
		}
		n.left = linkTo(newChild)
		n.dirty = true
	default:
		child, err := m.load(ctx, n.right)
		if err != nil {
			return nil, err
		}
		newChild, err := m.insertKey(ctx, child, key, value)
		if err != nil {
			return nil, err
		}
		n.right = linkTo(newChild)
		n.dirty = true
	}
	return m.rebalance(ctx, n)
}

func (m *Merk) deleteKey(ctx context.Context, n *Node, key []byte, deleted *[][]byte) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	switch bytes.Compare(key, n.key) {
	case -1:
		child, err := m.load(ctx, n.left)
		if err != nil {
			return nil, err
		}
		newChild, err := m.deleteKey(ctx, child, key, deleted)
		if err != nil {
			return nil, err
		}
		n.left = linkTo(newChild)
		n.dirty = true
		return m.rebalance(ctx, n)
	case 1:
		child, err := m.load(ctx, n.right)
		if err != nil {
			return nil, err
		}
		newChild, err := m.deleteKey(ctx, child, key, deleted)
		if err != nil {
			return nil, err
		}
		n.right = linkTo(newChild)
		n.dirty = true
		return m.rebalance(ctx, n)
	default:
		*deleted = append(*deleted, append([]byte(nil), n.key...))
		left, err := m.load(ctx, n.left)
		if err != nil {
			return nil, err
		}
		right, err := m.load(ctx, n.right)
		if err != nil {
			return nil, err
		}
		if left == nil {
			return right, nil
		}
		if right == nil {
			return left, nil
		}
		succ, newRight, err := m.removeMin(ctx, right)
		if err != nil {
			return nil, err
		}
		succ.left = linkTo(left)
		succ.right = linkTo(newRight)
		succ.dirty = true
		return m.rebalance(ctx, succ)
	}
}

// removeMin detaches and returns the leftmost node of n's subtree, along
// with the subtree that remains once it is gone.
func (m *Merk) removeMin(ctx context.Context, n *Node) (min *Node, rest *Node, err error) {
	left, err := m.load(ctx, n.left)
	if err != nil {
		return nil, nil, err
	}
	if left == nil {
		right, err := m.load(ctx, n.right)
		if err != nil {
			return nil, nil, err
		}
		return n, right, nil
	}
	min, newLeft, err := m.removeMin(ctx, left)
	if err != nil {
		return nil, nil, err
	}
	n.left = linkTo(newLeft)
	n.dirty = true
	rest, err = m.rebalance(ctx, n)
	return min, rest, err
}

func (m *Merk) rebalance(ctx context.Context, n *Node) (*Node, error) {
	switch bf := n.balance(); {
	case bf > 1:
		left, err := m.load(ctx, n.left)
		if err != nil {
			return nil, err
		}
		if left.balance() < 0 {
			rotated, err := m.rotateLeft(ctx, left)
			if err != nil {
				return nil, err
			}
			n.left = linkTo(rotated)
			n.dirty = true
		}
		return m.rotateRight(ctx, n)
	case bf < -1:
		right, err := m.load(ctx, n.right)
		if err != nil {
			return nil, err
		}
		if right.balance() > 0 {
			rotated, err := m.rotateRight(ctx, right)
			if err != nil {
				return nil, err
			}
			n.right = linkTo(rotated)
			n.dirty = true
		}
		return m.rotateLeft(ctx, n)
	default:
		return n, nil
	}
}

func (m *Merk) rotateLeft(ctx context.Context, n *Node) (*Node, error) {
	pivot, err := m.load(ctx, n.right)
	if err != nil {
		return nil, err
	}
	pivotLeft, err := m.load(ctx, pivot.left)
	if err != nil {
		return nil, err
	}
	n.right = linkTo(pivotLeft)
	n.dirty = true
	pivot.left = linkTo(n)
	pivot.dirty = true
	return pivot, nil
}

func (m *Merk) rotateRight(ctx context.Context, n *Node) (*Node, error) {
	pivot, err := m.load(ctx, n.left)
	if err != nil {
		return nil, err
	}
	pivotRight, err := m.load(ctx, pivot.right)
	if err != nil {
		return nil, err
	}
	n.left = linkTo(pivotRight)
	n.dirty = true
	pivot.right = linkTo(n)
	pivot.dirty = true
	return pivot, nil
}

// Walk visits every key/value pair in ascending key order.
func (m *Merk) Walk(ctx context.Context, fn func(key, value []byte) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.walk(ctx, m.root, fn)
}

// VisitedNode is one node surfaced by WalkNodes: its own key/value/hash plus
// its children's hashes, enough to render a node-and-edge view of the tree
// without re-deriving child pointers.
type VisitedNode struct {
	Key        []byte
	Value      []byte
	Hash       hash.Hash
	LeftHash   hash.Hash
	RightHash  hash.Hash
	HasLeft    bool
	HasRight   bool
}

// WalkNodes visits every node pre-order (node, then left, then right),
// exposing the tree's link structure rather than just its sorted key/value
// pairs. Used by the debug graph exporter.
func (m *Merk) WalkNodes(ctx context.Context, fn func(VisitedNode) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.walkNodes(ctx, m.root, fn)
}

func (m *Merk) walkNodes(ctx context.Context, n *Node, fn func(VisitedNode) error) error {
	if n == nil {
		return nil
	}
	v := VisitedNode{
		Key:      n.key,
		Value:    n.value,
		Hash:     n.nodeHash(),
		HasLeft:  n.left != nil,
		HasRight: n.right != nil,
	}
	if n.left != nil {
		v.LeftHash = n.left.Hash()
	}
	if n.right != nil {
		v.RightHash = n.right.Hash()
	}
	if err := fn(v); err != nil {
		return err
	}
	left, err := m.load(ctx, n.left)
	if err != nil {
		return err
	}
	if err := m.walkNodes(ctx, left, fn); err != nil {
		return err
	}
	right, err := m.load(ctx, n.right)
	if err != nil {
		return err
	}
	return m.walkNodes(ctx, right, fn)
}

func (m *Merk) walk(ctx context.Context, n *Node, fn func(key, value []byte) error) error {
	if n == nil {
		return nil
	}
	left, err := m.load(ctx, n.left)
	if err != nil {
		return err
	}
	if err := m.walk(ctx, left, fn); err != nil {
		return err
	}
	if err := fn(n.key, n.value); err != nil {
		return err
	}
	right, err := m.load(ctx, n.right)
	if err != nil {
		return err
	}
	return m.walk(ctx, right, fn)
}

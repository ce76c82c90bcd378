package merk

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/grovedb/grovedb/merk/proof"
)

// ErrEmptyTree is returned by NewChunkProducer for a tree with no entries.
var ErrEmptyTree = errors.New("merk: attempted to fetch chunk on empty tree")

// ErrChunkOutOfBounds is returned by Chunk for an index outside [0, Len()).
var ErrChunkOutOfBounds = errors.New("merk: chunk index out-of-bounds")

// trunkHeight bounds how many levels from the root the "trunk" chunk
// covers; every node at or below this depth anchors a separate leaf chunk.
// Grounded on original_source/merk/src/merk/chunks.rs's trunk/leaf split,
// with a fixed depth cutoff standing in for that implementation's
// average-chunk-size heuristic (an Open Question in spec.md resolved here
// in favor of a simple, deterministic constant, tunable via SetTrunkHeight
// from config.Config's chunk trunk depth setting).
var trunkHeight = 4

// SetTrunkHeight overrides the depth used by ChunkProducers created after
// this call. Not safe to call while a ChunkProducer is in use.
func SetTrunkHeight(depth int) {
	if depth > 0 {
		trunkHeight = depth
	}
}

// ChunkProducer splits a subtree into a sequence of self-contained proof
// chunks for full-state replication: chunk 0 is the "trunk" (everything
// above trunkHeight, as a compact KVHash-only proof, with each boundary
// subtree collapsed to its hash); chunks 1..N are one full-reveal proof per
// boundary subtree ("leaf chunks"). A verifier fetches the trunk first, then
// each leaf chunk, checking it against the hash the trunk already committed
// to for that boundary.
type ChunkProducer struct {
	ctx        context.Context
	m          *Merk
	boundaries [][]byte
}

// NewChunkProducer builds a chunk producer for m's current state. The
// producer is a snapshot: later mutation of m does not affect chunks
// already computed from this producer's boundary list.
func NewChunkProducer(ctx context.Context, m *Merk) (*ChunkProducer, error) {
	if m.IsEmpty() {
		return nil, ErrEmptyTree
	}
	bounds, err := m.trunkBoundaries(ctx)
	if err != nil {
		return nil, err
	}
	return &ChunkProducer{ctx: ctx, m: m, boundaries: bounds}, nil
}

// Len is the total number of chunks: 1 (the trunk) if the whole tree fits
// within trunkHeight, else 1 plus one per boundary subtree.
func (cp *ChunkProducer) Len() int {
	if len(cp.boundaries) == 0 {
		return 1
	}
	return len(cp.boundaries) + 1
}

// Chunk returns the wire-encoded proof for chunk index.
func (cp *ChunkProducer) Chunk(index int) ([]byte, error) {
	if index < 0 || index >= cp.Len() {
		return nil, ErrChunkOutOfBounds
	}
	if index == 0 {
		return cp.trunkChunk()
	}
	return cp.leafChunk(cp.boundaries[index-1])
}

// Iter returns a fresh iterator over all chunks in order, starting at the
// trunk.
func (cp *ChunkProducer) Iter() *ChunkIter {
	return &ChunkIter{cp: cp}
}

// ChunkIter walks a ChunkProducer's chunks in order.
type ChunkIter struct {
	cp  *ChunkProducer
	idx int
}

// Next returns the next chunk, or ok=false once exhausted.
func (it *ChunkIter) Next() (chunk []byte, ok bool, err error) {
	if it.idx >= it.cp.Len() {
		return nil, false, nil
	}
	chunk, err = it.cp.Chunk(it.idx)
	it.idx++
	if err != nil {
		return nil, false, err
	}
	return chunk, true, nil
}

func (cp *ChunkProducer) trunkChunk() ([]byte, error) {
	cp.m.mu.RLock()
	defer cp.m.mu.RUnlock()
	var ops []proof.Op
	if err := cp.m.trunkOps(cp.ctx, cp.m.root, 0, &ops); err != nil {
		return nil, err
	}
	return proof.Encode(ops), nil
}

func (cp *ChunkProducer) leafChunk(boundaryKey []byte) ([]byte, error) {
	cp.m.mu.RLock()
	defer cp.m.mu.RUnlock()
	n, err := cp.m.findNode(cp.ctx, cp.m.root, boundaryKey)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrCorruptNode
	}
	var ops []proof.Op
	if err := cp.m.fullRevealOps(cp.ctx, n, &ops); err != nil {
		return nil, err
	}
	return proof.Encode(ops), nil
}

// trunkBoundaries collects, in ascending key order, the key of every node
// at depth >= trunkHeight whose parent is at a shallower depth: the roots
// of the subtrees that will become leaf chunks.
func (m *Merk) trunkBoundaries(ctx context.Context) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var bounds [][]byte
	var walk func(n *Node, depth int) error
	walk = func(n *Node, depth int) error {
		if n == nil {
			return nil
		}
		if depth >= trunkHeight {
			bounds = append(bounds, append([]byte(nil), n.key...))
			return nil
		}
		left, err := m.load(ctx, n.left)
		if err != nil {
			return err
		}
		if err := walk(left, depth+1); err != nil {
			return err
		}
		right, err := m.load(ctx, n.right)
		if err != nil {
			return err
		}
		return walk(right, depth+1)
	}
	if err := walk(m.root, 0); err != nil {
		return nil, err
	}
	sort.Slice(bounds, func(i, j int) bool { return bytes.Compare(bounds[i], bounds[j]) < 0 })
	return bounds, nil
}

// trunkOps reveals everything above trunkHeight as KVHash (hiding values,
// since the trunk's job is to commit to structure, not to carry data), and
// collapses each boundary subtree to its stored hash.
func (m *Merk) trunkOps(ctx context.Context, n *Node, depth int, ops *[]proof.Op) error {
	if n == nil {
		return nil
	}
	hasLeft, err := m.trunkChild(ctx, n.left, depth, ops)
	if err != nil {
		return err
	}
	*ops = append(*ops, proof.Op{Code: proof.OpPush, Node: &proof.Node{Kind: proof.KindKVHash, Hash: n.kvHash()}})
	if hasLeft {
		*ops = append(*ops, proof.Op{Code: proof.OpParent})
	}
	hasRight, err := m.trunkChild(ctx, n.right, depth, ops)
	if err != nil {
		return err
	}
	if hasRight {
		*ops = append(*ops, proof.Op{Code: proof.OpChild})
	}
	return nil
}

func (m *Merk) trunkChild(ctx context.Context, link *Link, depth int, ops *[]proof.Op) (bool, error) {
	if link == nil {
		return false, nil
	}
	if depth+1 >= trunkHeight {
		*ops = append(*ops, proof.Op{Code: proof.OpPush, Node: &proof.Node{Kind: proof.KindHash, Hash: link.Hash()}})
		return true, nil
	}
	child, err := m.load(ctx, link)
	if err != nil {
		return false, err
	}
	if err := m.trunkOps(ctx, child, depth+1, ops); err != nil {
		return false, err
	}
	return true, nil
}

// fullRevealOps proves n's entire subtree, revealing every key/value.
func (m *Merk) fullRevealOps(ctx context.Context, n *Node, ops *[]proof.Op) error {
	if n == nil {
		return nil
	}
	hasLeft := false
	if n.left != nil {
		left, err := m.load(ctx, n.left)
		if err != nil {
			return err
		}
		if err := m.fullRevealOps(ctx, left, ops); err != nil {
			return err
		}
		hasLeft = true
	}
	*ops = append(*ops, proof.Op{Code: proof.OpPush, Node: &proof.Node{Kind: proof.KindKV, Key: n.key, Value: n.value}})
	if hasLeft {
		*ops = append(*ops, proof.Op{Code: proof.OpParent})
	}
	hasRight := false
	if n.right != nil {
		right, err := m.load(ctx, n.right)
		if err != nil {
			return err
		}
		if err := m.fullRevealOps(ctx, right, ops); err != nil {
			return err
		}
		hasRight = true
	}
	if hasRight {
		*ops = append(*ops, proof.Op{Code: proof.OpChild})
	}
	return nil
}

func (m *Merk) findNode(ctx context.Context, n *Node, key []byte) (*Node, error) {
	for n != nil {
		switch bytes.Compare(key, n.key) {
		case 0:
			return n, nil
		case -1:
			child, err := m.load(ctx, n.left)
			if err != nil {
				return nil, err
			}
			n = child
		default:
			child, err := m.load(ctx, n.right)
			if err != nil {
				return nil, err
			}
			n = child
		}
	}
	return nil, nil
}

package merk

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/grovedb/grovedb/hash"
)

// Link is an edge from a node to one of its children. It is tagged with the
// state of the child as far as this node is concerned, mirroring the
// teacher's tag-byte discriminated Node encoding (node.go's NodeType),
// generalized to the four states a Merk edge can be in (spec.md §3/§4.2):
//
//   - loaded:     child is in memory, unchanged since it was read from disk.
//   - modified:   child is in memory and has been mutated; its hash and
//     height are stale and must be recomputed before it can be persisted.
//   - uncommitted: child's hash/height have been recomputed but the child
//     has not yet been written to storage.
//   - reference:  child is not in memory; only its key, hash and height are
//     known, to be loaded from storage on demand.
type linkState uint8

const (
	linkReference linkState = iota
	linkLoaded
	linkModified
	linkUncommitted
)

// Link's fields are unexported; outside this package only its Height and
// Hash methods are available.
type Link struct {
	state  linkState
	key    []byte
	hash   hash.Hash
	height uint8
	child  *Node
}

func (l *Link) Height() uint8 {
	if l == nil {
		return 0
	}
	return l.height
}

func (l *Link) Hash() hash.Hash {
	if l == nil {
		return hash.Zero
	}
	return l.hash
}

func (l *Link) dirty() bool {
	return l != nil && (l.state == linkModified || l.state == linkUncommitted)
}

// Node is one node of a Merk tree: a key/value pair plus up to two child
// links. Heights and hashes are maintained incrementally by the insert,
// delete and rebalance operations in tree.go.
type Node struct {
	key   []byte
	value []byte
	left  *Link
	right *Link
	dirty bool
}

func newLeaf(key, value []byte) *Node {
	return &Node{key: key, value: value, dirty: true}
}

// kvHash is the hash of this node's own key/value pair, independent of its
// children. Per spec.md §4.2 "Root hash".
func (n *Node) kvHash() hash.Hash {
	return hash.KV(n.key, n.value)
}

// nodeHash is this node's contribution to its parent: H(kv_hash || left ||
// right). Only valid once left/right links carry up-to-date hashes.
func (n *Node) nodeHash() hash.Hash {
	return hash.Node(n.kvHash(), n.left.Hash(), n.right.Hash())
}

// height is 1 + the taller child's height, or 1 for a leaf.
func (n *Node) height() uint8 {
	lh, rh := n.left.Height(), n.right.Height()
	if lh > rh {
		return lh + 1
	}
	return rh + 1
}

// balance is leftHeight - rightHeight; outside [-1, 1] the node needs
// rebalancing (spec.md §4.2 "Algorithm at design level").
func (n *Node) balance() int {
	return int(n.left.Height()) - int(n.right.Height())
}

// linkTo builds a Link describing child, in the modified state: its hash is
// not yet known to be correct for the child's current contents.
func linkTo(child *Node) *Link {
	if child == nil {
		return nil
	}
	return &Link{state: linkModified, key: child.key, child: child}
}

// --- on-disk encoding ---
//
// A node's stored value is: [hasLeft byte][left link][hasRight byte][right
// link][element value bytes...]. A link is: [key length varint][key][32-byte
// hash][1-byte height]. The node's own key is not stored in the value; it is
// the storage key the value was read from.
//
// This is a simplified cousin of original_source/merk/src/tree/encoding.rs:
// that format stores each child's *grandchild* heights (two bytes) so a
// parent can rebalance without loading the child; here a single height byte
// per link already suffices to recompute a parent's balance factor after a
// child is loaded as a Link (no grandchild heights are needed for that), and
// there is no external wire-compatibility requirement to match byte-for-byte.

func encodeNode(n *Node) []byte {
	var buf bytes.Buffer
	encodeLink(&buf, n.left)
	encodeLink(&buf, n.right)
	buf.Write(n.value)
	return buf.Bytes()
}

func encodeLink(buf *bytes.Buffer, l *Link) {
	if l == nil {
		buf.WriteByte(0)
		return
	}
	if l.state == linkModified {
		panic("merk: encoding a Modified link — apply did not finish before flush")
	}
	buf.WriteByte(1)
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(l.key)))
	buf.Write(lenBuf[:n])
	buf.Write(l.key)
	h := l.Hash()
	buf.Write(h[:])
	buf.WriteByte(byte(l.height))
}

func decodeNode(key, raw []byte) (*Node, error) {
	r := bytes.NewReader(raw)
	left, err := decodeLink(r)
	if err != nil {
		return nil, err
	}
	right, err := decodeLink(r)
	if err != nil {
		return nil, err
	}
	value, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Node{key: key, value: value, left: left, right: right}, nil
}

// ValueFromRaw extracts just the stored element value from a node's raw
// encoded bytes, skipping its link headers. It lets a caller (the query
// engine) scan storage directly via a RawIterator without reconstructing
// the tree structure at all.
func ValueFromRaw(raw []byte) ([]byte, error) {
	r := bytes.NewReader(raw)
	if _, err := decodeLink(r); err != nil {
		return nil, err
	}
	if _, err := decodeLink(r); err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func decodeLink(r *bytes.Reader) (*Link, error) {
	has, err := r.ReadByte()
	if err != nil {
		return nil, ErrCorruptNode
	}
	if has == 0 {
		return nil, nil
	}
	keyLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, ErrCorruptNode
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, ErrCorruptNode
	}
	var hashBytes [hash.Size]byte
	if _, err := io.ReadFull(r, hashBytes[:]); err != nil {
		return nil, ErrCorruptNode
	}
	height, err := r.ReadByte()
	if err != nil {
		return nil, ErrCorruptNode
	}
	return &Link{state: linkReference, key: key, hash: hash.Hash(hashBytes), height: height}, nil
}

// Package proof implements the Merkle proof stack machine: a small op
// language (Push/Parent/Child) operating on Node variants (KV/KVHash/Hash)
// that lets a verifier with no access to the original tree reconstruct a
// root hash and recover the key/value pairs a prover chose to reveal.
// See spec.md §4.2 "Proofs" and §6 "Proof wire format".
package proof

import "github.com/grovedb/grovedb/hash"

// Kind discriminates what a pushed Node reveals about itself.
type Kind uint8

const (
	// KindKV reveals the node's actual key and value.
	KindKV Kind = iota
	// KindKVHash reveals only the hash of the node's key/value pair; its
	// children, if any, are still proved by subsequent ops.
	KindKVHash
	// KindHash collapses an entire subtree into its single combined node
	// hash; nothing beneath it is provable from this proof.
	KindHash
)

// Node is the payload of a Push op.
type Node struct {
	Kind  Kind
	Key   []byte
	Value []byte
	Hash  hash.Hash // valid for KindKVHash and KindHash
}

// kvHash returns this node's contribution to node_hash's first term. Not
// valid for KindHash, which has no separate kv/children decomposition.
func (n *Node) kvHash() hash.Hash {
	if n.Kind == KindKV {
		return hash.KV(n.Key, n.Value)
	}
	return n.Hash
}

// Code names a stack-machine instruction.
type Code uint8

const (
	OpPush Code = iota
	OpParent
	OpChild
)

// Op is one stack-machine instruction. Node is only set for OpPush.
type Op struct {
	Code Code
	Node *Node
}

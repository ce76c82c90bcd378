package proof

import (
	"sort"

	"github.com/grovedb/grovedb/hash"
)

// KV is a key/value pair recovered from a proof's KindKV nodes.
type KV struct {
	Key   []byte
	Value []byte
}

// tree is the stack machine's working value: a node plus whichever
// children have been attached to it by Parent/Child so far.
type tree struct {
	node        *Node
	left, right *tree
}

func (t *tree) hash() hash.Hash {
	if t.node.Kind == KindHash {
		return t.node.Hash
	}
	left, right := hash.Zero, hash.Zero
	if t.left != nil {
		left = t.left.hash()
	}
	if t.right != nil {
		right = t.right.hash()
	}
	return hash.Node(t.node.kvHash(), left, right)
}

// Execute replays an op stream and verifies it reconstructs expectedRoot,
// returning every KindKV pair the prover chose to reveal, in ascending key
// order. An empty op stream is valid only when expectedRoot is the zero
// hash (an empty tree).
func Execute(ops []Op, expectedRoot hash.Hash) ([]KV, error) {
	if len(ops) == 0 {
		if expectedRoot.IsZero() {
			return nil, nil
		}
		return nil, ErrRootMismatch
	}

	var stack []*tree
	var kvs []KV
	for _, op := range ops {
		switch op.Code {
		case OpPush:
			t := &tree{node: op.Node}
			if op.Node.Kind == KindKV {
				kvs = append(kvs, KV{Key: op.Node.Key, Value: op.Node.Value})
			}
			stack = append(stack, t)
		case OpParent:
			if len(stack) < 2 {
				return nil, ErrMalformed
			}
			parent := stack[len(stack)-1]
			child := stack[len(stack)-2]
			parent.left = child
			stack = append(stack[:len(stack)-2], parent)
		case OpChild:
			if len(stack) < 2 {
				return nil, ErrMalformed
			}
			child := stack[len(stack)-1]
			parent := stack[len(stack)-2]
			parent.right = child
			stack = append(stack[:len(stack)-2], parent)
		default:
			return nil, ErrMalformed
		}
	}

	if len(stack) != 1 {
		return nil, ErrMalformed
	}
	if stack[0].hash() != expectedRoot {
		return nil, ErrRootMismatch
	}

	sort.Slice(kvs, func(i, j int) bool { return string(kvs[i].Key) < string(kvs[j].Key) })
	return kvs, nil
}

package grove

import (
	"bytes"
	"context"
	"time"

	"github.com/grovedb/grovedb/element"
	"github.com/grovedb/grovedb/grovedberrors"
	"github.com/grovedb/grovedb/hash"
	"github.com/grovedb/grovedb/merk/proof"
	"github.com/grovedb/grovedb/query"
)

// Prove builds spec.md §6's "sequence of proof blobs": one blob per path
// component, proving that component's key exists (as a Tree element) in
// its parent subtree, followed by a final blob proving sq's matched keys
// within the subtree at path itself (spec.md §6 "Proof wire format").
//
// A root-of-roots tree authenticating every subtree's hash is explicitly
// out of scope (spec.md §1); ExecuteProof instead takes the caller's own
// trusted root hash for the subtree at the empty path (path[:0]) and
// chains forward from there, one Tree-element hash at a time.
func (db *Database) Prove(ctx context.Context, path [][]byte, sq query.SizedQuery) ([][]byte, error) {
	start := time.Now()
	blobs := make([][]byte, 0, len(path)+1)

	for i := 0; i < len(path); i++ {
		m, _, err := db.open(ctx, path[:i])
		if err != nil {
			return nil, err
		}
		blob, _, _, err := m.Prove(ctx, []query.QueryItem{query.Key(path[i])}, nil, nil, true)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, blob)
	}

	leafMerk, _, err := db.open(ctx, path)
	if err != nil {
		return nil, err
	}
	leafBlob, _, _, err := leafMerk.Prove(ctx, sq.Query.Items(), sq.Limit, sq.Offset, sq.Query.LeftToRight)
	if err != nil {
		return nil, err
	}
	blobs = append(blobs, leafBlob)

	db.metrics.observeProve(time.Since(start))
	return blobs, nil
}

// ExecuteProof replays Prove's blobs against rootAtEmptyPath — the
// caller's independently-trusted root hash for the subtree at the empty
// path — chaining through each path component's revealed Tree hash, and
// returns the final subtree's root hash plus every key/element the final
// blob revealed. Per spec.md §6 "execute_proof(path, proofs) → (root_hash,
// map)".
func ExecuteProof(path [][]byte, blobs [][]byte, rootAtEmptyPath hash.Hash) (hash.Hash, map[string]element.Element, error) {
	if len(blobs) != len(path)+1 {
		return hash.Hash{}, nil, grovedberrors.New(grovedberrors.KindCorruptedData, "proof blob count does not match path length")
	}

	expected := rootAtEmptyPath
	for i := 0; i < len(path); i++ {
		ops, err := proof.Decode(blobs[i])
		if err != nil {
			return hash.Hash{}, nil, grovedberrors.Wrap(grovedberrors.KindCorruptedData, "malformed proof blob", err)
		}
		kvs, err := proof.Execute(ops, expected)
		if err != nil {
			return hash.Hash{}, nil, grovedberrors.Wrap(grovedberrors.KindCorruptedData, "proof hash mismatch", err)
		}

		var next *element.Element
		for _, kv := range kvs {
			if !bytes.Equal(kv.Key, path[i]) {
				continue
			}
			el, err := element.Decode(kv.Value)
			if err != nil {
				return hash.Hash{}, nil, grovedberrors.Wrap(grovedberrors.KindCorruptedData, "malformed element in proof", err)
			}
			if el.Kind != element.KindTree {
				return hash.Hash{}, nil, grovedberrors.New(grovedberrors.KindCorruptedData, "path component did not prove to a tree element")
			}
			next = &el
		}
		if next == nil {
			return hash.Hash{}, nil, grovedberrors.New(grovedberrors.KindCorruptedData, "proof did not reveal the expected path component")
		}
		expected = next.Tree
	}

	ops, err := proof.Decode(blobs[len(path)])
	if err != nil {
		return hash.Hash{}, nil, grovedberrors.Wrap(grovedberrors.KindCorruptedData, "malformed proof blob", err)
	}
	kvs, err := proof.Execute(ops, expected)
	if err != nil {
		return hash.Hash{}, nil, grovedberrors.Wrap(grovedberrors.KindCorruptedData, "proof hash mismatch", err)
	}

	out := make(map[string]element.Element, len(kvs))
	for _, kv := range kvs {
		el, err := element.Decode(kv.Value)
		if err != nil {
			return hash.Hash{}, nil, grovedberrors.Wrap(grovedberrors.KindCorruptedData, "malformed element in proof", err)
		}
		out[string(kv.Key)] = el
	}
	return expected, out, nil
}

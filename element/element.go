// Package element implements GroveDB's per-subtree value variant — an
// opaque Item, a Reference naming another key, or the root hash of a
// nested subtree (Tree) — and the query-engine integration that threads
// limit/offset across recursive descents through nested subtrees. See
// spec.md §3 "Element" and §4.4 "Element Layer".
package element

import (
	"context"
	"errors"

	"github.com/grovedb/grovedb/hash"
	"github.com/grovedb/grovedb/merk"
)

// Kind discriminates an Element's variant.
type Kind uint8

const (
	// KindItem is an opaque leaf value.
	KindItem Kind = iota
	// KindReference names a key, possibly in another subtree, whose value
	// should be returned in its place.
	KindReference
	// KindTree is the root hash of a nested Merk.
	KindTree
)

// Element is a tagged variant over the three kinds of value a Merk key can
// hold (spec.md §3). Only the field matching Kind is meaningful.
type Element struct {
	Kind      Kind
	Item      []byte
	Reference [][]byte
	Tree      hash.Hash
}

// NewItem builds an opaque-value Element.
func NewItem(value []byte) Element {
	return Element{Kind: KindItem, Item: value}
}

// NewReference builds a reference Element naming path.
func NewReference(path [][]byte) Element {
	return Element{Kind: KindReference, Reference: path}
}

// NewTree builds a Tree Element carrying a nested subtree's root hash.
func NewTree(h hash.Hash) Element {
	return Element{Kind: KindTree, Tree: h}
}

// IsTree reports whether e names a nested subtree.
func (e Element) IsTree() bool { return e.Kind == KindTree }

// ErrKeyNotFound is returned by Get when key is absent from the subtree.
var ErrKeyNotFound = errors.New("element: key not found")

// Get decodes the Element stored at key in m.
func Get(ctx context.Context, m *merk.Merk, key []byte) (Element, error) {
	raw, err := m.Get(ctx, key)
	if errors.Is(err, merk.ErrKeyNotFound) {
		return Element{}, ErrKeyNotFound
	}
	if err != nil {
		return Element{}, err
	}
	return Decode(raw)
}

// Insert stores el at key in m, replacing any existing value.
func Insert(ctx context.Context, m *merk.Merk, key []byte, el Element) error {
	return m.Apply(ctx, []merk.Op{{Key: key, Value: Encode(el)}})
}

// Delete removes key from m. Deleting an absent key is not an error, per
// the underlying Merk.Apply batch semantics.
func Delete(ctx context.Context, m *merk.Merk, key []byte) error {
	return m.Apply(ctx, []merk.Op{{Key: key, Delete: true}})
}

// InsertIfNotExists stores el at key only if key is not already present,
// reporting whether the insert happened. Part of spec.md §6's external
// database-façade contract, implemented here since it is a thin wrapper
// around Get+Insert with no additional state of its own.
func InsertIfNotExists(ctx context.Context, m *merk.Merk, key []byte, el Element) (inserted bool, err error) {
	_, err = Get(ctx, m, key)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return false, err
	}
	if err := Insert(ctx, m, key, el); err != nil {
		return false, err
	}
	return true, nil
}

// Package storage defines the storage-context contract consumed by the Merk
// tree and query engine: a prefixed, transaction-aware view over a backing
// key-value backend exposing four logical column families (default, aux,
// roots, meta), batched writes, and prefix-bounded raw iteration.
//
// See spec.md §4.1. The concrete backends live in storage/pebble,
// storage/leveldb and storage/memory.
package storage

import (
	"context"
	"errors"
)

// ColumnFamily names one of the four logical column families every storage
// context exposes.
type ColumnFamily byte

const (
	// CFDefault holds Merk tree node payloads.
	CFDefault ColumnFamily = iota
	// CFAux holds opaque user auxiliary key-value data.
	CFAux
	// CFRoots holds subtree root references.
	CFRoots
	// CFMeta holds database-wide metadata.
	CFMeta
)

// String renders the column family name, for logging.
func (cf ColumnFamily) String() string {
	switch cf {
	case CFDefault:
		return "default"
	case CFAux:
		return "aux"
	case CFRoots:
		return "roots"
	case CFMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// ErrNotFound names a missing key. Context.Get never returns it (absence is
// reported as a nil slice), and no package in this module returns it.
var ErrNotFound = errors.New("storage: key not found")

// KV is a single key/value pair, as returned by List and RawIterator.
type KV struct {
	Key   []byte
	Value []byte
}

// RawIterator walks the default column family under a context's prefix, in
// ascending key order. It is scoped to that CF and prefix: keys outside the
// prefix are never observed and a seek past the prefix boundary yields an
// invalid iterator. See spec.md §4.1.
type RawIterator interface {
	// Seek positions the iterator at the first key >= key.
	Seek(key []byte)
	// SeekForPrev positions the iterator at the last key <= key.
	SeekForPrev(key []byte)
	SeekToFirst()
	SeekToLast()
	// Valid reports whether the iterator is positioned on an entry.
	Valid() bool
	// Key returns the current entry's key, relative to the context's prefix.
	Key() []byte
	Value() []byte
	Next()
	Prev()
	// Close releases any backend resources (snapshot handles, etc).
	Close() error
}

// Batch accumulates puts/deletes across column families for atomic
// application via Context.CommitBatch.
type Batch interface {
	Put(cf ColumnFamily, key, value []byte)
	Delete(cf ColumnFamily, key []byte)
}

// Context is a prefixed view of the backend, optionally bound to a
// transaction. Contexts are cheap to construct and do not own the backend
// exclusively.
type Context interface {
	Put(ctx context.Context, cf ColumnFamily, key, value []byte) error
	// Get returns (nil, nil) when the key is absent, never ErrNotFound.
	Get(ctx context.Context, cf ColumnFamily, key []byte) ([]byte, error)
	Delete(ctx context.Context, cf ColumnFamily, key []byte) error

	NewBatch() Batch
	CommitBatch(ctx context.Context, b Batch) error

	// RawIter returns an iterator scoped to CFDefault and this context's
	// prefix. The caller must Close it.
	RawIter(ctx context.Context) (RawIterator, error)

	// List returns up to limit key/value pairs from CFDefault under this
	// context's prefix, in ascending order. limit<=0 means unbounded. A
	// debugging/inspection helper, not used by the hot apply/query paths.
	List(ctx context.Context, limit int) ([]KV, error)

	// Prefix returns this context's key prefix.
	Prefix() []byte
}

// Transaction is an isolated, exclusively-held view of the backend: reads
// through its Context observe its own prior writes but are invisible to
// other contexts until Commit succeeds; Rollback discards them entirely.
type Transaction interface {
	Context(prefix []byte) Context
	Commit(ctx context.Context) error
	Rollback() error
}

// Backend is the transactional, column-family-capable embedded key-value
// store that every storage context is a view over. See spec.md §6 "Backend
// contract".
type Backend interface {
	// GetContext returns a non-transactional context for the given prefix.
	GetContext(prefix []byte) Context

	// BeginTransaction starts a new transaction. Operations routed through
	// its Context see the transaction's tentative writes; other contexts do
	// not, until Commit succeeds.
	BeginTransaction(ctx context.Context) (Transaction, error)

	// Flush forces durability of everything committed so far.
	Flush() error

	// Checkpoint writes a point-in-time copy of the backend to destDir.
	Checkpoint(destDir string) error

	// Close releases the backend.
	Close() error
}

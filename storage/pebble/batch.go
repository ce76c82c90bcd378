package pebble

import (
	"github.com/cockroachdb/pebble"

	"github.com/grovedb/grovedb/storage"
)

// batch accumulates puts/deletes in an in-memory pebble.Batch (created by
// the DB's NewBatch) so that Context.NewBatch/CommitBatch can build up a write set and
// apply it atomically in one call, per spec.md §4.1.
type batch struct {
	prefix []byte
	ops    *pebble.Batch
}

func (b *batch) Put(cf storage.ColumnFamily, key, value []byte) {
	_ = b.ops.Set(encodeKey(tagFor(cf), b.prefix, key), value, nil)
}

func (b *batch) Delete(cf storage.ColumnFamily, key []byte) {
	_ = b.ops.Delete(encodeKey(tagFor(cf), b.prefix, key), nil)
}

func (b *batch) pebbleBatch() *pebble.Batch {
	return b.ops
}

var _ storage.Batch = (*batch)(nil)

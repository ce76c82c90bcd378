package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/grovedb/grovedb/storage"
)

// batch accumulates puts/deletes in an in-memory goleveldb Batch so that
// Context.NewBatch/CommitBatch can build up a write set and apply it
// atomically in one call, per spec.md §4.1.
type batch struct {
	prefix []byte
	ops    *leveldb.Batch
}

func (b *batch) Put(cf storage.ColumnFamily, key, value []byte) {
	b.ops.Put(encodeKey(tagFor(cf), b.prefix, key), value)
}

func (b *batch) Delete(cf storage.ColumnFamily, key []byte) {
	b.ops.Delete(encodeKey(tagFor(cf), b.prefix, key))
}

var _ storage.Batch = (*batch)(nil)

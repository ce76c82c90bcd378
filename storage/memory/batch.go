package memory

import "github.com/grovedb/grovedb/storage"

type batchOp struct {
	key   string
	value []byte
	del   bool
}

// batch accumulates puts/deletes as an ordered op list, applied in order by
// CommitBatch so a later op always wins over an earlier one on the same
// key, per spec.md §4.1's atomic-batch-apply requirement.
type batch struct {
	prefix []byte
	ops    []batchOp
}

func (b *batch) Put(cf storage.ColumnFamily, key, value []byte) {
	b.ops = append(b.ops, batchOp{key: encodeKey(tagFor(cf), b.prefix, key), value: append([]byte(nil), value...)})
}

func (b *batch) Delete(cf storage.ColumnFamily, key []byte) {
	b.ops = append(b.ops, batchOp{key: encodeKey(tagFor(cf), b.prefix, key), del: true})
}

var _ storage.Batch = (*batch)(nil)

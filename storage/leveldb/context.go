package leveldb

import (
	"context"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/grovedb/grovedb/storage"
)

// dbHandle is the subset of *leveldb.DB and *leveldb.Transaction that
// readerContext needs; both types implement it identically, which is what
// lets a transaction's Context share this same struct with the
// non-transactional one.
type dbHandle interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Put(key, value []byte, wo *opt.WriteOptions) error
	Delete(key []byte, wo *opt.WriteOptions) error
	Write(batch *leveldb.Batch, wo *opt.WriteOptions) error
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

// readerContext implements storage.Context over a dbHandle.
type readerContext struct {
	handle dbHandle
	prefix []byte
}

func (c *readerContext) Prefix() []byte { return c.prefix }

func (c *readerContext) Put(_ context.Context, cf storage.ColumnFamily, key, value []byte) error {
	return c.handle.Put(encodeKey(tagFor(cf), c.prefix, key), value, nil)
}

func (c *readerContext) Get(_ context.Context, cf storage.ColumnFamily, key []byte) ([]byte, error) {
	v, err := c.handle.Get(encodeKey(tagFor(cf), c.prefix, key), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), v...), nil
}

func (c *readerContext) Delete(_ context.Context, cf storage.ColumnFamily, key []byte) error {
	return c.handle.Delete(encodeKey(tagFor(cf), c.prefix, key), nil)
}

func (c *readerContext) NewBatch() storage.Batch {
	return &batch{prefix: c.prefix, ops: new(leveldb.Batch)}
}

func (c *readerContext) CommitBatch(_ context.Context, b storage.Batch) error {
	lb, ok := b.(*batch)
	if !ok {
		panic("leveldb: foreign batch passed to CommitBatch")
	}
	return c.handle.Write(lb.ops, nil)
}

func (c *readerContext) RawIter(_ context.Context) (storage.RawIterator, error) {
	header := encodeKey(tagDefault, c.prefix, nil)
	it := c.handle.NewIterator(util.BytesPrefix(header), nil)
	return &rawIterator{iter: it, header: header}, nil
}

func (c *readerContext) List(ctx context.Context, limit int) ([]storage.KV, error) {
	it, err := c.RawIter(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []storage.KV
	for it.SeekToFirst(); it.Valid(); it.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, storage.KV{
			Key:   append([]byte(nil), it.Key()...),
			Value: append([]byte(nil), it.Value()...),
		})
	}
	return out, nil
}

var _ storage.Context = (*readerContext)(nil)

package pebble

import (
	"context"
	"io"

	"github.com/cockroachdb/pebble"

	"github.com/grovedb/grovedb/storage"
)

// readerContext implements storage.Context over a pebble reader (*pebble.DB
// for non-transactional access, *pebble.Batch for transactional access) and
// a matching writer, which for a transaction is the same batch.
type readerContext struct {
	reader interface {
		Get(key []byte) ([]byte, io.Closer, error)
		NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
	}
	writer interface {
		Set(key, value []byte, o *pebble.WriteOptions) error
		Delete(key []byte, o *pebble.WriteOptions) error
		Apply(batch *pebble.Batch, o *pebble.WriteOptions) error
	}
	prefix   []byte
	newBatch func() *pebble.Batch
}

func (c *readerContext) Prefix() []byte { return c.prefix }

func (c *readerContext) Put(_ context.Context, cf storage.ColumnFamily, key, value []byte) error {
	return c.writer.Set(encodeKey(tagFor(cf), c.prefix, key), value, nil)
}

func (c *readerContext) Get(_ context.Context, cf storage.ColumnFamily, key []byte) ([]byte, error) {
	v, closer, err := c.reader.Get(encodeKey(tagFor(cf), c.prefix, key))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), v...)
	_ = closer.Close()
	return out, nil
}

func (c *readerContext) Delete(_ context.Context, cf storage.ColumnFamily, key []byte) error {
	return c.writer.Delete(encodeKey(tagFor(cf), c.prefix, key), nil)
}

func (c *readerContext) NewBatch() storage.Batch {
	return &batch{prefix: c.prefix, ops: c.newBatch()}
}

func (c *readerContext) CommitBatch(_ context.Context, b storage.Batch) error {
	pb, ok := b.(*batch)
	if !ok {
		panic("pebble: foreign batch passed to CommitBatch")
	}
	return c.writer.Apply(pb.pebbleBatch(), nil)
}

func (c *readerContext) RawIter(_ context.Context) (storage.RawIterator, error) {
	lower, upper := prefixBounds(tagDefault, c.prefix)
	it, err := c.reader.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	return &rawIterator{iter: it, lower: lower}, nil
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

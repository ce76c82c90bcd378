package memory

import (
	"context"
	"sort"

	"github.com/grovedb/grovedb/storage"
)

// ctx implements storage.Context over any rawStore.
type ctx struct {
	store  rawStore
	prefix []byte
}

func (c *ctx) Prefix() []byte { return c.prefix }

func (c *ctx) Put(_ context.Context, cf storage.ColumnFamily, key, value []byte) error {
	c.store.put(encodeKey(tagFor(cf), c.prefix, key), value)
	return nil
}

func (c *ctx) Get(_ context.Context, cf storage.ColumnFamily, key []byte) ([]byte, error) {
	v, ok := c.store.get(encodeKey(tagFor(cf), c.prefix, key))
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (c *ctx) Delete(_ context.Context, cf storage.ColumnFamily, key []byte) error {
	c.store.del(encodeKey(tagFor(cf), c.prefix, key))
	return nil
}

func (c *ctx) NewBatch() storage.Batch {
	return &batch{prefix: c.prefix}
}

func (c *ctx) CommitBatch(_ context.Context, b storage.Batch) error {
	mb, ok := b.(*batch)
	if !ok {
		panic("memory: foreign batch passed to CommitBatch")
	}
	for _, op := range mb.ops {
		if op.del {
			c.store.del(op.key)
		} else {
			c.store.put(op.key, op.value)
		}
	}
	return nil
}

func (c *ctx) RawIter(_ context.Context) (storage.RawIterator, error) {
	header := encodeKey(tagDefault, c.prefix, nil)
	snap := c.store.snapshot(header)

	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]storage.KV, len(keys))
	for i, k := range keys {
		entries[i] = storage.KV{Key: []byte(k[len(header):]), Value: snap[k]}
	}
	return &rawIterator{entries: entries, pos: -1}, nil
}

func (c *ctx) List(ctx context.Context, limit int) ([]storage.KV, error) {
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

var _ storage.Context = (*ctx)(nil)

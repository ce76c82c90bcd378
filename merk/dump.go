package merk

import "context"

// KV is a leaf key/value pair, as produced by DumpLeaves and consumed by
// ImportDumpedLeaves. Adapted from dump/dump.go's leaf dump/import pair.
type KV struct {
	Key   []byte
	Value []byte
}

// DumpLeaves returns every key/value pair in the subtree, in ascending key
// order.
func (m *Merk) DumpLeaves(ctx context.Context) ([]KV, error) {
	var out []KV
	err := m.Walk(ctx, func(key, value []byte) error {
		out = append(out, KV{
			Key:   append([]byte(nil), key...),
			Value: append([]byte(nil), value...),
		})
		return nil
	})
	return out, err
}

// ImportDumpedLeaves loads a previously dumped leaf set into m as a single
// batch.
func ImportDumpedLeaves(ctx context.Context, m *Merk, kvs []KV) error {
	ops := make([]Op, len(kvs))
	for i, kv := range kvs {
		ops[i] = Op{Key: kv.Key, Value: kv.Value}
	}
	return m.Apply(ctx, ops)
}

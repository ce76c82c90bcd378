// Package memory implements storage.Backend as a process-local map with no
// persistence, adapted from the teacher's db/memory in-memory Storage. It
// trades durability for speed: useful for tests and short-lived tooling
// that would rather not pay pebble's on-disk footprint.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/grovedb/grovedb/storage"
)

// cfTag is the one-byte column-family discriminant folded into every map
// key, ahead of the storage context's own path prefix — the same scheme
// storage/pebble and storage/leveldb use, so List/RawIter behave
// identically across backends.
type cfTag byte

const (
	tagDefault cfTag = iota
	tagAux
	tagRoots
	tagMeta
)

func tagFor(cf storage.ColumnFamily) cfTag {
	switch cf {
	case storage.CFDefault:
		return tagDefault
	case storage.CFAux:
		return tagAux
	case storage.CFRoots:
		return tagRoots
	case storage.CFMeta:
		return tagMeta
	default:
		panic("memory: unknown column family")
	}
}

func encodeKey(tag cfTag, prefix, key []byte) string {
	out := make([]byte, 0, 1+len(prefix)+len(key))
	out = append(out, byte(tag))
	out = append(out, prefix...)
	out = append(out, key...)
	return string(out)
}

// ErrCheckpointUnsupported is returned by Checkpoint: an in-memory backend
// has no on-disk state for pebble-style hard-linking to copy.
var ErrCheckpointUnsupported = errors.New("memory: checkpointing is not supported by the in-memory backend")

// Backend is a map-backed storage.Backend. The zero value is not usable;
// construct with Open.
type Backend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// Open returns a fresh, empty in-memory backend.
func Open() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

func (b *Backend) Close() error { return nil }
func (b *Backend) Flush() error { return nil }

func (b *Backend) Checkpoint(string) error { return ErrCheckpointUnsupported }

// GetContext returns a non-transactional context scoped to prefix.
func (b *Backend) GetContext(prefix []byte) storage.Context {
	return &ctx{store: (*directStore)(b), prefix: append([]byte(nil), prefix...)}
}

// BeginTransaction starts a transaction isolated by a snapshot of the
// backend's current contents: it sees only its own pending writes until
// Commit applies them back into the backend atomically.
func (b *Backend) BeginTransaction(_ context.Context) (storage.Transaction, error) {
	b.mu.RLock()
	base := make(map[string][]byte, len(b.data))
	for k, v := range b.data {
		base[k] = v
	}
	b.mu.RUnlock()
	return &transaction{backend: b, base: base, puts: map[string][]byte{}, deleted: map[string]struct{}{}}, nil
}

var _ storage.Backend = (*Backend)(nil)

package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/grovedb/grovedb/storage"
)

// ErrTransactionClosed is returned by Commit on a transaction that was
// already committed or rolled back; Rollback on such a transaction is a no-op.
var ErrTransactionClosed = errors.New("memory: transaction already committed or rolled back")

// transaction layers pending puts/deletes over a snapshot taken at
// BeginTransaction time: reads see the transaction's own writes, and
// nothing is visible to the backend or other contexts until Commit.
type transaction struct {
	backend *Backend
	mu      sync.Mutex
	base    map[string][]byte
	puts    map[string][]byte
	deleted map[string]struct{}
	done    bool
}

func (t *transaction) get(key string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, gone := t.deleted[key]; gone {
		return nil, false
	}
	if v, ok := t.puts[key]; ok {
		return v, true
	}
	v, ok := t.base[key]
	return v, ok
}

func (t *transaction) put(key string, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.deleted, key)
	t.puts[key] = append([]byte(nil), value...)
}

func (t *transaction) del(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.puts, key)
	t.deleted[key] = struct{}{}
}

func (t *transaction) snapshot(header string) map[string][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string][]byte)
	for k, v := range t.base {
		if len(k) >= len(header) && k[:len(header)] == header {
			out[k] = v
		}
	}
	for k, v := range t.puts {
		if len(k) >= len(header) && k[:len(header)] == header {
			out[k] = v
		}
	}
	for k := range t.deleted {
		delete(out, k)
	}
	return out
}

var _ rawStore = (*transaction)(nil)

func (t *transaction) Context(prefix []byte) storage.Context {
	return &ctx{store: t, prefix: append([]byte(nil), prefix...)}
}

func (t *transaction) Commit(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return ErrTransactionClosed
	}
	t.done = true

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	for k, v := range t.puts {
		t.backend.data[k] = v
	}
	for k := range t.deleted {
		delete(t.backend.data, k)
	}
	return nil
}

func (t *transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	return nil
}

var _ storage.Transaction = (*transaction)(nil)

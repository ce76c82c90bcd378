package pebble

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/grovedb/grovedb/storage"
)

// ErrTransactionClosed is returned by Commit on a transaction that was
// already committed or rolled back; Rollback on such a transaction is a no-op.
var ErrTransactionClosed = errors.New("pebble: transaction already committed or rolled back")

// transaction wraps a pebble indexed batch: Get/NewIter against an indexed
// batch observe the batch's own pending writes, so a Context built over it
// satisfies the "reads see same-transaction writes" requirement without any
// extra bookkeeping.
type transaction struct {
	db    *pebble.DB
	batch *pebble.Batch
	done  bool
}

func (t *transaction) Context(prefix []byte) storage.Context {
	return &readerContext{
		reader:   t.batch,
		writer:   t.batch,
		prefix:   append([]byte(nil), prefix...),
		newBatch: t.db.NewBatch,
	}
}

func (t *transaction) Commit(_ context.Context) error {
	if t.done {
		return ErrTransactionClosed
	}
	t.done = true
	return t.batch.Commit(pebble.Sync)
}

func (t *transaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.batch.Close()
}

var _ storage.Transaction = (*transaction)(nil)

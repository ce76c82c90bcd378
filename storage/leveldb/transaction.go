package leveldb

import (
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/grovedb/grovedb/storage"
)

// ErrTransactionClosed is returned by Commit on a transaction that was
// already committed or rolled back; Rollback on such a transaction is a no-op.
var ErrTransactionClosed = errors.New("leveldb: transaction already committed or rolled back")

// transaction wraps a goleveldb *leveldb.Transaction: Get/NewIterator
// against a transaction observe its own pending writes, so a Context built
// over it satisfies the "reads see same-transaction writes" requirement
// without any extra bookkeeping.
type transaction struct {
	tx   *leveldb.Transaction
	done bool
}

func (t *transaction) Context(prefix []byte) storage.Context {
	return &readerContext{handle: t.tx, prefix: append([]byte(nil), prefix...)}
}

func (t *transaction) Commit(_ context.Context) error {
	if t.done {
		return ErrTransactionClosed
	}
	t.done = true
	return t.tx.Commit()
}

func (t *transaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.tx.Discard()
	return nil
}

var _ storage.Transaction = (*transaction)(nil)

// Package leveldb implements storage.Backend on top of syndtr/goleveldb, the
// embedded LevelDB-class store ethereum-go-ethereum vendors for its own
// chaindata. It is an alternate backend to storage/pebble, wired in as a
// second concrete storage.Backend rather than the default one spec.md §4.1
// names — operators who already run goleveldb elsewhere in their stack can
// reuse it here instead of adding pebble. Column families, which goleveldb
// does not model natively, are emulated the same way storage/pebble emulates
// them: a one-byte tag prefixed ahead of each context's own path prefix.
package leveldb

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/grovedb/grovedb/storage"
)

// cfTag is the one-byte column-family discriminant prefixed onto every key
// goleveldb sees, ahead of the storage context's own path prefix.
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
		panic("leveldb: unknown column family")
	}
}

// Backend wraps a single goleveldb database instance.
type Backend struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a goleveldb database at path.
func Open(path string) (*Backend, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}
	log.WithField("path", path).Info("storage/leveldb: database opened")
	return &Backend{db: db}, nil
}

// Close closes the backend.
func (b *Backend) Close() error {
	err := b.db.Close()
	if err != nil {
		log.WithError(err).Error("storage/leveldb: error closing database")
		return err
	}
	log.Info("storage/leveldb: database closed")
	return nil
}

// Flush is a no-op: unlike pebble, goleveldb has no memtable-flush call
// distinct from the per-write sync option Put/Write already accept.
func (b *Backend) Flush() error { return nil }

// Checkpoint copies a consistent point-in-time snapshot of every key into a
// fresh database at destDir. goleveldb has no hard-link checkpoint
// primitive the way pebble does, so this walks a snapshot and re-inserts
// every entry into a freshly opened database instead.
func (b *Backend) Checkpoint(destDir string) error {
	snapshot, err := b.db.GetSnapshot()
	if err != nil {
		return err
	}
	defer snapshot.Release()

	dest, err := leveldb.OpenFile(destDir, &opt.Options{})
	if err != nil {
		return err
	}
	defer dest.Close()

	iter := snapshot.NewIterator(nil, nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		batch.Put(append([]byte(nil), iter.Key()...), append([]byte(nil), iter.Value()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	return dest.Write(batch, nil)
}

// GetContext returns a non-transactional context scoped to prefix.
func (b *Backend) GetContext(prefix []byte) storage.Context {
	return &readerContext{handle: b.db, prefix: append([]byte(nil), prefix...)}
}

// BeginTransaction starts a goleveldb transaction, which — like pebble's
// indexed batch — observes its own pending writes on Get.
func (b *Backend) BeginTransaction(_ context.Context) (storage.Transaction, error) {
	tx, err := b.db.OpenTransaction()
	if err != nil {
		return nil, err
	}
	return &transaction{tx: tx}, nil
}

var _ storage.Backend = (*Backend)(nil)

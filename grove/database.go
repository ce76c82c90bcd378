// Package grove is the thin outer façade spec.md §6 describes: just enough
// wiring over storage/merk/query/element to open a backend, resolve a path
// to a subtree prefix, thread a PathQuery through nested Merks, assemble
// and execute the proof wire format, and resolve Reference chains. It
// deliberately does not implement a root-of-roots authenticating Merkle
// tree over every subtree's hash, multi-process concurrency control, or
// secondary indexing — those are out of scope per spec.md §1.
package grove

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/grovedb/grovedb/element"
	"github.com/grovedb/grovedb/grovedberrors"
	"github.com/grovedb/grovedb/hash"
	"github.com/grovedb/grovedb/merk"
	"github.com/grovedb/grovedb/query"
	"github.com/grovedb/grovedb/storage"
	pebblestore "github.com/grovedb/grovedb/storage/pebble"
)

// Backend is the set of storage backends grove ships a constructor for.
// Database itself works against any storage.Backend; Open is a pebble-
// specific convenience, OpenWithBackend accepts any of the others
// (storage/leveldb, storage/memory, or a caller's own implementation).
type Backend = storage.Backend

// DefaultMaxReferenceHops bounds how many Reference elements Get will
// follow before giving up with grovedberrors.KindReferenceLimit, per
// spec.md §6/§8 scenario 6. config.Config can override it via
// WithMaxReferenceHops.
const DefaultMaxReferenceHops = 10

// Database wires the core subsystems together over a single storage
// backend. It is safe for concurrent use by multiple goroutines reading
// and writing disjoint subtrees, per spec.md §5; it does not serialize
// writers across processes.
type Database struct {
	backend storage.Backend
	maxHops int
	metrics *Metrics

	mu    sync.Mutex
	merks map[string]*merk.Merk
}

// Option configures a Database at Open time.
type Option func(*Database)

// WithMaxReferenceHops overrides DefaultMaxReferenceHops.
func WithMaxReferenceHops(n int) Option {
	return func(db *Database) {
		if n > 0 {
			db.maxHops = n
		}
	}
}

// WithMetrics attaches a Metrics recorder to Insert/Delete/Get/Prove.
func WithMetrics(m *Metrics) Option {
	return func(db *Database) { db.metrics = m }
}

// Open opens (creating if absent) a GroveDB instance backed by a pebble
// database at dir. Use OpenWithBackend to run GroveDB over
// storage/leveldb, storage/memory, or any other storage.Backend instead.
func Open(dir string, opts ...Option) (*Database, error) {
	backend, err := pebblestore.Open(dir)
	if err != nil {
		return nil, err
	}
	db := OpenWithBackend(backend, opts...)
	log.WithField("dir", dir).Info("grove: database opened")
	return db, nil
}

// OpenWithBackend wires a GroveDB instance over an already-open
// storage.Backend, letting the caller pick the concrete store
// (storage/pebble, storage/leveldb, storage/memory, ...) independently of
// grove itself.
func OpenWithBackend(backend storage.Backend, opts ...Option) *Database {
	db := &Database{
		backend: backend,
		maxHops: DefaultMaxReferenceHops,
		merks:   map[string]*merk.Merk{},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Close releases the backing store.
func (db *Database) Close() error {
	return db.backend.Close()
}

// Checkpoint creates a point-in-time copy of the database at destDir, a
// direct pass-through to the backend's own Checkpoint: pebble hard-links
// its files, leveldb copies every entry into a fresh database, and the
// memory backend returns an error (spec.md §6 "checkpoint(target_dir)").
func (db *Database) Checkpoint(destDir string) error {
	return db.backend.Checkpoint(destDir)
}

// RootHash returns the current Merk root hash of the subtree at path.
// Since grove deliberately does not maintain a root-of-roots
// authenticating tree (spec.md §1), a remote verifier must obtain its
// first trusted root hash by some other channel; an in-process caller
// that already trusts this Database (a test, or a bootstrap step taken
// before crossing a trust boundary) can use this directly to seed
// ExecuteProof.
func (db *Database) RootHash(ctx context.Context, path [][]byte) (hash.Hash, error) {
	m, _, err := db.open(ctx, path)
	if err != nil {
		return hash.Hash{}, err
	}
	return m.RootHash(), nil
}

func pathKey(path [][]byte) string {
	return string(hash.PathPrefix(path).Bytes())
}

// open loads (or returns the cached) Merk for path, satisfying
// element.OpenFunc so the element/query layers can recurse across nested
// subtrees without any awareness of Database itself.
func (db *Database) open(ctx context.Context, path [][]byte) (*merk.Merk, storage.Context, error) {
	key := pathKey(path)
	store := db.backend.GetContext(hash.PathPrefix(path).Bytes())

	db.mu.Lock()
	defer db.mu.Unlock()
	if m, ok := db.merks[key]; ok {
		return m, store, nil
	}
	m, err := merk.Open(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	db.merks[key] = m
	return m, store, nil
}

// propagateRoot writes an updated Tree element at every ancestor of path,
// so each parent's stored Tree hash tracks its child's current root —
// spec.md §3 "Lifecycles": "Nested subtree Tree-elements must be updated
// whenever the child subtree's root hash changes (propagation is the
// caller's responsibility at the Element/path layer)."
func (db *Database) propagateRoot(ctx context.Context, path [][]byte) error {
	for len(path) > 0 {
		parentPath := path[:len(path)-1]
		key := path[len(path)-1]

		child, _, err := db.open(ctx, path)
		if err != nil {
			return err
		}
		parent, _, err := db.open(ctx, parentPath)
		if err != nil {
			return err
		}
		if err := element.Insert(ctx, parent, key, element.NewTree(child.RootHash())); err != nil {
			return err
		}
		path = parentPath
	}
	return nil
}

// Insert stores el at key within the subtree at path, then propagates the
// subtree's new root hash up through every ancestor's Tree element.
func (db *Database) Insert(ctx context.Context, path [][]byte, key []byte, el element.Element) error {
	start := time.Now()
	m, _, err := db.open(ctx, path)
	if err != nil {
		return err
	}
	if err := element.Insert(ctx, m, key, el); err != nil {
		return err
	}
	if err := db.propagateRoot(ctx, path); err != nil {
		return err
	}
	db.metrics.observeApply(time.Since(start))
	return nil
}

// InsertIfNotExists inserts el at key only if key is currently absent,
// reporting whether the insert happened.
func (db *Database) InsertIfNotExists(ctx context.Context, path [][]byte, key []byte, el element.Element) (bool, error) {
	start := time.Now()
	m, _, err := db.open(ctx, path)
	if err != nil {
		return false, err
	}
	inserted, err := element.InsertIfNotExists(ctx, m, key, el)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}
	if err := db.propagateRoot(ctx, path); err != nil {
		return false, err
	}
	db.metrics.observeApply(time.Since(start))
	return true, nil
}

// Delete removes key from the subtree at path, then propagates the new
// (possibly empty) root hash up through every ancestor.
func (db *Database) Delete(ctx context.Context, path [][]byte, key []byte) error {
	start := time.Now()
	m, _, err := db.open(ctx, path)
	if err != nil {
		return err
	}
	if err := element.Delete(ctx, m, key); err != nil {
		return err
	}
	if err := db.propagateRoot(ctx, path); err != nil {
		return err
	}
	db.metrics.observeApply(time.Since(start))
	return nil
}

// Get returns the element stored at key within the subtree at path,
// following a Reference chain to its terminal non-Reference element.
// Absence is reported as grovedberrors.KindPathKeyNotFound.
func (db *Database) Get(ctx context.Context, path [][]byte, key []byte) (element.Element, error) {
	start := time.Now()
	el, hops, err := db.resolve(ctx, path, key, 0, map[string]struct{}{})
	db.metrics.observeGet(time.Since(start), hops)
	return el, err
}

// resolve fetches the element at (path, key); if it is a Reference, it
// chases the reference's target, bounding the chain at db.maxHops hops and
// detecting cycles with visited, keyed by the full (path, key) pair
// (spec.md §6/§8 scenario 6, Design Note "Cyclic link possibility").
func (db *Database) resolve(ctx context.Context, path [][]byte, key []byte, hops int, visited map[string]struct{}) (element.Element, int, error) {
	visitKey := pathKey(append(append([][]byte(nil), path...), key))
	if _, seen := visited[visitKey]; seen {
		return element.Element{}, hops, grovedberrors.New(grovedberrors.KindCyclicReference, "reference chain revisits a previously seen path")
	}
	visited[visitKey] = struct{}{}

	m, _, err := db.open(ctx, path)
	if err != nil {
		return element.Element{}, hops, err
	}
	el, err := element.Get(ctx, m, key)
	if errors.Is(err, element.ErrKeyNotFound) {
		return element.Element{}, hops, grovedberrors.Wrap(grovedberrors.KindPathKeyNotFound, fmt.Sprintf("key %q not found", key), err)
	}
	if err != nil {
		return element.Element{}, hops, err
	}
	if el.Kind != element.KindReference {
		return el, hops, nil
	}

	if hops >= db.maxHops {
		return element.Element{}, hops, grovedberrors.New(grovedberrors.KindReferenceLimit, "reference chain exceeded MaxReferenceHops")
	}
	if len(el.Reference) == 0 {
		return element.Element{}, hops, grovedberrors.New(grovedberrors.KindInvalidPath, "reference target path is empty")
	}
	nextPath := el.Reference[:len(el.Reference)-1]
	nextKey := el.Reference[len(el.Reference)-1]
	return db.resolve(ctx, nextPath, nextKey, hops+1, visited)
}

// GetQuery runs q against the subtree at path, recursing into nested Tree
// elements per q's Subquery/SubqueryKey, per spec.md §4.4.
func (db *Database) GetQuery(ctx context.Context, path [][]byte, q *query.Query) ([]element.Element, error) {
	return element.GetQuery(ctx, db.open, path, q)
}

// GetSizedQuery is GetQuery bounded by a limit/offset.
func (db *Database) GetSizedQuery(ctx context.Context, path [][]byte, sq query.SizedQuery) ([]element.Element, error) {
	return element.GetSizedQuery(ctx, db.open, path, sq)
}

// GetPathQuery runs a fully-formed PathQuery, reporting how much of its
// limit/offset budget was actually consumed.
func (db *Database) GetPathQuery(ctx context.Context, pq query.PathQuery) (elements []element.Element, limitConsumed, offsetConsumed uint32, err error) {
	return element.GetPathQuery(ctx, db.open, pq)
}

// ElementEntry is one key/element pair yielded by an ElementIterator.
type ElementEntry struct {
	Key     []byte
	Element element.Element
}

// ElementIterator walks every entry of a subtree in ascending key order.
type ElementIterator struct {
	entries []ElementEntry
	idx     int
}

// Next returns the next entry, or ok=false once exhausted.
func (it *ElementIterator) Next() (entry ElementEntry, ok bool) {
	if it.idx >= len(it.entries) {
		return ElementEntry{}, false
	}
	e := it.entries[it.idx]
	it.idx++
	return e, true
}

// ElementsIterator returns an iterator over every element directly stored
// in the subtree at path (not following References, not recursing into
// nested Trees), per spec.md §6 "elements_iterator(path)".
func (db *Database) ElementsIterator(ctx context.Context, path [][]byte) (*ElementIterator, error) {
	m, _, err := db.open(ctx, path)
	if err != nil {
		return nil, err
	}
	var entries []ElementEntry
	err = m.Walk(ctx, func(key, value []byte) error {
		el, err := element.Decode(value)
		if err != nil {
			return err
		}
		entries = append(entries, ElementEntry{Key: append([]byte(nil), key...), Element: el})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ElementIterator{entries: entries}, nil
}

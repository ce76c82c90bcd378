package memory

import (
	"bytes"

	"github.com/grovedb/grovedb/storage"
)

// rawIterator implements storage.RawIterator over a pre-sorted, already
// prefix-scoped snapshot slice — the whole range is materialized up front
// since the backend holds everything in memory anyway.
type rawIterator struct {
	entries []storage.KV
	pos     int
}

func (it *rawIterator) search(key []byte) int {
	lo, hi := 0, len(it.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(it.entries[mid].Key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (it *rawIterator) Seek(key []byte) { it.pos = it.search(key) }

func (it *rawIterator) SeekForPrev(key []byte) {
	pos := it.search(key)
	if pos < len(it.entries) && bytes.Equal(it.entries[pos].Key, key) {
		it.pos = pos
		return
	}
	it.pos = pos - 1
}

func (it *rawIterator) SeekToFirst() { it.pos = 0 }
func (it *rawIterator) SeekToLast()  { it.pos = len(it.entries) - 1 }

func (it *rawIterator) Valid() bool { return it.pos >= 0 && it.pos < len(it.entries) }
func (it *rawIterator) Key() []byte { return it.entries[it.pos].Key }
func (it *rawIterator) Value() []byte { return it.entries[it.pos].Value }

func (it *rawIterator) Next() { it.pos++ }
func (it *rawIterator) Prev() { it.pos-- }

func (it *rawIterator) Close() error { return nil }

var _ storage.RawIterator = (*rawIterator)(nil)

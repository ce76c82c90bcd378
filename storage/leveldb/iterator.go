package leveldb

import (
	"bytes"

	"github.com/syndtr/goleveldb/leveldb/iterator"

	"github.com/grovedb/grovedb/storage"
)

// rawIterator implements storage.RawIterator over a goleveldb iterator
// already bounded to a single (tag, prefix) range. Key() strips the
// tag+prefix header so callers see only the local key.
type rawIterator struct {
	iter   iterator.Iterator
	header []byte // tag byte + context prefix
}

func (it *rawIterator) full(key []byte) []byte {
	out := make([]byte, len(it.header)+len(key))
	copy(out, it.header)
	copy(out[len(it.header):], key)
	return out
}

func (it *rawIterator) Seek(key []byte) { it.iter.Seek(it.full(key)) }

// SeekForPrev positions at the last key <= key. goleveldb's own Seek always
// lands on the first key >= target, so an exact match is returned directly
// and anything else steps back once.
func (it *rawIterator) SeekForPrev(key []byte) {
	target := it.full(key)
	if it.iter.Seek(target) {
		if bytes.Equal(it.iter.Key(), target) {
			return
		}
		it.iter.Prev()
		return
	}
	it.iter.Last()
}

func (it *rawIterator) SeekToFirst() { it.iter.First() }
func (it *rawIterator) SeekToLast()  { it.iter.Last() }
func (it *rawIterator) Valid() bool  { return it.iter.Valid() }

func (it *rawIterator) Key() []byte {
	return it.iter.Key()[len(it.header):]
}

func (it *rawIterator) Value() []byte {
	return it.iter.Value()
}

func (it *rawIterator) Next() { it.iter.Next() }
func (it *rawIterator) Prev() { it.iter.Prev() }

func (it *rawIterator) Close() error {
	it.iter.Release()
	return it.iter.Error()
}

var _ storage.RawIterator = (*rawIterator)(nil)

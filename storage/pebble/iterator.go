package pebble

import (
	"bytes"

	"github.com/cockroachdb/pebble"
)

// rawIterator implements storage.RawIterator over a pebble.Iterator already
// bounded to a single (tag, prefix) range. Key() strips the tag+prefix
// header so callers see only the local key.
type rawIterator struct {
	iter  *pebble.Iterator
	lower []byte // tag byte + context prefix, i.e. the key header
}

func (it *rawIterator) full(key []byte) []byte {
	out := make([]byte, len(it.lower)+len(key))
	copy(out, it.lower)
	copy(out[len(it.lower):], key)
	return out
}

func (it *rawIterator) Seek(key []byte) {
	it.iter.SeekGE(it.full(key))
}

func (it *rawIterator) SeekForPrev(key []byte) {
	target := it.full(key)
	if it.iter.SeekGE(target); it.iter.Valid() && bytes.Equal(it.iter.Key(), target) {
		return
	}
	it.iter.SeekLT(target)
}

func (it *rawIterator) SeekToFirst() { it.iter.First() }
func (it *rawIterator) SeekToLast()  { it.iter.Last() }
func (it *rawIterator) Valid() bool  { return it.iter.Valid() }

func (it *rawIterator) Key() []byte {
	return it.iter.Key()[len(it.lower):]
}

func (it *rawIterator) Value() []byte {
	return it.iter.Value()
}

func (it *rawIterator) Next() { it.iter.Next() }
func (it *rawIterator) Prev() { it.iter.Prev() }

func (it *rawIterator) Close() error {
	return it.iter.Close()
}

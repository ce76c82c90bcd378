package element

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/grovedb/grovedb/hash"
)

// Wire tags, per spec.md §6 "Tree on-disk encoding" / SPEC_FULL.md §4.4.
const (
	tagItem      byte = 0x00
	tagReference byte = 0x01
	tagTree      byte = 0x02
)

// ErrCorruptElement is returned when a stored Element's bytes cannot be
// decoded.
var ErrCorruptElement = errors.New("element: corrupt encoding")

// Encode serializes el into its Merk value payload: one tag byte followed
// by a variant-specific body — a varint-length-prefixed blob for Item, a
// varint component count followed by length-prefixed components for
// Reference, or a raw 32-byte hash for Tree.
func Encode(el Element) []byte {
	var buf bytes.Buffer
	switch el.Kind {
	case KindItem:
		buf.WriteByte(tagItem)
		writeBytes(&buf, el.Item)
	case KindReference:
		buf.WriteByte(tagReference)
		writeUvarint(&buf, uint64(len(el.Reference)))
		for _, component := range el.Reference {
			writeBytes(&buf, component)
		}
	case KindTree:
		buf.WriteByte(tagTree)
		buf.Write(el.Tree[:])
	}
	return buf.Bytes()
}

// Decode parses raw back into an Element, the inverse of Encode.
func Decode(raw []byte) (Element, error) {
	r := bytes.NewReader(raw)
	tag, err := r.ReadByte()
	if err != nil {
		return Element{}, ErrCorruptElement
	}
	switch tag {
	case tagItem:
		v, err := readBytes(r)
		if err != nil {
			return Element{}, err
		}
		return NewItem(v), nil
	case tagReference:
		count, err := binary.ReadUvarint(r)
		if err != nil {
			return Element{}, ErrCorruptElement
		}
		path := make([][]byte, count)
		for i := range path {
			component, err := readBytes(r)
			if err != nil {
				return Element{}, err
			}
			path[i] = component
		}
		return NewReference(path), nil
	case tagTree:
		var h [hash.Size]byte
		if _, err := io.ReadFull(r, h[:]); err != nil {
			return Element{}, ErrCorruptElement
		}
		return NewTree(hash.Hash(h)), nil
	default:
		return Element{}, ErrCorruptElement
	}
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUvarint(buf, uint64(len(b)))
	buf.Write(b)
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], v)
	buf.Write(lenBuf[:n])
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, ErrCorruptElement
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, ErrCorruptElement
	}
	return b, nil
}

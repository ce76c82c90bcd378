package proof

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/grovedb/grovedb/hash"
)

// Wire tags: one byte per push kind, then Parent and Child.
const (
	tagPushKV     byte = 0x01
	tagPushKVHash byte = 0x02
	tagPushHash   byte = 0x03
	tagParent     byte = 0x10
	tagChild      byte = 0x11
)

// Encode serializes an op stream to its wire form: a flat sequence of
// [tag][payload] records, no outer length prefix or framing (the caller
// already knows where one proof ends, e.g. from the outer database
// façade's length-prefixed per-subtree blobs).
func Encode(ops []Op) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		switch op.Code {
		case OpPush:
			encodePush(&buf, op.Node)
		case OpParent:
			buf.WriteByte(tagParent)
		case OpChild:
			buf.WriteByte(tagChild)
		}
	}
	return buf.Bytes()
}

func encodePush(buf *bytes.Buffer, n *Node) {
	switch n.Kind {
	case KindKV:
		buf.WriteByte(tagPushKV)
		writeBytes(buf, n.Key)
		writeBytes(buf, n.Value)
	case KindKVHash:
		buf.WriteByte(tagPushKVHash)
		buf.Write(n.Hash[:])
	case KindHash:
		buf.WriteByte(tagPushHash)
		buf.Write(n.Hash[:])
	}
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
	buf.Write(lenBuf[:n])
	buf.Write(b)
}

// Decode parses a wire-form op stream back into an Op slice.
func Decode(raw []byte) ([]Op, error) {
	r := bytes.NewReader(raw)
	var ops []Op
	for {
		tag, err := r.ReadByte()
		if err == io.EOF {
			return ops, nil
		}
		if err != nil {
			return nil, ErrMalformed
		}
		switch tag {
		case tagPushKV:
			key, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			value, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			ops = append(ops, Op{Code: OpPush, Node: &Node{Kind: KindKV, Key: key, Value: value}})
		case tagPushKVHash, tagPushHash:
			var h [hash.Size]byte
			if _, err := io.ReadFull(r, h[:]); err != nil {
				return nil, ErrMalformed
			}
			kind := KindKVHash
			if tag == tagPushHash {
				kind = KindHash
			}
			ops = append(ops, Op{Code: OpPush, Node: &Node{Kind: kind, Hash: hash.Hash(h)}})
		case tagParent:
			ops = append(ops, Op{Code: OpParent})
		case tagChild:
			ops = append(ops, Op{Code: OpChild})
		default:
			return nil, ErrMalformed
		}
	}
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, ErrMalformed
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, ErrMalformed
	}
	return b, nil
}

// Package hash implements the 32-byte Merkle hash primitive shared by the
// storage, merk, proof and element layers: kv-hashes, node-hashes, and the
// all-zero hash standing in for an absent child.
package hash

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Size is the byte length of a Hash.
const Size = 32

// Hash is a 32-byte Merkle hash.
type Hash [Size]byte

// Zero is the hash standing in for a nil child link.
var Zero = Hash{}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Bytes returns a copy of the hash's bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// String renders the hash as a short hex prefix, in the teacher's style of
// truncating long identifiers for human-readable logs.
func (h Hash) String() string {
	full := hex.EncodeToString(h[:])
	if len(full) <= 8 {
		return full
	}
	return full[:8] + "..."
}

// Hex renders the full hash as hex.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// FromBytes builds a Hash from a 32-byte slice.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, ErrBadLength
	}
	copy(h[:], b)
	return h, nil
}

// FromHex parses a hex-encoded hash.
func FromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	return FromBytes(b)
}

// Equal reports whether two hashes are byte-identical.
func Equal(a, b Hash) bool {
	return bytes.Equal(a[:], b[:])
}

// sum computes the BLAKE2b-256 digest of the concatenation of its inputs.
func sum(parts ...[]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors for a key longer than 64 bytes; we
		// never pass one.
		panic("hash: blake2b.New256: " + err.Error())
	}
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// KV computes kv_hash(node) = H(key_length || key || value_length || value),
// per spec.md §4.2 "Root hash".
func KV(key, value []byte) Hash {
	var kLen, vLen [8]byte
	binary.LittleEndian.PutUint64(kLen[:], uint64(len(key)))
	binary.LittleEndian.PutUint64(vLen[:], uint64(len(value)))
	return sum(kLen[:], key, vLen[:], value)
}

// Node computes node-hash = H(kv_hash || left_hash_or_zero || right_hash_or_zero),
// per spec.md §3/§4.2.
func Node(kvHash, left, right Hash) Hash {
	return sum(kvHash[:], left[:], right[:])
}

// Combine hashes an arbitrary ordered list of byte strings together, with no
// length prefixes; subtree storage prefixes are derived with PathPrefix.
func Combine(parts ...[]byte) Hash {
	return sum(parts...)
}

// PathPrefix derives a collision-resistant storage-context prefix from an
// outer path: each component is length-prefixed before being folded in, so
// that, unlike a bare Combine, ["ab", "c"] and ["a", "bc"] never hash to
// the same prefix.
func PathPrefix(path [][]byte) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("hash: blake2b.New256: " + err.Error())
	}
	var lenBuf [8]byte
	for _, p := range path {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(p)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

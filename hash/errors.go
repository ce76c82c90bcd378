package hash

import "errors"

// ErrBadLength is returned when decoding a hash from a slice of the wrong size.
var ErrBadLength = errors.New("hash: expected 32 bytes")

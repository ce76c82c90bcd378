package proof

import "errors"

// ErrMalformed is returned when decoding or executing an op stream that
// does not parse, or does not reduce to a single tree.
var ErrMalformed = errors.New("proof: malformed op stream")

// ErrRootMismatch is returned by Execute when the reconstructed root hash
// does not match the hash the caller expected.
var ErrRootMismatch = errors.New("proof: reconstructed root hash does not match expected root")

package merk

import "errors"

// ErrKeyNotFound is returned by Get when the key is absent from the tree.
var ErrKeyNotFound = errors.New("merk: key not found")

// ErrCorruptNode is returned when a stored node's bytes cannot be decoded.
var ErrCorruptNode = errors.New("merk: corrupt node encoding")

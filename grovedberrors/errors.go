// Package grovedberrors enumerates the domain-level error kinds named in
// spec.md §7, as a tagged Go error type layered over the package-level
// sentinel errors the storage/merk/query/element packages already raise
// (hash.ErrBadLength, merk.ErrKeyNotFound, proof.ErrRootMismatch, ...) —
// the same two-tier pattern the teacher uses (sentinel errors.New values
// plus fmt.Errorf("...: %w", err) wrapping), just with a Kind attached so
// an outer caller (the CLI, a future RPC layer) can classify a failure
// without string-matching its message.
package grovedberrors

import "errors"

// Kind enumerates the domain error kinds of spec.md §7.
type Kind int

const (
	// KindPathKeyNotFound means a path or key named in a request does not
	// exist.
	KindPathKeyNotFound Kind = iota
	// KindInvalidPath means a path is structurally invalid (e.g. a
	// non-Tree element encountered where a subtree was expected).
	KindInvalidPath
	// KindMissingParameter means a required parameter was not supplied
	// (e.g. neither subquery nor subquery_key for a tree-of-trees query).
	KindMissingParameter
	// KindCyclicReference means following a chain of Reference elements
	// revisited a path already on the chain.
	KindCyclicReference
	// KindReferenceLimit means a Reference chain exceeded the Database's
	// hop limit (grove.DefaultMaxReferenceHops unless overridden).
	KindReferenceLimit
	// KindCorruptedData means a decode failure or a failed proof
	// verification.
	KindCorruptedData
	// KindInternalError means an invariant the core itself is responsible
	// for maintaining was violated (e.g. an unsorted or duplicate-key
	// apply batch).
	KindInternalError
	// KindBackend wraps a storage backend I/O failure.
	KindBackend
)

// String names the kind, for logging.
func (k Kind) String() string {
	switch k {
	case KindPathKeyNotFound:
		return "path_key_not_found"
	case KindInvalidPath:
		return "invalid_path"
	case KindMissingParameter:
		return "missing_parameter"
	case KindCyclicReference:
		return "cyclic_reference"
	case KindReferenceLimit:
		return "reference_limit"
	case KindCorruptedData:
		return "corrupted_data"
	case KindInternalError:
		return "internal_error"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged domain error, optionally wrapping an underlying
// cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds a Kind-tagged error around an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err is, or wraps, a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

package gridstore

import "errors"

// ErrShapeMismatch is raised when a caller supplies arrays whose length
// disagrees with the region they claim to cover. Per spec this is an
// invalid-input failure, never retried, and GridStore never swallows it.
var ErrShapeMismatch = errors.New("gridstore: array length does not match region dimensions")

// ErrOutOfRange is an alias kept for callers that key on the
// operation-level name used in spec §4.1; it wraps the same condition as
// ErrShapeMismatch.
var ErrOutOfRange = ErrShapeMismatch

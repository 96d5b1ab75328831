package dom

import "errors"

// Errors reported by tree, range and iterator operations. Callers wrap
// them with detail and test with errors.Is.
var (
	ErrInvalidState     = errors.New("invalid state")
	ErrNotFound         = errors.New("node not found")
	ErrHierarchy        = errors.New("hierarchy request error")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrWrongDocument    = errors.New("wrong document")
	ErrBoundaryMismatch = errors.New("bad boundary points")
	ErrInvalidNodeType  = errors.New("invalid node type")
)

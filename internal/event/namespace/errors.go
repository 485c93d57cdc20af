package namespace

import "errors"

// Sentinel errors for namespace operations.
var (
	// ErrEmptyPath is returned when a path has no segments.
	ErrEmptyPath = errors.New("namespace path is empty")

	// ErrEmptySegment is returned when a path contains an empty segment,
	// e.g. a leading, trailing or doubled separator.
	ErrEmptySegment = errors.New("namespace path contains an empty segment")

	// ErrPathNotFound is returned when a path does not resolve to a node.
	ErrPathNotFound = errors.New("namespace path not found")

	// ErrNotSubscribed is returned when a value is not registered at a node.
	ErrNotSubscribed = errors.New("value not registered at namespace path")
)

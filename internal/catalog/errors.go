package catalog

import "errors"

var (
	// ErrNotFound means a lookup matched nothing. It is a normal outcome,
	// not a failure of the source.
	ErrNotFound = errors.New("not found")

	// ErrSourceUnavailable means the catalog could not be loaded. Callers
	// may retry.
	ErrSourceUnavailable = errors.New("catalog source unavailable")

	// ErrInvalidQuery means the caller supplied no usable lookup key.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrDuplicateSlug means two projects share a slug.
	ErrDuplicateSlug = errors.New("duplicate slug")
)

package query

import "errors"

// Sentinel errors returned by Scope and Window operations.
var (
	// ErrWindowOutOfRange is returned by [Window.Narrow] when the requested
	// window lies entirely outside the parent window (the composed absolute
	// window would be empty or inverted).
	ErrWindowOutOfRange = errors.New("query: requested window outside available range")

	// ErrInvalidSlice is returned when a slice request is malformed, e.g. a
	// negative offset or a non-positive length.
	ErrInvalidSlice = errors.New("query: invalid slice bounds")
)

package store

import "errors"

// Common store errors.
var (
	// ErrMalformedQuery is returned when a query cannot be parsed at all.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrUnsupportedQuery is returned when a query uses syntax outside the
	// basic graph-pattern subset the bundled backend evaluates.
	ErrUnsupportedQuery = errors.New("unsupported query syntax")
)

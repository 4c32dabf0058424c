package dataset

import "errors"

// Sentinel errors returned by collection and model operations.
var (
	// ErrRecordNotFound is returned by GetOrFail when no record matches the
	// given key.
	ErrRecordNotFound = errors.New("dataset: record not found")

	// ErrNotImplemented is returned by the validated bulk mutation entry
	// points (Update, Destroy). Validated set-based mutation does not exist
	// yet; callers must use the explicit UpdateAll / DestroyAll variants.
	ErrNotImplemented = errors.New("dataset: validated bulk mutation not implemented")

	// ErrUnknownRelationship is returned by Traverse when the model's
	// relationship table has no entry for the requested name.
	ErrUnknownRelationship = errors.New("dataset: unknown relationship")

	// ErrKeyMismatch is returned when a raw key has the wrong arity or a
	// value that cannot be cast to its key property's kind.
	ErrKeyMismatch = errors.New("dataset: key does not match the model's key properties")

	// ErrIndexOutOfRange is returned by positional mutators when the index
	// is outside the materialized sequence.
	ErrIndexOutOfRange = errors.New("dataset: index out of range")

	// ErrNoInserter is returned by Create when the bound repository cannot
	// persist new records (it does not implement Inserter).
	ErrNoInserter = errors.New("dataset: repository cannot persist new records")
)

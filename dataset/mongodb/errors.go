package mongodb

import "errors"

// Sentinel errors returned by the adapter's bulk mutations.
var (
	// ErrWindowedMutation is returned by Update and Delete when a windowed
	// scope cannot be resolved to concrete keys: UpdateAll and RemoveAll
	// cannot express a row window, and resolving one requires a registered
	// model with key properties.
	ErrWindowedMutation = errors.New("mongodb: windowed bulk mutation needs a registered keyed model")
)

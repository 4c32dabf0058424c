package dataset

import (
	"context"

	"github.com/hasbyte1/go-datamapper-utils/query"
)

// Repository defines the persistence operations the collection layer
// delegates to. All I/O, cancellation, and timeout behavior lives behind
// this interface; the collection itself never suspends. Persistence
// failures propagate unchanged — the collection performs no retries and
// treats every repository error as fatal to the current operation.
//
// Reference implementations live in dataset/inmemory and dataset/mongodb.
type Repository interface {
	// Name returns the repository's registered name, used as
	// query.Scope.Repository.
	Name() string

	// ReadMany returns every record matching the scope, in the scope's
	// order. Scopes with descending order return rows pre-reversed; the
	// collection re-assembles them front-to-back when required.
	ReadMany(ctx context.Context, s query.Scope) ([]*Record, error)

	// ReadOne returns the first record matching the scope, or (nil, nil)
	// when nothing matches (absence is not an error).
	ReadOne(ctx context.Context, s query.Scope) (*Record, error)

	// Update applies a set-based update to every row matching the scope and
	// returns the affected-row count.
	Update(ctx context.Context, values map[string]any, s query.Scope) (int, error)

	// Delete removes every row matching the scope and returns the
	// affected-row count.
	Delete(ctx context.Context, s query.Scope) (int, error)

	// IdentityMap returns the keyed cache for the named model.
	IdentityMap(model string) *IdentityMap
}

// Inserter is implemented by repositories that can persist new records.
// Insert stores the value map for the named model and returns the stored
// values, including any repository-assigned (serial) key values.
type Inserter interface {
	Insert(ctx context.Context, model string, values map[string]any) (map[string]any, error)
}

// Package inmemory provides a thread-safe in-memory implementation of
// [dataset.Repository] and [dataset.Inserter].
//
// It is intended for use in tests and prototyping. Do not use it in
// production.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/pborman/uuid"

	"github.com/hasbyte1/go-datamapper-utils/dataset"
	"github.com/hasbyte1/go-datamapper-utils/query"
)

// DefaultName is the repository name used when none is configured.
const DefaultName = "memory"

// Repository is a thread-safe in-memory implementation of
// [dataset.Repository] and [dataset.Inserter]. Rows are stored per model in
// insertion order; scopes are evaluated with full condition matching,
// multi-key ordering, window application and field projection.
type Repository struct {
	name string

	mu       sync.RWMutex
	tables   map[string][]map[string]any
	models   map[string]dataset.Model
	identity map[string]*dataset.IdentityMap

	// loadMu serializes model.Load calls: the identity map and the records
	// it holds carry no locking of their own.
	loadMu sync.Mutex
}

// New creates an empty repository named [DefaultName].
func New() *Repository { return NewNamed(DefaultName) }

// NewNamed creates an empty repository with an explicit name.
func NewNamed(name string) *Repository {
	return &Repository{
		name:     name,
		tables:   make(map[string][]map[string]any),
		models:   make(map[string]dataset.Model),
		identity: make(map[string]*dataset.IdentityMap),
	}
}

// Name returns the repository's registered name.
func (r *Repository) Name() string { return r.name }

// Register associates a model with its entity name, enabling identity-map
// reuse on read and serial key assignment on insert.
func (r *Repository) Register(m dataset.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.Name()] = m
}

// IdentityMap returns the keyed cache for the named model, creating it on
// first use.
func (r *Repository) IdentityMap(model string) *dataset.IdentityMap {
	r.mu.Lock()
	defer r.mu.Unlock()
	im, ok := r.identity[model]
	if !ok {
		im = dataset.NewIdentityMap()
		r.identity[model] = im
	}
	return im
}

// ReadMany returns every row matching the scope, in the scope's order.
func (r *Repository) ReadMany(_ context.Context, s query.Scope) ([]*dataset.Record, error) {
	r.mu.RLock()
	table := r.tables[s.Model]
	selected := selectIndices(table, s)
	rows := make([]map[string]any, len(selected))
	for i, idx := range selected {
		rows[i] = project(table[idx], s.Fields)
	}
	model := r.models[s.Model]
	r.mu.RUnlock()

	out := make([]*dataset.Record, len(rows))
	if model != nil {
		r.loadMu.Lock()
		for i, values := range rows {
			out[i] = model.Load(values, s)
		}
		r.loadMu.Unlock()
	} else {
		for i, values := range rows {
			out[i] = dataset.NewRecord(values, true)
		}
	}
	return out, nil
}

// ReadOne returns the first row matching the scope, or (nil, nil).
func (r *Repository) ReadOne(ctx context.Context, s query.Scope) (*dataset.Record, error) {
	records, err := r.ReadMany(ctx, s.With(query.WithLimit(1)))
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// Update applies values to every row matching the scope and returns the
// affected-row count.
func (r *Repository) Update(_ context.Context, values map[string]any, s query.Scope) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.tables[s.Model]
	selected := selectIndices(table, s)
	for _, idx := range selected {
		for name, v := range values {
			table[idx][name] = v
		}
	}
	return len(selected), nil
}

// Delete removes every row matching the scope and returns the affected-row
// count.
func (r *Repository) Delete(_ context.Context, s query.Scope) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.tables[s.Model]
	selected := selectIndices(table, s)
	if len(selected) == 0 {
		return 0, nil
	}

	victim := make(map[int]bool, len(selected))
	for _, idx := range selected {
		victim[idx] = true
	}
	keep := table[:0]
	for i, row := range table {
		if !victim[i] {
			keep = append(keep, row)
		}
	}
	r.tables[s.Model] = keep
	return len(selected), nil
}

// Insert stores a new row for the named model, assigning a UUID to any
// serial key property left unset, and returns the stored values.
func (r *Repository) Insert(_ context.Context, model string, values map[string]any) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := make(map[string]any, len(values))
	for name, v := range values {
		row[name] = v
	}
	if m, ok := r.models[model]; ok {
		for _, p := range m.Key(r.name) {
			if v, present := row[p.Name]; p.Serial && (!present || v == nil) {
				row[p.Name] = uuid.New()
			}
		}
	}
	r.tables[model] = append(r.tables[model], row)
	return project(row, nil), nil
}

// Truncate drops every row of the named model. Test helper.
func (r *Repository) Truncate(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, model)
}

// selectIndices applies the scope's conditions, order and window to a
// table, returning the indices of the selected rows in result order.
// Callers must hold at least the read lock.
func selectIndices(table []map[string]any, s query.Scope) []int {
	matched := make([]int, 0)
	for i, row := range table {
		if matchesAll(row, s.Conditions) {
			matched = append(matched, i)
		}
	}

	if len(s.Order) > 0 {
		sort.SliceStable(matched, func(a, b int) bool {
			return lessRows(table[matched[a]], table[matched[b]], s.Order)
		})
	}

	if s.Offset >= len(matched) {
		return nil
	}
	matched = matched[s.Offset:]
	if s.Limit != query.NoLimit && s.Limit < len(matched) {
		matched = matched[:s.Limit]
	}
	return matched
}

// project copies a row, restricted to the projection when one is set.
func project(row map[string]any, fields []string) map[string]any {
	if fields == nil {
		out := make(map[string]any, len(row))
		for name, v := range row {
			out[name] = v
		}
		return out
	}
	out := make(map[string]any, len(fields))
	for _, name := range fields {
		if v, ok := row[name]; ok {
			out[name] = v
		}
	}
	return out
}

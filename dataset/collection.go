package dataset

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hasbyte1/go-datamapper-utils/query"
)

// loadState tracks a collection's lazy-materialization lifecycle.
type loadState uint8

const (
	stateUnloaded loadState = iota
	stateLoading
	stateLoaded
)

// Collection is a lazily-materialized, query-scoped sequence of records:
// it represents "the records matching scope S" without necessarily having
// fetched them. Any operation that needs concrete elements — iteration,
// size, indexed access, structural mutation — triggers the fetch
// transparently, at most once per instance ([Collection.Reload] re-arms it).
//
// While materialized, the collection keeps an identity cache whose key set
// always equals the key set of its current elements; [Collection.Relate]
// and [Collection.Orphan] maintain that invariant around every structural
// mutator.
//
// A Collection is not safe for concurrent use; see the package
// documentation.
type Collection struct {
	scope    query.Scope
	model    Model
	repo     Repository
	keyProps []Property

	records []*Record
	cache   map[Key]*Record
	state   loadState

	// addReversed makes materialization assemble elements front-to-back
	// from a descending fetch, so LastN windows end up in ascending order.
	addReversed bool
}

// NewCollection builds an unmaterialized collection over the given scope.
// The scope's model and repository names are filled in from the
// collaborators when unset. Key properties are fixed here for the life of
// the collection.
func NewCollection(repo Repository, model Model, s query.Scope) *Collection {
	if s.Model == "" {
		s = s.With(query.WithModel(model.Name()))
	}
	if s.Repository == "" {
		s = s.With(query.WithRepository(repo.Name()))
	}
	return &Collection{
		scope:    s,
		model:    model,
		repo:     repo,
		keyProps: model.Key(repo.Name()),
		cache:    make(map[Key]*Record),
	}
}

// NewLoadedCollection builds a collection that is already materialized with
// the given records. Each record is related into the collection (taking
// ownership) in order.
func NewLoadedCollection(repo Repository, model Model, s query.Scope, records []*Record) *Collection {
	c := NewCollection(repo, model, s)
	c.state = stateLoaded
	for _, r := range records {
		c.records = append(c.records, c.Relate(r))
	}
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Accessors
// ─────────────────────────────────────────────────────────────────────────────

// Scope returns the scope this collection is a view of.
func (c *Collection) Scope() query.Scope { return c.scope }

// Model returns the collection's model.
func (c *Collection) Model() Model { return c.model }

// Repository returns the collection's repository.
func (c *Collection) Repository() Repository { return c.repo }

// Loaded reports whether the backing sequence is materialized.
func (c *Collection) Loaded() bool { return c.state == stateLoaded }

// Len returns the number of records, materializing if necessary.
func (c *Collection) Len(ctx context.Context) (int, error) {
	if err := c.materialize(ctx); err != nil {
		return 0, err
	}
	return len(c.records), nil
}

// Empty reports whether the collection holds no records, materializing if
// necessary.
func (c *Collection) Empty(ctx context.Context) (bool, error) {
	n, err := c.Len(ctx)
	return n == 0, err
}

// Records returns a copy of the backing sequence, materializing if
// necessary.
func (c *Collection) Records(ctx context.Context) ([]*Record, error) {
	if err := c.materialize(ctx); err != nil {
		return nil, err
	}
	out := make([]*Record, len(c.records))
	copy(out, c.records)
	return out, nil
}

// Each calls fn(record, index) for every record, materializing if
// necessary.
func (c *Collection) Each(ctx context.Context, fn func(*Record, int)) error {
	if err := c.materialize(ctx); err != nil {
		return err
	}
	for i, r := range c.records {
		fn(r, i)
	}
	return nil
}

// String returns a compact debug form of the collection.
// It implements [fmt.Stringer].
func (c *Collection) String() string {
	if c.state != stateLoaded {
		return fmt.Sprintf("dataset.Collection(%s: unloaded)", c.scope.Model)
	}
	return fmt.Sprintf("dataset.Collection(%s: %d records)", c.scope.Model, len(c.records))
}

// ─────────────────────────────────────────────────────────────────────────────
// Lazy materialization
// ─────────────────────────────────────────────────────────────────────────────

// materialize issues the backing fetch once. Re-entrant calls during the
// fetch (the loading state) and calls after completion are no-ops; a failed
// fetch re-arms the collection so the next kicker retries.
func (c *Collection) materialize(ctx context.Context) error {
	if c.state != stateUnloaded {
		return nil
	}
	c.state = stateLoading

	fetched, err := c.repo.ReadMany(ctx, c.scope)
	if err != nil {
		c.state = stateUnloaded
		return fmt.Errorf("dataset: materialize %s: %w", c.scope.Model, err)
	}

	// Relate in repository order; reversed scopes arrive descending and are
	// assembled front-to-back so the in-memory order stays ascending.
	for _, r := range fetched {
		c.records = append(c.records, c.Relate(r))
	}
	if c.addReversed {
		for i, j := 0, len(c.records)-1; i < j; i, j = i+1, j-1 {
			c.records[i], c.records[j] = c.records[j], c.records[i]
		}
	}

	c.state = stateLoaded
	return nil
}

// Reload composes a fresh scope (narrowed by the known keys when
// materialized, merged with any override options, and always projecting the
// key fields so identity is preserved), installs it wholesale, and resets
// the collection to unloaded. The next kicker issues exactly one fetch.
func (c *Collection) Reload(opts ...query.Option) error {
	s, err := c.scopedQuery(opts...)
	if err != nil {
		return err
	}
	if s.Fields != nil {
		for _, p := range c.keyProps {
			found := false
			for _, f := range s.Fields {
				if f == p.Name {
					found = true
					break
				}
			}
			if !found {
				s = s.With(query.WithFields(append(s.Fields, p.Name)...))
			}
		}
	}

	c.scope = s
	c.records = nil
	c.cache = make(map[Key]*Record)
	c.state = stateUnloaded
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Association protocol
// ─────────────────────────────────────────────────────────────────────────────

// Relate binds a record to this collection: its owning-collection
// back-reference is reassigned here and it is cached under its key. A
// record already owned by another collection is silently reassigned; the
// previous owner's cache entry is deliberately left in place until that
// collection orphans or replaces on its own, matching the historical
// behavior of the protocol. Returns the record. A nil record is a no-op.
func (c *Collection) Relate(r *Record) *Record {
	if r == nil {
		return nil
	}
	r.owner = c
	if key, ok := c.keyOf(r); ok {
		c.cache[key] = r
	}
	return r
}

// Orphan unbinds a record: the back-reference is cleared only when it
// points at this collection, while the cache entry for the record's key is
// removed unconditionally, so removal through the base sequence keeps its
// semantics even after ownership moved elsewhere. Returns the record. A nil
// record is a no-op.
func (c *Collection) Orphan(r *Record) *Record {
	if r == nil {
		return nil
	}
	if r.owner == c {
		r.owner = nil
	}
	if key, ok := c.keyOf(r); ok {
		delete(c.cache, key)
	}
	return r
}

// keyOf builds the cache key for a record, reporting false when any key
// property is missing (e.g. an unsaved record) or uncastable.
func (c *Collection) keyOf(r *Record) (Key, bool) {
	if len(c.keyProps) == 0 {
		return "", false
	}
	tuple := make([]any, len(c.keyProps))
	for i, p := range c.keyProps {
		v, ok := r.Get(p.Name)
		if !ok || v == nil {
			return "", false
		}
		cast, err := p.Typecast(v)
		if err != nil {
			return "", false
		}
		tuple[i] = cast
	}
	return MakeKey(tuple...), true
}

// ─────────────────────────────────────────────────────────────────────────────
// Structural mutators
// ─────────────────────────────────────────────────────────────────────────────

// Push appends records, relating each in argument order.
func (c *Collection) Push(ctx context.Context, records ...*Record) error {
	if err := c.materialize(ctx); err != nil {
		return err
	}
	for _, r := range records {
		c.records = append(c.records, c.Relate(r))
	}
	return nil
}

// Unshift prepends records, preserving their argument order at the front.
func (c *Collection) Unshift(ctx context.Context, records ...*Record) error {
	if err := c.materialize(ctx); err != nil {
		return err
	}
	for _, r := range records {
		c.Relate(r)
	}
	out := make([]*Record, 0, len(records)+len(c.records))
	out = append(out, records...)
	out = append(out, c.records...)
	c.records = out
	return nil
}

// Insert places a record at index (0 ≤ index ≤ Len).
func (c *Collection) Insert(ctx context.Context, index int, r *Record) error {
	if err := c.materialize(ctx); err != nil {
		return err
	}
	if index < 0 || index > len(c.records) {
		return fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, index, len(c.records))
	}
	c.Relate(r)
	c.records = append(c.records, nil)
	copy(c.records[index+1:], c.records[index:])
	c.records[index] = r
	return nil
}

// Concat appends every record of other, taking ownership of each.
func (c *Collection) Concat(ctx context.Context, other *Collection) error {
	records, err := other.Records(ctx)
	if err != nil {
		return err
	}
	return c.Push(ctx, records...)
}

// Replace installs a new backing sequence: every existing element is
// orphaned first, then every new element related, so no record is ever
// simultaneously cached as removed and as added.
func (c *Collection) Replace(ctx context.Context, records []*Record) error {
	if err := c.materialize(ctx); err != nil {
		return err
	}
	for _, r := range c.records {
		c.Orphan(r)
	}
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		out = append(out, c.Relate(r))
	}
	c.records = out
	return nil
}

// Delete removes the first occurrence of r (by identity), reporting
// whether it was present.
func (c *Collection) Delete(ctx context.Context, r *Record) (bool, error) {
	if err := c.materialize(ctx); err != nil {
		return false, err
	}
	for i, candidate := range c.records {
		if candidate == r {
			c.Orphan(r)
			c.records = append(c.records[:i], c.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// DeleteAt removes and returns the record at index. A negative index counts
// from the end.
func (c *Collection) DeleteAt(ctx context.Context, index int) (*Record, error) {
	if err := c.materialize(ctx); err != nil {
		return nil, err
	}
	if index < 0 {
		index += len(c.records)
	}
	if index < 0 || index >= len(c.records) {
		return nil, fmt.Errorf("%w: delete at %d of %d", ErrIndexOutOfRange, index, len(c.records))
	}
	r := c.records[index]
	c.Orphan(r)
	c.records = append(c.records[:index], c.records[index+1:]...)
	return r, nil
}

// Clear removes every record, orphaning each.
func (c *Collection) Clear(ctx context.Context) error {
	if err := c.materialize(ctx); err != nil {
		return err
	}
	for _, r := range c.records {
		c.Orphan(r)
	}
	c.records = c.records[:0]
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scope composition
// ─────────────────────────────────────────────────────────────────────────────

// scopedQuery composes the requested override options with the current
// scope: a materialized collection first narrows the request by its known
// key set, an override identical to the current scope short-circuits, and
// windowed scopes on either side go through the relative-window arithmetic
// before the merge.
func (c *Collection) scopedQuery(opts ...query.Option) (query.Scope, error) {
	requested := query.Scope{}
	for _, opt := range opts {
		opt(&requested)
	}

	if c.state == stateLoaded && len(c.records) > 0 {
		requested.Conditions = append(requested.Conditions, c.keyConditions(c.records)...)
	}
	if requested.Model == "" {
		requested.Model = c.scope.Model
	}
	if requested.Repository == "" {
		requested.Repository = c.scope.Repository
	}

	if requested.Equal(c.scope) {
		return c.scope, nil
	}

	if c.scope.Windowed() || requested.Windowed() {
		w, narrowed, err := c.scope.Window().Narrow(requested.Window())
		if err != nil {
			return query.Scope{}, err
		}
		if narrowed {
			requested.Offset = w.Offset
			requested.Limit = w.Limit
		}
	}

	return c.scope.Merge(requested), nil
}

// keyConditions derives one In-condition per key property from the given
// records' concrete key tuples, letting a narrowing re-query be satisfied
// by an already-known key set. No records contribute nothing.
func (c *Collection) keyConditions(records []*Record) []query.Condition {
	if len(c.keyProps) == 0 {
		return nil
	}
	columns := make([][]any, len(c.keyProps))
	for _, r := range records {
		for i, p := range c.keyProps {
			v, ok := r.Get(p.Name)
			if !ok {
				continue
			}
			if cast, err := p.Typecast(v); err == nil {
				columns[i] = append(columns[i], cast)
			}
		}
	}
	conds := make([]query.Condition, 0, len(c.keyProps))
	for i, p := range c.keyProps {
		if len(columns[i]) == 0 {
			continue
		}
		conds = append(conds, query.Condition{Op: query.In, Property: p.Name, Value: columns[i]})
	}
	return conds
}

// ─────────────────────────────────────────────────────────────────────────────
// Query-derived views
// ─────────────────────────────────────────────────────────────────────────────

// All returns a collection scoped by the composed override. With no options
// — or when the composed scope equals the current one — it returns the
// receiver itself, issuing no fetch. Otherwise the result is a new,
// unmaterialized collection over the merged scope.
func (c *Collection) All(opts ...query.Option) (*Collection, error) {
	if len(opts) == 0 {
		return c, nil
	}
	s, err := c.scopedQuery(opts...)
	if err != nil {
		return nil, err
	}
	if s.Equal(c.scope) {
		return c, nil
	}
	return NewCollection(c.repo, c.model, s), nil
}

// First returns the first matching record, or nil when there is none. On a
// materialized collection with no override it answers from memory, relating
// the element first; otherwise it issues a single-row read over the
// composed scope.
func (c *Collection) First(ctx context.Context, opts ...query.Option) (*Record, error) {
	if len(opts) == 0 && c.state == stateLoaded {
		if len(c.records) == 0 {
			return nil, nil
		}
		return c.Relate(c.records[0]), nil
	}
	s, err := c.scopedQuery(append(opts, query.WithLimit(1))...)
	if err != nil {
		return nil, err
	}
	r, err := c.repo.ReadOne(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("dataset: first %s: %w", c.scope.Model, err)
	}
	if r != nil {
		c.Relate(r)
	}
	return r, nil
}

// Last returns the last matching record, or nil when there is none. The
// fetch path reverses the effective order so storage returns the logical
// tail first.
func (c *Collection) Last(ctx context.Context, opts ...query.Option) (*Record, error) {
	if len(opts) == 0 && c.state == stateLoaded {
		if len(c.records) == 0 {
			return nil, nil
		}
		return c.Relate(c.records[len(c.records)-1]), nil
	}
	s, err := c.scopedQuery(append(opts, query.WithLimit(1))...)
	if err != nil {
		return nil, err
	}
	r, err := c.repo.ReadOne(ctx, c.reversed(s))
	if err != nil {
		return nil, fmt.Errorf("dataset: last %s: %w", c.scope.Model, err)
	}
	if r != nil {
		c.Relate(r)
	}
	return r, nil
}

// FirstN returns a collection of at most n leading records. On a
// materialized collection with no extra override the in-memory sequence is
// sliced directly, under a scope pinned to the slice's keys; otherwise the
// result is an unmaterialized collection over the composed scope with
// limit n.
func (c *Collection) FirstN(n int, opts ...query.Option) (*Collection, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: count %d", query.ErrInvalidSlice, n)
	}
	if len(opts) == 0 && c.state == stateLoaded {
		sub := c.records[:min(n, len(c.records))]
		return NewLoadedCollection(c.repo, c.model, c.subrangeScope(sub), sub), nil
	}
	s, err := c.scopedQuery(append(opts, query.WithLimit(n))...)
	if err != nil {
		return nil, err
	}
	return NewCollection(c.repo, c.model, s), nil
}

// LastN returns a collection of at most n trailing records, in ascending
// order. On a materialized collection with no extra override the in-memory
// sequence is sliced directly, under a scope pinned to the slice's keys.
// The fetch path reverses the effective order and assembles elements
// front-to-back, so the final in-memory order matches the natural order
// even though the window is fetched in descending form.
func (c *Collection) LastN(n int, opts ...query.Option) (*Collection, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: count %d", query.ErrInvalidSlice, n)
	}
	if len(opts) == 0 && c.state == stateLoaded {
		sub := c.records[max(len(c.records)-n, 0):]
		return NewLoadedCollection(c.repo, c.model, c.subrangeScope(sub), sub), nil
	}
	s, err := c.scopedQuery(append(opts, query.WithLimit(n))...)
	if err != nil {
		return nil, err
	}
	out := NewCollection(c.repo, c.model, c.reversed(s))
	out.addReversed = true
	return out, nil
}

// subrangeScope describes a concrete in-memory subrange: the current scope
// narrowed to the subrange's keys, with the window cleared — the keys pin
// the membership regardless of position, and a positional window would
// misdescribe a slice taken from anywhere but the front.
func (c *Collection) subrangeScope(records []*Record) query.Scope {
	return c.scope.With(
		query.Where(c.keyConditions(records)...),
		query.WithOffset(0),
		query.WithLimit(query.NoLimit),
	)
}

// At returns the record at index; a negative index counts from the end.
// Out-of-range access on a materialized collection returns nil. An
// unmaterialized collection answers with a single windowed read instead of
// fetching everything.
func (c *Collection) At(ctx context.Context, index int) (*Record, error) {
	if c.state == stateLoaded {
		if index < 0 {
			index += len(c.records)
		}
		if index < 0 || index >= len(c.records) {
			return nil, nil
		}
		return c.Relate(c.records[index]), nil
	}
	if index >= 0 {
		return c.First(ctx, query.WithOffset(index))
	}
	return c.Last(ctx, query.WithOffset(-index-1))
}

// Slice returns a collection over the subrange starting at offset with at
// most length records, both relative to the current scope.
func (c *Collection) Slice(offset, length int) (*Collection, error) {
	if offset < 0 || length <= 0 {
		return nil, fmt.Errorf("%w: offset %d, length %d", query.ErrInvalidSlice, offset, length)
	}
	return c.All(query.WithOffset(offset), query.WithLimit(length))
}

// Get returns the record with the given key, or nil when absent. The raw
// key is typecast through the model first. A materialized collection
// answers from its cache. An unmaterialized collection with an exclusive
// window (a limit, or a non-zero offset) is forced to materialize and then
// retried — the brute-force fallback that is guaranteed correct; an
// unbounded one issues a single keyed read directly.
func (c *Collection) Get(ctx context.Context, rawKey ...any) (*Record, error) {
	tuple, err := c.model.TypecastKey(rawKey...)
	if err != nil {
		return nil, err
	}
	key := MakeKey(tuple...)

	if c.state == stateLoaded {
		return c.cache[key], nil
	}

	if c.scope.Windowed() {
		// TODO: push key matching into a sub-query bounded by the window
		// instead of materializing the whole collection.
		if err := c.materialize(ctx); err != nil {
			return nil, err
		}
		return c.cache[key], nil
	}

	conds := make([]query.Condition, len(c.keyProps))
	for i, p := range c.keyProps {
		conds[i] = query.Condition{Op: query.Eq, Property: p.Name, Value: tuple[i]}
	}
	s, err := c.scopedQuery(query.Where(conds...), query.WithLimit(1))
	if err != nil {
		return nil, err
	}
	r, err := c.repo.ReadOne(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("dataset: get %s: %w", c.scope.Model, err)
	}
	if r != nil {
		c.Relate(r)
	}
	return r, nil
}

// GetOrFail is [Collection.Get], failing with [ErrRecordNotFound] when no
// record matches the key.
func (c *Collection) GetOrFail(ctx context.Context, rawKey ...any) (*Record, error) {
	r, err := c.Get(ctx, rawKey...)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s %v", ErrRecordNotFound, c.scope.Model, rawKey)
	}
	return r, nil
}

// reversed flips the effective order of s, synthesizing an ascending
// key order first when the scope carries none.
func (c *Collection) reversed(s query.Scope) query.Scope {
	if len(s.Order) == 0 {
		order := make([]query.Sort, len(c.keyProps))
		for i, p := range c.keyProps {
			order[i] = query.Sort{Property: p.Name}
		}
		s = s.With(query.WithOrder(order...))
	}
	return s.ReverseOrder()
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk mutation
// ─────────────────────────────────────────────────────────────────────────────

// UpdateAll applies a set-based update to every record in scope, bypassing
// validation, and returns the affected-row count. Attributes that match no
// known property are ignored; an empty attribute map is a no-op. When the
// collection is materialized and the repository reports a positive count,
// the changes are mirrored into every in-memory record without re-fetching,
// trusting the reported count.
func (c *Collection) UpdateAll(ctx context.Context, attrs map[string]any) (int, error) {
	if len(attrs) == 0 {
		return 0, nil
	}
	values := make(map[string]any, len(attrs))
	for _, p := range c.model.Properties(c.repo.Name()) {
		if v, ok := attrs[p.Name]; ok {
			values[p.Name] = v
		}
	}
	if len(values) == 0 {
		return 0, nil
	}

	s, err := c.scopedQuery()
	if err != nil {
		return 0, err
	}
	n, err := c.repo.Update(ctx, values, s)
	if err != nil {
		return 0, fmt.Errorf("dataset: update %s: %w", c.scope.Model, err)
	}

	if n > 0 && c.state == stateLoaded {
		for _, r := range c.records {
			for name, v := range values {
				r.setPersisted(name, v)
			}
		}
	}
	return n, nil
}

// DestroyAll deletes every record in scope, bypassing validation, and
// returns the affected-row count. When the count is positive, every record
// the collection holds — the materialized sequence, plus any record a
// single-row read related into the cache before materialization — is
// detached: reset to a transient state, removed from the model's identity
// map, its dirty tracking cleared and re-seeded from its loaded values.
// The collection always ends as an empty materialized sequence with an
// empty cache.
func (c *Collection) DestroyAll(ctx context.Context) (int, error) {
	s, err := c.scopedQuery()
	if err != nil {
		return 0, err
	}
	n, err := c.repo.Delete(ctx, s)
	if err != nil {
		return 0, fmt.Errorf("dataset: destroy %s: %w", c.scope.Model, err)
	}

	known := append([]*Record(nil), c.records...)
	if c.state != stateLoaded {
		// First/Last/Get relate fetched records into the cache without
		// materializing; those are in scope and just as gone.
		for _, r := range c.cache {
			known = append(known, r)
		}
	}

	if n > 0 {
		im := c.repo.IdentityMap(c.scope.Model)
		for _, r := range known {
			if key, ok := c.keyOf(r); ok {
				im.Delete(key)
			}
			r.resetToNew()
		}
	}

	for _, r := range known {
		c.Orphan(r)
	}
	c.records = c.records[:0]
	c.state = stateLoaded
	return n, nil
}

// Update is the validated bulk-update entry point. Validated set-based
// mutation does not exist yet; it always fails with [ErrNotImplemented] to
// force callers toward the explicit [Collection.UpdateAll].
func (c *Collection) Update(context.Context, map[string]any) (int, error) {
	return 0, ErrNotImplemented
}

// Destroy is the validated bulk-delete entry point. It always fails with
// [ErrNotImplemented]; use [Collection.DestroyAll].
func (c *Collection) Destroy(context.Context) (int, error) {
	return 0, ErrNotImplemented
}

// ─────────────────────────────────────────────────────────────────────────────
// Construction helpers
// ─────────────────────────────────────────────────────────────────────────────

// Build constructs a transient record from the scope's equality conditions
// merged with attrs (attrs win) and relates it into the collection.
func (c *Collection) Build(attrs map[string]any) *Record {
	merged := c.defaultAttributes()
	for name, v := range attrs {
		merged[name] = v
	}
	return c.Relate(c.model.New(merged))
}

// Create constructs and persists a record from the scope's equality
// conditions merged with attrs, relating it into the collection unless
// persistence left it unsaved.
func (c *Collection) Create(ctx context.Context, attrs map[string]any) (*Record, error) {
	merged := c.defaultAttributes()
	for name, v := range attrs {
		merged[name] = v
	}
	r, err := c.model.Create(ctx, merged)
	if err != nil {
		return r, err
	}
	if r != nil && r.Saved() {
		c.Relate(r)
	}
	return r, nil
}

// defaultAttributes derives attribute defaults from the scope's equality
// conditions, skipping non-equality operators, multi-valued bind values,
// and key properties.
func (c *Collection) defaultAttributes() map[string]any {
	keys := make(map[string]bool, len(c.keyProps))
	for _, p := range c.keyProps {
		keys[p.Name] = true
	}

	out := make(map[string]any)
	for _, cond := range c.scope.Conditions {
		if cond.Op != query.Eq || keys[cond.Property] {
			continue
		}
		if k := reflect.ValueOf(cond.Value).Kind(); k == reflect.Slice || k == reflect.Array {
			continue
		}
		out[cond.Property] = cond.Value
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Explicit dispatch
// ─────────────────────────────────────────────────────────────────────────────

// Traverse resolves a named relationship from the model's static
// relationship table and returns a collection over the related model:
// the current scope's conditions are carried over, the relationship's join
// conditions and any extra conditions are merged in, the projection is the
// related model's default, and the relationship is prepended as a link.
// Fails with [ErrUnknownRelationship] when the name is not in the table.
func (c *Collection) Traverse(name string, extra ...query.Condition) (*Collection, error) {
	rel, ok := c.model.Relationships(c.repo.Name())[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelationship, c.scope.Model, name)
	}
	target := rel.Target

	props := target.Properties(c.repo.Name())
	fields := make([]string, len(props))
	for i, p := range props {
		fields[i] = p.Name
	}

	links := append(
		[]query.Link{{Name: rel.Name, Model: c.scope.Model}},
		c.scope.Links...,
	)

	s := query.New(target.Name(),
		query.WithRepository(c.scope.Repository),
		query.Where(c.scope.Conditions...),
		query.Where(rel.Conditions...),
		query.Where(extra...),
		query.WithFields(fields...),
		query.WithLinks(links...),
	)
	return NewCollection(c.repo, target, s), nil
}

// Invoke runs fn with the collection's scope passed explicitly — the
// replacement for running model-level operations under an ambient
// "current scope".
func (c *Collection) Invoke(fn func(query.Scope) error) error {
	return fn(c.scope)
}

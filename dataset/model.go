package dataset

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hasbyte1/go-datamapper-utils/query"
)

// Kind is the primitive type of a [Property], used for typecasting raw
// values (notably raw keys) into canonical form.
type Kind int

// Property kinds.
const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
	KindBytes
)

// Property describes a single model attribute.
type Property struct {
	Name   string
	Kind   Kind
	Key    bool // part of the primary key
	Serial bool // repository-assigned on insert
}

// Typecast converts a raw value into the property's canonical form.
func (p Property) Typecast(v any) (any, error) {
	switch p.Kind {
	case KindAny:
		return v, nil

	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil

	case KindInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			return int64(n), nil
		case string:
			parsed, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("property %s: %q is not an integer", p.Name, n)
			}
			return parsed, nil
		}

	case KindFloat:
		switch n := v.(type) {
		case float32:
			return float64(n), nil
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			parsed, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("property %s: %q is not a number", p.Name, n)
			}
			return parsed, nil
		}

	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("property %s: %q is not a boolean", p.Name, b)
			}
			return parsed, nil
		}

	case KindTime:
		switch ts := v.(type) {
		case time.Time:
			return ts, nil
		case string:
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return nil, fmt.Errorf("property %s: %q is not an RFC 3339 time", p.Name, ts)
			}
			return parsed, nil
		}

	case KindBytes:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	}
	return nil, fmt.Errorf("property %s: cannot cast %T", p.Name, v)
}

// Relationship describes a named traversal from one model to another:
// the static join conditions plus the target model, resolved once at
// definition time rather than through open-ended dispatch.
type Relationship struct {
	Name       string
	Target     Model
	Conditions []query.Condition
}

// Model supplies the metadata and record construction the collection layer
// depends on. The repository argument names the storage adapter the
// metadata applies to; implementations with a single metadata set may
// ignore it.
type Model interface {
	// Name returns the model's entity name, used as query.Scope.Model.
	Name() string

	// Key returns the ordered primary-key properties.
	Key(repository string) []Property

	// Properties returns the full ordered property list.
	Properties(repository string) []Property

	// Relationships returns the static relationship table.
	Relationships(repository string) map[string]Relationship

	// Load materializes a fetched value map into a saved record, reusing
	// the identity-mapped instance when one exists.
	Load(values map[string]any, s query.Scope) *Record

	// New constructs a transient record from an attribute map.
	New(attrs map[string]any) *Record

	// Create constructs and persists a record.
	Create(ctx context.Context, attrs map[string]any) (*Record, error)

	// TypecastKey casts a raw key tuple to canonical form.
	// Returns ErrKeyMismatch on wrong arity or an uncastable value.
	TypecastKey(raw ...any) ([]any, error)
}

// Definition is the concrete, metadata-driven [Model]: an entity name, an
// ordered property list, a relationship table, and a bound default
// repository used for persistence and identity mapping.
type Definition struct {
	name          string
	properties    []Property
	relationships map[string]Relationship
	repo          Repository
}

// NewDefinition builds a model definition bound to repo.
func NewDefinition(name string, repo Repository, properties ...Property) *Definition {
	return &Definition{
		name:          name,
		properties:    append([]Property(nil), properties...),
		relationships: make(map[string]Relationship),
		repo:          repo,
	}
}

// AddRelationship registers a named relationship in the static table.
func (d *Definition) AddRelationship(rel Relationship) *Definition {
	d.relationships[rel.Name] = rel
	return d
}

// Name returns the entity name.
func (d *Definition) Name() string { return d.name }

// Repository returns the bound default repository.
func (d *Definition) Repository() Repository { return d.repo }

// Key returns the ordered key properties.
func (d *Definition) Key(string) []Property {
	key := make([]Property, 0, 1)
	for _, p := range d.properties {
		if p.Key {
			key = append(key, p)
		}
	}
	return key
}

// Properties returns the ordered property list.
func (d *Definition) Properties(string) []Property {
	return append([]Property(nil), d.properties...)
}

// Relationships returns the relationship table.
func (d *Definition) Relationships(string) map[string]Relationship {
	out := make(map[string]Relationship, len(d.relationships))
	for name, rel := range d.relationships {
		out[name] = rel
	}
	return out
}

// Load materializes a fetched value map into a saved record. When the
// repository's identity map already holds the key, the existing instance is
// refreshed and returned, preserving identity continuity across fetches.
func (d *Definition) Load(values map[string]any, s query.Scope) *Record {
	key, ok := d.recordKeyFromValues(values)
	if !ok {
		return NewRecord(values, true)
	}

	im := d.repo.IdentityMap(d.name)
	if existing := im.Get(key); existing != nil {
		for name, v := range values {
			existing.setPersisted(name, v)
		}
		return existing
	}

	r := NewRecord(values, true)
	im.Set(key, r)
	return r
}

// New constructs a transient record.
func (d *Definition) New(attrs map[string]any) *Record {
	return NewRecord(attrs, false)
}

// Create constructs a record and persists it through the bound repository,
// which must implement [Inserter]. Repository-assigned values (serial keys)
// are folded back into the record before it is marked saved.
func (d *Definition) Create(ctx context.Context, attrs map[string]any) (*Record, error) {
	ins, ok := d.repo.(Inserter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoInserter, d.repo.Name())
	}

	r := d.New(attrs)
	stored, err := ins.Insert(ctx, d.name, r.Values())
	if err != nil {
		return r, fmt.Errorf("dataset: create %s: %w", d.name, err)
	}
	for name, v := range stored {
		r.values[name] = v
	}
	r.markSaved()

	if key, ok := d.recordKeyFromValues(r.values); ok {
		d.repo.IdentityMap(d.name).Set(key, r)
	}
	return r, nil
}

// TypecastKey casts a raw key tuple to canonical form.
func (d *Definition) TypecastKey(raw ...any) ([]any, error) {
	key := d.Key(d.repo.Name())
	if len(raw) != len(key) {
		return nil, fmt.Errorf("%w: got %d values, key has %d properties",
			ErrKeyMismatch, len(raw), len(key))
	}
	out := make([]any, len(raw))
	for i, p := range key {
		cast, err := p.Typecast(raw[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMismatch, err)
		}
		out[i] = cast
	}
	return out, nil
}

// recordKeyFromValues builds the cache key for a value map, reporting false
// when any key property is missing or uncastable.
func (d *Definition) recordKeyFromValues(values map[string]any) (Key, bool) {
	key := d.Key(d.repo.Name())
	if len(key) == 0 {
		return "", false
	}
	tuple := make([]any, len(key))
	for i, p := range key {
		v, ok := values[p.Name]
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

package query

import (
	"fmt"
	"reflect"
	"strings"
)

// NoLimit marks a Scope or Window as unbounded. It is the zero value, so a
// zero Scope selects everything.
const NoLimit = 0

// Scope is a declarative description of which resources and fields a query
// should yield. It is immutable by convention: nothing in this module
// mutates a Scope after construction, and every derivation ([Scope.With],
// [Scope.Merge]) returns a fresh value with freshly allocated slices.
type Scope struct {
	// Repository names the storage adapter the scope targets.
	Repository string

	// Model names the entity the scope targets.
	Model string

	// Conditions are predicate triples, all of which must hold.
	Conditions []Condition

	// Fields is the projection, in insertion order. A nil Fields loads
	// every property.
	Fields []string

	// Order lists sort directives, highest precedence first.
	Order []Sort

	// Links are relationship traversals the scope passes through.
	Links []Link

	// Offset is the number of leading rows to skip. Never negative.
	Offset int

	// Limit bounds the number of rows yielded. NoLimit means unbounded.
	Limit int
}

// Option mutates a Scope under construction. Options express the partial
// attribute-set form of a query override: only the attributes an option
// touches are considered "set".
type Option func(*Scope)

// Where appends predicate conditions.
func Where(conds ...Condition) Option {
	return func(s *Scope) { s.Conditions = append(s.Conditions, conds...) }
}

// WithFields replaces the field projection.
func WithFields(fields ...string) Option {
	return func(s *Scope) { s.Fields = append([]string(nil), fields...) }
}

// WithOrder replaces the sort directives.
func WithOrder(order ...Sort) Option {
	return func(s *Scope) { s.Order = append([]Sort(nil), order...) }
}

// WithLinks replaces the relationship links.
func WithLinks(links ...Link) Option {
	return func(s *Scope) { s.Links = append([]Link(nil), links...) }
}

// WithOffset sets the window offset.
func WithOffset(offset int) Option {
	return func(s *Scope) { s.Offset = offset }
}

// WithLimit sets the window limit.
func WithLimit(limit int) Option {
	return func(s *Scope) { s.Limit = limit }
}

// WithModel retargets the scope at another model.
func WithModel(model string) Option {
	return func(s *Scope) { s.Model = model }
}

// WithRepository retargets the scope at another repository.
func WithRepository(repository string) Option {
	return func(s *Scope) { s.Repository = repository }
}

// New builds a Scope for the named model.
func New(model string, opts ...Option) Scope {
	s := Scope{Model: model}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// With returns a copy of s with the given options applied. The receiver is
// unchanged; shared slices are copied before any option runs.
func (s Scope) With(opts ...Option) Scope {
	out := s.clone()
	for _, opt := range opts {
		opt(&out)
	}
	return out
}

// Merge composes s (the parent) with child. The child wins on every option
// it sets — model, repository, fields, order, links, limit, and a non-zero
// offset — while conditions concatenate, parent first. The result is a new
// value aliasing neither input.
func (s Scope) Merge(child Scope) Scope {
	out := s.clone()
	if child.Model != "" {
		out.Model = child.Model
	}
	if child.Repository != "" {
		out.Repository = child.Repository
	}
	if child.Fields != nil {
		out.Fields = append([]string(nil), child.Fields...)
	}
	if child.Order != nil {
		out.Order = append([]Sort(nil), child.Order...)
	}
	if child.Links != nil {
		out.Links = append([]Link(nil), child.Links...)
	}
	if child.Limit != NoLimit {
		out.Limit = child.Limit
	}
	if child.Offset != 0 {
		out.Offset = child.Offset
	}
	out.Conditions = append(out.Conditions, child.Conditions...)
	return out
}

// Equal reports whether every attribute of s compares equal to other.
// Condition order is irrelevant (conditions compare as multisets); field,
// order and link order is significant.
func (s Scope) Equal(other Scope) bool {
	if s.Model != other.Model ||
		s.Repository != other.Repository ||
		s.Offset != other.Offset ||
		s.Limit != other.Limit {
		return false
	}
	if !equalStrings(s.Fields, other.Fields) {
		return false
	}
	if len(s.Order) != len(other.Order) {
		return false
	}
	for i := range s.Order {
		if s.Order[i] != other.Order[i] {
			return false
		}
	}
	if len(s.Links) != len(other.Links) {
		return false
	}
	for i := range s.Links {
		if s.Links[i] != other.Links[i] {
			return false
		}
	}
	return equalConditions(s.Conditions, other.Conditions)
}

// Window returns the (offset, limit) pair restricting s.
func (s Scope) Window() Window {
	return Window{Offset: s.Offset, Limit: s.Limit}
}

// Windowed reports whether s restricts its result set to a subrange, i.e.
// carries a limit or a non-zero offset.
func (s Scope) Windowed() bool {
	return s.Limit != NoLimit || s.Offset != 0
}

// ReverseOrder returns a copy of s with the direction of every sort
// directive flipped. Fallback directives must be supplied by the caller
// when the scope carries no explicit order.
func (s Scope) ReverseOrder() Scope {
	out := s.clone()
	out.Order = make([]Sort, len(s.Order))
	for i, o := range s.Order {
		out.Order[i] = o.Reverse()
	}
	return out
}

// String returns a compact debug form of the scope.
// It implements [fmt.Stringer].
func (s Scope) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query.Scope(%s", s.Model)
	for _, c := range s.Conditions {
		fmt.Fprintf(&b, " [%s]", c)
	}
	if s.Windowed() {
		fmt.Fprintf(&b, " offset=%d limit=%d", s.Offset, s.Limit)
	}
	b.WriteByte(')')
	return b.String()
}

func (s Scope) clone() Scope {
	out := s
	out.Conditions = append([]Condition(nil), s.Conditions...)
	if s.Fields != nil {
		out.Fields = append([]string(nil), s.Fields...)
	}
	if s.Order != nil {
		out.Order = append([]Sort(nil), s.Order...)
	}
	if s.Links != nil {
		out.Links = append([]Link(nil), s.Links...)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// equalConditions compares two condition lists as multisets: each condition
// in a must match a distinct condition in b. Bind values compare deeply so
// that In-conditions holding slices compare by content.
func equalConditions(a, b []Condition) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, ca := range a {
		for i, cb := range b {
			if used[i] || ca.Op != cb.Op || ca.Property != cb.Property {
				continue
			}
			if reflect.DeepEqual(ca.Value, cb.Value) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

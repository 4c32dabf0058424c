package query

import "fmt"

// Operator identifies the comparison applied by a [Condition].
type Operator int

// Comparison operators understood by storage adapters.
const (
	Eq Operator = iota
	Not
	Gt
	Gte
	Lt
	Lte
	In
	Like
)

// String returns the conventional symbol for the operator.
func (op Operator) String() string {
	switch op {
	case Eq:
		return "="
	case Not:
		return "!="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case In:
		return "in"
	case Like:
		return "like"
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// Condition is a single (operator, property, bind value) predicate triple.
// For [In], Value holds a slice of candidate values; for [Like] a pattern
// using % wildcards. Condition order within a Scope is irrelevant to
// semantics but preserved for merge stability.
type Condition struct {
	Op       Operator
	Property string
	Value    any
}

// String returns a human-readable "property op value" form.
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Property, c.Op, c.Value)
}

// Sort orders a result set by a single property.
type Sort struct {
	Property   string
	Descending bool
}

// Reverse returns the sort with its direction flipped.
func (s Sort) Reverse() Sort {
	s.Descending = !s.Descending
	return s
}

// Link records an inter-entity relationship a Scope traverses. The core
// treats links as opaque pass-through data; adapters that support joins
// interpret them.
type Link struct {
	Name  string
	Model string
}

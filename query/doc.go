// Package query provides the declarative query description used by the
// dataset package.
//
// # Overview
//
// The central type is [Scope]: an immutable-by-convention description of a
// result set — predicate conditions, field projection, ordering, a limit /
// offset window, inter-entity links, and the target model and repository.
// A Scope never executes anything itself; storage adapters interpret it.
//
//	s := query.New("users",
//	    query.Where(query.Condition{Op: query.Gte, Property: "age", Value: 18}),
//	    query.WithOrder(query.Sort{Property: "name"}),
//	    query.WithLimit(20),
//	)
//
// # Derivation
//
// Every derivation returns a new value, leaving the original unchanged:
//
//	page2 := s.With(query.WithOffset(20))
//	merged := parent.Merge(child) // child wins on options, conditions concatenate
//
// # Windowing
//
// [Window] holds the (offset, limit) pair restricting a Scope to a subrange
// of its logical result set. [Window.Narrow] composes a child window
// expressed relative to a parent window into an absolute one, the arithmetic
// a collection needs to turn "the first 3 of page 2" into a single window.
package query

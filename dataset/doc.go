// Package dataset provides a lazily-materialized, query-scoped collection
// layer built on the [query] package.
//
// # Overview
//
// A [Collection] represents "the records matching scope S" without
// necessarily having fetched them. Reads that need concrete elements
// (iteration, indexed access, size) trigger the fetch transparently and at
// most once; derived views (All, FirstN, LastN, Slice) narrow the scope
// without re-fetching when the answer is already in memory.
//
//	users := dataset.NewCollection(repo, userModel, query.New("users",
//	    query.Where(query.Condition{Op: query.Eq, Property: "active", Value: true}),
//	))
//	admins, err := users.All(query.Where(query.Condition{
//	    Op: query.Eq, Property: "role", Value: "admin",
//	}))
//
// # Ownership and the identity cache
//
// Each collection keeps an identity cache keyed by primary-key tuple,
// maintained in lock-step with membership by the association protocol
// ([Collection.Relate] / [Collection.Orphan]): every structural mutator
// routes entering records through Relate and leaving records through
// Orphan. A record's owning-collection back-reference is a single exclusive
// slot; relating a record into a second collection silently reassigns it.
//
// # Persistence collaborators
//
// All I/O is delegated to a [Repository]; the collection itself is
// synchronous and performs none. [Model] supplies metadata (properties,
// keys, relationships) and record construction; [Definition] is the
// concrete metadata-driven implementation. Reference adapters live in
// dataset/inmemory (tests, prototyping) and dataset/mongodb.
//
// # Concurrency
//
// A Collection is a single-threaded cooperative object: the "fetch at most
// once" guarantee is a re-entrancy guard, not a lock. Callers that share an
// instance across goroutines must serialize access externally.
package dataset

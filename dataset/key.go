package dataset

import (
	"fmt"
	"strings"
)

// Key is the canonical encoding of a record's primary-key tuple, used as
// the index of identity caches. Key values are built from typecast key
// property values so that equivalent raw keys ("1" and 1 for an integer
// key) encode identically.
type Key string

// keySeparator joins tuple elements; the ASCII unit separator keeps
// multi-property keys unambiguous for ordinary key data.
const keySeparator = "\x1f"

// MakeKey encodes an ordered key tuple.
func MakeKey(values ...any) Key {
	if len(values) == 1 {
		return Key(fmt.Sprint(values[0]))
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return Key(strings.Join(parts, keySeparator))
}

// IdentityMap is a keyed cache of records, one per (repository, model)
// pair. It carries no internal locking: adapters that share one across
// goroutines must guard it with their own synchronization.
type IdentityMap struct {
	records map[Key]*Record
}

// NewIdentityMap returns an empty identity map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{records: make(map[Key]*Record)}
}

// Get returns the cached record for key, or nil.
func (m *IdentityMap) Get(key Key) *Record { return m.records[key] }

// Set caches a record under key.
func (m *IdentityMap) Set(key Key, r *Record) { m.records[key] = r }

// Delete removes the entry for key, if present.
func (m *IdentityMap) Delete(key Key) { delete(m.records, key) }

// Len returns the number of cached records.
func (m *IdentityMap) Len() int { return len(m.records) }

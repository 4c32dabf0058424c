package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Record is a single resource instance: a mutable attribute map plus the
// bookkeeping the collection layer needs — dirty-attribute tracking, a
// persisted flag, and the exclusive owning-collection back-reference.
//
// The back-reference is assigned only by [Collection.Relate] and
// [Collection.Orphan]; no other code path may touch it.
type Record struct {
	values   map[string]any
	original map[string]any // property name → value before the first Set
	saved    bool
	owner    *Collection
}

// NewRecord builds a record from an attribute map (copied). saved marks the
// record as already persisted; unsaved records report IsNew and carry their
// initial attributes as dirty so a first save writes everything.
func NewRecord(values map[string]any, saved bool) *Record {
	r := &Record{
		values:   make(map[string]any, len(values)),
		original: make(map[string]any),
		saved:    saved,
	}
	for name, v := range values {
		r.values[name] = v
		if !saved {
			r.original[name] = v
		}
	}
	return r
}

// Get returns the value of the named property and whether it is loaded.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set assigns a property value, recording the original value the first time
// a property changes so Dirty can report it.
func (r *Record) Set(name string, value any) {
	if _, tracked := r.original[name]; !tracked {
		r.original[name] = r.values[name]
	}
	r.values[name] = value
}

// Values returns a copy of the record's loaded attributes.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.values))
	for name, v := range r.values {
		out[name] = v
	}
	return out
}

// Dirty returns the changed properties mapped to their original values.
func (r *Record) Dirty() map[string]any {
	out := make(map[string]any, len(r.original))
	for name, v := range r.original {
		out[name] = v
	}
	return out
}

// Saved reports whether the record is persisted.
func (r *Record) Saved() bool { return r.saved }

// IsNew reports whether the record is transient (never persisted, or
// detached by a bulk destroy).
func (r *Record) IsNew() bool { return !r.saved }

// Collection returns the record's owning collection, or nil.
func (r *Record) Collection() *Collection { return r.owner }

// String returns a compact debug form with properties in sorted order.
// It implements [fmt.Stringer].
func (r *Record) String() string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("dataset.Record(")
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", name, r.values[name])
	}
	b.WriteByte(')')
	return b.String()
}

// setPersisted installs an attribute value that is already persisted,
// without marking the property dirty. Used when mirroring a set-based
// update into memory.
func (r *Record) setPersisted(name string, value any) {
	r.values[name] = value
	delete(r.original, name)
}

// markSaved flags the record as persisted and clears dirty tracking.
func (r *Record) markSaved() {
	r.saved = true
	r.original = make(map[string]any)
}

// resetToNew detaches the record after a bulk destroy: it becomes transient
// again, dirty tracking is cleared and then re-seeded from every loaded
// property value, so the record still reflects its last known state and a
// later save would write all of it.
func (r *Record) resetToNew() {
	r.saved = false
	r.original = make(map[string]any, len(r.values))
	for name, v := range r.values {
		r.original[name] = v
	}
}

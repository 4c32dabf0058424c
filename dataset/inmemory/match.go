package inmemory

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/hasbyte1/go-datamapper-utils/query"
)

// matchesAll reports whether a row satisfies every condition.
func matchesAll(row map[string]any, conds []query.Condition) bool {
	for _, c := range conds {
		if !matches(row, c) {
			return false
		}
	}
	return true
}

func matches(row map[string]any, c query.Condition) bool {
	v, ok := row[c.Property]
	if !ok {
		return false
	}

	switch c.Op {
	case query.Eq:
		return looseEqual(v, c.Value)
	case query.Not:
		return !looseEqual(v, c.Value)
	case query.Gt, query.Gte, query.Lt, query.Lte:
		cmp, comparable := compare(v, c.Value)
		if !comparable {
			return false
		}
		switch c.Op {
		case query.Gt:
			return cmp > 0
		case query.Gte:
			return cmp >= 0
		case query.Lt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	case query.In:
		return containsValue(c.Value, v)
	case query.Like:
		s, isString := v.(string)
		pattern, patternString := c.Value.(string)
		return isString && patternString && likeMatch(s, pattern)
	}
	return false
}

// looseEqual compares with numeric coercion, so 1, int64(1) and 1.0 all
// match, falling back to deep equality for everything else.
func looseEqual(a, b any) bool {
	if cmp, ok := compare(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values when they are mutually comparable: numbers by
// magnitude, strings lexically, times chronologically, bools false-first.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			}
			return 1, true
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1, true
			case av.After(bv):
				return 1, true
			}
			return 0, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// containsValue reports whether candidates (a slice of any element type)
// contains v.
func containsValue(candidates, v any) bool {
	rv := reflect.ValueOf(candidates)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if looseEqual(rv.Index(i).Interface(), v) {
			return true
		}
	}
	return false
}

// likeMatch evaluates a %-wildcard pattern without regular expressions.
func likeMatch(s, pattern string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return s == pattern
	}

	if first := parts[0]; first != "" {
		if !strings.HasPrefix(s, first) {
			return false
		}
		s = s[len(first):]
	}
	if last := parts[len(parts)-1]; last != "" {
		if !strings.HasSuffix(s, last) {
			return false
		}
		s = s[:len(s)-len(last)]
	}

	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return true
}

// lessRows orders two rows by the sort directives, highest precedence
// first. Rows missing a sorted property order after rows carrying it.
func lessRows(a, b map[string]any, order []query.Sort) bool {
	for _, o := range order {
		av, aok := a[o.Property]
		bv, bok := b[o.Property]
		if !aok || !bok {
			if aok == bok {
				continue
			}
			return aok
		}
		cmp, comparable := compare(av, bv)
		if !comparable {
			// Fall back to the printed form so ordering stays total.
			cmp = strings.Compare(fmt.Sprint(av), fmt.Sprint(bv))
		}
		if cmp == 0 {
			continue
		}
		if o.Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

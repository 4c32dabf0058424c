package query_test

import (
	"errors"
	"testing"

	"github.com/hasbyte1/go-datamapper-utils/query"
)

func TestNarrowRelativeRequest(t *testing.T) {
	// Parent window offset=10 limit=20; request offset=5 limit=3.
	parent := query.Window{Offset: 10, Limit: 20}
	got, narrowed, err := parent.Narrow(query.Window{Offset: 5, Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !narrowed {
		t.Fatal("expected a computed adjustment")
	}
	if got.Offset != 15 || got.Limit != 3 {
		t.Fatalf("got (%d, %d), want (15, 3)", got.Offset, got.Limit)
	}
}

func TestNarrowOutOfRange(t *testing.T) {
	// Parent window offset=0 limit=5; request offset=5 limit=2.
	// First position 5 >= last position 5.
	parent := query.Window{Offset: 0, Limit: 5}
	_, _, err := parent.Narrow(query.Window{Offset: 5, Limit: 2})
	if !errors.Is(err, query.ErrWindowOutOfRange) {
		t.Fatalf("got %v, want ErrWindowOutOfRange", err)
	}
}

func TestNarrowFastPath(t *testing.T) {
	cases := []struct {
		name          string
		parent, child query.Window
	}{
		{"both open", query.Window{}, query.Window{}},
		{"identical limits", query.Window{Limit: 5}, query.Window{Limit: 5}},
		{"child limit smaller", query.Window{Limit: 20}, query.Window{Limit: 3}},
		{"identical with offset", query.Window{Offset: 7, Limit: 5}, query.Window{Limit: 5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, narrowed, err := tc.parent.Narrow(tc.child)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if narrowed {
				t.Fatal("expected the no-adjustment fast path")
			}
		})
	}
}

func TestNarrowTable(t *testing.T) {
	open := query.NoLimit
	cases := []struct {
		name               string
		parent, child      query.Window
		wantOff, wantLimit int
	}{
		{"open parent, offset only", query.Window{}, query.Window{Offset: 5}, 5, open},
		{"open parent, offset and limit", query.Window{}, query.Window{Offset: 5, Limit: 2}, 5, 2},
		{"offset parent, offset child", query.Window{Offset: 3}, query.Window{Offset: 4}, 7, open},
		{"child digs past parent limit", query.Window{Limit: 5}, query.Window{Offset: 3, Limit: 10}, 3, 2},
		{"child limit exceeds parent", query.Window{Limit: 5}, query.Window{Limit: 10}, 0, 5},
		{"bounded parent, unbounded child offset", query.Window{Offset: 10, Limit: 20}, query.Window{Offset: 5}, 15, 15},
		{"unbounded parent with offset", query.Window{Offset: 10}, query.Window{Offset: 0, Limit: 3}, 10, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, narrowed, err := tc.parent.Narrow(tc.child)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !narrowed {
				t.Fatal("expected a computed adjustment")
			}
			if got.Offset != tc.wantOff || got.Limit != tc.wantLimit {
				t.Fatalf("got (%d, %d), want (%d, %d)",
					got.Offset, got.Limit, tc.wantOff, tc.wantLimit)
			}
		})
	}
}

// TestNarrowNeverNegative exercises a grid of parent/child windows and
// asserts the composed window is either rejected or selects a well-formed,
// in-range subrange of the parent.
func TestNarrowNeverNegative(t *testing.T) {
	for po := 0; po <= 4; po++ {
		for pl := 0; pl <= 6; pl += 2 { // 0 = open
			for co := 0; co <= 6; co++ {
				for cl := 0; cl <= 4; cl += 2 { // 0 = open
					parent := query.Window{Offset: po, Limit: pl}
					child := query.Window{Offset: co, Limit: cl}
					got, narrowed, err := parent.Narrow(child)
					if err != nil {
						if !errors.Is(err, query.ErrWindowOutOfRange) {
							t.Fatalf("parent=%+v child=%+v: unexpected error %v", parent, child, err)
						}
						continue
					}
					if !narrowed {
						continue
					}
					if got.Offset < parent.Offset {
						t.Fatalf("parent=%+v child=%+v: offset %d precedes parent", parent, child, got.Offset)
					}
					if got.Bounded() && got.Limit <= 0 {
						t.Fatalf("parent=%+v child=%+v: non-positive limit %d", parent, child, got.Limit)
					}
					if parent.Bounded() && got.Bounded() &&
						got.Offset+got.Limit > parent.Offset+parent.Limit {
						t.Fatalf("parent=%+v child=%+v: window %+v escapes parent", parent, child, got)
					}
				}
			}
		}
	}
}

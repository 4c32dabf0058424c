package query

import "fmt"

// Window is the (offset, limit) pair restricting a Scope to a subrange of
// its logical result set. A Limit of [NoLimit] leaves the window open-ended.
type Window struct {
	Offset int
	Limit  int
}

// Bounded reports whether the window carries a limit.
func (w Window) Bounded() bool { return w.Limit != NoLimit }

// Narrow composes child, a window expressed relative to w, into an absolute
// window.
//
// The boolean result reports whether a relative adjustment was computed.
// When child's offset is zero and its limit does not dig past w's — i.e.
// both are open, or both are bounded with child's limit no larger — no
// arithmetic is needed: child's literal values already stand on their own,
// and Narrow returns (Window{}, false, nil) so the caller skips the
// adjustment entirely. This fast path avoids disturbing merged scopes whose
// window is a plain override rather than a relative request.
//
// Otherwise the absolute first position is w.Offset + child.Offset and the
// absolute last position is clipped to whichever of the two limits ends
// first. A window whose first position reaches or passes its last position
// selects nothing and fails with [ErrWindowOutOfRange]; the arithmetic here
// must be exact, since an off-by-one silently corrupts pagination.
func (w Window) Narrow(child Window) (Window, bool, error) {
	if child.Offset == 0 {
		if !child.Bounded() && !w.Bounded() {
			return Window{}, false, nil
		}
		if child.Bounded() && w.Bounded() && child.Limit <= w.Limit {
			return Window{}, false, nil
		}
	}

	first := w.Offset + child.Offset

	last := -1 // -1: open-ended
	if w.Bounded() {
		last = w.Offset + w.Limit
	}
	if child.Bounded() {
		if candidate := first + child.Limit; last < 0 || candidate < last {
			last = candidate
		}
	}

	if last >= 0 && first >= last {
		return Window{}, false, fmt.Errorf(
			"%w: positions %d..%d", ErrWindowOutOfRange, first, last)
	}

	out := Window{Offset: first, Limit: NoLimit}
	if last >= 0 {
		out.Limit = last - first
	}
	return out, true, nil
}

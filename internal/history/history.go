// Package history implements a linear, branch-discarding undo/redo
// stack of state snapshots.
package history

import (
	"github.com/sells-group/sitetrack/internal/model"
)

// DefaultCap bounds the number of retained snapshots.
const DefaultCap = 50

// Stack holds snapshots with a current index. Pushing while undone
// discards the forward branch; the oldest entries fall off past the cap.
type Stack struct {
	entries []model.Snapshot
	idx     int
	cap     int
}

// New returns an empty stack with the given capacity. Non-positive
// capacities fall back to DefaultCap.
func New(capacity int) *Stack {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Stack{idx: -1, cap: capacity}
}

// Push appends a snapshot after a settled mutation. Pushes whose shape
// (completion membership and note count) matches the current head are
// dropped, so redundant renders never grow the stack.
func (h *Stack) Push(snap model.Snapshot) bool {
	if h.idx >= 0 && snap.SameShape(h.entries[h.idx]) {
		return false
	}

	h.entries = append(h.entries[:h.idx+1], snap.Clone())
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
	h.idx = len(h.entries) - 1
	return true
}

// Undo moves back one snapshot. Returns false at the oldest entry. The
// returned snapshot is a copy; stored entries are never mutated.
func (h *Stack) Undo() (model.Snapshot, bool) {
	if h.idx <= 0 {
		return model.Snapshot{}, false
	}
	h.idx--
	return h.entries[h.idx].Clone(), true
}

// Redo is the mirror of Undo, moving forward.
func (h *Stack) Redo() (model.Snapshot, bool) {
	if h.idx < 0 || h.idx >= len(h.entries)-1 {
		return model.Snapshot{}, false
	}
	h.idx++
	return h.entries[h.idx].Clone(), true
}

// Len returns the number of retained snapshots.
func (h *Stack) Len() int { return len(h.entries) }

// CanUndo reports whether Undo would succeed.
func (h *Stack) CanUndo() bool { return h.idx > 0 }

// CanRedo reports whether Redo would succeed.
func (h *Stack) CanRedo() bool { return h.idx >= 0 && h.idx < len(h.entries)-1 }

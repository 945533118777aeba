package model

// Note is a user-created point marker independent of loaded geometry.
// ID is the creation timestamp in milliseconds, bumped on collision so
// ids stay monotonic within a session.
type Note struct {
	ID       int64   `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	Selected bool    `json:"selected"`
}

// Snapshot is an immutable copy of the two mutable collections, captured
// after every settled mutation and stored in the history stack.
type Snapshot struct {
	Completed []string `json:"completed"`
	Notes     []Note   `json:"notes"`
}

// Clone returns a deep copy so stored snapshots are never aliased by
// live state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Completed: make([]string, len(s.Completed)),
		Notes:     make([]Note, len(s.Notes)),
	}
	copy(out.Completed, s.Completed)
	copy(out.Notes, s.Notes)
	return out
}

// SameShape reports whether two snapshots have identical completion
// membership and note count. Used by the history stack to drop redundant
// pushes from rapid re-renders.
func (s Snapshot) SameShape(other Snapshot) bool {
	if len(s.Completed) != len(other.Completed) || len(s.Notes) != len(other.Notes) {
		return false
	}
	seen := make(map[string]struct{}, len(s.Completed))
	for _, id := range s.Completed {
		seen[id] = struct{}{}
	}
	for _, id := range other.Completed {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}

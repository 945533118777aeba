// Package track owns the two mutable collections the viewer exists to
// edit: the completion set and the note list. All mutation goes through
// the interaction engine; everything else takes read-only views.
package track

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/sitetrack/internal/model"
)

// DefaultNoteSpacing is the minimum geographic distance between two
// notes, preventing near-duplicate placement.
const DefaultNoteSpacing = 0.5

// State holds the completion set and notes. The completion set keeps
// insertion order so persistence and export are deterministic.
type State struct {
	completed map[string]struct{}
	order     []string
	notes     []model.Note

	lastNoteID int64
	onChange   []func()
}

// NewState returns an empty state.
func NewState() *State {
	return &State{completed: make(map[string]struct{})}
}

// OnChange registers a callback fired after every settled mutation.
// Collaborators use this to flush state to durable storage.
func (s *State) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

// Notify fires the change callbacks. The engine calls this once per
// settled mutation, never during a drag in progress.
func (s *State) Notify() {
	for _, fn := range s.onChange {
		fn()
	}
}

// --- Completion set ---

// Toggle flips membership of id: the single-click path. Idempotent per
// click pair.
func (s *State) Toggle(id string) {
	if _, ok := s.completed[id]; ok {
		s.remove(id)
	} else {
		s.add(id)
	}
}

// AddAll unions ids into the completion set: the "add" marquee path.
// Never removes anything.
func (s *State) AddAll(ids []string) {
	for _, id := range ids {
		s.add(id)
	}
}

// RemoveAll subtracts ids from the completion set: the "remove" marquee
// path. Never adds anything.
func (s *State) RemoveAll(ids []string) {
	for _, id := range ids {
		s.remove(id)
	}
}

func (s *State) add(id string) {
	if _, ok := s.completed[id]; ok {
		return
	}
	s.completed[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *State) remove(id string) {
	if _, ok := s.completed[id]; !ok {
		return
	}
	delete(s.completed, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// IsCompleted reports membership of id.
func (s *State) IsCompleted(id string) bool {
	_, ok := s.completed[id]
	return ok
}

// Completed returns the completion set as an ordered id list.
func (s *State) Completed() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// CompletedCount returns the size of the completion set.
func (s *State) CompletedCount() int { return len(s.completed) }

// --- Notes ---

// CanPlaceNote reports whether a new note at (x, y) clears the minimum
// geographic distance against every existing note.
func (s *State) CanPlaceNote(x, y, minDist float64) bool {
	for _, n := range s.notes {
		if math.Hypot(n.X-x, n.Y-y) < minDist {
			return false
		}
	}
	return true
}

// CreateNote adds a bare marker with empty text at (x, y) and returns
// it. Ids are creation timestamps in milliseconds, bumped on collision
// so they stay monotonic.
func (s *State) CreateNote(x, y float64) model.Note {
	id := time.Now().UnixMilli()
	if id <= s.lastNoteID {
		id = s.lastNoteID + 1
	}
	s.lastNoteID = id

	n := model.Note{ID: id, X: x, Y: y}
	s.notes = append(s.notes, n)
	zap.L().Debug("track: note created", zap.Int64("id", id), zap.Float64("x", x), zap.Float64("y", y))
	return n
}

// EditNote replaces the text of the note with the given id in place.
func (s *State) EditNote(id int64, text string) bool {
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i].Text = text
			return true
		}
	}
	return false
}

// DeleteNote removes the note with the given id.
func (s *State) DeleteNote(id int64) bool {
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return true
		}
	}
	return false
}

// SelectNote marks one note selected and clears the rest. Selection is
// UI state: it rides along in snapshots but does not count as a settled
// mutation by itself.
func (s *State) SelectNote(id int64) bool {
	found := false
	for i := range s.notes {
		s.notes[i].Selected = s.notes[i].ID == id
		if s.notes[i].Selected {
			found = true
		}
	}
	return found
}

// DeselectNotes clears all note selections.
func (s *State) DeselectNotes() {
	for i := range s.notes {
		s.notes[i].Selected = false
	}
}

// Notes returns a copy of the note list.
func (s *State) Notes() []model.Note {
	out := make([]model.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// --- Snapshots ---

// Snapshot captures a deep copy of both collections.
func (s *State) Snapshot() model.Snapshot {
	return model.Snapshot{Completed: s.Completed(), Notes: s.Notes()}
}

// Restore replaces both collections from a snapshot without mutating it.
func (s *State) Restore(snap model.Snapshot) {
	s.completed = make(map[string]struct{}, len(snap.Completed))
	s.order = make([]string, len(snap.Completed))
	copy(s.order, snap.Completed)
	for _, id := range snap.Completed {
		s.completed[id] = struct{}{}
	}
	s.notes = make([]model.Note, len(snap.Notes))
	copy(s.notes, snap.Notes)
	for _, n := range s.notes {
		if n.ID > s.lastNoteID {
			s.lastNoteID = n.ID
		}
	}
}

package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitetrack/internal/model"
)

func snap(ids ...string) model.Snapshot {
	return model.Snapshot{Completed: ids}
}

func TestPush_DedupsSameShape(t *testing.T) {
	h := New(50)

	assert.True(t, h.Push(snap("a")))
	assert.False(t, h.Push(snap("a")), "identical shape must not grow the stack")
	// Same size and membership in a different order is still the same shape.
	assert.True(t, h.Push(snap("a", "b")))
	assert.False(t, h.Push(snap("b", "a")))
	assert.Equal(t, 2, h.Len())
}

func TestPush_NoteCountChangesShape(t *testing.T) {
	h := New(50)
	h.Push(model.Snapshot{Completed: []string{"a"}})
	pushed := h.Push(model.Snapshot{
		Completed: []string{"a"},
		Notes:     []model.Note{{ID: 1}},
	})
	assert.True(t, pushed)
}

func TestUndoRedo_Sequence(t *testing.T) {
	h := New(50)
	h.Push(snap())             // initial
	h.Push(snap("a"))          // toggle 1
	h.Push(snap("a", "b"))     // toggle 2
	h.Push(snap("a", "b", "c")) // toggle 3

	// Undo after 3 toggles returns the state after 2.
	s, ok := h.Undo()
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"a", "b"}, s.Completed)

	// Redo restores the 3rd.
	s, ok = h.Redo()
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, s.Completed)
}

func TestUndo_BoundaryNoOp(t *testing.T) {
	h := New(50)
	_, ok := h.Undo()
	assert.False(t, ok)

	h.Push(snap())
	_, ok = h.Undo()
	assert.False(t, ok, "single entry: nothing earlier to restore")

	_, ok = h.Redo()
	assert.False(t, ok)
}

func TestPush_DiscardsForwardBranch(t *testing.T) {
	h := New(50)
	h.Push(snap())
	h.Push(snap("a"))
	h.Push(snap("a", "b"))

	_, ok := h.Undo()
	require.True(t, ok)
	require.True(t, h.CanRedo())

	h.Push(snap("a", "z"))
	assert.False(t, h.CanRedo(), "push truncates the future")

	s, ok := h.Undo()
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"a"}, s.Completed)
}

func TestCap_DropsOldest(t *testing.T) {
	h := New(50)
	for i := 0; i < 60; i++ {
		require.True(t, h.Push(snap(fmt.Sprintf("id-%d", i))))
	}
	assert.Equal(t, 50, h.Len())

	// Walk all the way back: the oldest reachable entry is number 10.
	var last model.Snapshot
	for {
		s, ok := h.Undo()
		if !ok {
			break
		}
		last = s
	}
	assert.Equal(t, []string{"id-10"}, last.Completed)
}

func TestStoredSnapshotsNotMutated(t *testing.T) {
	h := New(50)
	h.Push(snap("a"))
	h.Push(snap("a", "b"))

	s, ok := h.Undo()
	require.True(t, ok)
	s.Completed[0] = "tampered"

	_, ok = h.Redo()
	require.True(t, ok)

	// Re-reading the undone entry shows the original value.
	s2, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, s2.Completed)
}

// Package engine is the interaction core of the viewer: it owns the
// viewport, the completion/note state, and the undo history, and turns
// pointer/touch/key events into state mutations and display lists.
//
// The engine is single-threaded by contract: all mutation happens
// synchronously inside event handler calls, and callers that drive it
// from multiple goroutines must serialize access.
package engine

import (
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/sitetrack/internal/geomx"
	"github.com/sells-group/sitetrack/internal/history"
	"github.com/sells-group/sitetrack/internal/hittest"
	"github.com/sells-group/sitetrack/internal/model"
	"github.com/sells-group/sitetrack/internal/render"
	"github.com/sells-group/sitetrack/internal/track"
	"github.com/sells-group/sitetrack/internal/viewport"
)

// Button identifies the pointer button that initiates a gesture.
type Button int

const (
	// ButtonPrimary is context dependent: note placement in note mode,
	// completion toggle on labels, or an "add" marquee when dragged.
	ButtonPrimary Button = iota
	// ButtonSecondary starts a "remove" marquee.
	ButtonSecondary
	// ButtonPan pans the viewport and never starts a marquee.
	ButtonPan
)

// Mode is the current interaction state. Modes are mutually exclusive;
// entering one suppresses the others.
type Mode int

const (
	ModeIdle Mode = iota
	ModePanning
	ModeMarquee
	ModePinching
)

// Config tunes the interaction engine. Zero values fall back to the
// defaults below.
type Config struct {
	Width, Height float64
	Padding       float64
	NoteRadius    float64
	LabelRadius   float64
	DragThreshold float64
	NoteSpacing   float64
	HistoryCap    int
	MaxFPS        int
}

func (c Config) withDefaults() Config {
	if c.Padding == 0 {
		c.Padding = viewport.DefaultPadding
	}
	if c.NoteRadius == 0 {
		c.NoteRadius = hittest.NoteRadius
	}
	if c.LabelRadius == 0 {
		c.LabelRadius = hittest.LabelRadius
	}
	if c.DragThreshold == 0 {
		c.DragThreshold = 5
	}
	if c.NoteSpacing == 0 {
		c.NoteSpacing = track.DefaultNoteSpacing
	}
	if c.HistoryCap == 0 {
		c.HistoryCap = history.DefaultCap
	}
	if c.MaxFPS == 0 {
		c.MaxFPS = 60
	}
	return c
}

type marquee struct {
	active         bool
	startX, startY float64
	endX, endY     float64
	action         render.MarqueeAction
}

// Engine owns all interaction state. No ambient globals: every handler
// is a method on this object.
type Engine struct {
	cfg  Config
	view *viewport.View
	st   *track.State
	hist *history.Stack

	labels  []model.Label
	display []model.Layer
	rings   map[string][][2]float64

	mode     Mode
	noteMode bool
	mq       marquee
	moved    bool
	lastX    float64
	lastY    float64

	pinchDist float64

	hoverID    string
	editorNote int64 // 0 = editor closed

	limiter    *rate.Limiter
	needsFrame bool

	log *zap.Logger
}

// New builds an engine over the loaded layers, derived labels, and the
// ring side table keyed by label id. The viewport is fitted to the
// union bounds of every layer; an error here means the geometry is
// degenerate and the session cannot start.
func New(layers []model.Layer, labels []model.Label, rings map[string][][2]float64, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()

	bounds, err := geomx.ComputeBounds(layers)
	if err != nil {
		return nil, err
	}
	view, err := viewport.New(bounds, cfg.Width, cfg.Height, cfg.Padding)
	if err != nil {
		return nil, err
	}

	var display []model.Layer
	for _, l := range layers {
		if l.Role == model.RoleDisplay {
			display = append(display, l)
		}
	}

	e := &Engine{
		cfg:     cfg,
		view:    view,
		st:      track.NewState(),
		hist:    history.New(cfg.HistoryCap),
		labels:  labels,
		display: display,
		rings:   rings,
		limiter: rate.NewLimiter(rate.Every(time.Second/time.Duration(cfg.MaxFPS)), 1),
		log:     zap.L().With(zap.String("component", "engine")),
	}
	e.hist.Push(e.st.Snapshot())
	return e, nil
}

// State returns the mutable state for change-notification wiring and
// startup restore. Mutation outside the engine's handlers is not
// supported.
func (e *Engine) State() *track.State { return e.st }

// View returns the viewport transform.
func (e *Engine) View() *viewport.View { return e.view }

// Labels returns the derived hit targets.
func (e *Engine) Labels() []model.Label { return e.labels }

// Mode returns the current interaction mode.
func (e *Engine) Mode() Mode { return e.mode }

// RestoreState loads persisted state, resetting history to it.
func (e *Engine) RestoreState(snap model.Snapshot) {
	e.st.Restore(snap)
	e.hist = history.New(e.cfg.HistoryCap)
	e.hist.Push(e.st.Snapshot())
	e.needsFrame = true
}

// SetNoteMode toggles note placement mode for primary clicks.
func (e *Engine) SetNoteMode(on bool) {
	e.noteMode = on
	if !on {
		e.closeEditor()
	}
}

// NoteMode reports whether note mode is active.
func (e *Engine) NoteMode() bool { return e.noteMode }

// EditorNote returns the note whose editor is open, if any.
func (e *Engine) EditorNote() (model.Note, bool) {
	if e.editorNote == 0 {
		return model.Note{}, false
	}
	for _, n := range e.st.Notes() {
		if n.ID == e.editorNote {
			return n, true
		}
	}
	return model.Note{}, false
}

// --- Pointer events ---

// PointerDown starts a gesture. A gesture already in progress wins; the
// new button is ignored.
func (e *Engine) PointerDown(x, y float64, b Button) {
	if e.mode != ModeIdle {
		return
	}
	e.moved = false
	e.lastX, e.lastY = x, y

	switch b {
	case ButtonPan:
		e.mode = ModePanning
	case ButtonSecondary:
		e.mode = ModeMarquee
		e.mq = marquee{startX: x, startY: y, endX: x, endY: y, action: render.MarqueeRemove}
	default:
		e.mode = ModeMarquee
		e.mq = marquee{startX: x, startY: y, endX: x, endY: y, action: render.MarqueeAdd}
	}
}

// PointerMove updates the active gesture, or the hover target when idle.
func (e *Engine) PointerMove(x, y float64) {
	dx, dy := x-e.lastX, y-e.lastY
	e.lastX, e.lastY = x, y

	switch e.mode {
	case ModePanning:
		e.view.Pan(dx, dy)
	case ModeMarquee:
		e.mq.endX, e.mq.endY = x, y
		if math.Abs(x-e.mq.startX) > e.cfg.DragThreshold || math.Abs(y-e.mq.startY) > e.cfg.DragThreshold {
			e.moved = true
			e.mq.active = true
		}
	case ModeIdle:
		e.updateHover(x, y)
	}
	e.needsFrame = true
}

// PointerUp settles the gesture. A drag that never exceeded the
// threshold is a click; a completed drag suppresses the click it ends
// with.
func (e *Engine) PointerUp(x, y float64) {
	mode := e.mode
	mq := e.mq
	e.mode = ModeIdle
	e.mq = marquee{}

	switch mode {
	case ModeMarquee:
		if !e.moved {
			e.click(x, y, mq.action)
			return
		}
		e.applyMarquee(mq)
	case ModePanning, ModePinching, ModeIdle:
		// Nothing to settle.
	}
	e.needsFrame = true
}

// PointerLeave implicitly cancels any gesture in progress.
func (e *Engine) PointerLeave() {
	e.mode = ModeIdle
	e.mq = marquee{}
	e.moved = false
	e.pinchDist = 0
	e.hoverID = ""
	e.needsFrame = true
}

// Wheel zooms about the pointer. Scroll up (negative delta) zooms in by
// a 1.1 notch, scroll down zooms out by 0.9.
func (e *Engine) Wheel(x, y, delta float64) {
	factor := 1.1
	if delta > 0 {
		factor = 0.9
	}
	if err := e.view.ZoomAt(x, y, factor); err != nil {
		e.log.Warn("wheel zoom rejected", zap.Error(err))
		return
	}
	e.needsFrame = true
}

// --- Touch events ---

// TouchStart begins one-finger panning or two-finger pinch tracking. A
// touch preempts any pointer gesture in progress; its marquee is
// discarded, never applied.
func (e *Engine) TouchStart(pts [][2]float64) {
	e.mq = marquee{}
	e.moved = false
	switch {
	case len(pts) >= 2:
		e.mode = ModePinching
		e.pinchDist = math.Hypot(pts[1][0]-pts[0][0], pts[1][1]-pts[0][1])
	case len(pts) == 1:
		e.mode = ModePanning
		e.lastX, e.lastY = pts[0][0], pts[0][1]
	}
}

// TouchMove pans or pinch-zooms about the touch midpoint.
func (e *Engine) TouchMove(pts [][2]float64) {
	switch e.mode {
	case ModePanning:
		if len(pts) != 1 {
			return
		}
		e.view.Pan(pts[0][0]-e.lastX, pts[0][1]-e.lastY)
		e.lastX, e.lastY = pts[0][0], pts[0][1]
	case ModePinching:
		if len(pts) < 2 {
			return
		}
		dist := math.Hypot(pts[1][0]-pts[0][0], pts[1][1]-pts[0][1])
		if e.pinchDist > 0 && dist > 0 {
			midX := (pts[0][0] + pts[1][0]) / 2
			midY := (pts[0][1] + pts[1][1]) / 2
			if err := e.view.ZoomAt(midX, midY, dist/e.pinchDist); err != nil {
				e.log.Warn("pinch zoom rejected", zap.Error(err))
			}
		}
		e.pinchDist = dist
	}
	e.needsFrame = true
}

// TouchEnd resets pinch tracking when the touch count drops below two
// and settles back to idle when all touches lift.
func (e *Engine) TouchEnd(pts [][2]float64) {
	if len(pts) < 2 {
		e.pinchDist = 0
	}
	switch len(pts) {
	case 0:
		e.mode = ModeIdle
	case 1:
		e.mode = ModePanning
		e.lastX, e.lastY = pts[0][0], pts[0][1]
	}
	e.needsFrame = true
}

// --- Keyboard ---

// Key handles the undo/redo shortcuts.
func (e *Engine) Key(key string, ctrl bool) {
	if !ctrl {
		return
	}
	switch key {
	case "z":
		e.Undo()
	case "y":
		e.Redo()
	}
}

// Undo restores the previous snapshot, if any.
func (e *Engine) Undo() bool {
	snap, ok := e.hist.Undo()
	if !ok {
		return false
	}
	e.st.Restore(snap)
	e.st.Notify()
	e.needsFrame = true
	return true
}

// Redo restores the next snapshot, if any.
func (e *Engine) Redo() bool {
	snap, ok := e.hist.Redo()
	if !ok {
		return false
	}
	e.st.Restore(snap)
	e.st.Notify()
	e.needsFrame = true
	return true
}

// Resize refits the viewport to new dimensions, discarding user
// pan/zoom.
func (e *Engine) Resize(w, h float64) error {
	if err := e.view.Resize(w, h); err != nil {
		return err
	}
	e.needsFrame = true
	return nil
}

// --- Click resolution ---

func (e *Engine) click(x, y float64, action render.MarqueeAction) {
	if action == render.MarqueeRemove {
		// Secondary click with no drag only dismisses an open editor.
		e.closeEditor()
		e.needsFrame = true
		return
	}
	if e.noteMode {
		e.noteClick(x, y)
		return
	}

	e.closeEditor()
	if l, ok := hittest.LabelAt(e.view, e.labels, x, y, e.cfg.LabelRadius); ok {
		e.st.Toggle(l.ID)
		e.commit()
		return
	}
	e.needsFrame = true
}

// noteClick opens the editor for an existing note under the pointer, or
// places a bare marker. The editor-open is synchronous with the click:
// the next render already observes it.
func (e *Engine) noteClick(x, y float64) {
	if n, ok := hittest.NoteAt(e.view, e.st.Notes(), x, y, e.cfg.NoteRadius); ok {
		e.st.SelectNote(n.ID)
		e.editorNote = n.ID
		e.needsFrame = true
		return
	}

	wx, wy := e.view.ScreenToWorld(x, y)
	if !e.st.CanPlaceNote(wx, wy, e.cfg.NoteSpacing) {
		e.log.Debug("note placement blocked by spacing guard",
			zap.Float64("x", wx), zap.Float64("y", wy))
		return
	}
	e.st.CreateNote(wx, wy)
	e.commit()
}

// EditNote replaces the open editor's note text and closes the editor.
func (e *Engine) EditNote(text string) bool {
	if e.editorNote == 0 {
		return false
	}
	ok := e.st.EditNote(e.editorNote, text)
	e.closeEditor()
	if ok {
		e.commit()
	}
	return ok
}

// DeleteNote removes the open editor's note and closes the editor.
func (e *Engine) DeleteNote() bool {
	if e.editorNote == 0 {
		return false
	}
	ok := e.st.DeleteNote(e.editorNote)
	e.closeEditor()
	if ok {
		e.commit()
	}
	return ok
}

func (e *Engine) closeEditor() {
	e.editorNote = 0
	e.st.DeselectNotes()
}

// applyMarquee resolves the normalized rectangle against every label's
// screen projection and applies the batch. An empty result is a valid
// no-op.
func (e *Engine) applyMarquee(mq marquee) {
	x0, x1 := math.Min(mq.startX, mq.endX), math.Max(mq.startX, mq.endX)
	y0, y1 := math.Min(mq.startY, mq.endY), math.Max(mq.startY, mq.endY)

	var ids []string
	for _, l := range e.labels {
		px, py := e.view.WorldToScreen(l.X, l.Y)
		if px >= x0 && px <= x1 && py >= y0 && py <= y1 {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	if mq.action == render.MarqueeAdd {
		e.st.AddAll(ids)
	} else {
		e.st.RemoveAll(ids)
	}
	e.log.Debug("marquee applied",
		zap.String("action", string(mq.action)),
		zap.Int("count", len(ids)),
	)
	e.commit()
}

func (e *Engine) updateHover(x, y float64) {
	if l, ok := hittest.LabelAt(e.view, e.labels, x, y, e.cfg.LabelRadius); ok {
		e.hoverID = l.ID
	} else {
		e.hoverID = ""
	}
}

// commit records a settled mutation: snapshot into history (deduped by
// shape) and change notification for persistence. Transient drag states
// never reach here.
func (e *Engine) commit() {
	e.hist.Push(e.st.Snapshot())
	e.st.Notify()
	e.needsFrame = true
}

// --- Rendering ---

// Render compiles the current state into a display list. It always
// reflects the latest mutation.
func (e *Engine) Render() []render.Command {
	completed := make(map[string]struct{})
	for _, id := range e.st.Completed() {
		completed[id] = struct{}{}
	}
	scene := render.Scene{
		View:      e.view,
		Display:   e.display,
		Labels:    e.labels,
		Completed: completed,
		Notes:     e.st.Notes(),
		HoverID:   e.hoverID,
	}
	if e.mq.active {
		scene.Marquee = &render.Marquee{
			X0: e.mq.startX, Y0: e.mq.startY,
			X1: e.mq.endX, Y1: e.mq.endY,
			Action: e.mq.action,
		}
	}
	return render.Compile(scene)
}

// Frame returns a display list only when state changed since the last
// frame and the frame limiter admits one. Bursts of events coalesce into
// a single frame; queries via Render are never coalesced.
func (e *Engine) Frame() ([]render.Command, bool) {
	if !e.needsFrame || !e.limiter.Allow() {
		return nil, false
	}
	e.needsFrame = false
	return e.Render(), true
}

// RegionAt exposes polygon containment hit-testing for region-based
// queries.
func (e *Engine) RegionAt(x, y float64) (model.Label, bool) {
	wx, wy := e.view.ScreenToWorld(x, y)
	return hittest.RegionAt(e.labels, e.rings, wx, wy)
}

package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/sitetrack/internal/engine"
	"github.com/sells-group/sitetrack/internal/export"
	"github.com/sells-group/sitetrack/internal/model"
)

// Server exposes the viewer engine over HTTP. The engine core is
// single threaded, so every handler takes the mutex before touching it.
type Server struct {
	mu         sync.Mutex
	eng        *engine.Engine
	exportPath string
	log        *zap.Logger
}

func New(eng *engine.Engine, exportPath string) *Server {
	return &Server{
		eng:        eng,
		exportPath: exportPath,
		log:        zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/render", s.handleRender)
		r.Get("/export", s.handleExport)
		r.Post("/events/pointer", s.handlePointer)
		r.Post("/events/wheel", s.handleWheel)
		r.Post("/events/touch", s.handleTouch)
		r.Post("/events/key", s.handleKey)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Post("/resize", s.handleResize)
		r.Post("/notemode", s.handleNoteMode)
		r.Post("/editor", s.handleEditor)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type stateResponse struct {
	Completed []string     `json:"completed"`
	Notes     []model.Note `json:"notes"`
	Total     int          `json:"total"`
	NoteMode  bool         `json:"note_mode"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := stateResponse{
		Completed: s.eng.State().Completed(),
		Notes:     s.eng.State().Notes(),
		Total:     len(s.eng.Labels()),
		NoteMode:  s.eng.NoteMode(),
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	commands := s.eng.Render()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"commands": commands})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	labels := s.eng.Labels()
	completed := make(map[string]bool)
	for _, id := range s.eng.State().Completed() {
		completed[id] = true
	}
	notes := s.eng.State().Notes()
	s.mu.Unlock()

	if err := export.WriteProgress(s.exportPath, labels, completed, notes); err != nil {
		s.log.Error("export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": s.exportPath})
}

type pointerEvent struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
}

func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	var ev pointerEvent
	if !decode(w, r, &ev) {
		return
	}

	s.mu.Lock()
	switch ev.Type {
	case "down":
		s.eng.PointerDown(ev.X, ev.Y, engine.Button(ev.Button))
	case "move":
		s.eng.PointerMove(ev.X, ev.Y)
	case "up":
		s.eng.PointerUp(ev.X, ev.Y)
	case "leave":
		s.eng.PointerLeave()
	default:
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown pointer event type"})
		return
	}
	s.mu.Unlock()
	s.writeFrame(w)
}

type wheelEvent struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Delta float64 `json:"delta"`
}

func (s *Server) handleWheel(w http.ResponseWriter, r *http.Request) {
	var ev wheelEvent
	if !decode(w, r, &ev) {
		return
	}
	s.mu.Lock()
	s.eng.Wheel(ev.X, ev.Y, ev.Delta)
	s.mu.Unlock()
	s.writeFrame(w)
}

type touchEvent struct {
	Type   string       `json:"type"`
	Points [][2]float64 `json:"points"`
}

func (s *Server) handleTouch(w http.ResponseWriter, r *http.Request) {
	var ev touchEvent
	if !decode(w, r, &ev) {
		return
	}

	s.mu.Lock()
	switch ev.Type {
	case "start":
		s.eng.TouchStart(ev.Points)
	case "move":
		s.eng.TouchMove(ev.Points)
	case "end":
		s.eng.TouchEnd(ev.Points)
	default:
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown touch event type"})
		return
	}
	s.mu.Unlock()
	s.writeFrame(w)
}

type keyEvent struct {
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl"`
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var ev keyEvent
	if !decode(w, r, &ev) {
		return
	}
	s.mu.Lock()
	s.eng.Key(ev.Key, ev.Ctrl)
	s.mu.Unlock()
	s.writeFrame(w)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.eng.Undo()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"applied": ok})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.eng.Redo()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"applied": ok})
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	err := s.eng.Resize(req.Width, req.Height)
	s.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.writeFrame(w)
}

type noteModeRequest struct {
	On bool `json:"on"`
}

func (s *Server) handleNoteMode(w http.ResponseWriter, r *http.Request) {
	var req noteModeRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.eng.SetNoteMode(req.On)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"note_mode": req.On})
}

type editorRequest struct {
	Action string `json:"action"`
	Text   string `json:"text"`
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	var req editorRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	var ok bool
	switch req.Action {
	case "save":
		ok = s.eng.EditNote(req.Text)
	case "delete":
		ok = s.eng.DeleteNote()
	default:
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown editor action"})
		return
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"applied": ok})
}

// writeFrame reports whether the event produced a frame and, when it
// did, the display list. Coalescing happens inside the engine.
func (s *Server) writeFrame(w http.ResponseWriter) {
	s.mu.Lock()
	commands, ok := s.eng.Frame()
	s.mu.Unlock()

	resp := map[string]any{"frame": ok}
	if ok {
		resp["commands"] = commands
	}
	writeJSON(w, http.StatusOK, resp)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/sitetrack/internal/engine"
	"github.com/sells-group/sitetrack/internal/model"
)

func testServer(t *testing.T) (*Server, *engine.Engine, string) {
	t.Helper()

	boundary := geom.NewPolygon(geom.XY)
	_ = boundary.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 10, 0, 10, 10, 0, 10, 0, 0}))

	layers := []model.Layer{
		{Name: "boundary", Role: model.RoleDisplay, Features: []model.Feature{{Geometry: boundary}}},
		{Name: "inverters", Role: model.RoleClickable, Features: []model.Feature{
			{Geometry: geom.NewPointFlat(geom.XY, []float64{5, 5})},
		}},
	}
	labels := []model.Label{{ID: "inv-1", Layer: "inverters", Text: "INV 1", X: 5, Y: 5}}

	eng, err := engine.New(layers, labels, nil, engine.Config{Width: 500, Height: 500, Padding: 50})
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "progress.xlsx")
	return New(eng, exportPath), eng, exportPath
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := testServer(t)
	rec := do(t, s.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestPointerClick_TogglesCompletion(t *testing.T) {
	s, eng, _ := testServer(t)
	h := s.Router()
	sx, sy := eng.View().WorldToScreen(5, 5)

	rec := do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "down", "x": sx, "y": sy, "button": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "up", "x": sx, "y": sy})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/state", nil)
	var state stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, []string{"inv-1"}, state.Completed)
	assert.Equal(t, 1, state.Total)
}

func TestPointer_UnknownType(t *testing.T) {
	s, _, _ := testServer(t)
	rec := do(t, s.Router(), http.MethodPost, "/api/events/pointer", map[string]any{"type": "hover"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWheel_ChangesView(t *testing.T) {
	s, eng, _ := testServer(t)
	before := eng.View().Scale

	rec := do(t, s.Router(), http.MethodPost, "/api/events/wheel", map[string]any{"x": 250.0, "y": 250.0, "delta": -1.0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, eng.View().Scale, before)
}

func TestUndoRedo(t *testing.T) {
	s, eng, _ := testServer(t)
	h := s.Router()
	sx, sy := eng.View().WorldToScreen(5, 5)

	do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "down", "x": sx, "y": sy})
	do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "up", "x": sx, "y": sy})
	require.Equal(t, []string{"inv-1"}, eng.State().Completed())

	rec := do(t, h, http.MethodPost, "/api/undo", nil)
	assert.Contains(t, rec.Body.String(), `"applied":true`)
	assert.Empty(t, eng.State().Completed())

	rec = do(t, h, http.MethodPost, "/api/redo", nil)
	assert.Contains(t, rec.Body.String(), `"applied":true`)
	assert.Equal(t, []string{"inv-1"}, eng.State().Completed())

	// Nothing left to redo.
	rec = do(t, h, http.MethodPost, "/api/redo", nil)
	assert.Contains(t, rec.Body.String(), `"applied":false`)
}

func TestResize(t *testing.T) {
	s, eng, _ := testServer(t)

	rec := do(t, s.Router(), http.MethodPost, "/api/resize", map[string]any{"width": 900.0, "height": 500.0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 900.0, eng.View().Width)

	rec = do(t, s.Router(), http.MethodPost, "/api/resize", map[string]any{"width": 10.0, "height": 10.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "viewport smaller than padding is rejected")
}

func TestRender(t *testing.T) {
	s, _, _ := testServer(t)

	rec := do(t, s.Router(), http.MethodGet, "/api/render", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Commands []map[string]any `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Commands)
	assert.Equal(t, "background", resp.Commands[0]["kind"])
}

func TestNoteLifecycleOverHTTP(t *testing.T) {
	s, eng, _ := testServer(t)
	h := s.Router()

	rec := do(t, h, http.MethodPost, "/api/notemode", map[string]any{"on": true})
	require.Equal(t, http.StatusOK, rec.Code)

	// Place a note away from the label.
	sx, sy := eng.View().WorldToScreen(2, 2)
	do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "down", "x": sx, "y": sy})
	do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "up", "x": sx, "y": sy})
	require.Len(t, eng.State().Notes(), 1)

	// Select it and save text through the editor endpoint.
	do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "down", "x": sx, "y": sy})
	do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "up", "x": sx, "y": sy})
	rec = do(t, h, http.MethodPost, "/api/editor", map[string]any{"action": "save", "text": "cracked lens"})
	assert.Contains(t, rec.Body.String(), `"applied":true`)
	assert.Equal(t, "cracked lens", eng.State().Notes()[0].Text)
}

func TestExport(t *testing.T) {
	s, eng, exportPath := testServer(t)
	h := s.Router()
	sx, sy := eng.View().WorldToScreen(5, 5)
	do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "down", "x": sx, "y": sy})
	do(t, h, http.MethodPost, "/api/events/pointer", map[string]any{"type": "up", "x": sx, "y": sy})

	rec := do(t, h, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("%q", exportPath))

	f, err := xlsx.OpenFile(exportPath)
	require.NoError(t, err)
	assert.NotNil(t, f.Sheet["inverters"])
	assert.NotNil(t, f.Sheet["Summary"])
}

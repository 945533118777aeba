package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/sitetrack/internal/model"
	"github.com/sells-group/sitetrack/internal/viewport"
)

func testScene(t *testing.T) Scene {
	t.Helper()
	v, err := viewport.New(model.Bounds{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}, 500, 500, 50)
	require.NoError(t, err)

	poly := geom.NewPolygon(geom.XY)
	_ = poly.Push(geom.NewLinearRingFlat(geom.XY, []float64{0, 0, 10, 0, 10, 10, 0, 10, 0, 0}))

	return Scene{
		View: v,
		Display: []model.Layer{{
			Name: "boundary",
			Role: model.RoleDisplay,
			Features: []model.Feature{
				{Geometry: poly},
				{Geometry: geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 10})},
			},
		}},
		Labels: []model.Label{
			{ID: "inv-1", X: 2, Y: 2, Text: "INV 1"},
			{ID: "inv-2", X: 8, Y: 8},
		},
		Completed: map[string]struct{}{"inv-2": {}},
		Notes:     []model.Note{{ID: 1, X: 5, Y: 5, Text: "snag"}},
	}
}

func kinds(cmds []Command) []Kind {
	out := make([]Kind, len(cmds))
	for i, c := range cmds {
		out[i] = c.Kind
	}
	return out
}

func TestCompile_ZOrder(t *testing.T) {
	s := testScene(t)
	s.HoverID = "inv-1"
	s.Marquee = &Marquee{X0: 10, Y0: 10, X1: 100, Y1: 100, Action: MarqueeAdd}

	cmds := Compile(s)
	require.NotEmpty(t, cmds)

	assert.Equal(t, []Kind{
		KindBackground,
		KindPolygon,  // boundary polygon
		KindPolyline, // cable run
		KindMarker,   // inv-1
		KindMarker,   // inv-2
		KindMarker,   // note
		KindText,     // hover label
		KindRect,     // marquee topmost
	}, kinds(cmds))
}

func TestCompile_CompletionStyling(t *testing.T) {
	cmds := Compile(testScene(t))

	var pending, done Command
	for _, c := range cmds {
		switch c.ID {
		case "inv-1":
			pending = c
		case "inv-2":
			done = c
		}
	}
	require.NotEmpty(t, pending.Fill)
	require.NotEmpty(t, done.Fill)
	assert.NotEqual(t, pending.Fill, done.Fill)
}

func TestCompile_MarqueeNormalizedAndColored(t *testing.T) {
	s := testScene(t)
	s.Marquee = &Marquee{X0: 200, Y0: 180, X1: 40, Y1: 20, Action: MarqueeRemove}

	cmds := Compile(s)
	m := cmds[len(cmds)-1]
	require.Equal(t, KindRect, m.Kind)
	assert.Equal(t, 40.0, m.X)
	assert.Equal(t, 20.0, m.Y)
	assert.Equal(t, 160.0, m.W)
	assert.Equal(t, 160.0, m.H)

	s.Marquee.Action = MarqueeAdd
	add := Compile(s)
	assert.NotEqual(t, m.Fill, add[len(add)-1].Fill)
}

func TestCompile_TextGatedByZoomRatio(t *testing.T) {
	s := testScene(t)
	s.HoverID = "inv-1"

	// Zoomed far out: no text layer.
	require.NoError(t, s.View.ZoomAt(250, 250, 0.5))
	for _, c := range Compile(s) {
		assert.NotEqual(t, KindText, c.Kind)
	}

	// Back past the gate: text shows.
	require.NoError(t, s.View.ZoomAt(250, 250, 4))
	var sawText bool
	for _, c := range Compile(s) {
		if c.Kind == KindText {
			sawText = true
			assert.Equal(t, "INV 1", c.Text)
		}
	}
	assert.True(t, sawText)
}

func TestCompile_MarkerSizeClamped(t *testing.T) {
	s := testScene(t)

	require.NoError(t, s.View.ZoomAt(250, 250, 0.01))
	for _, c := range Compile(s) {
		if c.Kind == KindMarker {
			assert.GreaterOrEqual(t, c.Size, 6.0)
		}
	}

	require.NoError(t, s.View.ZoomAt(250, 250, 10_000))
	for _, c := range Compile(s) {
		if c.Kind == KindMarker {
			assert.LessOrEqual(t, c.Size, 24.0)
		}
	}
}

func TestCompile_NilView(t *testing.T) {
	assert.Nil(t, Compile(Scene{}))
}

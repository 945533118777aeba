// Package render compiles the current viewer state into an ordered
// display list. Compilation is a pure function of its inputs and safe to
// call at high frequency; the engine coalesces bursts into frames.
package render

import (
	"github.com/sells-group/sitetrack/internal/geomx"
	"github.com/sells-group/sitetrack/internal/model"
	"github.com/sells-group/sitetrack/internal/viewport"
)

// Kind identifies a draw command.
type Kind string

const (
	KindBackground Kind = "background"
	KindPolygon    Kind = "polygon"
	KindPolyline   Kind = "polyline"
	KindMarker     Kind = "marker"
	KindText       Kind = "text"
	KindRect       Kind = "rect"
)

// Command is one entry of the display list, in screen coordinates.
type Command struct {
	Kind   Kind          `json:"kind"`
	ID     string        `json:"id,omitempty"`
	Points [][2]float64  `json:"points,omitempty"`
	X      float64       `json:"x,omitempty"`
	Y      float64       `json:"y,omitempty"`
	W      float64       `json:"w,omitempty"`
	H      float64       `json:"h,omitempty"`
	Size   float64       `json:"size,omitempty"`
	Text   string        `json:"text,omitempty"`
	Fill   string        `json:"fill,omitempty"`
	Stroke string        `json:"stroke,omitempty"`
	Width  float64       `json:"width,omitempty"`
}

// MarqueeAction selects the batch operation a marquee applies.
type MarqueeAction string

const (
	MarqueeAdd    MarqueeAction = "add"
	MarqueeRemove MarqueeAction = "remove"
)

// Marquee is the live selection rectangle, already in screen space.
type Marquee struct {
	X0, Y0, X1, Y1 float64
	Action         MarqueeAction
}

// Scene gathers everything one frame draws.
type Scene struct {
	View      *viewport.View
	Display   []model.Layer
	Labels    []model.Label
	Completed map[string]struct{}
	Notes     []model.Note
	HoverID   string
	Marquee   *Marquee
}

// Style constants. Marker and text sizes scale with zoom but stay inside
// legible pixel clamps.
const (
	markerWorldSize = 0.30
	textWorldSize   = 0.35
	markerMinPx     = 6.0
	markerMaxPx     = 24.0
	textMinPx       = 10.0
	textMaxPx       = 18.0

	// textZoomGate hides detail text when zoomed out past this ratio of
	// the fitted base scale.
	textZoomGate = 0.9

	colorBackground   = "#10151c"
	colorBase         = "#2d3a4a"
	colorBaseStroke   = "#44576b"
	colorPending      = "#8a93a0"
	colorDone         = "#2fbf71"
	colorLarge        = "#d9a038"
	colorNote         = "#e4574f"
	colorNoteSelected = "#ffd23f"
	colorHoverText    = "#f2f5f8"
	colorMarqueeAdd   = "rgba(47,128,237,0.25)"
	colorMarqueeAddS  = "#2f80ed"
	colorMarqueeRemS  = "#eb5757"
	colorMarqueeRem   = "rgba(235,87,87,0.25)"
)

func clamp(minV, maxV, v float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// Compile builds the display list in fixed z-order: background, base
// layers, clickable features, notes, hover text, marquee on top.
func Compile(s Scene) []Command {
	if s.View == nil {
		return nil
	}
	cmds := []Command{{
		Kind: KindBackground,
		W:    s.View.Width,
		H:    s.View.Height,
		Fill: colorBackground,
	}}

	cmds = append(cmds, compileDisplay(s)...)
	cmds = append(cmds, compileLabels(s)...)
	cmds = append(cmds, compileNotes(s)...)
	cmds = append(cmds, compileHover(s)...)
	if s.Marquee != nil {
		cmds = append(cmds, compileMarquee(*s.Marquee))
	}
	return cmds
}

func compileDisplay(s Scene) []Command {
	var cmds []Command
	stroke := clamp(0.5, 3, 0.02*s.View.Scale)
	for _, layer := range s.Display {
		for _, f := range layer.Features {
			coords := geomx.FlatCoords(f.Geometry)
			if len(coords) < 2 {
				continue
			}
			pts := make([][2]float64, len(coords))
			for i, c := range coords {
				x, y := s.View.WorldToScreen(c[0], c[1])
				pts[i] = [2]float64{x, y}
			}
			kind := KindPolyline
			fill := ""
			if ring := geomx.OuterRing(f.Geometry); ring != nil {
				kind = KindPolygon
				fill = colorBase
			}
			cmds = append(cmds, Command{
				Kind:   kind,
				Points: pts,
				Fill:   fill,
				Stroke: colorBaseStroke,
				Width:  stroke,
			})
		}
	}
	return cmds
}

func compileLabels(s Scene) []Command {
	size := clamp(markerMinPx, markerMaxPx, markerWorldSize*s.View.Scale)
	cmds := make([]Command, 0, len(s.Labels))
	for _, l := range s.Labels {
		x, y := s.View.WorldToScreen(l.X, l.Y)
		fill := colorPending
		if _, done := s.Completed[l.ID]; done {
			fill = colorDone
		} else if l.Large {
			fill = colorLarge
		}
		cmds = append(cmds, Command{
			Kind: KindMarker,
			ID:   l.ID,
			X:    x,
			Y:    y,
			Size: size,
			Fill: fill,
		})
	}
	return cmds
}

func compileNotes(s Scene) []Command {
	size := clamp(markerMinPx, markerMaxPx, markerWorldSize*s.View.Scale)
	var cmds []Command
	for _, n := range s.Notes {
		x, y := s.View.WorldToScreen(n.X, n.Y)
		fill := colorNote
		if n.Selected {
			fill = colorNoteSelected
		}
		cmds = append(cmds, Command{
			Kind: KindMarker,
			X:    x,
			Y:    y,
			Size: size,
			Fill: fill,
			Text: n.Text,
		})
	}
	return cmds
}

func compileHover(s Scene) []Command {
	if s.HoverID == "" || s.View.ZoomRatio() < textZoomGate {
		return nil
	}
	size := clamp(textMinPx, textMaxPx, textWorldSize*s.View.Scale)
	for _, l := range s.Labels {
		if l.ID != s.HoverID {
			continue
		}
		x, y := s.View.WorldToScreen(l.X, l.Y)
		text := l.Text
		if text == "" {
			text = l.ID
		}
		return []Command{{
			Kind: KindText,
			ID:   l.ID,
			X:    x,
			Y:    y - size,
			Size: size,
			Text: text,
			Fill: colorHoverText,
		}}
	}
	return nil
}

func compileMarquee(m Marquee) Command {
	x0, x1 := m.X0, m.X1
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	y0, y1 := m.Y0, m.Y1
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	fill, stroke := colorMarqueeAdd, colorMarqueeAddS
	if m.Action == MarqueeRemove {
		fill, stroke = colorMarqueeRem, colorMarqueeRemS
	}
	return Command{
		Kind:   KindRect,
		X:      x0,
		Y:      y0,
		W:      x1 - x0,
		H:      y1 - y0,
		Fill:   fill,
		Stroke: stroke,
		Width:  1,
	}
}

package model

import "github.com/twpayne/go-geom"

// LayerRole describes how a loaded layer participates in the viewer.
type LayerRole string

const (
	// RoleClickable layers carry the trackable assets: their features are
	// hit-testable and their completion state is toggled by the user.
	RoleClickable LayerRole = "clickable"
	// RoleDisplay layers are drawn underneath as context (boundaries,
	// cable runs) and never hit-tested.
	RoleDisplay LayerRole = "display"
)

// Feature is one geometric record from a loaded collection. Features are
// immutable after load; derived data lives in side tables keyed by id.
type Feature struct {
	Geometry   geom.T
	Properties map[string]any
}

// Layer is a named collection of features loaded as one unit. Feature
// order mirrors source order and is the hit-test tie-break order.
type Layer struct {
	Name     string
	Role     LayerRole
	Features []Feature
}

// Bounds is the axis-aligned box enclosing all loaded geometry.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Width returns the horizontal extent of the bounds.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the bounds.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// CenterX returns the horizontal midpoint of the bounds.
func (b Bounds) CenterX() float64 { return (b.MinX + b.MaxX) / 2 }

// CenterY returns the vertical midpoint of the bounds.
func (b Bounds) CenterY() float64 { return (b.MinY + b.MaxY) / 2 }

// Degenerate reports whether the bounds cannot support a fit computation.
func (b Bounds) Degenerate() bool {
	return !(b.Width() > 0) || !(b.Height() > 0)
}

// Label is the per-feature summary used for hit-testing and rendering.
// X and Y are geographic, not screen, coordinates.
type Label struct {
	ID    string  `json:"id"`
	Layer string  `json:"layer"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Area  float64 `json:"area"`
	Large bool    `json:"large"`
}

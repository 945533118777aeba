// Package hittest resolves pointer positions to features. Queries are
// linear scans in collection order; with hundreds of features per layer
// an index would cost more than it saves. Scan order mirrors insertion
// order, which makes first-match-wins deterministic.
package hittest

import (
	"math"

	"github.com/sells-group/sitetrack/internal/model"
	"github.com/sells-group/sitetrack/internal/viewport"
)

const (
	// NoteRadius is the pixel radius for picking note markers.
	NoteRadius = 15.0
	// LabelRadius is the pixel radius for picking simple labels.
	LabelRadius = 30.0

	// rayEpsilon keeps the ray-casting denominator away from zero on
	// horizontal edges.
	rayEpsilon = 1e-12
)

// LabelAt returns the first label whose projected screen position is
// within radius pixels of (sx, sy).
func LabelAt(v *viewport.View, labels []model.Label, sx, sy, radius float64) (model.Label, bool) {
	for _, l := range labels {
		px, py := v.WorldToScreen(l.X, l.Y)
		if math.Hypot(px-sx, py-sy) < radius {
			return l, true
		}
	}
	return model.Label{}, false
}

// NoteAt returns the first note whose projected screen position is
// within radius pixels of (sx, sy).
func NoteAt(v *viewport.View, notes []model.Note, sx, sy, radius float64) (model.Note, bool) {
	for _, n := range notes {
		px, py := v.WorldToScreen(n.X, n.Y)
		if math.Hypot(px-sx, py-sy) < radius {
			return n, true
		}
	}
	return model.Note{}, false
}

// InBox reports whether (sx, sy) lies inside the axis-aligned box of the
// given half extents centered on the label's projected position. Used
// for rectangular click targets instead of a radius.
func InBox(v *viewport.View, l model.Label, sx, sy, halfW, halfH float64) bool {
	px, py := v.WorldToScreen(l.X, l.Y)
	return sx >= px-halfW && sx <= px+halfW && sy >= py-halfH && sy <= py+halfH
}

// PointInRing reports whether a geographic point is inside a polygon
// ring by ray casting. The epsilon in the denominator avoids division by
// zero on horizontal edges.
func PointInRing(ring [][2]float64, x, y float64) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi+rayEpsilon)+xi {
			inside = !inside
		}
	}
	return inside
}

// RegionAt returns the first label whose polygon ring contains the
// geographic point. Rings are supplied as a side table keyed by label
// id; labels without a ring are skipped.
func RegionAt(labels []model.Label, rings map[string][][2]float64, x, y float64) (model.Label, bool) {
	for _, l := range labels {
		ring, ok := rings[l.ID]
		if !ok || len(ring) < 3 {
			continue
		}
		if PointInRing(ring, x, y) {
			return l, true
		}
	}
	return model.Label{}, false
}

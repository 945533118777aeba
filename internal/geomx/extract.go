// Package geomx extracts flat coordinate lists, bounds, and cheap
// center/area summaries from heterogeneous go-geom geometries.
package geomx

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/sitetrack/internal/model"
)

// FlatCoords returns every coordinate pair a geometry contains, in
// storage order. Empty or nil geometries yield an empty slice.
func FlatCoords(g geom.T) [][2]float64 {
	if g == nil {
		return nil
	}
	if gc, ok := g.(*geom.GeometryCollection); ok {
		var out [][2]float64
		for _, sub := range gc.Geoms() {
			out = append(out, FlatCoords(sub)...)
		}
		return out
	}

	flat := g.FlatCoords()
	stride := g.Stride()
	if stride < 2 || len(flat) < stride {
		return nil
	}
	out := make([][2]float64, 0, len(flat)/stride)
	for i := 0; i+1 < len(flat); i += stride {
		out = append(out, [2]float64{flat[i], flat[i+1]})
	}
	return out
}

// ComputeBounds unions the coordinates of every feature across all
// layers. It returns an error when no coordinates exist at all;
// degenerate (zero-extent) bounds are returned as-is for the viewport
// to guard against.
func ComputeBounds(layers []model.Layer) (model.Bounds, error) {
	b := model.Bounds{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	var n int
	for _, l := range layers {
		for _, f := range l.Features {
			for _, c := range FlatCoords(f.Geometry) {
				if c[0] < b.MinX {
					b.MinX = c[0]
				}
				if c[0] > b.MaxX {
					b.MaxX = c[0]
				}
				if c[1] < b.MinY {
					b.MinY = c[1]
				}
				if c[1] > b.MaxY {
					b.MaxY = c[1]
				}
				n++
			}
		}
	}
	if n == 0 {
		return model.Bounds{}, eris.New("geomx: no coordinates in any layer")
	}
	return b, nil
}

// Summary is the cheap per-feature approximation used for hit targets:
// Center is the arithmetic mean of the outer-ring/line vertices (not the
// true centroid) and Area is the bounding-box area (Δx × Δy), not the
// true polygon area. Callers only compare relative magnitudes.
type Summary struct {
	CenterX float64
	CenterY float64
	Area    float64
}

// Summarize computes the Summary for one geometry. The second return is
// false when the geometry has no usable coordinates.
func Summarize(g geom.T) (Summary, bool) {
	coords := summaryCoords(g)
	if len(coords) == 0 {
		return Summary{}, false
	}

	var sumX, sumY float64
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, c := range coords {
		sumX += c[0]
		sumY += c[1]
		minX = math.Min(minX, c[0])
		maxX = math.Max(maxX, c[0])
		minY = math.Min(minY, c[1])
		maxY = math.Max(maxY, c[1])
	}
	n := float64(len(coords))
	return Summary{
		CenterX: sumX / n,
		CenterY: sumY / n,
		Area:    (maxX - minX) * (maxY - minY),
	}, true
}

// summaryCoords picks the vertices the summary is computed over: the
// outer ring for polygons, all vertices otherwise.
func summaryCoords(g geom.T) [][2]float64 {
	switch t := g.(type) {
	case nil:
		return nil
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return nil
		}
		return FlatCoords(t.LinearRing(0))
	case *geom.MultiPolygon:
		var out [][2]float64
		for i := 0; i < t.NumPolygons(); i++ {
			p := t.Polygon(i)
			if p.NumLinearRings() == 0 {
				continue
			}
			out = append(out, FlatCoords(p.LinearRing(0))...)
		}
		return out
	default:
		return FlatCoords(g)
	}
}

// OuterRing returns the outer ring vertices of a polygonal geometry for
// point-in-polygon queries. Non-polygonal geometries return nil.
func OuterRing(g geom.T) [][2]float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return nil
		}
		return FlatCoords(t.LinearRing(0))
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil
		}
		p := t.Polygon(0)
		if p.NumLinearRings() == 0 {
			return nil
		}
		return FlatCoords(p.LinearRing(0))
	default:
		return nil
	}
}

// Package viewport maintains the pan/zoom transform between geographic
// and screen coordinates.
package viewport

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/sitetrack/internal/model"
)

// DefaultPadding is the fixed pixel padding used when fitting the full
// bounds into the viewport.
const DefaultPadding = 50.0

// View holds the current transform parameters. Scale is screen pixels
// per geographic unit and is always > 0. BaseScale is set by Fit and
// only changes on resize. OffsetX/OffsetY are the screen coordinates the
// geographic center maps to.
type View struct {
	OffsetX   float64
	OffsetY   float64
	Scale     float64
	BaseScale float64

	Width   float64
	Height  float64
	Padding float64

	bounds  model.Bounds
	centerX float64
	centerY float64
}

// New returns a view fitted to the given bounds.
func New(bounds model.Bounds, width, height, padding float64) (*View, error) {
	v := &View{Padding: padding}
	if err := v.Fit(bounds, width, height); err != nil {
		return nil, err
	}
	return v, nil
}

// Fit computes BaseScale so the full bounds fit inside the viewport with
// the configured padding, then centers the view. Degenerate bounds and
// viewports smaller than twice the padding are rejected so the transform
// never divides by zero or goes non-positive.
func (v *View) Fit(bounds model.Bounds, width, height float64) error {
	if bounds.Degenerate() {
		return eris.Errorf("viewport: degenerate bounds %+v", bounds)
	}
	availW := width - 2*v.Padding
	availH := height - 2*v.Padding
	if availW <= 0 || availH <= 0 {
		return eris.Errorf("viewport: unusable viewport %gx%g with padding %g", width, height, v.Padding)
	}

	scale := availW / bounds.Width()
	if s := availH / bounds.Height(); s < scale {
		scale = s
	}
	if scale <= 0 {
		return eris.Errorf("viewport: computed non-positive scale %g", scale)
	}

	v.bounds = bounds
	v.centerX = bounds.CenterX()
	v.centerY = bounds.CenterY()
	v.Width = width
	v.Height = height
	v.BaseScale = scale
	v.Scale = scale
	v.OffsetX = width / 2
	v.OffsetY = height / 2
	return nil
}

// Resize refits the current bounds into the new viewport dimensions.
// Any user pan/zoom is discarded; this is a deliberate simplification.
func (v *View) Resize(width, height float64) error {
	return v.Fit(v.bounds, width, height)
}

// WorldToScreen projects geographic coordinates to screen pixels. The
// vertical axis is inverted: screen Y grows downward while geographic Y
// grows upward. The sign flip is load-bearing.
func (v *View) WorldToScreen(x, y float64) (float64, float64) {
	return (x-v.centerX)*v.Scale + v.OffsetX,
		(v.centerY-y)*v.Scale + v.OffsetY
}

// ScreenToWorld is the exact algebraic inverse of WorldToScreen.
func (v *View) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx-v.OffsetX)/v.Scale + v.centerX,
		v.centerY - (sy-v.OffsetY)/v.Scale
}

// ZoomAt applies a multiplicative zoom factor while keeping the world
// point currently under (sx, sy) visually fixed. Non-positive factors
// are rejected to preserve the scale > 0 invariant.
func (v *View) ZoomAt(sx, sy, factor float64) error {
	if factor <= 0 {
		return eris.Errorf("viewport: zoom factor %g must be positive", factor)
	}
	v.Scale *= factor
	v.OffsetX = sx - (sx-v.OffsetX)*factor
	v.OffsetY = sy - (sy-v.OffsetY)*factor
	return nil
}

// Pan shifts the view by a screen-space delta. Scale is unchanged.
func (v *View) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// ZoomRatio reports how far the user has zoomed relative to the fitted
// base scale. The render pipeline gates detail text on this.
func (v *View) ZoomRatio() float64 {
	return v.Scale / v.BaseScale
}

// Bounds returns the bounds the view was fitted to.
func (v *View) Bounds() model.Bounds { return v.bounds }

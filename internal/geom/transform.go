// Package geom provides the renderer-agnostic geometry primitives of the
// engine: the unit/screen coordinate transform, grid and rotation snapping,
// and convex polygon collision detection.
package geom

import (
	"math"

	"github.com/piwi3910/tangram/internal/model"
)

// RotationStep is the rotation quantum pieces come to rest on.
const RotationStep = math.Pi / 4

// snapEpsilon absorbs float noise when a value already sits on the grid.
const snapEpsilon = 1e-9

// Transform maps between unit space and screen pixels. The board is scaled
// uniformly and centred in the display; screen Y grows in the same direction
// as unit Y.
type Transform struct {
	Scale  float64       // pixels per unit
	Offset model.Point2D // screen position of the unit origin
}

// NewTransform fits the 8x8 board into a display of the given size, keeping
// margin pixels free on every side.
func NewTransform(displayWidth, displayHeight, margin float64) Transform {
	avail := math.Min(displayWidth, displayHeight) - 2*margin
	if avail <= 0 {
		avail = math.Min(displayWidth, displayHeight)
	}
	if avail <= 0 {
		return Transform{Scale: 1}
	}
	scale := avail / model.BoardSize
	board := model.BoardSize * scale
	return Transform{
		Scale: scale,
		Offset: model.Point2D{
			X: (displayWidth - board) / 2,
			Y: (displayHeight - board) / 2,
		},
	}
}

// ToScreen converts a unit-space point to screen pixels.
func (t Transform) ToScreen(p model.Point2D) model.Point2D {
	return p.Scale(t.Scale).Add(t.Offset)
}

// ToUnit converts a screen point to unit space.
func (t Transform) ToUnit(p model.Point2D) model.Point2D {
	if t.Scale == 0 {
		return p
	}
	return p.Sub(t.Offset).Scale(1 / t.Scale)
}

// OutlineToScreen converts every vertex of a unit-space outline.
func (t Transform) OutlineToScreen(o model.Outline) model.Outline {
	result := make(model.Outline, len(o))
	for i, p := range o {
		result[i] = t.ToScreen(p)
	}
	return result
}

// SnapValue rounds v to the nearest multiple of step. A non-positive step
// leaves v unchanged.
func SnapValue(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	s := math.Round(v/step) * step
	if s == 0 {
		return 0
	}
	return s
}

// SnapToGrid rounds each coordinate independently to the nearest multiple
// of step. Snapping an already snapped point returns it unchanged.
func SnapToGrid(p model.Point2D, step float64) model.Point2D {
	return model.Point2D{X: SnapValue(p.X, step), Y: SnapValue(p.Y, step)}
}

// SnapAway quantizes v to the grid, rounding in the direction of dir
// (ceil for positive, floor for negative, nearest for zero). It keeps a
// push from being undone by rounding back into the obstacle.
func SnapAway(v, step, dir float64) float64 {
	if step <= 0 {
		return v
	}
	var k float64
	switch {
	case dir > 0:
		k = math.Ceil(v/step - snapEpsilon)
	case dir < 0:
		k = math.Floor(v/step + snapEpsilon)
	default:
		k = math.Round(v / step)
	}
	s := k * step
	if s == 0 {
		return 0
	}
	return s
}

// SnapRotation rounds angle to the nearest multiple of π/4 and normalizes
// it into [0, 2π). Exact half steps (π/8 off a multiple) round away from
// zero, following math.Round.
func SnapRotation(angle float64) float64 {
	return model.AngleForIndex(model.RotationIndex(angle))
}

// IsSnappedRotation reports whether angle already rests on a π/4 multiple.
func IsSnappedRotation(angle float64) bool {
	return model.AngularDistance(angle, SnapRotation(angle)) < snapEpsilon
}

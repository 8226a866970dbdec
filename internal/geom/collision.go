package geom

import (
	"math"

	"github.com/piwi3910/tangram/internal/model"
)

const (
	// ParallelThreshold is the |dot| above which two candidate axes are
	// treated as the same axis.
	ParallelThreshold = 0.999
	// ContactEpsilon is the overlap depth at or below which polygons are
	// considered touching rather than intersecting. Fitted tangram pieces
	// share edges, which must not count as collisions.
	ContactEpsilon = 1e-6
)

// CollisionResult describes the overlap of two convex polygons. MTV is the
// zero vector when Intersects is false.
type CollisionResult struct {
	Intersects       bool
	MTV              model.Point2D // translation to apply to polygon A to separate it from B
	PenetrationDepth float64
}

// DetectCollision tests two convex polygons with the Separating Axis
// Theorem. Candidate axes are the edge normals of both polygons with
// near-parallel duplicates removed. When the polygons intersect, the MTV
// lies on the axis needing the smallest push and points from B's centroid
// toward A's centroid.
func DetectCollision(a, b model.Outline) CollisionResult {
	if len(a) < 3 || len(b) < 3 {
		return CollisionResult{}
	}

	toA := a.Centroid().Sub(b.Centroid())

	best := math.Inf(1)
	var bestAxis model.Point2D
	for _, axis := range separatingAxes(a, b) {
		minA, maxA := project(a, axis)
		minB, maxB := project(b, axis)

		overlap := math.Min(maxA, maxB) - math.Max(minA, minB)
		if overlap <= ContactEpsilon {
			return CollisionResult{}
		}

		// Orient the axis toward A and measure the push that actually clears
		// B along it. For partial overlaps this equals the interval overlap;
		// for containment it is the distance to the far side.
		var push float64
		if toA.Dot(axis) >= 0 {
			push = maxB - minA
		} else {
			axis = axis.Scale(-1)
			push = maxA - minB
		}
		if push < best {
			best = push
			bestAxis = axis
		}
	}

	return CollisionResult{
		Intersects:       true,
		MTV:              bestAxis.Scale(best),
		PenetrationDepth: best,
	}
}

// separatingAxes collects unit edge normals of both polygons, skipping
// axes parallel to one already collected.
func separatingAxes(a, b model.Outline) []model.Point2D {
	axes := make([]model.Point2D, 0, len(a)+len(b))
	for _, poly := range [2]model.Outline{a, b} {
		for i := range poly {
			edge := poly[(i+1)%len(poly)].Sub(poly[i])
			normal := model.Point2D{X: edge.Y, Y: -edge.X}.Normalize()
			if normal == (model.Point2D{}) {
				continue
			}
			duplicate := false
			for _, existing := range axes {
				if math.Abs(existing.Dot(normal)) > ParallelThreshold {
					duplicate = true
					break
				}
			}
			if !duplicate {
				axes = append(axes, normal)
			}
		}
	}
	return axes
}

// project returns the scalar extent of the polygon along axis.
func project(poly model.Outline, axis model.Point2D) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range poly {
		d := v.Dot(axis)
		min = math.Min(min, d)
		max = math.Max(max, d)
	}
	return min, max
}

// PointInPolygon reports whether pt lies inside poly using even-odd ray
// casting. Points exactly on an edge may fall either way.
func PointInPolygon(pt model.Point2D, poly model.Outline) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) {
			xCross := pj.X + (pt.Y-pj.Y)*(pi.X-pj.X)/(pi.Y-pj.Y)
			if pt.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

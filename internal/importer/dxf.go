package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/tangram/internal/model"
)

const (
	// chainTolerance is the endpoint distance at which loose LINEs join.
	chainTolerance = 0.01
	// poseTolerance is the per-vertex distance a recovered pose must meet.
	poseTolerance = 1e-3
	// areaTolerance is the relative area error accepted when classifying.
	areaTolerance = 0.02
)

// segment represents a line segment between two 2D points, used for
// chaining disconnected LINE entities into closed outlines.
type segment struct {
	start model.Point2D
	end   model.Point2D
}

// ImportDXF reads piece outlines from a DXF drawing in unit coordinates.
// Every closed LWPOLYLINE or chain of connected LINEs is matched against
// the shape library and becomes a placed piece with the recovered pose.
// Identical shapes take the next free instance (smallTriangle1 before
// smallTriangle2); outlines that match nothing are reported as warnings.
func ImportDXF(path string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines []model.Outline
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if hasBulge(e) {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with arc segments")
				continue
			}
			outline := lwPolylineToOutline(e)
			if len(outline) >= 3 {
				outlines = append(outlines, outline)
			} else {
				result.Warnings = append(result.Warnings,
					"Skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: model.Point2D{X: e.Start[0], Y: e.Start[1]},
				end:   model.Point2D{X: e.End[0], Y: e.End[1]},
			})

		case *entity.Circle, *entity.Arc:
			result.Warnings = append(result.Warnings, "Skipped curved entity")

		default:
			// Unsupported entity types are silently skipped
		}
	}

	outlines = append(outlines, chainSegments(segments, chainTolerance)...)
	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	used := make(map[model.PieceType]bool)
	for i, outline := range outlines {
		outline = simplifyOutline(outline)
		kind, ok := classifyOutline(outline)
		if !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Shape %d: not a tangram piece (%d vertices, area %.3f)", i+1, len(outline), outline.Area()))
			continue
		}
		pt, ok := nextFreeType(kind, used)
		if !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Shape %d: extra %s ignored", i+1, kind))
			continue
		}
		pose, ok := RecoverPose(pt, outline)
		if !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Shape %d: %s outline is distorted", i+1, kind))
			continue
		}
		used[pt] = true
		piece := model.NewPlacedPiece(pt, pose)
		piece.ID = pt.String()
		result.Pieces = append(result.Pieces, piece)
	}

	if len(result.Pieces) == 0 {
		result.Errors = append(result.Errors, "No tangram pieces recognised in DXF file")
	}
	return result
}

func hasBulge(lw *entity.LwPolyline) bool {
	for _, b := range lw.Bulges {
		if math.Abs(b) > 1e-9 {
			return true
		}
	}
	return false
}

// lwPolylineToOutline converts a DXF LWPOLYLINE entity to an Outline.
func lwPolylineToOutline(lw *entity.LwPolyline) model.Outline {
	outline := make(model.Outline, 0, len(lw.Vertices))
	for _, v := range lw.Vertices {
		outline = append(outline, model.Point2D{X: v[0], Y: v[1]})
	}
	if n := len(outline); n > 1 && pointsClose(outline[0], outline[n-1], chainTolerance) {
		outline = outline[:n-1]
	}
	return outline
}

// simplifyOutline drops repeated and collinear vertices, which appear when
// an edge was drawn as several LINEs.
func simplifyOutline(o model.Outline) model.Outline {
	out := append(model.Outline(nil), o...)
	for changed := true; changed && len(out) > 3; {
		changed = false
		for i := range out {
			prev := out[(i+len(out)-1)%len(out)]
			next := out[(i+1)%len(out)]
			a, b := out[i].Sub(prev), next.Sub(out[i])
			if a.Length() < chainTolerance || math.Abs(a.X*b.Y-a.Y*b.X) < 1e-6 {
				out = append(out[:i], out[i+1:]...)
				changed = true
				break
			}
		}
	}
	return out
}

// classifyOutline identifies the shape kind from vertex count, area and,
// for quadrilaterals, edge lengths.
func classifyOutline(o model.Outline) (model.ShapeKind, bool) {
	area := o.Area()
	near := func(want float64) bool { return math.Abs(area-want) <= want*areaTolerance }

	switch len(o) {
	case 3:
		switch {
		case near(0.5):
			return model.KindSmallTriangle, true
		case near(1):
			return model.KindMediumTriangle, true
		case near(2):
			return model.KindLargeTriangle, true
		}
	case 4:
		if !near(1) {
			return 0, false
		}
		first := o[1].Distance(o[0])
		for i := 1; i < 4; i++ {
			if math.Abs(o[(i+1)%4].Distance(o[i])-first) > chainTolerance {
				return model.KindParallelogram, true
			}
		}
		return model.KindSquare, true
	}
	return 0, false
}

// nextFreeType returns the first piece type of kind not yet handed out.
func nextFreeType(kind model.ShapeKind, used map[model.PieceType]bool) (model.PieceType, bool) {
	for _, t := range model.AllPieceTypes {
		if t.Kind() == kind && !used[t] {
			return t, true
		}
	}
	return model.PieceUnknown, false
}

// RecoverPose finds the pose that places piece type t exactly on outline.
// Every vertex correspondence is tried in both winding directions, and
// mirrored placements are tried for mirrorable shapes.
func RecoverPose(t model.PieceType, outline model.Outline) (model.Pose, bool) {
	shape := t.Shape()
	n := len(shape.Vertices)
	if len(outline) != n {
		return model.Pose{}, false
	}
	probe := model.PlacedPiece{Type: t}

	mirrors := []bool{false}
	if shape.Mirrorable {
		mirrors = append(mirrors, true)
	}
	for _, mirrored := range mirrors {
		local := model.Pose{Mirrored: mirrored}
		l0, l1 := local.Apply(shape.Vertices[0]), local.Apply(shape.Vertices[1])
		localAngle := math.Atan2(l1.Y-l0.Y, l1.X-l0.X)

		for start := 0; start < n; start++ {
			for _, dir := range []int{1, n - 1} {
				o0 := outline[start]
				o1 := outline[(start+dir)%n]
				theta := math.Atan2(o1.Y-o0.Y, o1.X-o0.X) - localAngle
				pose := model.Pose{
					X:        o0.X,
					Y:        o0.Y,
					Theta:    model.NormalizeAngle(theta),
					Mirrored: mirrored,
				}
				if outlinesMatch(probe.OutlineAt(pose), outline) {
					return pose, true
				}
			}
		}
	}
	return model.Pose{}, false
}

// outlinesMatch reports whether every vertex of a has a partner in b.
func outlinesMatch(a, b model.Outline) bool {
	if len(a) != len(b) {
		return false
	}
	for _, p := range a {
		found := false
		for _, q := range b {
			if pointsClose(p, q, poseTolerance) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// chainSegments connects individual segments into closed outlines.
// tolerance is the maximum distance between endpoints to consider them connected.
func chainSegments(segs []segment, tolerance float64) []model.Outline {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var outlines []model.Outline

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []model.Point2D{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		for changed := true; changed; {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
				} else if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
				} else {
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}

		// Open chains cannot be pieces.
		if len(chain) < 4 || !pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			continue
		}
		outlines = append(outlines, model.Outline(chain[:len(chain)-1]))
	}

	// Largest first for a stable ordering
	sort.SliceStable(outlines, func(i, j int) bool {
		return outlines[i].Area() > outlines[j].Area()
	})
	return outlines
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b model.Point2D, tolerance float64) bool {
	return a.Distance(b) <= tolerance
}

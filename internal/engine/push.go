// Package engine implements the interaction core of the puzzle: push
// resolution of overlapping pieces, anchor-relative pose normalization,
// placement validation against a target, and the drag/drop session that
// ties them together.
package engine

import (
	"math"

	"github.com/piwi3910/tangram/internal/geom"
	"github.com/piwi3910/tangram/internal/model"
)

// boundsEpsilon is the slack allowed when checking a piece against the board.
const boundsEpsilon = 1e-9

// PiecePosition is the resolved position of one piece.
type PiecePosition struct {
	ID        string        `json:"id"`
	Position  model.Point2D `json:"position"`
	Displaced bool          `json:"displaced"` // moved by the resolver
}

// PushResult is the outcome of a push resolution. A failed resolution is a
// normal result; callers decide whether to reject the move or search for a
// nearby free spot.
type PushResult struct {
	Positions  []PiecePosition `json:"positions"`
	Success    bool            `json:"success"`
	Iterations int             `json:"iterations"`
	// Blocked is set when two pieces the resolver may not move overlap.
	Blocked bool `json:"blocked"`
}

// Position returns the resolved position for a piece id.
func (r PushResult) Position(id string) (model.Point2D, bool) {
	for _, p := range r.Positions {
		if p.ID == id {
			return p.Position, true
		}
	}
	return model.Point2D{}, false
}

// Resolver relaxes overlaps between pieces by pushing them apart.
type Resolver struct {
	Settings model.EngineSettings
}

func NewResolver(settings model.EngineSettings) *Resolver {
	return &Resolver{Settings: settings}
}

func (r *Resolver) gridStep() float64 {
	if r.Settings.GridStep > 0 {
		return r.Settings.GridStep
	}
	return model.InteractiveGridStep
}

func (r *Resolver) maxIterations() int {
	if r.Settings.MaxPushIterations > 0 {
		return r.Settings.MaxPushIterations
	}
	return model.DefaultMaxPushIterations
}

// ResolvePush places the moving piece at target and pushes every other
// piece it (directly or transitively) overlaps until a full pass finds no
// overlap or the iteration cap is reached.
//
// The moving piece and locked pieces are never displaced. Of two movable
// pieces the one with the smaller canonical area gives way; on equal area
// the piece whose ID sorts later moves, so the lower ID stays put.
func (r *Resolver) ResolvePush(movingID string, target model.Pose, pieces []model.PlacedPiece, bounds model.Rect) PushResult {
	n := len(pieces)
	poses := make([]model.Pose, n)
	fixed := make([]bool, n)
	displaced := make([]bool, n)
	moving := -1
	for i, p := range pieces {
		poses[i] = p.Pose
		fixed[i] = p.Locked
		if p.ID == movingID {
			moving = i
		}
	}

	result := PushResult{}
	if moving < 0 {
		result.Positions = collectPositions(pieces, poses, displaced)
		return result
	}
	poses[moving] = target
	fixed[moving] = true

	step := r.gridStep()
	converged := false
	for iter := 0; iter < r.maxIterations() && !result.Blocked; iter++ {
		result.Iterations = iter + 1
		overlap := false

		for i := 0; i < n && !result.Blocked; i++ {
			for j := i + 1; j < n; j++ {
				res := geom.DetectCollision(pieces[i].OutlineAt(poses[i]), pieces[j].OutlineAt(poses[j]))
				if !res.Intersects {
					continue
				}
				overlap = true

				victim := pushTarget(pieces, fixed, i, j)
				if victim < 0 {
					result.Blocked = true
					break
				}
				// The MTV separates i from j; j moves the opposite way.
				delta := res.MTV
				if victim == j {
					delta = delta.Scale(-1)
				}
				pos := poses[victim].Position().Add(delta)
				pos = model.Point2D{
					X: geom.SnapAway(pos.X, step, delta.X),
					Y: geom.SnapAway(pos.Y, step, delta.Y),
				}
				poses[victim] = clampToBounds(pieces[victim], poses[victim].WithPosition(pos), bounds, step)
				displaced[victim] = true
			}
		}

		if !overlap {
			converged = true
			break
		}
	}

	result.Positions = collectPositions(pieces, poses, displaced)
	result.Success = converged && !result.Blocked && allInBounds(pieces, poses, bounds)
	return result
}

// pushTarget picks which of the overlapping pieces i and j is displaced,
// or -1 when neither may move.
func pushTarget(pieces []model.PlacedPiece, fixed []bool, i, j int) int {
	switch {
	case fixed[i] && fixed[j]:
		return -1
	case fixed[i]:
		return j
	case fixed[j]:
		return i
	}
	ai, aj := pieces[i].Area(), pieces[j].Area()
	switch {
	case ai < aj:
		return i
	case aj < ai:
		return j
	case pieces[i].ID > pieces[j].ID:
		return i
	default:
		return j
	}
}

// clampToBounds shifts pose so the piece's bounding box lies inside bounds,
// rounding any correction onto the grid in the inward direction.
func clampToBounds(piece model.PlacedPiece, pose model.Pose, bounds model.Rect, step float64) model.Pose {
	min, max := piece.OutlineAt(pose).BoundingBox()
	x, y := pose.X, pose.Y

	if dx := shiftInto(min.X, max.X, bounds.Min.X, bounds.Max.X); dx != 0 {
		x = geom.SnapAway(x+dx, step, dx)
	}
	if dy := shiftInto(min.Y, max.Y, bounds.Min.Y, bounds.Max.Y); dy != 0 {
		y = geom.SnapAway(y+dy, step, dy)
	}
	return pose.WithPosition(model.Point2D{X: x, Y: y})
}

// shiftInto returns the offset that moves [lo, hi] inside [min, max].
func shiftInto(lo, hi, min, max float64) float64 {
	switch {
	case lo < min-boundsEpsilon:
		return min - lo
	case hi > max+boundsEpsilon:
		return max - hi
	default:
		return 0
	}
}

func allInBounds(pieces []model.PlacedPiece, poses []model.Pose, bounds model.Rect) bool {
	for i, p := range pieces {
		if !bounds.ContainsOutline(p.OutlineAt(poses[i]), boundsEpsilon) {
			return false
		}
	}
	return true
}

func collectPositions(pieces []model.PlacedPiece, poses []model.Pose, displaced []bool) []PiecePosition {
	out := make([]PiecePosition, len(pieces))
	for i, p := range pieces {
		out[i] = PiecePosition{ID: p.ID, Position: poses[i].Position(), Displaced: displaced[i]}
	}
	return out
}

// FindNearestValidPosition searches outward from desired in rings one grid
// step apart for the first grid point where piece is inside bounds and
// clear of every other piece. The angular step shrinks as the ring grows so
// sample spacing along each ring stays near one grid step.
func (r *Resolver) FindNearestValidPosition(piece model.PlacedPiece, desired model.Point2D, others []model.PlacedPiece, bounds model.Rect) (model.Point2D, bool) {
	step := r.gridStep()
	maxRadius := r.Settings.SearchRadius
	if maxRadius <= 0 {
		maxRadius = model.DefaultSearchRadius
	}

	free := func(p model.Point2D) bool {
		outline := piece.OutlineAt(piece.Pose.WithPosition(p))
		if !bounds.ContainsOutline(outline, boundsEpsilon) {
			return false
		}
		for _, o := range others {
			if o.ID == piece.ID {
				continue
			}
			if geom.DetectCollision(outline, o.Outline()).Intersects {
				return false
			}
		}
		return true
	}

	start := geom.SnapToGrid(desired, step)
	if free(start) {
		return start, true
	}

	tried := map[model.Point2D]bool{start: true}
	for radius := step; radius <= maxRadius+boundsEpsilon; radius += step {
		angleStep := step / radius
		samples := int(math.Ceil(2 * math.Pi / angleStep))
		for k := 0; k < samples; k++ {
			a := float64(k) * 2 * math.Pi / float64(samples)
			cand := geom.SnapToGrid(start.Add(model.Point2D{X: math.Cos(a), Y: math.Sin(a)}.Scale(radius)), step)
			if tried[cand] {
				continue
			}
			tried[cand] = true
			if free(cand) {
				return cand, true
			}
		}
	}
	return model.Point2D{}, false
}

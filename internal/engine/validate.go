package engine

import (
	"fmt"
	"math"

	"github.com/piwi3910/tangram/internal/geom"
	"github.com/piwi3910/tangram/internal/model"
)

// Overlap records two pieces found intersecting.
type Overlap struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Depth float64 `json:"depth"`
}

// Report is the full result of validating an arrangement.
type Report struct {
	Violations []model.ValidationError `json:"violations"`
	Overlaps   []Overlap               `json:"overlaps"`
	// Matches holds, for every current piece, whether it was assigned to a target.
	Matches map[string]bool `json:"matches"`
	// Assignment maps target index to the id of the piece filling it.
	Assignment map[int]string `json:"assignment"`
	Complete   bool           `json:"complete"`
}

// HasErrors reports whether any violation has error severity.
func (r Report) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == model.SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity violations.
func (r Report) Errors() []model.ValidationError {
	var out []model.ValidationError
	for _, v := range r.Violations {
		if v.Severity == model.SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Warnings returns only the warning-severity violations.
func (r Report) Warnings() []model.ValidationError {
	var out []model.ValidationError
	for _, v := range r.Violations {
		if v.Severity == model.SeverityWarning {
			out = append(out, v)
		}
	}
	return out
}

// Validator checks live poses against a target arrangement.
type Validator struct {
	Tolerances model.Tolerances
	Bounds     model.Rect
}

func NewValidator(tolerances model.Tolerances, bounds model.Rect) *Validator {
	return &Validator{Tolerances: tolerances, Bounds: bounds}
}

// Matches reports whether a piece satisfies a target: same shape kind,
// position within tolerance, rotation within tolerance on the circle, and
// equal mirror state for mirrorable shapes.
func (v *Validator) Matches(piece model.PlacedPiece, target model.TargetDefinition) bool {
	if !target.Type.Valid() || piece.Type.Kind() != target.Type.Kind() {
		return false
	}
	shape := piece.Type.Shape()
	if shape.Mirrorable && piece.Pose.Mirrored != target.Mirrored {
		return false
	}

	if v.Tolerances.UseSymmetry && shape.Symmetry < 2*math.Pi {
		// Symmetric rotations move the reference corner, so compare the
		// footprint centre instead.
		got := piece.Outline().Centroid()
		want := piece.OutlineAt(target.Pose()).Centroid()
		if got.Distance(want) >= v.Tolerances.Position {
			return false
		}
		diff := math.Mod(model.NormalizeAngle(piece.Pose.Theta-target.Rotation), shape.Symmetry)
		return math.Min(diff, shape.Symmetry-diff) < v.Tolerances.Rotation
	}

	if piece.Pose.Position().Distance(target.Position) >= v.Tolerances.Position {
		return false
	}
	return model.AngularDistance(piece.Pose.Theta, target.Rotation) < v.Tolerances.Rotation
}

// Validate compares current pieces with the targets. Every problem is
// collected; one piece's issue never hides another's.
func (v *Validator) Validate(current []model.PlacedPiece, targets []model.TargetDefinition) Report {
	report := Report{
		Violations: []model.ValidationError{},
		Overlaps:   []Overlap{},
		Matches:    make(map[string]bool, len(current)),
		Assignment: make(map[int]string, len(targets)),
	}

	assign := v.assign(current, targets)
	for ti, pi := range assign {
		if pi >= 0 {
			report.Assignment[ti] = current[pi].ID
		}
	}
	for _, p := range current {
		report.Matches[p.ID] = false
	}
	for _, id := range report.Assignment {
		report.Matches[id] = true
	}
	for ti, td := range targets {
		if _, ok := report.Assignment[ti]; !ok {
			report.Violations = append(report.Violations, model.ValidationError{
				Message:  fmt.Sprintf("target %d (%s) has no matching piece", ti, td.Type),
				Severity: model.SeverityWarning,
			})
		}
	}
	report.Complete = len(targets) > 0 && len(report.Assignment) == len(targets)

	report.Overlaps = FindOverlaps(current)
	for _, o := range report.Overlaps {
		report.Violations = append(report.Violations, model.ValidationError{
			ElementID: o.A,
			Message:   fmt.Sprintf("overlaps piece %s by %.3f", o.B, o.Depth),
			Severity:  model.SeverityError,
		})
	}

	for _, p := range current {
		if !v.Bounds.ContainsOutline(p.Outline(), boundsEpsilon) {
			report.Violations = append(report.Violations, model.ValidationError{
				ElementID: p.ID,
				Message:   fmt.Sprintf("%s extends beyond the board", p.Type),
				Severity:  model.SeverityError,
			})
		}
	}

	report.Violations = append(report.Violations, checkPieceTypes(current)...)
	return report
}

// FindOverlaps returns every intersecting pair of pieces.
func FindOverlaps(pieces []model.PlacedPiece) []Overlap {
	overlaps := []Overlap{}
	outlines := make([]model.Outline, len(pieces))
	for i, p := range pieces {
		outlines[i] = p.Outline()
	}
	for i := range pieces {
		for j := i + 1; j < len(pieces); j++ {
			res := geom.DetectCollision(outlines[i], outlines[j])
			if res.Intersects {
				overlaps = append(overlaps, Overlap{A: pieces[i].ID, B: pieces[j].ID, Depth: res.PenetrationDepth})
			}
		}
	}
	return overlaps
}

// checkPieceTypes warns about canonical piece types that are missing and
// flags types that appear more than once.
func checkPieceTypes(pieces []model.PlacedPiece) []model.ValidationError {
	var out []model.ValidationError
	count := make(map[model.PieceType]int, len(model.AllPieceTypes))
	for _, p := range pieces {
		count[p.Type]++
		if count[p.Type] == 2 {
			out = append(out, model.ValidationError{
				ElementID: p.ID,
				Message:   fmt.Sprintf("piece type %s appears more than once", p.Type),
				Severity:  model.SeverityError,
			})
		}
	}
	for _, t := range model.AllPieceTypes {
		if count[t] == 0 {
			out = append(out, model.ValidationError{
				Message:  fmt.Sprintf("piece type %s is missing", t),
				Severity: model.SeverityWarning,
			})
		}
	}
	return out
}

// assign finds a one-to-one assignment of pieces to targets maximizing the
// number of matched targets (augmenting paths over the match graph). The
// result maps target index to piece index, or -1.
func (v *Validator) assign(current []model.PlacedPiece, targets []model.TargetDefinition) []int {
	edges := make([][]int, len(targets))
	for ti, td := range targets {
		for pi, p := range current {
			if v.Matches(p, td) {
				edges[ti] = append(edges[ti], pi)
			}
		}
	}

	targetOf := make([]int, len(current))
	for i := range targetOf {
		targetOf[i] = -1
	}

	var augment func(ti int, seen []bool) bool
	augment = func(ti int, seen []bool) bool {
		for _, pi := range edges[ti] {
			if seen[pi] {
				continue
			}
			seen[pi] = true
			if targetOf[pi] < 0 || augment(targetOf[pi], seen) {
				targetOf[pi] = ti
				return true
			}
		}
		return false
	}
	for ti := range targets {
		augment(ti, make([]bool, len(current)))
	}

	result := make([]int, len(targets))
	for i := range result {
		result[i] = -1
	}
	for pi, ti := range targetOf {
		if ti >= 0 {
			result[ti] = pi
		}
	}
	return result
}

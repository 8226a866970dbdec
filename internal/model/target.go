package model

import "math"

// TargetDefinition is the required pose of one piece in a puzzle solution.
// It is supplied by the puzzle collaborator and read-only to the engine.
type TargetDefinition struct {
	Type     PieceType `json:"pieceType"`
	Position Point2D   `json:"targetPosition"`
	Rotation float64   `json:"targetRotation"`
	Mirrored bool      `json:"mirrored"`
}

// Pose returns the target as a pose. The mirror flag is dropped for shapes
// that cannot be mirrored.
func (td TargetDefinition) Pose() Pose {
	mirrored := td.Mirrored && td.Type.Valid() && td.Type.Shape().Mirrorable
	return Pose{X: td.Position.X, Y: td.Position.Y, Theta: td.Rotation, Mirrored: mirrored}
}

// Default tolerance values.
const (
	// DefaultPositionPixels is the on-screen match radius that position
	// tolerance is derived from.
	DefaultPositionPixels = 12.0
	// MinPositionTolerance floors the derived position tolerance (unit space)
	// so small displays do not demand sub-grid precision.
	MinPositionTolerance = 0.05
	// DefaultRotationTolerance is the default angular match window (radians).
	DefaultRotationTolerance = math.Pi / 36
)

// Tolerances configures how close a piece must be to its target to match.
type Tolerances struct {
	Position float64 `json:"position"` // unit-space distance
	Rotation float64 `json:"rotation"` // radians
	// UseSymmetry lets rotations that map a shape onto itself count as a
	// match (e.g. a square turned by π/2).
	UseSymmetry bool `json:"use_symmetry"`
}

// ScaledTolerances derives the position tolerance from an on-screen radius
// and the current pixels-per-unit scale, floored at MinPositionTolerance.
func ScaledTolerances(pixelsPerUnit, radiusPixels, rotation float64) Tolerances {
	pos := MinPositionTolerance
	if pixelsPerUnit > 0 {
		pos = math.Max(radiusPixels/pixelsPerUnit, MinPositionTolerance)
	}
	return Tolerances{Position: pos, Rotation: rotation}
}

// DefaultTolerances returns tolerances for an unscaled board.
func DefaultTolerances() Tolerances {
	return Tolerances{Position: 0.1, Rotation: DefaultRotationTolerance}
}

// Package model holds the value types shared by the geometry engine and its
// collaborators: points and outlines, the tangram shape library, poses,
// placed pieces, arrangements and their persisted record form.
package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// BoardSize is the side length of the square unit-space board.
const BoardSize = 8.0

// Point2D represents a 2D coordinate in unit space (or pixels, for screen points).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D { return Point2D{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D { return Point2D{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale multiplies both components by s.
func (p Point2D) Scale(s float64) Point2D { return Point2D{X: p.X * s, Y: p.Y * s} }

// Dot returns the dot product of p and q.
func (p Point2D) Dot(q Point2D) float64 { return p.X*q.X + p.Y*q.Y }

// Length returns the Euclidean norm.
func (p Point2D) Length() float64 { return math.Hypot(p.X, p.Y) }

// Normalize returns a unit vector in the same direction, or the zero vector.
func (p Point2D) Normalize() Point2D {
	l := p.Length()
	if l == 0 {
		return Point2D{}
	}
	return Point2D{X: p.X / l, Y: p.Y / l}
}

// Rotate rotates the point about the origin by angle radians (counter-clockwise).
func (p Point2D) Rotate(angle float64) Point2D {
	sin, cos := math.Sincos(angle)
	return Point2D{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
}

// Distance returns the Euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 { return p.Sub(q).Length() }

// Outline represents a closed polygon as a sequence of 2D points.
// The outline is implicitly closed: the last point connects back to the first.
type Outline []Point2D

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2D) {
	if len(o) == 0 {
		return Point2D{}, Point2D{}
	}
	min = Point2D{X: o[0].X, Y: o[0].Y}
	max = Point2D{X: o[0].X, Y: o[0].Y}
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Translate shifts all points by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// Rotate rotates every point about the origin by angle radians.
func (o Outline) Rotate(angle float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = p.Rotate(angle)
	}
	return result
}

// Centroid returns the unweighted mean of the vertices.
func (o Outline) Centroid() Point2D {
	if len(o) == 0 {
		return Point2D{}
	}
	var sum Point2D
	for _, p := range o {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(o)))
}

// Area returns the absolute polygon area (shoelace formula).
func (o Outline) Area() float64 {
	var twice float64
	for i := range o {
		j := (i + 1) % len(o)
		twice += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return math.Abs(twice) / 2
}

// Rect is an axis-aligned rectangle given by its min and max corners.
type Rect struct {
	Min Point2D `json:"min"`
	Max Point2D `json:"max"`
}

// BoardBounds returns the closed [0,8]x[0,8] unit-space board.
func BoardBounds() Rect {
	return Rect{Max: Point2D{X: BoardSize, Y: BoardSize}}
}

// ContainsOutline reports whether every vertex lies inside the rectangle,
// allowing eps of slack on each side.
func (r Rect) ContainsOutline(o Outline, eps float64) bool {
	min, max := o.BoundingBox()
	return min.X >= r.Min.X-eps && min.Y >= r.Min.Y-eps &&
		max.X <= r.Max.X+eps && max.Y <= r.Max.Y+eps
}

// Pose is a rigid placement of a piece: the reference corner lands on (X, Y),
// the piece is rotated by Theta radians and optionally mirrored about its
// local Y axis before rotation.
type Pose struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Theta    float64 `json:"theta"`
	Mirrored bool    `json:"mirrored"`
}

// Position returns the translation part of the pose.
func (p Pose) Position() Point2D { return Point2D{X: p.X, Y: p.Y} }

// WithPosition returns a copy of the pose moved to pt.
func (p Pose) WithPosition(pt Point2D) Pose {
	p.X, p.Y = pt.X, pt.Y
	return p
}

// Apply maps a point from piece-local space into the pose's parent space.
func (p Pose) Apply(local Point2D) Point2D {
	if p.Mirrored {
		local.X = -local.X
	}
	return local.Rotate(p.Theta).Add(p.Position())
}

// RelativeTo expresses p in the frame of anchor (the rigid inverse of anchor
// composed with p). Mirroring is not part of the frame.
func (p Pose) RelativeTo(anchor Pose) Pose {
	local := p.Position().Sub(anchor.Position()).Rotate(-anchor.Theta)
	return Pose{
		X:        local.X,
		Y:        local.Y,
		Theta:    NormalizeAngle(p.Theta - anchor.Theta),
		Mirrored: p.Mirrored,
	}
}

// ComposeWith is the inverse of RelativeTo: it places a pose expressed in
// the anchor frame back into the anchor's parent space.
func (p Pose) ComposeWith(anchor Pose) Pose {
	world := p.Position().Rotate(anchor.Theta).Add(anchor.Position())
	return Pose{
		X:        world.X,
		Y:        world.Y,
		Theta:    NormalizeAngle(p.Theta + anchor.Theta),
		Mirrored: p.Mirrored,
	}
}

// NormalizeAngle maps an angle into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// AngularDistance returns the shorter circular distance between two angles.
func AngularDistance(a, b float64) float64 {
	d := NormalizeAngle(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// PieceState is the interaction state of a piece inside a session.
type PieceState int

const (
	StateFree      PieceState = iota // Unconstrained, may be dragged
	StateSettling                    // Released, snapping in progress
	StateValidated                   // Checked against its target
	StateLocked                      // Matched its target; interaction disabled
	StateRejected                    // Mismatched; returned to the pre-drag pose
)

func (s PieceState) String() string {
	switch s {
	case StateSettling:
		return "Settling"
	case StateValidated:
		return "Validated"
	case StateLocked:
		return "Locked"
	case StateRejected:
		return "Rejected"
	default:
		return "Free"
	}
}

// PlacedPiece is a piece instance on the board.
type PlacedPiece struct {
	ID     string     `json:"id"`
	Type   PieceType  `json:"type"`
	Pose   Pose       `json:"pose"`
	Locked bool       `json:"locked"`
	State  PieceState `json:"-"`
}

// NewPlacedPiece creates a piece of the given type at pose. It panics on an
// unregistered piece type: callers decoding untrusted input must go through
// ParsePieceType first.
func NewPlacedPiece(t PieceType, pose Pose) PlacedPiece {
	if !t.Valid() {
		panic(ErrUnknownPiece.Error() + ": " + t.String())
	}
	if !t.Shape().Mirrorable {
		pose.Mirrored = false
	}
	return PlacedPiece{
		ID:   uuid.New().String()[:8],
		Type: t,
		Pose: pose,
	}
}

// Outline returns the piece's vertices transformed into unit space.
func (p PlacedPiece) Outline() Outline {
	return p.OutlineAt(p.Pose)
}

// OutlineAt returns the piece's vertices as if it were placed at pose.
func (p PlacedPiece) OutlineAt(pose Pose) Outline {
	verts := p.Type.Shape().Vertices
	result := make(Outline, len(verts))
	for i, v := range verts {
		result[i] = pose.Apply(v)
	}
	return result
}

// Area returns the canonical area of the piece type.
func (p PlacedPiece) Area() float64 { return p.Type.Shape().Area }

// ArrangementMetadata carries tolerances and anchor information alongside
// an arrangement.
type ArrangementMetadata struct {
	PositionTolerance float64           `json:"positionTolerance,omitempty"`
	RotationTolerance float64           `json:"rotationTolerance,omitempty"`
	AnchorID          string            `json:"anchorId,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// Constraint is an opaque editor constraint carried through persistence.
type Constraint struct {
	Kind       string             `json:"kind"`
	ElementIDs []string           `json:"elementIds,omitempty"`
	Params     map[string]float64 `json:"params,omitempty"`
}

// Arrangement is a named, ordered collection of placed pieces. It is the
// unit of persistence and is owned by a single editor or session.
type Arrangement struct {
	ID          string              `json:"id"`
	GameType    string              `json:"gameType"`
	Name        string              `json:"name"`
	Pieces      []PlacedPiece       `json:"pieces"`
	Constraints []Constraint        `json:"constraints"`
	Metadata    ArrangementMetadata `json:"metadata"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// Piece returns the piece with the given id.
func (a *Arrangement) Piece(id string) (*PlacedPiece, bool) {
	for i := range a.Pieces {
		if a.Pieces[i].ID == id {
			return &a.Pieces[i], true
		}
	}
	return nil, false
}

// Touch refreshes UpdatedAt.
func (a *Arrangement) Touch() {
	a.UpdatedAt = time.Now().UTC()
}

package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownPiece is returned (or panicked with, at construction) when a
// piece-type identifier is not part of the shape library.
var ErrUnknownPiece = errors.New("unknown piece type")

// PieceType identifies one of the seven tangram pieces.
type PieceType int

const (
	PieceUnknown PieceType = iota
	SmallTriangle1
	SmallTriangle2
	MediumTriangle
	LargeTriangle1
	LargeTriangle2
	Square
	Parallelogram
)

// AllPieceTypes lists the seven canonical pieces in library order.
var AllPieceTypes = []PieceType{
	SmallTriangle1, SmallTriangle2, MediumTriangle,
	LargeTriangle1, LargeTriangle2, Square, Parallelogram,
}

var pieceNames = map[PieceType]string{
	SmallTriangle1: "smallTriangle1",
	SmallTriangle2: "smallTriangle2",
	MediumTriangle: "mediumTriangle",
	LargeTriangle1: "largeTriangle1",
	LargeTriangle2: "largeTriangle2",
	Square:         "square",
	Parallelogram:  "parallelogram",
}

func (t PieceType) String() string {
	if name, ok := pieceNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PieceType(%d)", int(t))
}

// Valid reports whether t is registered in the shape library.
func (t PieceType) Valid() bool {
	_, ok := pieceNames[t]
	return ok
}

// ParsePieceType resolves a piece-type identifier as used in persisted records.
func ParsePieceType(s string) (PieceType, error) {
	for t, name := range pieceNames {
		if name == s {
			return t, nil
		}
	}
	return PieceUnknown, fmt.Errorf("%w: %q", ErrUnknownPiece, s)
}

// MustParsePieceType is ParsePieceType for identifiers known at compile time.
func MustParsePieceType(s string) PieceType {
	t, err := ParsePieceType(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t PieceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPiece, int(t))
	}
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(b []byte) error {
	parsed, err := ParsePieceType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ShapeKind groups piece types that share the same geometry. Two pieces of
// the same kind are interchangeable when matching a target.
type ShapeKind int

const (
	KindSmallTriangle ShapeKind = iota
	KindMediumTriangle
	KindLargeTriangle
	KindSquare
	KindParallelogram
)

func (k ShapeKind) String() string {
	switch k {
	case KindSmallTriangle:
		return "small triangle"
	case KindMediumTriangle:
		return "medium triangle"
	case KindLargeTriangle:
		return "large triangle"
	case KindSquare:
		return "square"
	default:
		return "parallelogram"
	}
}

// Color is an RGB colour used by renderers and exporters.
type Color struct {
	R, G, B uint8
}

// Shape is the immutable per-kind metadata of a piece.
type Shape struct {
	Kind       ShapeKind
	Vertices   Outline // counter-clockwise, reference corner at the origin
	Area       float64
	Mirrorable bool
	// Symmetry is the smallest rotation mapping the outline onto itself.
	Symmetry float64
}

var (
	smallTriangle = newShape(KindSmallTriangle, Outline{{0, 0}, {1, 0}, {0, 1}}, false, 2*math.Pi)
	// The medium triangle rests on its hypotenuse so its vertices stay on the quarter grid.
	mediumTriangle = newShape(KindMediumTriangle, Outline{{0, 0}, {2, 0}, {1, 1}}, false, 2*math.Pi)
	largeTriangle  = newShape(KindLargeTriangle, Outline{{0, 0}, {2, 0}, {0, 2}}, false, 2*math.Pi)
	squareShape    = newShape(KindSquare, Outline{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, false, math.Pi/2)
	parallelogram  = newShape(KindParallelogram, Outline{{0, 0}, {1, 0}, {2, 1}, {1, 1}}, true, math.Pi)
)

func newShape(kind ShapeKind, verts Outline, mirrorable bool, symmetry float64) *Shape {
	return &Shape{
		Kind:       kind,
		Vertices:   verts,
		Area:       verts.Area(),
		Mirrorable: mirrorable,
		Symmetry:   symmetry,
	}
}

var shapeTable = map[PieceType]*Shape{
	SmallTriangle1: smallTriangle,
	SmallTriangle2: smallTriangle,
	MediumTriangle: mediumTriangle,
	LargeTriangle1: largeTriangle,
	LargeTriangle2: largeTriangle,
	Square:         squareShape,
	Parallelogram:  parallelogram,
}

var pieceColors = map[PieceType]Color{
	SmallTriangle1: {R: 244, G: 67, B: 54},  // red
	SmallTriangle2: {R: 255, G: 152, B: 0},  // orange
	MediumTriangle: {R: 255, G: 235, B: 59}, // yellow
	LargeTriangle1: {R: 76, G: 175, B: 80},  // green
	LargeTriangle2: {R: 33, G: 150, B: 243}, // blue
	Square:         {R: 156, G: 39, B: 176}, // purple
	Parallelogram:  {R: 0, G: 188, B: 212},  // cyan
}

// Shape returns the shared shape metadata. The returned value must not be
// modified. It panics for unregistered piece types.
func (t PieceType) Shape() *Shape {
	s, ok := shapeTable[t]
	if !ok {
		panic(fmt.Sprintf("%v: %s", ErrUnknownPiece, t))
	}
	return s
}

// Color returns the display colour of the piece type.
func (t PieceType) Color() Color {
	return pieceColors[t]
}

// Kind is shorthand for t.Shape().Kind.
func (t PieceType) Kind() ShapeKind { return t.Shape().Kind }

// TotalArea returns the summed canonical area of all seven pieces.
func TotalArea() float64 {
	var total float64
	for _, t := range AllPieceTypes {
		total += t.Shape().Area
	}
	return total
}

package model

import (
	"math"
	"time"

	"github.com/piwi3910/tangram/internal/typeid"
)

// Puzzle is a named target silhouette: one TargetDefinition per piece.
type Puzzle struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	CreatedAt   string             `json:"created_at"`
	UpdatedAt   string             `json:"updated_at"`
	Targets     []TargetDefinition `json:"targets"`
	Tolerances  *Tolerances        `json:"tolerances,omitempty"`
}

// NewPuzzle creates a puzzle from a set of targets. The targets are copied.
func NewPuzzle(name, description string, targets []TargetDefinition) Puzzle {
	now := time.Now().UTC().Format(time.RFC3339)
	return Puzzle{
		ID:          typeid.NewPuzzleID(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Targets:     copyTargets(targets),
	}
}

// PuzzleFromArrangement captures the current poses of an arrangement as a
// new puzzle, snapping rotations to the nearest π/4 multiple.
func PuzzleFromArrangement(name string, a Arrangement) Puzzle {
	targets := make([]TargetDefinition, 0, len(a.Pieces))
	for _, p := range a.Pieces {
		targets = append(targets, TargetDefinition{
			Type:     p.Type,
			Position: p.Pose.Position(),
			Rotation: AngleForIndex(RotationIndex(p.Pose.Theta)),
			Mirrored: p.Pose.Mirrored,
		})
	}
	return NewPuzzle(name, "Captured from "+a.Name, targets)
}

// ToArrangement spawns a fresh arrangement for playing the puzzle. Pieces
// are laid out in rows from the board origin and get fresh ids.
func (p Puzzle) ToArrangement(gameType string) Arrangement {
	arr := NewArrangement(gameType, p.Name)
	var x, y, rowHeight float64
	for _, td := range p.Targets {
		min, max := td.Type.Shape().Vertices.BoundingBox()
		w, h := max.X-min.X, max.Y-min.Y
		if x+w > BoardSize {
			x, y, rowHeight = 0, y+rowHeight, 0
		}
		arr.Pieces = append(arr.Pieces, NewPlacedPiece(td.Type, Pose{X: x - min.X, Y: y - min.Y}))
		x += w
		rowHeight = math.Max(rowHeight, h)
	}
	return arr
}

// PuzzleStore holds a collection of puzzles.
type PuzzleStore struct {
	Puzzles []Puzzle `json:"puzzles"`
}

// NewPuzzleStore creates an empty puzzle store.
func NewPuzzleStore() PuzzleStore {
	return PuzzleStore{
		Puzzles: []Puzzle{},
	}
}

// Add adds a puzzle to the store.
func (ps *PuzzleStore) Add(p Puzzle) {
	ps.Puzzles = append(ps.Puzzles, p)
}

// Remove removes a puzzle by ID. Returns true if found and removed.
func (ps *PuzzleStore) Remove(id string) bool {
	for i, p := range ps.Puzzles {
		if p.ID == id {
			ps.Puzzles = append(ps.Puzzles[:i], ps.Puzzles[i+1:]...)
			return true
		}
	}
	return false
}

// FindByID returns a pointer to the puzzle with the given ID, or nil.
func (ps *PuzzleStore) FindByID(id string) *Puzzle {
	for i := range ps.Puzzles {
		if ps.Puzzles[i].ID == id {
			return &ps.Puzzles[i]
		}
	}
	return nil
}

// FindByName returns a pointer to the first puzzle with the given name, or nil.
func (ps *PuzzleStore) FindByName(name string) *Puzzle {
	for i := range ps.Puzzles {
		if ps.Puzzles[i].Name == name {
			return &ps.Puzzles[i]
		}
	}
	return nil
}

// Names returns the puzzle names in store order.
func (ps *PuzzleStore) Names() []string {
	names := make([]string, len(ps.Puzzles))
	for i, p := range ps.Puzzles {
		names[i] = p.Name
	}
	return names
}

// ClassicSquareTargets is the seven-piece square, laid out as a diamond
// centred on the board so every vertex lands on the quarter grid.
func ClassicSquareTargets() []TargetDefinition {
	return []TargetDefinition{
		{Type: LargeTriangle1, Position: Point2D{X: 4, Y: 4}, Rotation: math.Pi / 2},
		{Type: LargeTriangle2, Position: Point2D{X: 4, Y: 4}, Rotation: 0},
		{Type: MediumTriangle, Position: Point2D{X: 5, Y: 3}, Rotation: math.Pi},
		{Type: Parallelogram, Position: Point2D{X: 4, Y: 3}, Rotation: 0, Mirrored: true},
		{Type: SmallTriangle1, Position: Point2D{X: 4, Y: 4}, Rotation: math.Pi},
		{Type: Square, Position: Point2D{X: 4, Y: 3}, Rotation: 0},
		{Type: SmallTriangle2, Position: Point2D{X: 5, Y: 4}, Rotation: 3 * math.Pi / 2},
	}
}

// BuiltInPuzzles returns the puzzles shipped with the application.
func BuiltInPuzzles() PuzzleStore {
	store := NewPuzzleStore()
	store.Add(NewPuzzle("Square", "The classic seven-piece square", ClassicSquareTargets()))
	return store
}

func copyTargets(targets []TargetDefinition) []TargetDefinition {
	if targets == nil {
		return []TargetDefinition{}
	}
	cp := make([]TargetDefinition, len(targets))
	copy(cp, targets)
	return cp
}

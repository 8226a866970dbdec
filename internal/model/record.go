package model

import (
	"fmt"
	"math"
	"time"

	"github.com/piwi3910/tangram/internal/typeid"
)

// StorageStep is the grid precision positions are quantized to when an
// arrangement is persisted.
const StorageStep = 0.001

// RotationSteps is the number of π/4 increments in a full turn.
const RotationSteps = 8

// RotationIndex converts an angle to the nearest count of π/4 increments in
// [0, 7]. Exact half-increments round away from zero.
func RotationIndex(angle float64) int {
	k := int(math.Round(angle / (math.Pi / 4)))
	k %= RotationSteps
	if k < 0 {
		k += RotationSteps
	}
	return k
}

// AngleForIndex converts a rotation index back to radians.
func AngleForIndex(i int) float64 {
	return float64(i) * math.Pi / 4
}

// NewArrangement creates an empty arrangement.
func NewArrangement(gameType, name string) Arrangement {
	now := time.Now().UTC()
	return Arrangement{
		ID:          typeid.NewArrangementID(),
		GameType:    gameType,
		Name:        name,
		Pieces:      []PlacedPiece{},
		Constraints: []Constraint{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ElementRecord is one persisted piece.
type ElementRecord struct {
	ElementID     string  `json:"elementId"`
	ElementType   string  `json:"elementType"`
	RotationIndex int     `json:"rotationIndex"`
	Mirrored      bool    `json:"mirrored"`
	Position      Point2D `json:"position"`
}

// ArrangementRecord is the persisted form of an arrangement. The anchor
// element (Metadata.AnchorID) carries its absolute pose; every other element
// is stored relative to the anchor so whole-board moves do not change it.
type ArrangementRecord struct {
	ID          string              `json:"id"`
	GameType    string              `json:"gameType"`
	Name        string              `json:"name"`
	Elements    []ElementRecord     `json:"elements"`
	Constraints []Constraint        `json:"constraints"`
	Metadata    ArrangementMetadata `json:"metadata"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// AnchorPiece returns the designated anchor, falling back to the first piece.
func (a Arrangement) AnchorPiece() (PlacedPiece, bool) {
	if len(a.Pieces) == 0 {
		return PlacedPiece{}, false
	}
	if a.Metadata.AnchorID != "" {
		for _, p := range a.Pieces {
			if p.ID == a.Metadata.AnchorID {
				return p, true
			}
		}
	}
	return a.Pieces[0], true
}

// ToRecord converts the arrangement to its persisted form.
func (a Arrangement) ToRecord() ArrangementRecord {
	rec := ArrangementRecord{
		ID:          a.ID,
		GameType:    a.GameType,
		Name:        a.Name,
		Elements:    make([]ElementRecord, 0, len(a.Pieces)),
		Constraints: a.Constraints,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if rec.Constraints == nil {
		rec.Constraints = []Constraint{}
	}
	anchor, ok := a.AnchorPiece()
	if !ok {
		return rec
	}
	rec.Metadata.AnchorID = anchor.ID

	for _, p := range a.Pieces {
		pose := p.Pose
		if p.ID != anchor.ID {
			pose = p.Pose.RelativeTo(anchor.Pose)
		}
		rec.Elements = append(rec.Elements, ElementRecord{
			ElementID:     p.ID,
			ElementType:   p.Type.String(),
			RotationIndex: RotationIndex(pose.Theta),
			Mirrored:      pose.Mirrored,
			Position:      Point2D{X: quantize(pose.X), Y: quantize(pose.Y)},
		})
	}
	return rec
}

// FromRecord rebuilds an arrangement from its persisted form. Records come
// from outside the engine, so malformed content is an error, not a panic.
func FromRecord(rec ArrangementRecord) (Arrangement, error) {
	arr := Arrangement{
		ID:          rec.ID,
		GameType:    rec.GameType,
		Name:        rec.Name,
		Pieces:      make([]PlacedPiece, 0, len(rec.Elements)),
		Constraints: rec.Constraints,
		Metadata:    rec.Metadata,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if arr.Constraints == nil {
		arr.Constraints = []Constraint{}
	}
	if len(rec.Elements) == 0 {
		return arr, nil
	}

	anchorIdx := 0
	if rec.Metadata.AnchorID != "" {
		anchorIdx = -1
		for i, e := range rec.Elements {
			if e.ElementID == rec.Metadata.AnchorID {
				anchorIdx = i
				break
			}
		}
		if anchorIdx < 0 {
			return Arrangement{}, fmt.Errorf("anchor %q not among elements", rec.Metadata.AnchorID)
		}
	}

	seen := make(map[string]bool, len(rec.Elements))
	for i, e := range rec.Elements {
		t, err := ParsePieceType(e.ElementType)
		if err != nil {
			return Arrangement{}, fmt.Errorf("element %d: %w", i, err)
		}
		if e.ElementID == "" {
			return Arrangement{}, fmt.Errorf("element %d: missing elementId", i)
		}
		if seen[e.ElementID] {
			return Arrangement{}, fmt.Errorf("element %d: duplicate elementId %q", i, e.ElementID)
		}
		seen[e.ElementID] = true
		if e.RotationIndex < 0 || e.RotationIndex >= RotationSteps {
			return Arrangement{}, fmt.Errorf("element %q: rotationIndex %d out of range 0..7", e.ElementID, e.RotationIndex)
		}
		if e.Mirrored && !t.Shape().Mirrorable {
			return Arrangement{}, fmt.Errorf("element %q: %s cannot be mirrored", e.ElementID, t)
		}
		arr.Pieces = append(arr.Pieces, PlacedPiece{
			ID:   e.ElementID,
			Type: t,
			Pose: Pose{
				X:        e.Position.X,
				Y:        e.Position.Y,
				Theta:    AngleForIndex(e.RotationIndex),
				Mirrored: e.Mirrored,
			},
		})
	}

	anchorPose := arr.Pieces[anchorIdx].Pose
	for i := range arr.Pieces {
		if i == anchorIdx {
			continue
		}
		world := arr.Pieces[i].Pose.ComposeWith(anchorPose)
		world.Theta = AngleForIndex(RotationIndex(world.Theta))
		world.X, world.Y = quantize(world.X), quantize(world.Y)
		arr.Pieces[i].Pose = world
	}
	arr.Metadata.AnchorID = arr.Pieces[anchorIdx].ID
	return arr, nil
}

func quantize(v float64) float64 {
	q := math.Round(v/StorageStep) * StorageStep
	if q == 0 {
		return 0 // drop negative zero
	}
	return q
}

package engine

import (
	"math"

	"github.com/piwi3910/tangram/internal/model"
)

// PieceDelta is the anchor-relative difference of one piece between two
// arrangements.
type PieceDelta struct {
	ID            string          `json:"id"`
	OtherID       string          `json:"other_id,omitempty"`
	Type          model.PieceType `json:"type"`
	PositionDelta float64         `json:"position_delta"`
	RotationDelta float64         `json:"rotation_delta"`
	MirrorDiffers bool            `json:"mirror_differs"`
	Missing       bool            `json:"missing"` // no counterpart in the other arrangement
}

// Comparison holds the per-piece deltas between two arrangements.
type Comparison struct {
	Equivalent bool         `json:"equivalent"`
	Deltas     []PieceDelta `json:"deltas"`
}

// CompareArrangements compares two arrangements through their
// anchor-relative poses, so arrangements that differ only by a uniform
// translation or rotation of the whole board are equivalent. The anchor of
// b is taken to be the piece of the same kind as a's anchor that yields the
// closest fit.
func CompareArrangements(a, b model.Arrangement, tol model.Tolerances) Comparison {
	anchorA, ok := NewAnchorManager(a.Metadata.AnchorID).Anchor(a.Pieces)
	if !ok {
		return Comparison{Equivalent: len(b.Pieces) == 0, Deltas: []PieceDelta{}}
	}
	_, relA := NewAnchorManager(anchorA.ID).RelativePoses(a.Pieces)

	var best *Comparison
	bestScore := math.Inf(1)
	for _, candidate := range b.Pieces {
		if candidate.Type.Kind() != anchorA.Type.Kind() || candidate.Pose.Mirrored != anchorA.Pose.Mirrored {
			continue
		}
		_, relB := NewAnchorManager(candidate.ID).RelativePoses(b.Pieces)
		cmp, score := comparePoses(a.Pieces, relA, b.Pieces, relB, tol)
		if score < bestScore {
			bestScore = score
			c := cmp
			best = &c
		}
	}
	if best == nil {
		deltas := make([]PieceDelta, len(a.Pieces))
		for i, p := range a.Pieces {
			deltas[i] = PieceDelta{ID: p.ID, Type: p.Type, Missing: true}
		}
		return Comparison{Deltas: deltas}
	}
	return *best
}

// comparePoses greedily pairs each piece of a with the unused piece of b of
// the same kind whose relative pose is closest in position plus rotation.
func comparePoses(aPieces []model.PlacedPiece, relA map[string]model.Pose, bPieces []model.PlacedPiece, relB map[string]model.Pose, tol model.Tolerances) (Comparison, float64) {
	used := make(map[string]bool, len(bPieces))
	cmp := Comparison{Equivalent: len(aPieces) == len(bPieces), Deltas: make([]PieceDelta, 0, len(aPieces))}
	var score float64

	for _, pa := range aPieces {
		ra := relA[pa.ID]
		delta := PieceDelta{ID: pa.ID, Type: pa.Type, Missing: true}
		bestDist := math.Inf(1)
		for _, pb := range bPieces {
			if used[pb.ID] || pb.Type.Kind() != pa.Type.Kind() {
				continue
			}
			rb := relB[pb.ID]
			d := ra.Position().Distance(rb.Position())
			rot := model.AngularDistance(ra.Theta, rb.Theta)
			if d+rot < bestDist {
				bestDist = d + rot
				delta = PieceDelta{
					ID:            pa.ID,
					OtherID:       pb.ID,
					Type:          pa.Type,
					PositionDelta: d,
					RotationDelta: rot,
					MirrorDiffers: ra.Mirrored != rb.Mirrored,
				}
			}
		}
		if delta.Missing {
			cmp.Equivalent = false
			score += 1e6
		} else {
			used[delta.OtherID] = true
			score += delta.PositionDelta + delta.RotationDelta
			if delta.PositionDelta >= tol.Position || delta.RotationDelta >= tol.Rotation || delta.MirrorDiffers {
				cmp.Equivalent = false
			}
		}
		cmp.Deltas = append(cmp.Deltas, delta)
	}
	return cmp, score
}

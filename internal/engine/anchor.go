package engine

import "github.com/piwi3910/tangram/internal/model"

// AnchorManager re-expresses piece poses relative to one anchor piece so an
// arrangement can be stored and compared independently of where it sits on
// the board.
type AnchorManager struct {
	// Designated is the explicit anchor piece id. When empty, or when no
	// piece carries that id, the first piece placed is the anchor.
	Designated string
}

func NewAnchorManager(designated string) *AnchorManager {
	return &AnchorManager{Designated: designated}
}

// Anchor returns the anchor piece for the given pieces.
func (m *AnchorManager) Anchor(pieces []model.PlacedPiece) (model.PlacedPiece, bool) {
	if len(pieces) == 0 {
		return model.PlacedPiece{}, false
	}
	if m.Designated != "" {
		for _, p := range pieces {
			if p.ID == m.Designated {
				return p, true
			}
		}
	}
	return pieces[0], true
}

// RelativePoses maps every piece id (the anchor included, as the identity
// pose) to its pose in the anchor's frame. It returns the anchor id used.
func (m *AnchorManager) RelativePoses(pieces []model.PlacedPiece) (string, map[string]model.Pose) {
	anchor, ok := m.Anchor(pieces)
	if !ok {
		return "", map[string]model.Pose{}
	}
	rel := make(map[string]model.Pose, len(pieces))
	for _, p := range pieces {
		rel[p.ID] = p.Pose.RelativeTo(anchor.Pose)
	}
	return anchor.ID, rel
}

// AbsolutePoses places anchor-relative poses back on the board given the
// anchor's absolute pose.
func (m *AnchorManager) AbsolutePoses(anchor model.Pose, rel map[string]model.Pose) map[string]model.Pose {
	abs := make(map[string]model.Pose, len(rel))
	for id, p := range rel {
		abs[id] = p.ComposeWith(anchor)
	}
	return abs
}

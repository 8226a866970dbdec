package engine

import "github.com/piwi3910/tangram/internal/model"

// DefaultHistoryDepth is the number of undo steps a session keeps.
const DefaultHistoryDepth = 50

// Snapshot captures the pieces of a board at a point in time.
type Snapshot struct {
	Pieces []model.PlacedPiece
	Label  string // Human-readable description (e.g. "place square")
}

// MakeSnapshot copies pieces into a labelled snapshot.
func MakeSnapshot(pieces []model.PlacedPiece, label string) Snapshot {
	return Snapshot{Pieces: clonePieces(pieces), Label: label}
}

// History manages undo/redo stacks of board snapshots.
type History struct {
	undoStack []Snapshot
	redoStack []Snapshot
	maxDepth  int
}

// NewHistory creates a History keeping at most maxDepth undo steps. A
// depth below 1 uses DefaultHistoryDepth.
func NewHistory(maxDepth int) *History {
	if maxDepth < 1 {
		maxDepth = DefaultHistoryDepth
	}
	return &History{maxDepth: maxDepth}
}

// Push records the state before a change and clears the redo stack.
func (h *History) Push(s Snapshot) {
	h.undoStack = append(h.undoStack, s)
	if len(h.undoStack) > h.maxDepth {
		h.undoStack = h.undoStack[len(h.undoStack)-h.maxDepth:]
	}
	h.redoStack = nil
}

// Undo pops the most recent snapshot and moves current onto the redo
// stack. It returns false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, current)
	return last, true
}

// Redo is the inverse of Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, current)
	return last, true
}

func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }

func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// Labels returns the undo descriptions, most recent last.
func (h *History) Labels() []string {
	out := make([]string, len(h.undoStack))
	for i, s := range h.undoStack {
		out[i] = s.Label
	}
	return out
}

// Clear removes all undo and redo history.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}

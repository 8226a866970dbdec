package engine

import (
	"math"
	"testing"

	"github.com/piwi3910/tangram/internal/geom"
	"github.com/piwi3910/tangram/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	records []model.ArrangementRecord
}

func (p *recordingPersister) Save(rec model.ArrangementRecord) {
	p.records = append(p.records, rec)
}

var testTransform = geom.Transform{Scale: 100}

func screen(x, y float64) model.Point2D {
	return testTransform.ToScreen(model.Point2D{X: x, Y: y})
}

func newTestSession(mode model.Mode, targets []model.TargetDefinition, persister Persister, pieces ...model.PlacedPiece) *Session {
	settings := model.DefaultSettings()
	settings.Mode = mode
	arr := model.NewArrangement("tangram", "test")
	arr.Pieces = pieces
	return NewSession(arr, targets, settings, testTransform, persister)
}

// drag performs a full begin/move/end gesture in unit coordinates.
func drag(t *testing.T, s *Session, from, to model.Point2D) EventResult {
	t.Helper()
	res, err := s.HandlePointer(PointerEvent{Phase: PhaseBegin, Screen: screen(from.X, from.Y)})
	require.NoError(t, err)
	require.Equal(t, OutcomeGrabbed, res.Outcome)

	mid := from.Add(to).Scale(0.5)
	res, err = s.HandlePointer(PointerEvent{Phase: PhaseMove, Screen: screen(mid.X, mid.Y)})
	require.NoError(t, err)
	require.Equal(t, OutcomeMoved, res.Outcome)

	res, err = s.HandlePointer(PointerEvent{Phase: PhaseEnd, Screen: screen(to.X, to.Y)})
	require.NoError(t, err)
	return res
}

func snapshotPiece(t *testing.T, s *Session, id string) model.PlacedPiece {
	t.Helper()
	for _, p := range s.Snapshot() {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("piece %s not in snapshot", id)
	return model.PlacedPiece{}
}

func TestSession_DropOnTargetLocks(t *testing.T) {
	p := &recordingPersister{}
	s := newTestSession(model.ModePlay, model.ClassicSquareTargets(), p, square("sq", 0, 0))

	res := drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 4.52, Y: 3.49})

	assert.Equal(t, OutcomeLocked, res.Outcome)
	assert.Equal(t, model.StateLocked, res.State)
	assert.False(t, res.Complete)

	sq := snapshotPiece(t, s, "sq")
	assert.True(t, sq.Locked)
	assert.Equal(t, model.Pose{X: 4, Y: 3}, sq.Pose)
	assert.Empty(t, p.records, "incomplete puzzles are not persisted in play mode")
}

func TestSession_LockedPieceIgnoresInput(t *testing.T) {
	s := newTestSession(model.ModePlay, model.ClassicSquareTargets(), nil, square("sq", 0, 0))
	drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 4.5, Y: 3.5})

	res, err := s.BeginDrag(model.Point2D{X: 4.5, Y: 3.5})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNone, res.Outcome)

	_, err = s.Rotate("sq", RotateStep)
	assert.ErrorIs(t, err, ErrPieceLocked)
}

func TestSession_MismatchIsRejectedAndRestored(t *testing.T) {
	s := newTestSession(model.ModePlay, model.ClassicSquareTargets(), nil, square("sq", 0, 0))

	res := drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 2.5, Y: 2.5})

	assert.Equal(t, OutcomeRejected, res.Outcome)
	sq := snapshotPiece(t, s, "sq")
	assert.Equal(t, model.StateRejected, sq.State)
	assert.False(t, sq.Locked)
	assert.Equal(t, model.Pose{}, sq.Pose)

	// the next drag start frees it again
	begin, err := s.BeginDrag(model.Point2D{X: 0.5, Y: 0.5})
	require.NoError(t, err)
	assert.Equal(t, model.StateFree, begin.State)
}

func TestSession_CompletingPuzzlePersists(t *testing.T) {
	pieces, targets := solvedSquare()
	for i := range pieces {
		if pieces[i].Type == model.Square {
			pieces[i].Pose = model.Pose{}
		}
	}
	p := &recordingPersister{}
	s := newTestSession(model.ModePlay, targets, p, pieces...)
	require.False(t, s.Complete())

	res := drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 4.5, Y: 3.5})

	assert.Equal(t, OutcomeLocked, res.Outcome)
	assert.True(t, res.Complete)
	assert.True(t, s.Complete())
	require.Len(t, p.records, 1)
	assert.Len(t, p.records[0].Elements, 7)
}

func TestSession_EditModePushesAndPersists(t *testing.T) {
	p := &recordingPersister{}
	s := newTestSession(model.ModeEdit, nil, p, square("a", 0, 0), square("b", 3, 3))

	res := drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 3, Y: 3.5})

	assert.Equal(t, OutcomePlaced, res.Outcome)
	assert.Equal(t, model.StateFree, res.State)
	require.NotNil(t, res.Push)
	assert.True(t, res.Push.Success)

	a := snapshotPiece(t, s, "a")
	b := snapshotPiece(t, s, "b")
	assert.Equal(t, model.Point2D{X: 2.5, Y: 3}, a.Pose.Position())
	assert.Equal(t, model.Point2D{X: 3.5, Y: 3}, b.Pose.Position())
	assert.Empty(t, FindOverlaps(s.Snapshot()))
	assert.Len(t, p.records, 1)
}

func TestSession_RotateAndFlip(t *testing.T) {
	s := newTestSession(model.ModeEdit, nil, nil,
		square("sq", 2, 2),
		piece("para", model.Parallelogram, 5, 5, 0),
	)

	res, err := s.Rotate("sq", RotateStep)
	require.NoError(t, err)
	assert.Equal(t, OutcomePlaced, res.Outcome)
	assert.InDelta(t, math.Pi/4, snapshotPiece(t, s, "sq").Pose.Theta, 1e-12)

	_, err = s.Flip("sq")
	assert.ErrorIs(t, err, ErrNotMirrorable)

	_, err = s.Flip("para")
	require.NoError(t, err)
	assert.True(t, snapshotPiece(t, s, "para").Pose.Mirrored)

	_, err = s.Rotate("missing", RotateStep)
	assert.ErrorIs(t, err, ErrPieceNotFound)
}

func TestSession_RotateWhileDraggingIsFree(t *testing.T) {
	s := newTestSession(model.ModeEdit, nil, nil, square("sq", 2, 2))
	_, err := s.BeginDrag(model.Point2D{X: 2.5, Y: 2.5})
	require.NoError(t, err)

	_, err = s.Rotate("sq", 0.6)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, snapshotPiece(t, s, "sq").Pose.Theta, 1e-12)

	res, err := s.EndDrag(model.Point2D{X: 2.5, Y: 2.5})
	require.NoError(t, err)
	assert.Equal(t, OutcomePlaced, res.Outcome)
	assert.InDelta(t, math.Pi/4, snapshotPiece(t, s, "sq").Pose.Theta, 1e-12)
}

func TestSession_Reset(t *testing.T) {
	s := newTestSession(model.ModePlay, model.ClassicSquareTargets(), nil, square("sq", 0, 0))
	drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 4.5, Y: 3.5})

	s.Reset()

	sq := snapshotPiece(t, s, "sq")
	assert.False(t, sq.Locked)
	assert.Equal(t, model.StateFree, sq.State)
	assert.Equal(t, model.Pose{}, sq.Pose)
}

func TestSession_PointerErrors(t *testing.T) {
	s := newTestSession(model.ModeEdit, nil, nil, square("sq", 0, 0))

	_, err := s.HandlePointer(PointerEvent{Phase: PhaseMove, Screen: screen(1, 1)})
	assert.ErrorIs(t, err, ErrNoActiveDrag)

	_, err = s.HandlePointer(PointerEvent{Phase: PointerPhase(9)})
	assert.ErrorIs(t, err, ErrUnknownPhase)

	res, err := s.BeginDrag(model.Point2D{X: 5, Y: 5})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNone, res.Outcome, "empty board spot")

	_, err = s.BeginDrag(model.Point2D{X: 0.5, Y: 0.5})
	require.NoError(t, err)
	_, err = s.BeginDrag(model.Point2D{X: 0.5, Y: 0.5})
	assert.ErrorIs(t, err, ErrDragInProgress)

	id, ok := s.Dragging()
	assert.True(t, ok)
	assert.Equal(t, "sq", id)
}

func TestSession_SnapshotIsACopy(t *testing.T) {
	s := newTestSession(model.ModeEdit, nil, nil, square("sq", 1, 1))
	snap := s.Snapshot()
	snap[0].Pose.X = 6
	assert.Equal(t, 1.0, snapshotPiece(t, s, "sq").Pose.X)
}

func TestSession_UndoRedoLock(t *testing.T) {
	s := newTestSession(model.ModePlay, model.ClassicSquareTargets(), nil, square("sq", 0, 0))

	assert.False(t, s.Undo(), "nothing to undo yet")
	drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 4.5, Y: 3.5})
	require.True(t, snapshotPiece(t, s, "sq").Locked)
	assert.Equal(t, []string{"lock square"}, s.History().Labels())

	require.True(t, s.Undo())
	sq := snapshotPiece(t, s, "sq")
	assert.False(t, sq.Locked)
	assert.Equal(t, model.Pose{}, sq.Pose)

	require.True(t, s.Redo())
	sq = snapshotPiece(t, s, "sq")
	assert.True(t, sq.Locked)
	assert.Equal(t, model.Pose{X: 4, Y: 3}, sq.Pose)
	assert.False(t, s.Redo())
}

func TestSession_RejectedMoveNotRecorded(t *testing.T) {
	s := newTestSession(model.ModePlay, model.ClassicSquareTargets(), nil, square("sq", 0, 0))

	res := drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 1.5, Y: 6.5})

	require.Equal(t, OutcomeRejected, res.Outcome)
	assert.False(t, s.History().CanUndo())
}

func TestSession_UndoPersistsInEditMode(t *testing.T) {
	p := &recordingPersister{}
	s := newTestSession(model.ModeEdit, nil, p, square("a", 0, 0))

	drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 2.5, Y: 2.5})
	require.Len(t, p.records, 1)

	require.True(t, s.Undo())
	assert.Len(t, p.records, 2)
	assert.Equal(t, model.Pose{}, snapshotPiece(t, s, "a").Pose)
}

func TestSession_UndoBlockedWhileDragging(t *testing.T) {
	s := newTestSession(model.ModeEdit, nil, nil, square("a", 0, 0))
	drag(t, s, model.Point2D{X: 0.5, Y: 0.5}, model.Point2D{X: 2.5, Y: 2.5})

	_, err := s.HandlePointer(PointerEvent{Phase: PhaseBegin, Screen: screen(2.5, 2.5)})
	require.NoError(t, err)
	assert.False(t, s.Undo())
}

func TestSession_LockDropsMirrorOnRigidShape(t *testing.T) {
	targets := []model.TargetDefinition{{Type: model.SmallTriangle1, Position: model.Point2D{X: 2, Y: 2}, Mirrored: true}}
	tri := piece("st", model.SmallTriangle1, 5, 5, 0)
	s := newTestSession(model.ModePlay, targets, nil, tri)

	res := drag(t, s, model.Point2D{X: 5.25, Y: 5.25}, model.Point2D{X: 2.25, Y: 2.25})

	require.Equal(t, OutcomeLocked, res.Outcome)
	st := snapshotPiece(t, s, "st")
	assert.False(t, st.Pose.Mirrored)
	assert.Equal(t, model.Pose{X: 2, Y: 2}, st.Pose)

	_, err := model.FromRecord(s.Arrangement().ToRecord())
	assert.NoError(t, err, "locked board must survive a record round trip")
}

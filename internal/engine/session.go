package engine

import (
	"errors"
	"math"

	"github.com/piwi3910/tangram/internal/geom"
	"github.com/piwi3910/tangram/internal/model"
	"github.com/piwi3910/tangram/internal/typeid"
)

var (
	ErrNoActiveDrag   = errors.New("no drag in progress")
	ErrDragInProgress = errors.New("a drag is already in progress")
	ErrPieceNotFound  = errors.New("piece not found")
	ErrPieceLocked    = errors.New("piece is locked")
	ErrNotMirrorable  = errors.New("piece cannot be mirrored")
	ErrUnknownPhase   = errors.New("unknown pointer phase")
)

// PointerPhase is the stage of a pointer drag.
type PointerPhase int

const (
	PhaseBegin PointerPhase = iota
	PhaseMove
	PhaseEnd
)

// PointerEvent is a drag event delivered by the input collaborator.
type PointerEvent struct {
	Phase  PointerPhase
	Screen model.Point2D // pixels
}

// Outcome summarises what happened in response to an event.
type Outcome int

const (
	OutcomeNone     Outcome = iota // nothing hit or nothing changed
	OutcomeGrabbed                 // a drag started on a piece
	OutcomeMoved                   // the dragged piece followed the pointer
	OutcomePlaced                  // the piece settled (edit mode)
	OutcomeLocked                  // the piece matched its target and locked
	OutcomeRejected                // the move was undone
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGrabbed:
		return "grabbed"
	case OutcomeMoved:
		return "moved"
	case OutcomePlaced:
		return "placed"
	case OutcomeLocked:
		return "locked"
	case OutcomeRejected:
		return "rejected"
	default:
		return "none"
	}
}

// EventResult reports the effect of a session event.
type EventResult struct {
	PieceID  string
	Outcome  Outcome
	State    model.PieceState
	Push     *PushResult
	Complete bool
}

// Persister receives finished arrangements. Save must not block; the
// session never waits for or observes the outcome.
type Persister interface {
	Save(rec model.ArrangementRecord)
}

type dragState struct {
	pieceID string
	grab    model.Point2D // pointer offset from the piece's reference corner
	before  []model.PlacedPiece
}

// Session owns the live pose state of one puzzle or editor board. It is
// driven by a single interaction goroutine; renderers read Snapshot after
// an event has been handled.
type Session struct {
	ID        string
	settings  model.EngineSettings
	transform geom.Transform
	resolver  *Resolver
	validator *Validator
	persister Persister

	arrangement model.Arrangement
	targets     []model.TargetDefinition
	initial     []model.PlacedPiece
	drag        *dragState
	history     *History
}

// NewSession starts a session over arr. targets may be empty in edit mode.
// persister may be nil.
func NewSession(arr model.Arrangement, targets []model.TargetDefinition, settings model.EngineSettings, transform geom.Transform, persister Persister) *Session {
	s := &Session{
		ID:          typeid.NewSessionID(),
		settings:    settings,
		transform:   transform,
		resolver:    NewResolver(settings),
		validator:   NewValidator(settings.Tolerances, settings.Bounds),
		persister:   persister,
		arrangement: arr,
		targets:     append([]model.TargetDefinition(nil), targets...),
		history:     NewHistory(DefaultHistoryDepth),
	}
	s.arrangement.Pieces = clonePieces(arr.Pieces)
	s.initial = clonePieces(arr.Pieces)
	return s
}

// Snapshot returns a copy of the live pieces for rendering.
func (s *Session) Snapshot() []model.PlacedPiece {
	return clonePieces(s.arrangement.Pieces)
}

// Arrangement returns a copy of the live arrangement.
func (s *Session) Arrangement() model.Arrangement {
	arr := s.arrangement
	arr.Pieces = clonePieces(s.arrangement.Pieces)
	return arr
}

// Targets returns the session's targets.
func (s *Session) Targets() []model.TargetDefinition {
	return append([]model.TargetDefinition(nil), s.targets...)
}

// Transform returns the screen transform in use.
func (s *Session) Transform() geom.Transform { return s.transform }

// SetTransform replaces the screen transform after a display resize.
func (s *Session) SetTransform(t geom.Transform) { s.transform = t }

// Report validates the live arrangement against the targets.
func (s *Session) Report() Report {
	return s.validator.Validate(s.arrangement.Pieces, s.targets)
}

// Complete reports whether every target is matched by a piece.
func (s *Session) Complete() bool {
	return s.Report().Complete
}

// Dragging returns the id of the piece being dragged, if any.
func (s *Session) Dragging() (string, bool) {
	if s.drag == nil {
		return "", false
	}
	return s.drag.pieceID, true
}

// Reset restores the pieces the session started with, unlocking them.
func (s *Session) Reset() {
	s.arrangement.Pieces = clonePieces(s.initial)
	for i := range s.arrangement.Pieces {
		s.arrangement.Pieces[i].Locked = false
		s.arrangement.Pieces[i].State = model.StateFree
	}
	s.drag = nil
	s.history.Clear()
	s.arrangement.Touch()
}

// Undo reverts the last settled move, including a lock. It does nothing
// while a drag is in progress.
func (s *Session) Undo() bool {
	return s.step(s.history.Undo)
}

// Redo re-applies the last undone move.
func (s *Session) Redo() bool {
	return s.step(s.history.Redo)
}

// History exposes the session's undo stack.
func (s *Session) History() *History { return s.history }

func (s *Session) step(pop func(Snapshot) (Snapshot, bool)) bool {
	if s.drag != nil {
		return false
	}
	snap, ok := pop(MakeSnapshot(s.arrangement.Pieces, ""))
	if !ok {
		return false
	}
	s.arrangement.Pieces = clonePieces(snap.Pieces)
	s.arrangement.Touch()
	if s.settings.Mode == model.ModeEdit || len(s.targets) == 0 {
		s.persist()
	}
	return true
}

// HandlePointer dispatches a pointer event.
func (s *Session) HandlePointer(ev PointerEvent) (EventResult, error) {
	unit := s.transform.ToUnit(ev.Screen)
	switch ev.Phase {
	case PhaseBegin:
		return s.BeginDrag(unit)
	case PhaseMove:
		return s.DragTo(unit)
	case PhaseEnd:
		return s.EndDrag(unit)
	default:
		return EventResult{}, ErrUnknownPhase
	}
}

// PieceAt returns the topmost unlocked piece containing the unit-space point.
func (s *Session) PieceAt(p model.Point2D) (int, bool) {
	for i := len(s.arrangement.Pieces) - 1; i >= 0; i-- {
		piece := s.arrangement.Pieces[i]
		if piece.Locked {
			continue
		}
		if geom.PointInPolygon(p, piece.Outline()) {
			return i, true
		}
	}
	return -1, false
}

// BeginDrag grabs the topmost unlocked piece under the unit-space point.
func (s *Session) BeginDrag(p model.Point2D) (EventResult, error) {
	if s.drag != nil {
		return EventResult{}, ErrDragInProgress
	}
	idx, ok := s.PieceAt(p)
	if !ok {
		return EventResult{Outcome: OutcomeNone}, nil
	}
	piece := &s.arrangement.Pieces[idx]
	piece.State = model.StateFree
	s.drag = &dragState{
		pieceID: piece.ID,
		grab:    p.Sub(piece.Pose.Position()),
		before:  clonePieces(s.arrangement.Pieces),
	}
	return EventResult{PieceID: piece.ID, Outcome: OutcomeGrabbed, State: piece.State}, nil
}

// DragTo moves the dragged piece so the grab point follows the pointer.
// Positions are unconstrained while dragging.
func (s *Session) DragTo(p model.Point2D) (EventResult, error) {
	if s.drag == nil {
		return EventResult{}, ErrNoActiveDrag
	}
	piece, ok := s.piece(s.drag.pieceID)
	if !ok {
		s.drag = nil
		return EventResult{}, ErrPieceNotFound
	}
	piece.Pose = piece.Pose.WithPosition(p.Sub(s.drag.grab))
	return EventResult{PieceID: piece.ID, Outcome: OutcomeMoved, State: piece.State}, nil
}

// EndDrag releases the dragged piece at p and settles it.
func (s *Session) EndDrag(p model.Point2D) (EventResult, error) {
	if _, err := s.DragTo(p); err != nil {
		return EventResult{}, err
	}
	drag := s.drag
	s.drag = nil
	return s.settle(drag.pieceID, drag.before)
}

// Rotate turns a piece by delta radians about its reference corner. While
// the piece is dragged the rotation is free; otherwise the piece settles
// immediately.
func (s *Session) Rotate(id string, delta float64) (EventResult, error) {
	piece, ok := s.piece(id)
	if !ok {
		return EventResult{}, ErrPieceNotFound
	}
	if piece.Locked {
		return EventResult{}, ErrPieceLocked
	}
	if s.drag != nil && s.drag.pieceID == id {
		piece.Pose.Theta = model.NormalizeAngle(piece.Pose.Theta + delta)
		return EventResult{PieceID: id, Outcome: OutcomeMoved, State: piece.State}, nil
	}
	before := clonePieces(s.arrangement.Pieces)
	piece.Pose.Theta = model.NormalizeAngle(piece.Pose.Theta + delta)
	return s.settle(id, before)
}

// Flip mirrors a mirrorable piece and settles it.
func (s *Session) Flip(id string) (EventResult, error) {
	piece, ok := s.piece(id)
	if !ok {
		return EventResult{}, ErrPieceNotFound
	}
	if piece.Locked {
		return EventResult{}, ErrPieceLocked
	}
	if !piece.Type.Shape().Mirrorable {
		return EventResult{}, ErrNotMirrorable
	}
	before := clonePieces(s.arrangement.Pieces)
	piece.Pose.Mirrored = !piece.Pose.Mirrored
	if s.drag != nil && s.drag.pieceID == id {
		return EventResult{PieceID: id, Outcome: OutcomeMoved, State: piece.State}, nil
	}
	return s.settle(id, before)
}

// settle runs the drop pipeline: snap, push, fall back to the nearest free
// spot, then validate against the targets in play mode.
func (s *Session) settle(id string, before []model.PlacedPiece) (EventResult, error) {
	piece, ok := s.piece(id)
	if !ok {
		return EventResult{}, ErrPieceNotFound
	}
	piece.State = model.StateSettling
	step := s.resolver.gridStep()
	pose := piece.Pose
	pose.Theta = geom.SnapRotation(pose.Theta)
	pose = pose.WithPosition(geom.SnapToGrid(pose.Position(), step))

	push := s.resolver.ResolvePush(id, pose, s.arrangement.Pieces, s.settings.Bounds)
	if !push.Success {
		probe := *piece
		probe.Pose = pose
		if spot, found := s.resolver.FindNearestValidPosition(probe, pose.Position(), s.arrangement.Pieces, s.settings.Bounds); found {
			pose = pose.WithPosition(spot)
			push = s.resolver.ResolvePush(id, pose, s.arrangement.Pieces, s.settings.Bounds)
		}
	}
	if !push.Success {
		return s.reject(id, before, &push), nil
	}

	for i := range s.arrangement.Pieces {
		p := &s.arrangement.Pieces[i]
		if pos, ok := push.Position(p.ID); ok {
			p.Pose = p.Pose.WithPosition(pos)
		}
	}
	piece, _ = s.piece(id)
	piece.Pose.Theta = pose.Theta
	piece.Pose.Mirrored = pose.Mirrored
	piece.State = model.StateValidated
	s.arrangement.Touch()

	if s.settings.Mode == model.ModeEdit || len(s.targets) == 0 {
		piece.State = model.StateFree
		s.history.Push(MakeSnapshot(before, "place "+piece.Type.String()))
		s.persist()
		return EventResult{PieceID: id, Outcome: OutcomePlaced, State: piece.State, Push: &push}, nil
	}

	td, matched := s.openTargetFor(*piece)
	if !matched {
		return s.reject(id, before, &push), nil
	}
	piece.Pose = td.Pose()
	piece.Pose.Mirrored = piece.Pose.Mirrored && piece.Type.Shape().Mirrorable
	piece.Locked = true
	piece.State = model.StateLocked
	s.history.Push(MakeSnapshot(before, "lock "+piece.Type.String()))

	complete := s.Complete()
	if complete {
		s.persist()
	}
	return EventResult{PieceID: id, Outcome: OutcomeLocked, State: piece.State, Push: &push, Complete: complete}, nil
}

// openTargetFor finds a target the piece matches that no locked piece
// already occupies.
func (s *Session) openTargetFor(piece model.PlacedPiece) (model.TargetDefinition, bool) {
	for _, td := range s.targets {
		if !s.validator.Matches(piece, td) {
			continue
		}
		taken := false
		for _, other := range s.arrangement.Pieces {
			if other.ID != piece.ID && other.Locked && other.Type.Kind() == td.Type.Kind() &&
				other.Pose.Position().Distance(td.Position) < 1e-9 &&
				model.AngularDistance(other.Pose.Theta, td.Rotation) < 1e-9 {
				taken = true
				break
			}
		}
		if !taken {
			return td, true
		}
	}
	return model.TargetDefinition{}, false
}

func (s *Session) reject(id string, before []model.PlacedPiece, push *PushResult) EventResult {
	s.arrangement.Pieces = clonePieces(before)
	piece, _ := s.piece(id)
	piece.State = model.StateRejected
	return EventResult{PieceID: id, Outcome: OutcomeRejected, State: piece.State, Push: push}
}

func (s *Session) persist() {
	if s.persister == nil {
		return
	}
	s.persister.Save(s.arrangement.ToRecord())
}

func (s *Session) piece(id string) (*model.PlacedPiece, bool) {
	return s.arrangement.Piece(id)
}

func clonePieces(pieces []model.PlacedPiece) []model.PlacedPiece {
	if pieces == nil {
		return []model.PlacedPiece{}
	}
	out := make([]model.PlacedPiece, len(pieces))
	copy(out, pieces)
	return out
}

// RotateStep is the rotation applied by a single rotate command.
const RotateStep = math.Pi / 4

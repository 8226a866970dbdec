package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/piwi3910/tangram/internal/geom"
	"github.com/piwi3910/tangram/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(id string, x, y float64) model.PlacedPiece {
	return model.PlacedPiece{ID: id, Type: model.Square, Pose: model.Pose{X: x, Y: y}}
}

func piece(id string, t model.PieceType, x, y, theta float64) model.PlacedPiece {
	return model.PlacedPiece{ID: id, Type: t, Pose: model.Pose{X: x, Y: y, Theta: theta}}
}

func TestResolvePush_DisplacesOverlappedPiece(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	pieces := []model.PlacedPiece{square("a", 3, 3), square("b", 0.5, 0.5)}

	res := r.ResolvePush("a", model.Pose{}, pieces, model.BoardBounds())

	require.True(t, res.Success)
	assert.False(t, res.Blocked)

	a, ok := res.Position("a")
	require.True(t, ok)
	assert.Equal(t, model.Point2D{}, a, "moving piece lands exactly on its target")

	b, ok := res.Position("b")
	require.True(t, ok)
	assert.InDelta(t, 0.5, b.X, 1e-9)
	assert.InDelta(t, 1.0, b.Y, 1e-9)
	assert.True(t, res.Positions[1].Displaced)
	assert.False(t, res.Positions[0].Displaced)
}

func TestResolvePush_NoOverlapIsSingleIteration(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	pieces := []model.PlacedPiece{square("a", 0, 0), square("b", 5, 5)}

	res := r.ResolvePush("a", model.Pose{X: 1, Y: 0}, pieces, model.BoardBounds())

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Iterations)
	for _, p := range res.Positions {
		assert.False(t, p.Displaced, p.ID)
	}
}

func TestResolvePush_TransitiveChain(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	pieces := []model.PlacedPiece{square("a", 0, 0), square("b", 1, 0), square("c", 2, 0)}

	res := r.ResolvePush("a", model.Pose{X: 0.5}, pieces, model.BoardBounds())

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Iterations)
	b, _ := res.Position("b")
	c, _ := res.Position("c")
	assert.InDelta(t, 1.5, b.X, 1e-9)
	assert.InDelta(t, 2.5, c.X, 1e-9)
	assert.InDelta(t, 0, c.Y, 1e-9)
}

func TestResolvePush_SmallerPieceGivesWay(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	// The moving piece clips both a large triangle and a small triangle that
	// already overlap each other; the small one must be the one displaced.
	pieces := []model.PlacedPiece{
		square("mover", 6, 6),
		piece("large", model.LargeTriangle1, 2, 2, 0),
		piece("small", model.SmallTriangle1, 2.5, 2.5, 0),
	}

	res := r.ResolvePush("mover", model.Pose{X: 6, Y: 6}, pieces, model.BoardBounds())

	require.True(t, res.Success)
	large, _ := res.Position("large")
	assert.Equal(t, model.Point2D{X: 2, Y: 2}, large)
	assert.True(t, res.Positions[2].Displaced)
}

func TestResolvePush_EqualAreaLowerIDStays(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	pieces := []model.PlacedPiece{
		square("mover", 6, 6),
		square("q", 2.5, 2),
		square("p", 2, 2),
	}

	res := r.ResolvePush("mover", model.Pose{X: 6, Y: 6}, pieces, model.BoardBounds())

	require.True(t, res.Success)
	p, _ := res.Position("p")
	assert.Equal(t, model.Point2D{X: 2, Y: 2}, p)
	q, _ := res.Position("q")
	assert.NotEqual(t, model.Point2D{X: 2.5, Y: 2}, q)
}

func TestResolvePush_LockedPieceNeverMoves(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	locked := square("locked", 2, 2)
	locked.Locked = true
	pieces := []model.PlacedPiece{square("a", 0, 0), locked}

	res := r.ResolvePush("a", model.Pose{X: 2.5, Y: 2}, pieces, model.BoardBounds())

	assert.False(t, res.Success)
	assert.True(t, res.Blocked)
	pos, _ := res.Position("locked")
	assert.Equal(t, model.Point2D{X: 2, Y: 2}, pos)
}

func TestResolvePush_StaysInsideBounds(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	pieces := []model.PlacedPiece{square("a", 0, 0), square("b", 7, 0)}

	// b would have to leave the board to make room.
	res := r.ResolvePush("a", model.Pose{X: 6.5}, pieces, model.BoardBounds())

	assert.False(t, res.Success)
	assert.Equal(t, model.DefaultMaxPushIterations, res.Iterations)
	b, _ := res.Position("b")
	outline := pieces[1].OutlineAt(model.Pose{X: b.X, Y: b.Y})
	assert.True(t, model.BoardBounds().ContainsOutline(outline, 1e-9))
}

func TestResolvePush_UnknownMovingID(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	res := r.ResolvePush("nope", model.Pose{}, []model.PlacedPiece{square("a", 0, 0)}, model.BoardBounds())
	assert.False(t, res.Success)
	assert.Len(t, res.Positions, 1)
}

func TestResolvePush_RandomizedMovingPieceKeepsTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := NewResolver(model.DefaultSettings())
	step := model.InteractiveGridStep

	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(5)
		pieces := make([]model.PlacedPiece, n)
		for i := range pieces {
			pt := model.AllPieceTypes[rng.Intn(len(model.AllPieceTypes))]
			pieces[i] = piece(fmt.Sprintf("p%d", i), pt,
				geom.SnapValue(2+rng.Float64()*4, step),
				geom.SnapValue(2+rng.Float64()*4, step),
				model.AngleForIndex(rng.Intn(model.RotationSteps)))
		}
		target := model.Pose{
			X:     geom.SnapValue(2+rng.Float64()*4, step),
			Y:     geom.SnapValue(2+rng.Float64()*4, step),
			Theta: pieces[0].Pose.Theta,
		}

		res := r.ResolvePush("p0", target, pieces, model.BoardBounds())

		got, ok := res.Position("p0")
		require.True(t, ok)
		assert.Equal(t, target.Position(), got, "trial %d", trial)
		assert.LessOrEqual(t, res.Iterations, model.DefaultMaxPushIterations)
		if res.Success {
			placed := make([]model.PlacedPiece, n)
			for i, p := range pieces {
				placed[i] = p
				pos, _ := res.Position(p.ID)
				placed[i].Pose = p.Pose.WithPosition(pos)
			}
			placed[0].Pose = target
			assert.Empty(t, FindOverlaps(placed), "trial %d", trial)
		}
	}
}

func TestFindNearestValidPosition(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	blocker := square("blocker", 0, 0)
	mover := square("mover", 5, 5)

	pos, ok := r.FindNearestValidPosition(mover, model.Point2D{}, []model.PlacedPiece{blocker, mover}, model.BoardBounds())

	require.True(t, ok)
	assert.Equal(t, model.Point2D{X: 1, Y: 0}, pos)
}

func TestFindNearestValidPosition_FreeSpotReturnedAsIs(t *testing.T) {
	r := NewResolver(model.DefaultSettings())
	mover := square("mover", 0, 0)

	pos, ok := r.FindNearestValidPosition(mover, model.Point2D{X: 3.1, Y: 2.9}, nil, model.BoardBounds())

	require.True(t, ok)
	assert.Equal(t, model.Point2D{X: 3, Y: 3}, pos)
}

func TestFindNearestValidPosition_NoRoom(t *testing.T) {
	settings := model.DefaultSettings()
	settings.SearchRadius = 0.5
	r := NewResolver(settings)
	blocker := model.PlacedPiece{ID: "big", Type: model.LargeTriangle1, Pose: model.Pose{X: 0, Y: 0}}
	mover := square("mover", 5, 5)
	bounds := model.Rect{Max: model.Point2D{X: 2, Y: 2}}

	_, ok := r.FindNearestValidPosition(mover, model.Point2D{X: 0.5, Y: 0.5}, []model.PlacedPiece{blocker}, bounds)
	assert.False(t, ok)
}

// scatter places one piece of every type at random grid positions so that
// none overlap and all lie on the board.
func scatter(t *testing.T, rng *rand.Rand) []model.PlacedPiece {
	t.Helper()
	bounds := model.BoardBounds()
	step := model.InteractiveGridStep
	var pieces []model.PlacedPiece
	for _, pt := range model.AllPieceTypes {
		placed := false
		for attempt := 0; attempt < 1000 && !placed; attempt++ {
			p := piece(pt.String(), pt,
				geom.SnapValue(rng.Float64()*model.BoardSize, step),
				geom.SnapValue(rng.Float64()*model.BoardSize, step),
				model.AngleForIndex(rng.Intn(model.RotationSteps)))
			if !bounds.ContainsOutline(p.Outline(), 1e-9) {
				continue
			}
			if len(FindOverlaps(append(append([]model.PlacedPiece{}, pieces...), p))) > 0 {
				continue
			}
			pieces = append(pieces, p)
			placed = true
		}
		require.True(t, placed, "could not place %s", pt)
	}
	return pieces
}

func TestResolvePush_FullSetTerminatesWithinCap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := NewResolver(model.DefaultSettings())
	bounds := model.BoardBounds()
	step := model.InteractiveGridStep

	for trial := 0; trial < 300; trial++ {
		pieces := scatter(t, rng)
		mover := pieces[rng.Intn(len(pieces))]

		var target model.Pose
		for {
			target = mover.Pose.WithPosition(model.Point2D{
				X: geom.SnapValue(rng.Float64()*model.BoardSize, step),
				Y: geom.SnapValue(rng.Float64()*model.BoardSize, step),
			})
			if bounds.ContainsOutline(mover.OutlineAt(target), 1e-9) {
				break
			}
		}

		res := r.ResolvePush(mover.ID, target, pieces, bounds)

		require.GreaterOrEqual(t, res.Iterations, 1, "trial %d", trial)
		require.LessOrEqual(t, res.Iterations, model.DefaultMaxPushIterations, "trial %d", trial)
		if !res.Success {
			continue
		}
		placed := make([]model.PlacedPiece, len(pieces))
		for i, p := range pieces {
			pos, _ := res.Position(p.ID)
			placed[i] = p
			placed[i].Pose = p.Pose.WithPosition(pos)
			assert.True(t, bounds.ContainsOutline(placed[i].Outline(), 1e-6), "trial %d: %s off board", trial, p.ID)
		}
		assert.Empty(t, FindOverlaps(placed), "trial %d", trial)
	}
}

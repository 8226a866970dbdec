package importer

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yofu/dxf"

	"github.com/piwi3910/tangram/internal/export"
	"github.com/piwi3910/tangram/internal/model"
)

func solvedPieces() []model.PlacedPiece {
	var pieces []model.PlacedPiece
	for _, td := range model.ClassicSquareTargets() {
		pieces = append(pieces, model.NewPlacedPiece(td.Type, td.Pose()))
	}
	return pieces
}

func reversed(o model.Outline) model.Outline {
	out := make(model.Outline, len(o))
	for i, p := range o {
		out[len(o)-1-i] = p
	}
	return out
}

func rotated(o model.Outline, k int) model.Outline {
	return append(append(model.Outline{}, o[k:]...), o[:k]...)
}

// ─── RecoverPose Tests ─────────────────────────────────────

func TestRecoverPose_AllTypesAndRotations(t *testing.T) {
	for _, pt := range model.AllPieceTypes {
		for i := 0; i < model.RotationSteps; i++ {
			pose := model.Pose{X: 3.25, Y: 2.5, Theta: model.AngleForIndex(i)}
			outline := model.PlacedPiece{Type: pt}.OutlineAt(pose)

			for _, variant := range []model.Outline{outline, reversed(outline), rotated(outline, 1)} {
				got, ok := RecoverPose(pt, variant)
				if !ok {
					t.Fatalf("%s at index %d: pose not recovered", pt, i)
				}
				if !outlinesMatch(model.PlacedPiece{Type: pt}.OutlineAt(got), outline) {
					t.Errorf("%s at index %d: recovered pose %+v does not reproduce the outline", pt, i, got)
				}
				if got.Mirrored {
					t.Errorf("%s at index %d: unexpected mirrored pose", pt, i)
				}
			}
		}
	}
}

func TestRecoverPose_MirroredParallelogram(t *testing.T) {
	pose := model.Pose{X: 1, Y: 1, Theta: math.Pi / 2, Mirrored: true}
	outline := model.PlacedPiece{Type: model.Parallelogram}.OutlineAt(pose)

	got, ok := RecoverPose(model.Parallelogram, reversed(outline))
	if !ok {
		t.Fatal("pose not recovered")
	}
	if !got.Mirrored {
		t.Error("expected mirrored pose")
	}
	if math.Abs(got.X-1) > 1e-9 || math.Abs(got.Y-1) > 1e-9 {
		t.Errorf("expected position (1, 1), got (%f, %f)", got.X, got.Y)
	}
	if model.AngularDistance(got.Theta, math.Pi/2) > 1e-9 {
		t.Errorf("expected theta pi/2, got %f", got.Theta)
	}
}

func TestRecoverPose_WrongShape(t *testing.T) {
	outline := model.PlacedPiece{Type: model.Square}.OutlineAt(model.Pose{})
	if _, ok := RecoverPose(model.Parallelogram, outline); ok {
		t.Error("square outline should not match a parallelogram")
	}
	if _, ok := RecoverPose(model.SmallTriangle1, outline); ok {
		t.Error("vertex count mismatch should fail")
	}
}

// ─── Classification Tests ──────────────────────────────────

func TestClassifyOutline(t *testing.T) {
	for _, pt := range model.AllPieceTypes {
		outline := model.PlacedPiece{Type: pt}.OutlineAt(model.Pose{X: 2, Y: 2, Theta: math.Pi / 4})
		kind, ok := classifyOutline(outline)
		if !ok || kind != pt.Kind() {
			t.Errorf("%s: expected %s, got %s (ok=%t)", pt, pt.Kind(), kind, ok)
		}
	}

	rect := model.Outline{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 1}, {X: 0, Y: 1}}
	if _, ok := classifyOutline(rect); ok {
		t.Error("3x1 rectangle should not classify")
	}
}

func TestSimplifyOutline_DropsCollinearVertices(t *testing.T) {
	o := model.Outline{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 1}}
	got := simplifyOutline(o)
	if len(got) != 4 {
		t.Fatalf("expected 4 vertices, got %d: %v", len(got), got)
	}
}

func TestChainSegments_OpenChainIgnored(t *testing.T) {
	segs := []segment{
		{start: model.Point2D{X: 0, Y: 0}, end: model.Point2D{X: 1, Y: 0}},
		{start: model.Point2D{X: 1, Y: 0}, end: model.Point2D{X: 1, Y: 1}},
	}
	if got := chainSegments(segs, chainTolerance); len(got) != 0 {
		t.Errorf("expected no outlines, got %d", len(got))
	}
}

// ─── ImportDXF Tests ───────────────────────────────────────

func TestImportDXF_RoundTrip(t *testing.T) {
	original := solvedPieces()
	path := filepath.Join(t.TempDir(), "square.dxf")
	if err := export.ExportDXF(path, original); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	result := ImportDXF(path)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Pieces) != 7 {
		t.Fatalf("expected 7 pieces, got %d (warnings: %v)", len(result.Pieces), result.Warnings)
	}

	seen := make(map[model.PieceType]bool)
	for _, p := range result.Pieces {
		if seen[p.Type] {
			t.Errorf("piece type %s imported twice", p.Type)
		}
		seen[p.Type] = true

		matched := false
		for _, o := range original {
			if o.Type.Kind() == p.Type.Kind() && outlinesMatch(o.Outline(), p.Outline()) {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("%s at %+v matches no exported outline", p.Type, p.Pose)
		}
	}
}

func TestImportDXF_ChainedLines(t *testing.T) {
	d := dxf.NewDrawing()
	lines := [][6]float64{
		{2, 3, 0, 2.5, 3, 0},
		{2.5, 3, 0, 3, 3, 0},
		{3, 3, 0, 3, 4, 0},
		{2, 4, 0, 3, 4, 0},
		{2, 4, 0, 2, 3, 0},
	}
	for _, l := range lines {
		if _, err := d.Line(l[0], l[1], l[2], l[3], l[4], l[5]); err != nil {
			t.Fatalf("failed to add line: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "lines.dxf")
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	result := ImportDXF(path)

	if len(result.Pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d (errors: %v, warnings: %v)", len(result.Pieces), result.Errors, result.Warnings)
	}
	p := result.Pieces[0]
	if p.Type != model.Square {
		t.Errorf("expected square, got %s", p.Type)
	}
	want := model.PlacedPiece{Type: model.Square}.OutlineAt(model.Pose{X: 2, Y: 3})
	if !outlinesMatch(p.Outline(), want) {
		t.Errorf("unexpected outline %v", p.Outline())
	}
}

func TestImportDXF_ExtraPiecesWarn(t *testing.T) {
	pieces := []model.PlacedPiece{
		model.NewPlacedPiece(model.SmallTriangle1, model.Pose{X: 1, Y: 1}),
		model.NewPlacedPiece(model.SmallTriangle1, model.Pose{X: 3, Y: 1}),
		model.NewPlacedPiece(model.SmallTriangle1, model.Pose{X: 5, Y: 1}),
	}
	path := filepath.Join(t.TempDir(), "triangles.dxf")
	if err := export.ExportDXF(path, pieces); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	result := ImportDXF(path)

	if len(result.Pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(result.Pieces))
	}
	if result.Pieces[0].Type != model.SmallTriangle1 || result.Pieces[1].Type != model.SmallTriangle2 {
		t.Errorf("expected smallTriangle1 then smallTriangle2, got %s, %s", result.Pieces[0].Type, result.Pieces[1].Type)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "extra") {
		t.Errorf("expected one extra-piece warning, got %v", result.Warnings)
	}
}

func TestImportDXF_NoTangramShapes(t *testing.T) {
	d := dxf.NewDrawing()
	if _, err := d.LwPolyline(true, []float64{0, 0}, []float64{3, 0}, []float64{3, 1}, []float64{0, 1}); err != nil {
		t.Fatalf("failed to add polyline: %v", err)
	}
	path := filepath.Join(t.TempDir(), "rect.dxf")
	if err := d.SaveAs(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	result := ImportDXF(path)

	if len(result.Pieces) != 0 {
		t.Errorf("expected no pieces, got %d", len(result.Pieces))
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "not a tangram piece") {
		t.Errorf("expected classification warning, got %v", result.Warnings)
	}
	if len(result.Errors) == 0 {
		t.Error("expected error when nothing was recognised")
	}
}

func TestImportDXF_FileNotFound(t *testing.T) {
	result := ImportDXF("/nonexistent/path/file.dxf")

	if len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

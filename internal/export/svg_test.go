package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteSVG_ContainsPiecesAndTargets(t *testing.T) {
	arr, targets := buildSolvedArrangement()

	var buf bytes.Buffer
	if err := WriteSVG(&buf, arr, targets, DefaultSVGOptions()); err != nil {
		t.Fatalf("WriteSVG returned error: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "<svg") {
		t.Fatal("output is not an SVG document")
	}
	if got := strings.Count(out, "<polygon"); got != 14 {
		t.Errorf("expected 14 polygons (7 targets + 7 pieces), got %d", got)
	}
	if !strings.Contains(out, `id="targets"`) || !strings.Contains(out, `id="pieces"`) {
		t.Error("expected targets and pieces groups")
	}
	if !strings.Contains(out, "<line") {
		t.Error("expected grid lines")
	}
}

func TestWriteSVG_OptionsOff(t *testing.T) {
	arr, targets := buildSolvedArrangement()
	opts := SVGOptions{Size: 200, Labels: true}

	var buf bytes.Buffer
	if err := WriteSVG(&buf, arr, targets, opts); err != nil {
		t.Fatalf("WriteSVG returned error: %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, "<polygon"); got != 7 {
		t.Errorf("expected 7 piece polygons, got %d", got)
	}
	if strings.Contains(out, "<line") {
		t.Error("expected no grid lines")
	}
	if !strings.Contains(out, ">square<") {
		t.Error("expected piece labels")
	}
}

func TestWriteSVG_InvalidSize(t *testing.T) {
	arr, _ := buildSolvedArrangement()
	var buf bytes.Buffer
	if err := WriteSVG(&buf, arr, nil, SVGOptions{}); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestExportSVG_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.svg")

	arr, targets := buildSolvedArrangement()
	if err := ExportSVG(path, arr, targets, DefaultSVGOptions()); err != nil {
		t.Fatalf("ExportSVG returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("SVG file was not created: %v", err)
	}
	if !strings.Contains(string(data), "</svg>") {
		t.Error("SVG document is not closed")
	}
}

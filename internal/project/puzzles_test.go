package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/tangram/internal/model"
)

func TestSaveAndLoadPuzzles(t *testing.T) {
	path := PuzzlePath(t.TempDir())

	store := model.NewPuzzleStore()
	store.Add(model.NewPuzzle("Boat", "A sailing boat", model.ClassicSquareTargets()))

	if err := SavePuzzles(path, store); err != nil {
		t.Fatalf("SavePuzzles error: %v", err)
	}

	loaded, err := LoadPuzzles(path)
	if err != nil {
		t.Fatalf("LoadPuzzles error: %v", err)
	}
	if len(loaded.Puzzles) != 1 {
		t.Fatalf("expected 1 puzzle, got %d", len(loaded.Puzzles))
	}
	if loaded.Puzzles[0].Name != "Boat" {
		t.Errorf("expected 'Boat', got %q", loaded.Puzzles[0].Name)
	}
	if len(loaded.Puzzles[0].Targets) != 7 {
		t.Errorf("expected 7 targets, got %d", len(loaded.Puzzles[0].Targets))
	}
	if loaded.Puzzles[0].Targets[3].Type != model.Parallelogram || !loaded.Puzzles[0].Targets[3].Mirrored {
		t.Errorf("parallelogram target did not survive: %+v", loaded.Puzzles[0].Targets[3])
	}
}

func TestLoadPuzzlesMissingFileGivesBuiltIns(t *testing.T) {
	store, err := LoadPuzzles(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if store.FindByName("Square") == nil {
		t.Error("expected the built-in Square puzzle")
	}
}

func TestLoadPuzzlesUnknownPieceType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puzzles.json")
	data := []byte(`{"puzzles":[{"name":"bad","targets":[{"pieceType":"circle"}]}]}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPuzzles(path); err == nil {
		t.Fatal("expected error for unknown piece type")
	}
}

func TestLoadPuzzlesMirroredRigidShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "puzzles.json")
	data := []byte(`{"puzzles":[{"name":"bad","targets":[{"pieceType":"square","targetPosition":{"x":1,"y":1},"mirrored":true}]}]}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPuzzles(path); err == nil {
		t.Fatal("expected error for a mirrored square target")
	}
}

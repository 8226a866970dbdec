package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/tangram/internal/model"
)

// PuzzlePath returns the puzzle library file inside a data directory.
func PuzzlePath(dataDir string) string {
	return filepath.Join(dataDir, "puzzles.json")
}

// SavePuzzles writes the puzzle store to a JSON file.
func SavePuzzles(path string, store model.PuzzleStore) error {
	return writeJSON(path, store)
}

// LoadPuzzles reads a puzzle store from a JSON file. If the file does not
// exist, the built-in puzzles are returned.
func LoadPuzzles(path string) (model.PuzzleStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.BuiltInPuzzles(), nil
		}
		return model.PuzzleStore{}, err
	}
	var store model.PuzzleStore
	if err := json.Unmarshal(data, &store); err != nil {
		return model.PuzzleStore{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if store.Puzzles == nil {
		store.Puzzles = []model.Puzzle{}
	}
	for _, p := range store.Puzzles {
		for i, td := range p.Targets {
			if !td.Type.Valid() {
				return model.PuzzleStore{}, fmt.Errorf("puzzle %q target %d: %w", p.Name, i, model.ErrUnknownPiece)
			}
			if td.Mirrored && !td.Type.Shape().Mirrorable {
				return model.PuzzleStore{}, fmt.Errorf("puzzle %q target %d: %s cannot be mirrored", p.Name, i, td.Type)
			}
		}
	}
	return store, nil
}

package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/tangram/internal/model"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version      string                    `json:"version"`
	CreatedAt    string                    `json:"created_at"`
	Config       model.AppConfig           `json:"config"`
	Puzzles      model.PuzzleStore         `json:"puzzles"`
	Arrangements []model.ArrangementRecord `json:"arrangements"`
}

// ExportAllData writes config, puzzles and every stored arrangement to a
// single JSON file at exportPath.
func ExportAllData(exportPath string, config model.AppConfig, puzzles model.PuzzleStore, store *ArrangementStore) error {
	backup := BackupData{
		Version:      BackupVersion,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Config:       config,
		Puzzles:      puzzles,
		Arrangements: []model.ArrangementRecord{},
	}
	if store != nil {
		ids, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list arrangements: %w", err)
		}
		for _, id := range ids {
			rec, err := store.Load(id)
			if err != nil {
				return fmt.Errorf("failed to read arrangement %s: %w", id, err)
			}
			backup.Arrangements = append(backup.Arrangements, rec)
		}
	}
	if err := writeJSON(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying it.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Config.RecentArrangements == nil {
		backup.Config.RecentArrangements = []string{}
	}
	if backup.Puzzles.Puzzles == nil {
		backup.Puzzles.Puzzles = []model.Puzzle{}
	}
	if backup.Arrangements == nil {
		backup.Arrangements = []model.ArrangementRecord{}
	}
	return backup, nil
}

// RestoreArrangements writes every arrangement of a backup into store.
func RestoreArrangements(backup BackupData, store *ArrangementStore) error {
	for _, rec := range backup.Arrangements {
		if err := store.Save(rec); err != nil {
			return err
		}
	}
	return nil
}

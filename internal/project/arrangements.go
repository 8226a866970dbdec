package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/piwi3910/tangram/internal/model"
)

// ErrNotFound is returned when an arrangement id has no stored file.
var ErrNotFound = errors.New("arrangement not found")

// ArrangementStore keeps one JSON record file per arrangement in a directory.
type ArrangementStore struct {
	Dir string
}

// NewArrangementStore returns a store rooted at dataDir/arrangements.
func NewArrangementStore(dataDir string) *ArrangementStore {
	return &ArrangementStore{Dir: filepath.Join(dataDir, "arrangements")}
}

func (s *ArrangementStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid arrangement id %q", id)
	}
	return filepath.Join(s.Dir, id+".json"), nil
}

// Save writes the record, replacing any earlier version with the same id.
func (s *ArrangementStore) Save(rec model.ArrangementRecord) error {
	path, err := s.path(rec.ID)
	if err != nil {
		return err
	}
	if err := writeJSON(path, rec); err != nil {
		return fmt.Errorf("save arrangement %s: %w", rec.ID, err)
	}
	return nil
}

// Load reads the record stored under id.
func (s *ArrangementStore) Load(id string) (model.ArrangementRecord, error) {
	path, err := s.path(id)
	if err != nil {
		return model.ArrangementRecord{}, err
	}
	return LoadRecord(path)
}

// LoadArrangement reads and decodes the arrangement stored under id.
func (s *ArrangementStore) LoadArrangement(id string) (model.Arrangement, error) {
	rec, err := s.Load(id)
	if err != nil {
		return model.Arrangement{}, err
	}
	arr, err := model.FromRecord(rec)
	if err != nil {
		return model.Arrangement{}, fmt.Errorf("decode arrangement %s: %w", id, err)
	}
	return arr, nil
}

// List returns the ids of all stored arrangements, sorted.
func (s *ArrangementStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the record stored under id.
func (s *ArrangementStore) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// LoadRecord reads a single arrangement record file.
func LoadRecord(path string) (model.ArrangementRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.ArrangementRecord{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return model.ArrangementRecord{}, err
	}
	var rec model.ArrangementRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.ArrangementRecord{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if rec.Elements == nil {
		rec.Elements = []model.ElementRecord{}
	}
	return rec, nil
}

// SaveRecord writes a single arrangement record file.
func SaveRecord(path string, rec model.ArrangementRecord) error {
	return writeJSON(path, rec)
}

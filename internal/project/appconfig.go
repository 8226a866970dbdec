// Package project persists everything the application keeps on disk:
// preferences, the puzzle library, saved arrangements and backups.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/tangram/internal/model"
)

// DefaultConfigDir returns the default directory for application data.
// On all platforms this is ~/.tangram/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".tangram")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// DataDir resolves where arrangements and puzzles live for a config.
func DataDir(cfg model.AppConfig) string {
	if cfg.DataDir != "" {
		return cfg.DataDir
	}
	return DefaultConfigDir()
}

// writeJSON marshals v with indentation and writes it to path, creating
// parent directories as needed.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0644)
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSON(path, config)
}

// LoadAppConfig reads an AppConfig from the given path. Fields absent from
// the file keep their defaults. If the file does not exist, it returns
// DefaultAppConfig with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	config := model.DefaultAppConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return model.AppConfig{}, err
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if config.RecentArrangements == nil {
		config.RecentArrangements = []string{}
	}
	return config, nil
}

// AddRecent moves path to the front of the recent arrangement list, keeping
// at most limit entries.
func AddRecent(config *model.AppConfig, path string, limit int) {
	out := []string{path}
	for _, p := range config.RecentArrangements {
		if p != path && len(out) < limit {
			out = append(out, p)
		}
	}
	config.RecentArrangements = out
}

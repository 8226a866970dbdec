package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/tangram/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultGridStep = 0.5
	cfg.Theme = "dark"
	cfg.DefaultPushIterations = 12
	cfg.RecentArrangements = []string{"/tmp/a.json", "/tmp/b.json"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.DefaultGridStep != 0.5 {
		t.Errorf("expected DefaultGridStep=0.5, got %f", loaded.DefaultGridStep)
	}
	if loaded.Theme != "dark" {
		t.Errorf("expected Theme=dark, got %s", loaded.Theme)
	}
	if loaded.DefaultPushIterations != 12 {
		t.Errorf("expected DefaultPushIterations=12, got %d", loaded.DefaultPushIterations)
	}
	if len(loaded.RecentArrangements) != 2 {
		t.Errorf("expected 2 recent arrangements, got %d", len(loaded.RecentArrangements))
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	defaults := model.DefaultAppConfig()
	if cfg.DefaultGridStep != defaults.DefaultGridStep {
		t.Errorf("expected default grid step %f, got %f", defaults.DefaultGridStep, cfg.DefaultGridStep)
	}
	if cfg.Theme != "system" {
		t.Errorf("expected theme=system, got %s", cfg.Theme)
	}
}

func TestLoadAppConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"theme":"light","recent_arrangements":null}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.Theme != "light" {
		t.Errorf("expected theme=light, got %s", cfg.Theme)
	}
	if cfg.DefaultPushIterations != model.DefaultMaxPushIterations {
		t.Errorf("expected default push iterations, got %d", cfg.DefaultPushIterations)
	}
	if cfg.RecentArrangements == nil {
		t.Error("RecentArrangements should not be nil after loading")
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("not valid json{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadAppConfig(path); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "config.json")

	if err := SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
		t.Fatalf("SaveAppConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}
}

func TestAddRecent(t *testing.T) {
	cfg := model.DefaultAppConfig()
	AddRecent(&cfg, "a", 3)
	AddRecent(&cfg, "b", 3)
	AddRecent(&cfg, "c", 3)
	AddRecent(&cfg, "a", 3)
	AddRecent(&cfg, "d", 3)

	want := []string{"d", "a", "c"}
	if len(cfg.RecentArrangements) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.RecentArrangements)
	}
	for i := range want {
		if cfg.RecentArrangements[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], cfg.RecentArrangements[i])
		}
	}
}

func TestDataDir(t *testing.T) {
	cfg := model.DefaultAppConfig()
	if DataDir(cfg) != DefaultConfigDir() {
		t.Errorf("expected default data dir, got %s", DataDir(cfg))
	}
	cfg.DataDir = "/srv/tangram"
	if DataDir(cfg) != "/srv/tangram" {
		t.Errorf("expected override, got %s", DataDir(cfg))
	}
}

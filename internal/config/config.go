// Package config assembles the effective application configuration: the
// JSON preferences file, overridden by TANGRAM_* environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/piwi3910/tangram/internal/geom"
	"github.com/piwi3910/tangram/internal/model"
	"github.com/piwi3910/tangram/internal/project"
)

// EnvPrefix is prepended to every environment override, e.g.
// TANGRAM_GRID_STEP.
const EnvPrefix = "TANGRAM"

// Config is the resolved configuration for one run.
type Config struct {
	Path      string
	App       model.AppConfig
	Settings  model.EngineSettings
	Transform geom.Transform
}

// Load reads the preferences at path (the default location when empty),
// applies environment overrides and derives engine settings and the screen
// transform from the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = project.DefaultConfigPath()
	}
	app, err := project.LoadAppConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := envconfig.Process(EnvPrefix, &app); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if app.DefaultMode != "" && app.DefaultMode != model.ModePlay && app.DefaultMode != model.ModeEdit {
		return nil, fmt.Errorf("unknown mode %q", app.DefaultMode)
	}

	transform := geom.NewTransform(app.DisplayWidth, app.DisplayHeight, app.DisplayMargin)
	settings := model.DefaultSettings()
	app.ApplyToSettings(&settings, transform.Scale)

	return &Config{
		Path:      path,
		App:       app,
		Settings:  settings,
		Transform: transform,
	}, nil
}

// DataDir is where arrangements and puzzles are stored.
func (c *Config) DataDir() string {
	return project.DataDir(c.App)
}

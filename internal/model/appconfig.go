package model

// AppConfig holds application-wide preferences and default settings. Fields
// tagged with envconfig can be overridden from TANGRAM_* environment variables.
type AppConfig struct {
	// Engine defaults applied to new sessions
	DefaultGridStep          float64 `json:"default_grid_step" envconfig:"GRID_STEP"`
	DefaultPushIterations    int     `json:"default_push_iterations" envconfig:"PUSH_ITERATIONS"`
	DefaultSearchRadius      float64 `json:"default_search_radius" envconfig:"SEARCH_RADIUS"`
	DefaultRotationTolerance float64 `json:"default_rotation_tolerance" envconfig:"ROTATION_TOLERANCE"`
	PositionTolerancePixels  float64 `json:"position_tolerance_pixels" envconfig:"POSITION_TOLERANCE_PIXELS"`
	UseSymmetry              bool    `json:"use_symmetry" envconfig:"USE_SYMMETRY"`
	DefaultMode              Mode    `json:"default_mode" envconfig:"MODE"`

	// Display used to derive the screen transform
	DisplayWidth  float64 `json:"display_width" envconfig:"DISPLAY_WIDTH"`
	DisplayHeight float64 `json:"display_height" envconfig:"DISPLAY_HEIGHT"`
	DisplayMargin float64 `json:"display_margin" envconfig:"DISPLAY_MARGIN"`

	// Application preferences
	DataDir            string   `json:"data_dir" envconfig:"DATA_DIR"`
	RecentArrangements []string `json:"recent_arrangements" ignored:"true"`
	Theme              string   `json:"theme" envconfig:"THEME"` // "light", "dark", "system"
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultGridStep:          defaults.GridStep,
		DefaultPushIterations:    defaults.MaxPushIterations,
		DefaultSearchRadius:      defaults.SearchRadius,
		DefaultRotationTolerance: defaults.Tolerances.Rotation,
		PositionTolerancePixels:  DefaultPositionPixels,
		UseSymmetry:              defaults.Tolerances.UseSymmetry,
		DefaultMode:              defaults.Mode,
		DisplayWidth:             800,
		DisplayHeight:            800,
		DisplayMargin:            20,
		RecentArrangements:       []string{},
		Theme:                    "system",
	}
}

// ApplyToSettings copies the default values from AppConfig into an
// EngineSettings struct. pixelsPerUnit is the current screen scale and is
// used to derive the position tolerance.
func (c AppConfig) ApplyToSettings(s *EngineSettings, pixelsPerUnit float64) {
	if c.DefaultGridStep > 0 {
		s.GridStep = c.DefaultGridStep
	}
	if c.DefaultPushIterations > 0 {
		s.MaxPushIterations = c.DefaultPushIterations
	}
	if c.DefaultSearchRadius > 0 {
		s.SearchRadius = c.DefaultSearchRadius
	}
	if c.DefaultMode != "" {
		s.Mode = c.DefaultMode
	}
	s.Tolerances = ScaledTolerances(pixelsPerUnit, c.PositionTolerancePixels, c.DefaultRotationTolerance)
	s.Tolerances.UseSymmetry = c.UseSymmetry
}

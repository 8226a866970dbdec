package model

// Grid steps used when quantizing positions.
const (
	// InteractiveGridStep is the grid a piece snaps to when dropped.
	InteractiveGridStep = 0.25
	// DefaultMaxPushIterations caps the push-resolution relaxation passes.
	DefaultMaxPushIterations = 20
	// DefaultSearchRadius bounds the nearest-valid-position ring search.
	DefaultSearchRadius = 4.0
)

// Mode selects how a session treats dropped pieces.
type Mode string

const (
	ModePlay Mode = "play" // Pieces are checked against targets and lock on match
	ModeEdit Mode = "edit" // Free-form editing; no target checks
)

// EngineSettings holds the tunables of the geometry engine.
type EngineSettings struct {
	GridStep          float64    `json:"grid_step"`           // Interactive snap step (unit space)
	MaxPushIterations int        `json:"max_push_iterations"` // Relaxation pass cap
	SearchRadius      float64    `json:"search_radius"`       // Nearest-valid-position search limit
	Bounds            Rect       `json:"bounds"`              // Board extent pieces must stay within
	Tolerances        Tolerances `json:"tolerances"`          // Target matching tolerances
	Mode              Mode       `json:"mode"`
}

func DefaultSettings() EngineSettings {
	return EngineSettings{
		GridStep:          InteractiveGridStep,
		MaxPushIterations: DefaultMaxPushIterations,
		SearchRadius:      DefaultSearchRadius,
		Bounds:            BoardBounds(),
		Tolerances:        DefaultTolerances(),
		Mode:              ModePlay,
	}
}

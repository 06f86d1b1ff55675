package config

import "math"

// DifficultyConfig defines how a game ramps up as the player progresses.
type DifficultyConfig struct {
	Enabled      bool              `yaml:"enabled"`
	InitialLevel float64           `yaml:"initial_level"` // 0.0 = easy, 1.0 = hard
	Progression  ProgressionConfig `yaml:"progression"`
	Scaling      ScalingConfig     `yaml:"scaling"`
}

// ProgressionConfig selects what drives the level up.
type ProgressionConfig struct {
	Type  string `yaml:"type"`   // "score", "steps", or "none"
	MaxAt int    `yaml:"max_at"` // score or step count at which level 1.0 is reached
}

// ScalingConfig is the size of each adjustment at level 1.0.
type ScalingConfig struct {
	SpeedMultiplier  float64 `yaml:"speed_multiplier"`
	GapReduction     int     `yaml:"gap_reduction"`
	SpacingReduction int     `yaml:"spacing_reduction"`
}

// Difficulty turns progress into tuned game parameters.
type Difficulty struct {
	cfg DifficultyConfig
}

// NewDifficulty creates a difficulty ramp.
func NewDifficulty(cfg DifficultyConfig) *Difficulty {
	cfg.InitialLevel = clampF(cfg.InitialLevel, 0, 1)
	return &Difficulty{cfg: cfg}
}

// Level returns the level in [0, 1] for the given score and step count.
func (d *Difficulty) Level(score, steps int) float64 {
	if !d.cfg.Enabled {
		return d.cfg.InitialLevel
	}

	maxAt := float64(max(d.cfg.Progression.MaxAt, 1))
	var progress float64
	switch d.cfg.Progression.Type {
	case "score":
		progress = float64(score) / maxAt
	case "steps":
		progress = float64(steps) / maxAt
	default:
		return d.cfg.InitialLevel
	}

	progress = clampF(progress, 0, 1)
	return d.cfg.InitialLevel + progress*(1-d.cfg.InitialLevel)
}

// Speed scales base from base to base*(1+speed_multiplier).
func (d *Difficulty) Speed(base float64, level float64) float64 {
	return base * (1 + level*d.cfg.Scaling.SpeedMultiplier)
}

// Gap shrinks a gap size, never below floor.
func (d *Difficulty) Gap(base, floor int, level float64) int {
	return max(base-int(level*float64(d.cfg.Scaling.GapReduction)), floor)
}

// Spacing shrinks obstacle spacing, never below floor.
func (d *Difficulty) Spacing(base, floor int, level float64) int {
	return max(base-int(level*float64(d.cfg.Scaling.SpacingReduction)), floor)
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

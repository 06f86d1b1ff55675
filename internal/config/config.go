// Package config loads the YAML configuration for the loop, logging,
// telemetry, storage and the bundled games.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the full contents of arcadeloop.yaml.
type Config struct {
	Loop      LoopConfig      `yaml:"loop"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`
	Games     GamesConfig     `yaml:"games"`
}

// LoopConfig tunes the engine.
type LoopConfig struct {
	UPS           int     `yaml:"ups"` // 0 = the game's own rate
	RefreshHz     float64 `yaml:"refresh_hz"`
	RatioMode     string  `yaml:"ratio_mode"`
	FrameBudgetMs int     `yaml:"frame_budget_ms"`
	Debug         bool    `yaml:"debug"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type TelemetryConfig struct {
	Window int    `yaml:"window"` // steps per sample window
	CSVDir string `yaml:"csv_dir"`
}

type StorageConfig struct {
	DB string `yaml:"db"` // empty disables run history
}

type GamesConfig struct {
	Pong   PongConfig   `yaml:"pong"`
	Flappy FlappyConfig `yaml:"flappy"`
}

// PongConfig contains all configuration for Pong.
// Speeds are cells per second.
type PongConfig struct {
	Physics  PongPhysics  `yaml:"physics"`
	Paddles  PongPaddles  `yaml:"paddles"`
	Gameplay PongGameplay `yaml:"gameplay"`
}

type PongPhysics struct {
	BallSpeed    float64 `yaml:"ball_speed"`
	PaddleSpeed  float64 `yaml:"paddle_speed"`
	MaxBallSpeed float64 `yaml:"max_ball_speed"`
	SpinFactor   float64 `yaml:"spin_factor"` // share of horizontal speed turned vertical at the paddle edge
}

type PongPaddles struct {
	Height int `yaml:"height"`
	Width  int `yaml:"width"`
	Offset int `yaml:"offset"` // distance from the screen edge
}

type PongGameplay struct {
	WinScore int     `yaml:"win_score"`
	AISkill  float64 `yaml:"ai_skill"` // 0..1, fraction of paddle speed the AI uses
}

// FlappyConfig contains all configuration for Flappy.
// Speeds are cells per second, gravity cells per second squared.
type FlappyConfig struct {
	Physics    FlappyPhysics    `yaml:"physics"`
	Obstacles  FlappyObstacles  `yaml:"obstacles"`
	Player     FlappyPlayer     `yaml:"player"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
}

type FlappyPhysics struct {
	Gravity      float64 `yaml:"gravity"`
	JumpImpulse  float64 `yaml:"jump_impulse"`
	MaxFallSpeed float64 `yaml:"max_fall_speed"`
	BaseSpeed    float64 `yaml:"base_speed"`
}

type FlappyObstacles struct {
	PipeWidth    int `yaml:"pipe_width"`
	PipeSpacing  int `yaml:"pipe_spacing"`
	MinGap       int `yaml:"min_gap"`
	MaxGap       int `yaml:"max_gap"`
	TopMargin    int `yaml:"top_margin"`
	BottomMargin int `yaml:"bottom_margin"`
}

type FlappyPlayer struct {
	X int `yaml:"x"`
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Loop.UPS >= 0 && c.Loop.UPS <= 1000, "loop.ups must be within 0..1000, got %d", c.Loop.UPS)
	check(c.Loop.RefreshHz > 0, "loop.refresh_hz must be positive, got %v", c.Loop.RefreshHz)
	mode := strings.ToLower(c.Loop.RatioMode)
	check(mode == "" || mode == "fixed" || mode == "varied", "loop.ratio_mode must be fixed or varied, got %q", c.Loop.RatioMode)
	check(c.Loop.FrameBudgetMs >= 0, "loop.frame_budget_ms must not be negative")

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	check(c.Telemetry.Window > 0, "telemetry.window must be positive, got %d", c.Telemetry.Window)

	p := c.Games.Pong
	check(p.Physics.BallSpeed > 0, "games.pong.physics.ball_speed must be positive")
	check(p.Physics.MaxBallSpeed >= p.Physics.BallSpeed, "games.pong.physics.max_ball_speed must be at least ball_speed")
	check(p.Paddles.Height > 0 && p.Paddles.Width > 0, "games.pong.paddles must have a positive size")
	check(p.Gameplay.WinScore > 0, "games.pong.gameplay.win_score must be positive")
	check(p.Gameplay.AISkill >= 0 && p.Gameplay.AISkill <= 1, "games.pong.gameplay.ai_skill must be within 0..1")

	f := c.Games.Flappy
	check(f.Physics.Gravity > 0, "games.flappy.physics.gravity must be positive")
	check(f.Physics.JumpImpulse < 0, "games.flappy.physics.jump_impulse must be negative (upwards)")
	check(f.Obstacles.PipeWidth > 0, "games.flappy.obstacles.pipe_width must be positive")
	check(f.Obstacles.MinGap > 0 && f.Obstacles.MinGap <= f.Obstacles.MaxGap,
		"games.flappy.obstacles gap range %d..%d is invalid", f.Obstacles.MinGap, f.Obstacles.MaxGap)
	check(f.Obstacles.PipeSpacing > f.Obstacles.PipeWidth, "games.flappy.obstacles.pipe_spacing must exceed pipe_width")

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

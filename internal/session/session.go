// Package session wires one game to a surface buffer and an engine loop, and
// records the finished run.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/engine"
	"github.com/vovakirdan/arcadeloop/internal/interp"
	"github.com/vovakirdan/arcadeloop/internal/registry"
	"github.com/vovakirdan/arcadeloop/internal/storage"
	"github.com/vovakirdan/arcadeloop/internal/surface"
	"github.com/vovakirdan/arcadeloop/internal/telemetry"
)

// Run modes recorded in history.
const (
	ModePlay  = "play"
	ModeServe = "serve"
	ModeBench = "bench"
)

// Options describes a session.
type Options struct {
	GameID  string
	Mode    string
	Config  config.Config
	Runtime core.RuntimeConfig
	Logger  *log.Logger    // nil discards
	Store   *storage.Store // nil disables history
}

// Session is a game hosted on a loop.
type Session struct {
	Game    registry.Game
	Loop    *engine.Loop
	Surface *surface.Buffer
	Stats   *telemetry.Collector

	opts    Options
	refresh *engine.TickerRefresher
	started time.Time

	finishOnce sync.Once
	finished   storage.Run
	finishErr  error
}

// New builds the game and its loop. The loop is not started.
func New(opts Options) (*Session, error) {
	if !registry.Exists(opts.GameID) {
		return nil, fmt.Errorf("session: unknown game %q", opts.GameID)
	}
	cfg := opts.Config

	mode, err := engine.ParseRatioMode(cfg.Loop.RatioMode)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	rt := opts.Runtime
	if cfg.Loop.UPS > 0 {
		rt.UPS = cfg.Loop.UPS
	}
	opts.Runtime = rt

	logger := opts.Logger
	if logger != nil {
		logger = logger.With("game", opts.GameID)
	}

	reg := interp.NewRegistry()
	game, err := registry.Create(opts.GameID, registry.Env{
		Registry: reg,
		Runtime:  rt,
		Games:    cfg.Games,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	buf := surface.New()
	stats := telemetry.NewCollector(cfg.Telemetry.Window)
	refresh := engine.NewTickerRefresher(cfg.Loop.RefreshHz)

	loop, err := engine.New(game, buf, engine.Options{
		Registry:    reg,
		Refresher:   refresh,
		Mode:        mode,
		FrameBudget: time.Duration(cfg.Loop.FrameBudgetMs) * time.Millisecond,
		Logger:      logger,
		Observer:    stats,
		Debug:       cfg.Loop.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Session{
		Game:    game,
		Loop:    loop,
		Surface: buf,
		Stats:   stats,
		opts:    opts,
		refresh: refresh,
	}, nil
}

// Start starts the loop. Play begins once the surface has a size.
func (s *Session) Start() error {
	s.started = time.Now()
	return s.Loop.Start()
}

// Stop stops the loop if it is still active and returns the failure that
// ended it, if any. A transition already in flight is waited out.
func (s *Session) Stop() error {
	for s.Loop.IsActive() {
		err := s.Loop.Stop()
		if err == nil {
			return nil
		}
		if !errors.Is(err, engine.ErrTransitionInFlight) && !errors.Is(err, engine.ErrInvalidState) {
			return err
		}
		time.Sleep(time.Millisecond)
	}
	return s.Loop.Err()
}

// Report summarizes the session as a history row. Call it after Stop.
func (s *Session) Report() storage.Run {
	sum := s.Stats.Summary()
	r := storage.Run{
		GameID:     s.opts.GameID,
		Mode:       s.opts.Mode,
		UPS:        s.Game.TargetUPS(),
		RefreshHz:  float64(time.Second) / float64(s.refresh.Interval()),
		RatioMode:  s.opts.Config.Loop.RatioMode,
		Steps:      sum.Steps,
		Frames:     sum.Frames,
		Skipped:    sum.Skipped,
		Starved:    sum.Starved,
		Dropped:    sum.Dropped,
		StepAvgMs:  sum.StepInterval.Mean,
		FrameP95Ms: sum.FrameDuration.P95,
		Score:      s.Game.Score(),
	}
	if !s.started.IsZero() {
		r.Duration = time.Since(s.started)
	}
	if r.RatioMode == "" {
		r.RatioMode = engine.FixedDuration.String()
	}
	if err := s.Loop.Err(); err != nil {
		r.Failure = err.Error()
	}
	return r
}

// Finish records the run in the store and exports telemetry when configured.
// Call it after Stop. Later calls return the first result.
func (s *Session) Finish() (storage.Run, error) {
	s.finishOnce.Do(func() {
		s.finished, s.finishErr = s.finish()
	})
	return s.finished, s.finishErr
}

func (s *Session) finish() (storage.Run, error) {
	r := s.Report()
	var errs []error

	if s.opts.Store != nil {
		id, err := s.opts.Store.SaveRun(r)
		if err != nil {
			errs = append(errs, err)
		}
		r.ID = id
	}

	if dir := s.opts.Config.Telemetry.CSVDir; dir != "" {
		name := fmt.Sprintf("%s-%s.csv", r.GameID, time.Now().Format("20060102_150405"))
		if err := s.Stats.ExportCSV(filepath.Join(config.ExpandPath(dir), name)); err != nil {
			errs = append(errs, err)
		}
	}

	return r, errors.Join(errs...)
}

package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/engine"
	_ "github.com/vovakirdan/arcadeloop/internal/games/flappy"
	_ "github.com/vovakirdan/arcadeloop/internal/games/pong"
	"github.com/vovakirdan/arcadeloop/internal/storage"
)

func testOptions(t *testing.T, gameID string) Options {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.DB = ""
	return Options{
		GameID:  gameID,
		Mode:    ModeBench,
		Config:  cfg,
		Runtime: core.RuntimeConfig{ScreenW: 80, ScreenH: 24, UPS: 50, Seed: 1},
	}
}

func TestUnknownGame(t *testing.T) {
	if _, err := New(testOptions(t, "tetris")); err == nil {
		t.Error("expected an error for an unknown game")
	}
}

func TestBadRatioMode(t *testing.T) {
	opts := testOptions(t, "pong")
	opts.Config.Loop.RatioMode = "sometimes"
	if _, err := New(opts); err == nil {
		t.Error("expected an error for an invalid ratio mode")
	}
}

func TestUPSOverride(t *testing.T) {
	opts := testOptions(t, "pong")
	opts.Config.Loop.UPS = 100
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Game.TargetUPS() != 100 {
		t.Errorf("TargetUPS() = %d, expected the configured 100", s.Game.TargetUPS())
	}
}

func TestRunAndRecord(t *testing.T) {
	for _, id := range []string{"pong", "flappy"} {
		t.Run(id, func(t *testing.T) {
			store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
			if err != nil {
				t.Fatalf("storage.Open() error = %v", err)
			}
			defer store.Close()

			opts := testOptions(t, id)
			opts.Store = store
			opts.Config.Loop.Debug = true
			opts.Config.Telemetry.Window = 5
			opts.Config.Telemetry.CSVDir = t.TempDir()

			s, err := New(opts)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := s.Start(); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			if s.Loop.IsPlaying() {
				t.Fatal("loop should wait for the surface size")
			}
			s.Surface.SetSize(80, 24)

			deadline := time.Now().Add(2 * time.Second)
			for s.Stats.Totals().Steps < 10 {
				if time.Now().After(deadline) {
					t.Fatal("timed out waiting for steps")
				}
				time.Sleep(5 * time.Millisecond)
			}

			// The debug leak check passes only if the game deregistered everything.
			if err := s.Stop(); err != nil {
				t.Fatalf("Stop() error = %v", err)
			}
			if s.Loop.State() != engine.StateStopped {
				t.Fatalf("state = %v after Stop", s.Loop.State())
			}

			r, err := s.Finish()
			if err != nil {
				t.Fatalf("Finish() error = %v", err)
			}
			if r.ID == 0 || r.Steps < 10 || r.Mode != ModeBench || r.Failure != "" {
				t.Errorf("unexpected run %+v", r)
			}

			runs, err := store.RunsForGame(id, 10)
			if err != nil || len(runs) != 1 {
				t.Fatalf("RunsForGame() = %d runs, %v", len(runs), err)
			}

			files, _ := os.ReadDir(opts.Config.Telemetry.CSVDir)
			if len(files) != 1 {
				t.Errorf("expected one telemetry CSV, found %d", len(files))
			}
		})
	}
}

func TestStopBeforeSurfaceReady(t *testing.T) {
	s, err := New(testOptions(t, "pong"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !s.Surface.Released() {
		t.Error("surface should be released")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() = %v, expected nil for a stopped session", err)
	}
	if err := s.Loop.Start(); !errors.Is(err, engine.ErrNotRestartable) {
		t.Errorf("Start() after stop = %v", err)
	}
}

func TestFinishRecordsOnce(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	defer store.Close()

	opts := testOptions(t, "flappy")
	opts.Store = store
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	first, _ := s.Finish()
	second, _ := s.Finish()
	if first.ID != second.ID {
		t.Errorf("Finish() ids %d and %d, expected the same run", first.ID, second.ID)
	}
	runs, _ := store.RecentRuns(10)
	if len(runs) != 1 {
		t.Errorf("recorded %d runs, expected 1", len(runs))
	}
}

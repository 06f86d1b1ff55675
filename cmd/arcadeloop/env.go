package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/session"
	"github.com/vovakirdan/arcadeloop/internal/storage"
)

// logFileName is where logs go while a game owns the terminal.
const logFileName = "arcadeloop.log"

// env is the state shared by subcommands: configuration with flag
// overrides applied, the logger and the run history store.
type env struct {
	cfg     config.Config
	cfgPath string
	logger  *log.Logger
	store   *storage.Store
	closers []io.Closer
}

// setup loads configuration and applies flags. With toFile set, logs are
// written to the log file instead of stderr.
func setup(cmd *cobra.Command, toFile bool) (*env, error) {
	cfg, path, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, cfgPath: path}

	var w io.Writer = os.Stderr
	if toFile {
		f, err := openLogFile(cfg.Log.File)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, f)
		w = f
	}
	e.logger = newLogger(w, cfg.Log.Level)
	if path != "" {
		e.logger.Debug("loaded configuration", "path", path)
	}

	if cfg.Storage.DB != "" {
		store, err := storage.Open(cfg.Storage.DB)
		if err != nil {
			// Continue without history - games still work
			e.logger.Warn("could not open run history", "err", err)
		} else {
			e.store = store
			e.closers = append(e.closers, store)
		}
	}
	return e, nil
}

// applyFlags overrides configuration values with flags that were set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("ups") {
		cfg.Loop.UPS = flagUPS
	}
	if flags.Changed("refresh") {
		cfg.Loop.RefreshHz = flagRefresh
	}
	if flags.Changed("ratio") {
		cfg.Loop.RatioMode = flagRatio
	}
	if flags.Changed("db") {
		cfg.Storage.DB = flagDBPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("debug") {
		cfg.Loop.Debug = flagDebug
	}
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "arcadeloop",
	})
	if lvl, err := log.ParseLevel(strings.ToLower(level)); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		dir := config.HomeDir()
		if dir == "" {
			dir = os.TempDir()
		}
		path = filepath.Join(dir, logFileName)
	}
	path = config.ExpandPath(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file: %w", err)
	}
	return f, nil
}

// options builds session options for a game at the given size.
func (e *env) options(gameID, mode string, width, height int) session.Options {
	return session.Options{
		GameID: gameID,
		Mode:   mode,
		Config: e.cfg,
		Runtime: core.RuntimeConfig{
			ScreenW: width,
			ScreenH: height,
			Seed:    flagSeed,
		},
		Logger: e.logger,
		Store:  e.store,
	}
}

// Close releases the store and the log file.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close()
	}
}

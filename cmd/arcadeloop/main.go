// arcadeloop runs terminal games on a fixed-step update loop with
// interpolated presentation.
//
// Usage:
//
//	arcadeloop list              - List available games
//	arcadeloop play [game]       - Play a game, or pick one from the menu
//	arcadeloop bench <game>      - Run a game headless and report loop timing
//	arcadeloop runs [game]       - Show recorded runs
//	arcadeloop serve             - Start SSH server for remote play
//
// Global flags:
//
//	--config <path>   - Configuration file (default: search path)
//	--ups <rate>      - Override the game's updates per second
//	--refresh <hz>    - Presentation refresh rate
//	--ratio <mode>    - Interpolation ratio: fixed or varied
//	--seed <value>    - Set RNG seed for reproducible gameplay
//	--db <path>       - Run history database
//	--log-level <l>   - debug, info, warn or error
//	--debug           - Check for leaked registrations on stop
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Import games to register them
	_ "github.com/vovakirdan/arcadeloop/internal/games/flappy"
	_ "github.com/vovakirdan/arcadeloop/internal/games/pong"
)

var (
	// Global flags
	flagConfig   string
	flagUPS      int
	flagRefresh  float64
	flagRatio    string
	flagSeed     int64
	flagDBPath   string
	flagLogLevel string
	flagDebug    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arcadeloop",
	Short: "Terminal games on a fixed-step, interpolated game loop",
	Long: `arcadeloop plays terminal games on a real-time loop: the simulation
steps at a fixed rate while frames are painted on every display refresh,
interpolating between the last two simulation states.

Available commands:
  list     - Show all available games
  play     - Play a game directly or pick one from the menu
  bench    - Run a game headless and report loop timing
  runs     - Show recorded runs
  serve    - Start SSH server for remote play

Examples:
  arcadeloop list
  arcadeloop play pong
  arcadeloop play flappy --ups 100 --ratio varied
  arcadeloop bench pong --duration 10s --csv pong.csv
  arcadeloop runs flappy
  arcadeloop serve --ssh :2222`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to arcadeloop.yaml")
	pf.IntVar(&flagUPS, "ups", 0, "Simulation updates per second (0 = game default)")
	pf.Float64Var(&flagRefresh, "refresh", 0, "Presentation refresh rate in Hz (0 = config)")
	pf.StringVar(&flagRatio, "ratio", "", "Interpolation ratio mode: fixed or varied")
	pf.Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	pf.StringVar(&flagDBPath, "db", "", "Path to run history database (default from config)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&flagDebug, "debug", false, "Report objects left registered when a loop stops")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
}

// fail prints an error the way every subcommand reports it and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

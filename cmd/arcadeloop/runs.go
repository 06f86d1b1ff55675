package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcadeloop/internal/platform/tui"
	"github.com/vovakirdan/arcadeloop/internal/registry"
	"github.com/vovakirdan/arcadeloop/internal/storage"
)

var (
	flagRunsLimit int
	flagRunsTUI   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs [game]",
	Short: "Show recorded runs",
	Long: `Show the most recent recorded runs, optionally for one game.

Examples:
  arcadeloop runs
  arcadeloop runs pong --limit 5
  arcadeloop runs --tui`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 20, "Maximum number of runs to show")
	runsCmd.Flags().BoolVar(&flagRunsTUI, "tui", false, "Browse runs interactively")
}

func runRuns(cmd *cobra.Command, args []string) {
	gameID := ""
	if len(args) == 1 {
		gameID = args[0]
		if !registry.Exists(gameID) {
			fail("unknown game %q", gameID)
		}
	}

	e, err := setup(cmd, flagRunsTUI)
	if err != nil {
		fail("%v", err)
	}
	defer e.Close()

	if e.store == nil {
		e.Close()
		fail("run history is not available (set storage.db in the config or pass --db)")
	}

	if flagRunsTUI {
		if err := tui.RunHistory(e.store, gameID); err != nil {
			e.Close()
			fail("%v", err)
		}
		return
	}

	var runs []storage.Run
	if gameID == "" {
		runs, err = e.store.RecentRuns(flagRunsLimit)
	} else {
		runs, err = e.store.RunsForGame(gameID, flagRunsLimit)
	}
	if err != nil {
		e.Close()
		fail("%v", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tGAME\tMODE\tSCORE\tTIME\tUPS\tSTEP MS\tFRAME P95\tSKIPPED\tRESULT")
	for _, r := range runs {
		result := "ok"
		if r.Failure != "" {
			result = "failed: " + r.Failure
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%.2f\t%.2f\t%d\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.GameID, r.Mode, r.Score,
			r.Duration.Truncate(100*time.Millisecond), r.UPS, r.StepAvgMs, r.FrameP95Ms, r.Skipped, result)
	}
	tw.Flush()

	if gameID != "" {
		stats, err := e.store.Stats(gameID)
		if err != nil {
			e.logger.Warn("could not load stats", "game", gameID, "err", err)
			return
		}
		fmt.Printf("\n%d runs, %d failed, best score %d, mean step interval %.2f ms\n",
			stats.Runs, stats.Failures, stats.BestScore, stats.AvgStepMs)
	}
}

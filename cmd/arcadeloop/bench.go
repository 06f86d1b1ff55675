package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcadeloop/internal/registry"
	"github.com/vovakirdan/arcadeloop/internal/session"
	"github.com/vovakirdan/arcadeloop/internal/telemetry"
)

var (
	flagBenchDuration time.Duration
	flagBenchWidth    int
	flagBenchHeight   int
	flagBenchCSV      string
)

var benchCmd = &cobra.Command{
	Use:   "bench <game>",
	Short: "Run a game headless and report loop timing",
	Long: `Run a game without a terminal for a fixed time and print step and frame
timing. Frames are painted into an off-screen surface. No input is sent,
so most games end up idling on their game-over screen.

Examples:
  arcadeloop bench pong
  arcadeloop bench flappy --duration 30s --ups 120
  arcadeloop bench pong --ratio varied --csv pong.csv`,
	Args: cobra.ExactArgs(1),
	Run:  runBench,
}

func init() {
	benchCmd.Flags().DurationVar(&flagBenchDuration, "duration", 5*time.Second, "How long to run the loop")
	benchCmd.Flags().IntVar(&flagBenchWidth, "width", 80, "Surface width in cells")
	benchCmd.Flags().IntVar(&flagBenchHeight, "height", 24, "Surface height in cells")
	benchCmd.Flags().StringVar(&flagBenchCSV, "csv", "", "Write per-window samples to this CSV file")
}

func runBench(cmd *cobra.Command, args []string) {
	gameID := args[0]
	if !registry.Exists(gameID) {
		fmt.Fprintf(os.Stderr, "Error: unknown game %q\n", gameID)
		fmt.Fprintln(os.Stderr, "Run 'arcadeloop list' to see available games.")
		os.Exit(1)
	}
	if flagBenchWidth < 1 || flagBenchHeight < 1 {
		fail("surface size must be positive, got %dx%d", flagBenchWidth, flagBenchHeight)
	}

	e, err := setup(cmd, false)
	if err != nil {
		fail("%v", err)
	}
	defer e.Close()

	sess, err := session.New(e.options(gameID, session.ModeBench, flagBenchWidth, flagBenchHeight))
	if err != nil {
		e.Close()
		fail("%v", err)
	}
	if err := sess.Start(); err != nil {
		e.Close()
		fail("starting %s: %v", gameID, err)
	}
	sess.Surface.SetSize(flagBenchWidth, flagBenchHeight)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Benchmarking %s for %s at %dx%d...\n", gameID, flagBenchDuration, flagBenchWidth, flagBenchHeight)

	timer := time.NewTimer(flagBenchDuration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-sess.Loop.Done():
	case <-ctx.Done():
		fmt.Println("Interrupted.")
	}

	stopErr := sess.Stop()
	run, finishErr := sess.Finish()

	if flagBenchCSV != "" {
		if err := sess.Stats.ExportCSV(flagBenchCSV); err != nil {
			e.logger.Error("could not write samples", "path", flagBenchCSV, "err", err)
		} else {
			fmt.Printf("Samples written to %s\n", flagBenchCSV)
		}
	}
	if finishErr != nil {
		e.logger.Warn("could not record run", "err", finishErr)
	}

	printSummary(run.UPS, sess.Loop.Period(), sess.Stats.Summary())

	if stopErr != nil {
		e.Close()
		fail("loop failed: %v", stopErr)
	}
}

func printSummary(ups int, period time.Duration, s telemetry.Summary) {
	fmt.Println()
	fmt.Printf("  Rate:          %d ups (period %s)\n", ups, period)
	fmt.Printf("  Steps:         %d\n", s.Steps)
	fmt.Printf("  Frames:        %d painted, %d skipped, %d starved\n", s.Frames, s.Skipped, s.Starved)
	fmt.Printf("  Dropped:       %d snapshots\n", s.Dropped)
	fmt.Println()
	fmt.Printf("  Step interval: %s\n", s.StepInterval)
	fmt.Printf("  Step time:     %s\n", s.StepDuration)
	fmt.Printf("  Frame time:    %s\n", s.FrameDuration)
	fmt.Printf("  Ratio:         %s\n", s.Ratio)
}

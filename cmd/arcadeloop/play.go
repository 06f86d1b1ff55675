package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/arcadeloop/internal/platform/tui"
	"github.com/vovakirdan/arcadeloop/internal/registry"
	"github.com/vovakirdan/arcadeloop/internal/session"
)

var playCmd = &cobra.Command{
	Use:   "play [game]",
	Short: "Play a game",
	Long: `Start playing the specified game, or pick one from the menu when no
game is given. Play begins once the terminal reports its size.

Controls:
  Space/Up   - Jump/Flap, paddle up
  Down       - Paddle down
  P          - Pause / resume the loop
  R          - Restart (after game over)
  Esc        - Back to the menu
  Q/Ctrl+C   - Quit

Logs are written to ~/.arcadeloop/arcadeloop.log while playing.

Examples:
  arcadeloop play
  arcadeloop play pong
  arcadeloop play flappy --ups 100 --ratio varied
  arcadeloop play flappy --config ./my-config.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runPlay,
}

func runPlay(cmd *cobra.Command, args []string) {
	gameID := ""
	if len(args) == 1 {
		gameID = args[0]
		if !registry.Exists(gameID) {
			fmt.Fprintf(os.Stderr, "Error: unknown game %q\n", gameID)
			fmt.Fprintln(os.Stderr, "Run 'arcadeloop list' to see available games.")
			os.Exit(1)
		}
	}

	e, err := setup(cmd, true)
	if err != nil {
		fail("%v", err)
	}
	defer e.Close()

	// The initial size only seeds game layout; the loop waits for the
	// terminal's own size report.
	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}

	opts := e.options(gameID, session.ModePlay, width, height)
	if gameID == "" {
		if err := tui.RunArcade(opts); err != nil {
			e.Close()
			fail("%v", err)
		}
		return
	}

	run, err := tui.RunGame(opts)
	if err != nil {
		e.Close()
		fail("running %s: %v", gameID, err)
	}

	fmt.Printf("%s: score %d, %d steps and %d frames in %s\n",
		gameID, run.Score, run.Steps, run.Frames, run.Duration.Truncate(time.Second/10))
}

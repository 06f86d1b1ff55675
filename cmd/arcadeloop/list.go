package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available games",
	Long:  `Shows every registered game with its default update rate.`,
	Run:   runList,
}

func runList(cmd *cobra.Command, args []string) {
	games := registry.List()

	if len(games) == 0 {
		fmt.Println("No games available.")
		return
	}

	cfg := config.Default()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, g := range games {
		maxIDLen = max(maxIDLen, len(g.ID))
	}

	fmt.Println("Available games:")
	fmt.Println()
	fmt.Printf("  %-*s  %-12s  %s\n", maxIDLen, "ID", "Title", "UPS")
	fmt.Printf("  %-*s  %-12s  %s\n", maxIDLen, "--", "-----", "---")

	for _, g := range games {
		ups := "?"
		if game, err := registry.Create(g.ID, registry.Env{Runtime: core.RuntimeConfig{ScreenW: 80, ScreenH: 24}, Games: cfg.Games}); err == nil {
			ups = fmt.Sprintf("%d", game.TargetUPS())
		}
		fmt.Printf("  %-*s  %-12s  %s\n", maxIDLen, g.ID, g.Title, ups)
	}

	fmt.Println()
	fmt.Println("Run 'arcadeloop play <id>' to play a game.")
}

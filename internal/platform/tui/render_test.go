package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/engine"
	"github.com/vovakirdan/arcadeloop/internal/telemetry"
)

// plainRenderer renders without ANSI sequences so output can be compared.
func plainRenderer() *Renderer {
	r := lipgloss.NewRenderer(&strings.Builder{})
	r.SetColorProfile(termenv.Ascii)
	return NewRenderer(r)
}

func TestRenderScreen(t *testing.T) {
	s := core.NewScreen(6, 2)
	s.SetPen(core.ColorRed)
	s.DrawText(0, 0, "ab")
	s.SetPen(core.ColorGray)
	s.DrawText(2, 0, "cd")
	s.SetPen(core.ColorDefault)
	s.DrawText(0, 1, "xyz")

	got := plainRenderer().Screen(s)
	want := "abcd  \nxyz   "
	if got != want {
		t.Errorf("Screen() = %q, expected %q", got, want)
	}
}

func TestStatusBar(t *testing.T) {
	r := plainRenderer()
	info := StatusInfo{
		Title:  "Pong",
		State:  engine.StatePaused,
		UPS:    50,
		Totals: telemetry.Counters{Steps: 120, Frames: 140, Skipped: 2},
		Help:   "q quit",
	}

	line := r.Status(info, 100)
	for _, part := range []string{"PAUSED", "Pong", "50 ups", "steps 120", "frames 140", "skipped 2", "q quit"} {
		if !strings.Contains(line, part) {
			t.Errorf("status %q is missing %q", line, part)
		}
	}
	if w := lipgloss.Width(line); w != 100 {
		t.Errorf("status width = %d, expected 100", w)
	}

	if narrow := r.Status(info, 20); lipgloss.Width(narrow) > 20 {
		t.Errorf("narrow status width = %d, expected at most 20", lipgloss.Width(narrow))
	}
}

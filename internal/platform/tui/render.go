package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/engine"
	"github.com/vovakirdan/arcadeloop/internal/telemetry"
)

// palette maps core.Color to ANSI 256-color codes.
var palette = map[core.Color]string{
	core.ColorRed:           "1",
	core.ColorGreen:         "2",
	core.ColorYellow:        "3",
	core.ColorBlue:          "4",
	core.ColorMagenta:       "5",
	core.ColorCyan:          "6",
	core.ColorWhite:         "7",
	core.ColorBrightRed:     "9",
	core.ColorBrightGreen:   "10",
	core.ColorBrightYellow:  "11",
	core.ColorBrightBlue:    "12",
	core.ColorBrightMagenta: "13",
	core.ColorBrightCyan:    "14",
	core.ColorBrightWhite:   "15",
	core.ColorOrange:        "208",
	core.ColorGray:          "245",
}

// Renderer turns presented frames into styled terminal output. With a nil
// lipgloss renderer the default one (stdout) is used; SSH sessions pass their
// own so colors match the remote terminal.
type Renderer struct {
	cells  map[core.Color]lipgloss.Style
	status lipgloss.Style
	state  map[engine.State]lipgloss.Style
	dim    lipgloss.Style
}

// NewRenderer creates a renderer bound to r.
func NewRenderer(r *lipgloss.Renderer) *Renderer {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	cells := make(map[core.Color]lipgloss.Style, len(palette)+1)
	cells[core.ColorDefault] = r.NewStyle()
	for c, code := range palette {
		cells[c] = r.NewStyle().Foreground(lipgloss.Color(code))
	}

	badge := r.NewStyle().Bold(true).Padding(0, 1)
	return &Renderer{
		cells:  cells,
		status: r.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")),
		state: map[engine.State]lipgloss.Style{
			engine.StateStarting: badge.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")),
			engine.StatePlaying:  badge.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2")),
			engine.StatePaused:   badge.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
			engine.StateStopped:  badge.Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")),
		},
		dim: r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Screen converts a Screen buffer to a styled string.
// Adjacent cells of one color share a single style run.
func (r *Renderer) Screen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	var run strings.Builder
	for y := range s.Height() {
		if y > 0 {
			sb.WriteByte('\n')
		}

		x := 0
		for x < s.Width() {
			color := s.GetCell(x, y).Color
			run.Reset()
			for ; x < s.Width(); x++ {
				cell := s.GetCell(x, y)
				if cell.Color != color {
					break
				}
				run.WriteRune(cell.Rune)
			}

			style, ok := r.cells[color]
			if !ok {
				style = r.cells[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// StatusInfo is what the status bar shows.
type StatusInfo struct {
	Title  string
	State  engine.State
	UPS    int
	Totals telemetry.Counters
	Help   string
}

// Status renders a one-line status bar of the given width.
func (r *Renderer) Status(info StatusInfo, width int) string {
	badgeStyle, ok := r.state[info.State]
	if !ok {
		badgeStyle = r.state[engine.StateStarting]
	}
	badge := badgeStyle.Render(strings.ToUpper(info.State.String()))

	t := info.Totals
	stats := fmt.Sprintf(" %s  %d ups  steps %d  frames %d  skipped %d ",
		info.Title, info.UPS, t.Steps, t.Frames, t.Skipped)

	left := badge + r.status.Render(stats)
	help := r.dim.Render(info.Help)

	gap := width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 1 {
		return lipgloss.NewStyle().MaxWidth(max(width, 0)).Render(left)
	}
	return left + r.status.Render(strings.Repeat(" ", gap)) + help
}

package tui

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/arcadeloop/internal/session"
	"github.com/vovakirdan/arcadeloop/internal/storage"
)

// screen identifies the active part of an arcade session.
type screen int

const (
	screenMenu screen = iota
	screenGame
	screenRuns
)

// liveGame tracks the session a connection is playing so it can be stopped
// when the connection goes away without the model noticing.
type liveGame struct {
	mu   sync.Mutex
	sess *session.Session
}

func (l *liveGame) set(s *session.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sess = s
}

// shutdown stops and records the current session, if any.
func (l *liveGame) shutdown() error {
	l.mu.Lock()
	s := l.sess
	l.sess = nil
	l.mu.Unlock()

	if s == nil {
		return nil
	}
	err := s.Stop()
	if _, ferr := s.Finish(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

// ArcadeModel manages the full arcade flow: menu -> game -> menu, plus the
// run history. Each game gets its own session and loop.
type ArcadeModel struct {
	base   session.Options // GameID and screen size are filled per game
	render *Renderer
	live   *liveGame
	width  int
	height int

	screen   screen
	menu     MenuModel
	game     GameModel
	runs     RunsModel
	quitting bool
}

// NewArcadeModel creates an arcade flow. base supplies everything but the game.
func NewArcadeModel(base session.Options, render *Renderer) ArcadeModel {
	if render == nil {
		render = NewRenderer(nil)
	}
	w, h := base.Runtime.ScreenW, base.Runtime.ScreenH
	return ArcadeModel{
		base:   base,
		render: render,
		live:   &liveGame{},
		width:  w,
		height: h,
		menu:   NewMenuModel(w, h, ""),
	}
}

// Init initializes the arcade.
func (m ArcadeModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the arcade.
func (m ArcadeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	switch m.screen {
	case screenGame:
		return m.updateGame(msg)
	case screenRuns:
		return m.updateRuns(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode.
func (m ArcadeModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if menu, ok := next.(MenuModel); ok {
		m.menu = menu
	}

	switch {
	case m.menu.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.menu.WantsRuns():
		m.runs = NewRunsModel(m.base.Store, m.width, m.height)
		m.screen = screenRuns
		return m, m.runs.Init()

	case m.menu.Selected() != nil:
		return m.startGame(m.menu.Selected().ID)
	}
	return m, cmd
}

// startGame builds a session for gameID and hands it the current size.
func (m ArcadeModel) startGame(gameID string) (tea.Model, tea.Cmd) {
	opts := m.base
	opts.GameID = gameID
	opts.Runtime.ScreenW = m.width
	opts.Runtime.ScreenH = m.height
	if opts.Runtime.Seed == 0 {
		opts.Runtime.Seed = time.Now().UnixNano()
	}

	game, err := NewGameModel(opts, m.render)
	if err != nil {
		m.menu = NewMenuModel(m.width, m.height, fmt.Sprintf("could not start %s: %v", gameID, err))
		return m, nil
	}
	m.live.set(game.Session())

	// The surface becomes ready with the first size.
	next, sizeCmd := game.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	m.game = next.(GameModel)
	m.screen = screenGame
	return m, tea.Batch(m.game.Init(), sizeCmd)
}

// updateGame handles updates when in game mode.
func (m ArcadeModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.game.Update(msg)
	if game, ok := next.(GameModel); ok {
		m.game = game
	}

	if m.game.IsQuitting() {
		m.live.set(nil)
		m.quitting = true
		return m, tea.Quit
	}

	if m.game.BackToMenu() || m.game.finished {
		m.live.set(nil)
		m.screen = screenMenu
		m.menu = NewMenuModel(m.width, m.height, runNotice(m.game.Run(), m.game.Err()))
		return m, m.menu.Init()
	}
	return m, cmd
}

// updateRuns handles updates when browsing run history.
func (m ArcadeModel) updateRuns(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.runs.Update(msg)
	if runs, ok := next.(RunsModel); ok {
		m.runs = runs
	}

	switch {
	case m.runs.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.runs.IsGoingBack():
		m.screen = screenMenu
		m.menu = NewMenuModel(m.width, m.height, "")
		return m, m.menu.Init()
	}
	return m, cmd
}

// View renders the current view.
func (m ArcadeModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case screenGame:
		return m.game.View()
	case screenRuns:
		return m.runs.View()
	}
	return m.menu.View()
}

// Shutdown stops a game still running when the program exits.
func (m ArcadeModel) Shutdown() error {
	return m.live.shutdown()
}

// runNotice summarizes a finished run for the menu.
func runNotice(r storage.Run, err error) string {
	if err != nil {
		return fmt.Sprintf("%s stopped: %v", r.GameID, err)
	}
	return fmt.Sprintf("last run: %s, score %d, %d steps in %s",
		r.GameID, r.Score, r.Steps, r.Duration.Truncate(time.Second))
}

// RunArcade runs the menu-driven arcade in the current terminal.
func RunArcade(base session.Options) error {
	model := NewArcadeModel(base, nil)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()

	// Any game left running belongs to this program.
	if serr := model.Shutdown(); serr != nil && err == nil {
		err = serr
	}
	return err
}

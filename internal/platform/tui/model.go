// Package tui hosts engine loops in the terminal with Bubble Tea. The terminal
// is the loop's surface: window size messages make it ready, presented frames
// trigger a redraw, and keys become input frames or loop control calls.
package tui

import (
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/engine"
	"github.com/vovakirdan/arcadeloop/internal/session"
	"github.com/vovakirdan/arcadeloop/internal/storage"
)

// statusLines is the number of terminal rows reserved below the game.
const statusLines = 1

// frameMsg is sent each time the surface of sess publishes a frame.
type frameMsg struct{ sess *session.Session }

// loopDoneMsg is sent once the loop of sess reaches Stopped.
type loopDoneMsg struct{ sess *session.Session }

// waitForFrame blocks until the next presented frame.
func waitForFrame(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-sess.Surface.Presented(); !ok {
			return loopDoneMsg{sess}
		}
		return frameMsg{sess}
	}
}

// waitForStop blocks until the loop stops.
func waitForStop(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		<-sess.Loop.Done()
		return loopDoneMsg{sess}
	}
}

// GameModel is the Bubble Tea model for one running game.
type GameModel struct {
	sess   *session.Session
	render *Renderer
	logger *log.Logger
	keys   GameKeyMap
	help   help.Model
	width  int
	height int

	standalone bool // quit the program when the game ends
	finished   bool
	quitting   bool
	back       bool
	run        storage.Run
	err        error
}

// NewGameModel builds and starts a session. Play begins with the first
// window size message.
func NewGameModel(opts session.Options, render *Renderer) (GameModel, error) {
	sess, err := session.New(opts)
	if err != nil {
		return GameModel{}, err
	}
	if err := sess.Start(); err != nil {
		return GameModel{}, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if render == nil {
		render = NewRenderer(nil)
	}

	h := help.New()
	h.ShowAll = false

	return GameModel{
		sess:   sess,
		render: render,
		logger: logger,
		keys:   DefaultGameKeyMap(),
		help:   h,
		width:  opts.Runtime.ScreenW,
		height: opts.Runtime.ScreenH,
	}, nil
}

// Init waits for the first frame and for the loop to stop.
func (m GameModel) Init() tea.Cmd {
	return tea.Batch(
		waitForFrame(m.sess),
		waitForStop(m.sess),
	)
}

// Update handles messages and updates the model state.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.sess.Surface.SetSize(msg.Width, max(msg.Height-statusLines, 1))
		return m, nil

	case frameMsg:
		if msg.sess != m.sess || m.finished {
			return m, nil
		}
		return m, waitForFrame(m.sess)

	case loopDoneMsg:
		if msg.sess != m.sess || m.finished {
			return m, nil
		}
		// The loop stopped without being asked to: the game failed.
		m.finish()
		if m.standalone {
			m.quitting = true
			return m, tea.Quit
		}
		m.back = true
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m GameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.finish()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.finish()
		m.back = true
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.togglePause()
		return m, nil
	}

	if action := m.keys.Action(msg); action != core.ActionNone {
		err := m.sess.Loop.Deliver(core.NewInputFrame(action))
		if err != nil && !errors.Is(err, engine.ErrNotPlaying) {
			m.logger.Warn("input dropped", "action", action, "err", err)
		}
	}
	return m, nil
}

func (m GameModel) togglePause() {
	loop := m.sess.Loop
	var err error
	switch loop.State() {
	case engine.StatePlaying:
		err = loop.Pause()
	case engine.StatePaused:
		err = loop.Resume()
	default:
		return
	}
	if err != nil {
		m.logger.Warn("pause toggle failed", "err", err)
	}
}

// finish stops the loop and records the run once.
func (m *GameModel) finish() {
	if m.finished {
		return
	}
	m.finished = true

	m.err = m.sess.Stop()
	run, err := m.sess.Finish()
	if err != nil {
		m.logger.Warn("could not record run", "err", err)
	}
	m.run = run
	m.logger.Info("run finished", "score", run.Score, "steps", run.Steps, "frames", run.Frames, "duration", run.Duration)
}

// View renders the latest presented frame and the status bar.
func (m GameModel) View() string {
	if m.quitting || m.back {
		return ""
	}

	scr := m.sess.Surface.View()
	state := m.sess.Loop.State()
	switch {
	case state == engine.StateStarting:
		scr = core.NewScreen(max(m.width, 1), max(m.height-statusLines, 1))
		scr.DrawTextCentered(scr.Height()/2, "waiting for terminal size...")
	case state == engine.StatePaused:
		scr.DrawMessage("PAUSED", "Press P to resume")
	}

	status := m.render.Status(StatusInfo{
		Title:  m.sess.Game.Title(),
		State:  state,
		UPS:    m.sess.Game.TargetUPS(),
		Totals: m.sess.Stats.Totals(),
		Help:   m.help.View(m.keys),
	}, m.width)

	return m.render.Screen(scr) + "\n" + status
}

// Session returns the hosted session.
func (m GameModel) Session() *session.Session {
	return m.sess
}

// Run returns the recorded run. Valid once the model has finished.
func (m GameModel) Run() storage.Run {
	return m.run
}

// Err returns the failure that stopped the loop, if any.
func (m GameModel) Err() error {
	return m.err
}

// BackToMenu returns true if user requested to go back to menu.
func (m GameModel) BackToMenu() bool {
	return m.back
}

// IsQuitting returns true if user requested to quit entirely.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// RunGame plays a single game in the current terminal and returns the
// recorded run.
func RunGame(opts session.Options) (storage.Run, error) {
	model, err := NewGameModel(opts, nil)
	if err != nil {
		return storage.Run{}, err
	}

	model.standalone = true

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, runErr := p.Run()

	gm, ok := final.(GameModel)
	if !ok {
		gm = model
	}
	// The loop must not outlive the program.
	gm.finish()
	return gm.run, errors.Join(runErr, gm.err)
}

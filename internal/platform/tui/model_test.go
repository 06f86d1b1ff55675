package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/engine"
	_ "github.com/vovakirdan/arcadeloop/internal/games/flappy"
	_ "github.com/vovakirdan/arcadeloop/internal/games/pong"
	"github.com/vovakirdan/arcadeloop/internal/session"
)

func testOptions(gameID string) session.Options {
	return session.Options{
		GameID:  gameID,
		Mode:    session.ModePlay,
		Config:  config.Default(),
		Runtime: core.RuntimeConfig{ScreenW: 80, ScreenH: 25, UPS: 50, Seed: 1},
	}
}

func newTestGameModel(t *testing.T) GameModel {
	t.Helper()
	m, err := NewGameModel(testOptions("pong"), plainRenderer())
	if err != nil {
		t.Fatalf("NewGameModel() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Session().Stop() })
	return m
}

func update(t *testing.T, m GameModel, msg tea.Msg) (GameModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	gm, ok := next.(GameModel)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return gm, cmd
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestGameModelWaitsForSize(t *testing.T) {
	m := newTestGameModel(t)
	loop := m.Session().Loop

	if loop.State() != engine.StateStarting {
		t.Fatalf("state = %v before the first size", loop.State())
	}
	if !strings.Contains(m.View(), "waiting for terminal size") {
		t.Error("view should say the loop is waiting")
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})
	if !loop.IsPlaying() {
		t.Fatalf("state = %v after the first size", loop.State())
	}

	w, h := m.Session().Surface.Dimensions()
	if w != 80 || h != 25-statusLines {
		t.Errorf("surface %dx%d, expected 80x%d", w, h, 25-statusLines)
	}
}

func TestGameModelPauseToggle(t *testing.T) {
	m := newTestGameModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})
	loop := m.Session().Loop

	waitUntil(t, "a presented frame", func() bool { return m.Session().Surface.Frames() > 0 })

	m, _ = update(t, m, keyMsg("p"))
	if loop.State() != engine.StatePaused {
		t.Fatalf("state = %v after pause", loop.State())
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view should show the pause message")
	}

	m, _ = update(t, m, keyMsg("p"))
	if !loop.IsPlaying() {
		t.Fatalf("state = %v after resume", loop.State())
	}
}

func TestGameModelQuitRecordsRun(t *testing.T) {
	m := newTestGameModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})
	waitUntil(t, "steps", func() bool { return m.Session().Stats.Totals().Steps > 3 })

	m, cmd := update(t, m, keyMsg("q"))
	if cmd == nil || !m.IsQuitting() {
		t.Fatal("q should quit")
	}
	if m.Session().Loop.State() != engine.StateStopped {
		t.Errorf("state = %v after quit", m.Session().Loop.State())
	}
	if r := m.Run(); r.GameID != "pong" || r.Steps == 0 || r.Mode != session.ModePlay {
		t.Errorf("unexpected run %+v", r)
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestGameModelIgnoresOtherSessions(t *testing.T) {
	m := newTestGameModel(t)
	other := newTestGameModel(t)

	m, cmd := update(t, m, loopDoneMsg{other.Session()})
	if cmd != nil || m.finished {
		t.Error("a stop from another session must be ignored")
	}

	m, cmd = update(t, m, frameMsg{other.Session()})
	if cmd != nil {
		t.Error("a frame from another session must not schedule a wait")
	}
}

func TestGameModelDeliversInput(t *testing.T) {
	m := newTestGameModel(t)

	// Not playing yet: the key is dropped without error.
	m, _ = update(t, m, keyMsg(" "))

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 25})
	m, _ = update(t, m, keyMsg("up"))
	if !m.Session().Loop.IsPlaying() {
		t.Error("input must not disturb the loop")
	}
}

func TestArcadeMenuToGameAndBack(t *testing.T) {
	a := NewArcadeModel(testOptions(""), plainRenderer())
	defer a.Shutdown()

	next, _ := a.Update(tea.WindowSizeMsg{Width: 80, Height: 25})
	a = next.(ArcadeModel)
	if !strings.Contains(a.View(), "Select a game") {
		t.Fatal("arcade should open on the menu")
	}

	next, _ = a.Update(keyMsg("enter"))
	a = next.(ArcadeModel)
	if a.screen != screenGame {
		t.Fatalf("screen = %v after selecting a game", a.screen)
	}
	sess := a.game.Session()
	if !sess.Loop.IsPlaying() {
		t.Fatalf("state = %v, the game should start at the current size", sess.Loop.State())
	}

	next, _ = a.Update(keyMsg("esc"))
	a = next.(ArcadeModel)
	if a.screen != screenMenu {
		t.Fatalf("screen = %v after esc", a.screen)
	}
	if sess.Loop.State() != engine.StateStopped {
		t.Errorf("state = %v, leaving a game must stop its loop", sess.Loop.State())
	}
	if !strings.Contains(a.View(), "last run:") {
		t.Error("menu should report the finished run")
	}
}

func TestArcadeRunsScreen(t *testing.T) {
	a := NewArcadeModel(testOptions(""), plainRenderer())

	next, _ := a.Update(keyMsg("tab"))
	a = next.(ArcadeModel)
	if a.screen != screenRuns {
		t.Fatalf("screen = %v after tab", a.screen)
	}
	if !strings.Contains(a.View(), "Run history is disabled") {
		t.Error("runs view without a store should say history is disabled")
	}

	next, _ = a.Update(keyMsg("esc"))
	a = next.(ArcadeModel)
	if a.screen != screenMenu {
		t.Errorf("screen = %v after esc", a.screen)
	}
}

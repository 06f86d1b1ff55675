package registry

import (
	"testing"

	"github.com/vovakirdan/arcadeloop/internal/core"
)

type stubGame struct {
	id string
}

func (g *stubGame) Step() error                         { return nil }
func (g *stubGame) Render(*core.Screen) error           { return nil }
func (g *stubGame) TargetUPS() int                      { return 50 }
func (g *stubGame) OnStart(int, int)                    {}
func (g *stubGame) OnStop()                             {}
func (g *stubGame) OnSurfaceResized(int, int, int, int) {}
func (g *stubGame) HandleInput(core.InputFrame)         {}
func (g *stubGame) ID() string                          { return g.id }
func (g *stubGame) Title() string                       { return "Stub" }
func (g *stubGame) Score() int                          { return 0 }

func TestRegisterAndCreate(t *testing.T) {
	var gotEnv Env
	Register("zz-stub", "Stub", func(env Env) Game {
		gotEnv = env
		return &stubGame{id: "zz-stub"}
	})

	if !Exists("zz-stub") {
		t.Fatal("Exists() = false after Register")
	}

	found := false
	for _, info := range List() {
		if info.ID == "zz-stub" {
			found = info.Title == "Stub"
		}
	}
	if !found {
		t.Error("List() should include the stub with its title")
	}

	g, err := Create("zz-stub", Env{Runtime: core.DefaultConfig()})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if g.ID() != "zz-stub" {
		t.Errorf("ID() = %q", g.ID())
	}
	if gotEnv.Registry == nil {
		t.Error("Create() should supply a registry when none is given")
	}
}

func TestCreateUnknown(t *testing.T) {
	if _, err := Create("no-such-game", Env{}); err == nil {
		t.Error("Create() of an unknown game should fail")
	}
	if Exists("no-such-game") {
		t.Error("Exists() = true for an unknown game")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register("zz-dup", "Dup", func(Env) Game { return &stubGame{id: "zz-dup"} })

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register("zz-dup", "Dup", func(Env) Game { return &stubGame{id: "zz-dup"} })
}

// Package flappy implements a Flappy Bird-style game.
// The player controls a bird that must navigate through gaps in vertical pipes.
package flappy

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/interp"
	"github.com/vovakirdan/arcadeloop/internal/registry"
)

// Player hitbox in cells.
const (
	PlayerWidth  = 2
	PlayerHeight = 2
)

// Visual characters for rendering
const (
	PlayerChar    = '▶'
	PipeChar      = '█'
	PipeCapTop    = '▄'
	PipeCapBottom = '▀'
	GroundChar    = '═'
)

// Game implements the Flappy Bird game logic.
type Game struct {
	cfg     config.FlappyConfig
	reg     *interp.Registry
	logger  *log.Logger
	runtime core.RuntimeConfig
	dt      float64

	width, height int

	player    *interp.Point // X is fixed, Y is the top of the hitbox
	handle    interp.Handle
	playerVel float64 // cells per second, negative is up
	pipes     *PipeManager

	score    int
	gameOver bool
	steps    int

	jump    bool
	restart bool
}

// New creates a new Flappy Bird game instance.
func New(env registry.Env) *Game {
	rt := env.Runtime
	if rt.UPS <= 0 {
		rt.UPS = core.DefaultUPS
	}
	if rt.Seed == 0 {
		rt.Seed = time.Now().UnixNano()
	}
	return &Game{
		cfg:     env.Games.Flappy,
		reg:     env.Registry,
		logger:  env.Log(),
		runtime: rt,
		dt:      1 / float64(rt.UPS),
		width:   rt.ScreenW,
		height:  rt.ScreenH,
	}
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string {
	return "flappy"
}

// Title returns the display name for this game.
func (g *Game) Title() string {
	return "Flappy Bird"
}

// Score returns the number of pipes passed.
func (g *Game) Score() int {
	return g.score
}

// TargetUPS returns the configured update rate.
func (g *Game) TargetUPS() int {
	return g.runtime.UPS
}

// OnStart sizes the world and spawns the bird.
func (g *Game) OnStart(width, height int) {
	g.width, g.height = width, height
	g.pipes = NewPipeManager(g.reg, g.runtime.Seed, width, height, g.cfg)
	g.pipes.logger = g.logger
	g.reset()
}

// OnStop deregisters the bird and every pipe.
func (g *Game) OnStop() {
	if g.player != nil {
		untrack(g.reg, g.logger, g.handle)
		g.player = nil
	}
	if g.pipes != nil {
		g.pipes.Clear()
	}
}

// OnSurfaceResized lets pipes spawn at the new right edge.
func (g *Game) OnSurfaceResized(newW, newH, oldW, oldH int) {
	g.width, g.height = newW, newH
	if g.pipes != nil {
		g.pipes.UpdateScreenSize(newW, newH)
	}
}

// HandleInput latches a jump or restart for the next step.
func (g *Game) HandleInput(in core.InputFrame) {
	if in.Has(core.ActionJump) || in.Has(core.ActionUp) {
		g.jump = true
	}
	if in.Has(core.ActionRestart) && g.gameOver {
		g.restart = true
	}
}

func (g *Game) reset() {
	if g.player != nil {
		untrack(g.reg, g.logger, g.handle)
	}
	g.player = interp.NewPoint(float64(g.cfg.Player.X), float64(g.height)/2)
	g.handle = g.reg.Register(g.player)
	g.playerVel = 0

	g.pipes.Reset(g.runtime.Seed)
	g.score = 0
	g.gameOver = false
	g.steps = 0
	g.jump = false
	g.restart = false
}

// Step advances the game by one fixed step.
func (g *Game) Step() error {
	if g.gameOver {
		if g.restart {
			g.reset()
		}
		return nil
	}
	g.steps++

	if g.jump {
		g.playerVel = g.cfg.Physics.JumpImpulse
		g.jump = false
	}

	g.playerVel = min(g.playerVel+g.cfg.Physics.Gravity*g.dt, g.cfg.Physics.MaxFallSpeed)
	g.player.Y += g.playerVel * g.dt

	g.score += g.pipes.Update(g.dt, g.cfg.Player.X+PlayerWidth, g.score, g.steps)

	// Hit top of screen
	if g.player.Y < 0 {
		g.player.Y = 0
		g.gameOver = true
	}

	// Hit the ground line
	groundY := g.height - 2
	if core.Snap(g.player.Y)+PlayerHeight >= groundY {
		g.player.Y = float64(groundY - PlayerHeight)
		g.gameOver = true
	}

	if g.pipes.CheckCollision(g.playerRect(), g.height) {
		g.gameOver = true
	}
	return nil
}

// playerRect returns the player's collision rectangle.
func (g *Game) playerRect() core.Rect {
	return core.NewRect(g.cfg.Player.X, core.Snap(g.player.Y), PlayerWidth, PlayerHeight)
}

// Render draws the shown positions of the bird and pipes.
func (g *Game) Render(dst *core.Screen) error {
	dst.Clear()

	dst.SetPen(core.ColorGray)
	dst.DrawHLine(0, dst.Height()-1, dst.Width(), GroundChar)

	dst.SetPen(core.ColorGreen)
	for _, p := range g.pipes.Pipes() {
		g.drawPipe(dst, p)
	}

	dst.SetPen(core.ColorBrightYellow)
	x, y := g.player.Shown()
	px, py := core.Snap(x), core.Snap(y)
	for dy := range PlayerHeight {
		for dx := range PlayerWidth {
			if dx == PlayerWidth-1 && dy == 0 {
				dst.Set(px+dx, py+dy, PlayerChar)
			} else {
				dst.Set(px+dx, py+dy, '●')
			}
		}
	}

	dst.SetPen(core.ColorWhite)
	level := g.pipes.Level(g.score, g.steps)
	dst.DrawText(2, 0, fmt.Sprintf(" Score: %d  Level: %.0f%% ", g.score, level*100))

	if g.gameOver {
		dst.DrawMessage("GAME OVER", fmt.Sprintf("Score: %d  |  Press R to restart", g.score))
	}
	return nil
}

// drawPipe renders a single pipe at its shown position.
func (g *Game) drawPipe(dst *core.Screen, p *Pipe) {
	groundY := dst.Height() - 1
	width := g.cfg.Obstacles.PipeWidth
	sx, _ := p.Pos.Shown()
	left := core.Snap(sx)
	gapY := p.GapY()
	bottomY := gapY + p.GapHeight

	for x := left; x < left+width; x++ {
		for y := 0; y < gapY; y++ {
			dst.Set(x, y, PipeChar)
		}
		if gapY > 0 {
			dst.Set(x, gapY-1, PipeCapTop)
		}
		for y := bottomY; y < groundY; y++ {
			dst.Set(x, y, PipeChar)
		}
		if bottomY < groundY {
			dst.Set(x, bottomY, PipeCapBottom)
		}
	}
}

// Register the game with the registry
func init() {
	registry.Register("flappy", "Flappy Bird", func(env registry.Env) registry.Game {
		return New(env)
	})
}

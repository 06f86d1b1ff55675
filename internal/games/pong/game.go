// Package pong implements a classic Pong game with CPU opponent.
// Player 1 controls the left paddle, CPU controls the right paddle.
package pong

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/interp"
	"github.com/vovakirdan/arcadeloop/internal/registry"
)

// Visual characters for rendering
const (
	PaddleChar = '█'
	BallChar   = '●'
	NetChar    = '│'
)

const (
	serveDelay = time.Second
	// A key press moves the paddle for this long; terminal key repeat keeps
	// it moving while held.
	pressHold = 120 * time.Millisecond
)

// Game implements the Pong game logic. Ball and paddles are interpolated
// points: the simulation moves X/Y and Render draws the shown position.
type Game struct {
	cfg     config.PongConfig
	reg     *interp.Registry
	logger  *log.Logger
	runtime core.RuntimeConfig
	rng     *rand.Rand
	dt      float64 // seconds per step

	width, height int

	ball    *interp.Point
	ballVX  float64
	ballVY  float64
	left    *interp.Point
	right   *interp.Point
	handles map[*interp.Point]interp.Handle

	score1 int
	score2 int

	gameOver bool
	winner   int // 1 or 2
	serving  int // steps until the ball moves

	moveDir   float64
	moveSteps int
	restart   bool
	steps     int
}

// New creates a new Pong game instance.
func New(env registry.Env) *Game {
	rt := env.Runtime
	if rt.UPS <= 0 {
		rt.UPS = core.DefaultUPS
	}
	if rt.Seed == 0 {
		rt.Seed = time.Now().UnixNano()
	}

	return &Game{
		cfg:     env.Games.Pong,
		reg:     env.Registry,
		logger:  env.Log(),
		runtime: rt,
		rng:     rand.New(rand.NewSource(rt.Seed)),
		dt:      1 / float64(rt.UPS),
		width:   rt.ScreenW,
		height:  rt.ScreenH,
		handles: make(map[*interp.Point]interp.Handle),
	}
}

// ID returns the unique identifier for this game.
func (g *Game) ID() string {
	return "pong"
}

// Title returns the display name for this game.
func (g *Game) Title() string {
	return "Pong"
}

// Score returns the player's points.
func (g *Game) Score() int {
	return g.score1
}

// TargetUPS returns the configured update rate.
func (g *Game) TargetUPS() int {
	return g.runtime.UPS
}

// OnStart sizes the court and registers the ball and paddles.
func (g *Game) OnStart(width, height int) {
	g.width, g.height = width, height
	g.reset()
}

// OnStop deregisters everything the game registered.
func (g *Game) OnStop() {
	for p, h := range g.handles {
		g.untrack(h)
		delete(g.handles, p)
	}
}

// untrack removes h from the registry. A failure means a body was removed
// twice.
func (g *Game) untrack(h interp.Handle) {
	if err := g.reg.Remove(h); err != nil {
		g.logger.Debug("deregister failed", "handle", h, "err", err)
	}
}

// OnSurfaceResized keeps the paddles on the right edge and everything in bounds.
func (g *Game) OnSurfaceResized(newW, newH, oldW, oldH int) {
	g.width, g.height = newW, newH
	if g.right != nil {
		g.right.Teleport(g.rightX(), g.clampPaddle(g.right.Y))
		g.left.Teleport(g.left.X, g.clampPaddle(g.left.Y))
		g.ball.X = core.ClampF(g.ball.X, 0, float64(newW))
		g.ball.Y = core.ClampF(g.ball.Y, 1, float64(max(newH-2, 1)))
	}
}

// HandleInput latches actions for the next step.
func (g *Game) HandleInput(in core.InputFrame) {
	hold := max(int(pressHold.Seconds()/g.dt), 1)
	switch {
	case in.Has(core.ActionUp) || in.Has(core.ActionJump):
		g.moveDir, g.moveSteps = -1, hold
	case in.Has(core.ActionDown):
		g.moveDir, g.moveSteps = 1, hold
	}
	if in.Has(core.ActionRestart) && g.gameOver {
		g.restart = true
	}
}

func (g *Game) reset() {
	g.OnStop()

	h := g.paddleHeight()
	centerY := float64(g.height)/2 - float64(h)/2
	g.left = g.track(interp.NewPoint(float64(g.cfg.Paddles.Offset), centerY))
	g.right = g.track(interp.NewPoint(g.rightX(), centerY))
	g.ball = g.track(interp.NewPoint(float64(g.width)/2, float64(g.height)/2))

	g.score1, g.score2 = 0, 0
	g.gameOver = false
	g.winner = 0
	g.moveSteps = 0
	g.restart = false
	g.steps = 0

	g.startServe(1)
}

func (g *Game) track(p *interp.Point) *interp.Point {
	g.handles[p] = g.reg.Register(p)
	return p
}

// respawn re-registers p so the teleport is not interpolated across the court.
func (g *Game) respawn(p *interp.Point, x, y float64) {
	if h, ok := g.handles[p]; ok {
		g.untrack(h)
	}
	p.Teleport(x, y)
	g.handles[p] = g.reg.Register(p)
}

func (g *Game) paddleHeight() int {
	return core.Clamp(g.height/5, 3, max(g.cfg.Paddles.Height, 3))
}

func (g *Game) rightX() float64 {
	return float64(g.width - g.cfg.Paddles.Offset - g.cfg.Paddles.Width)
}

func (g *Game) clampPaddle(y float64) float64 {
	maxY := float64(g.height - g.paddleHeight() - 1)
	return core.ClampF(y, 1, math.Max(maxY, 1))
}

// startServe centers the ball and aims it at the player who was scored against.
func (g *Game) startServe(server int) {
	g.serving = int(serveDelay.Seconds() / g.dt)
	g.respawn(g.ball, float64(g.width)/2, float64(g.height)/2)

	speed := g.cfg.Physics.BallSpeed
	if server == 1 {
		g.ballVX = -speed
	} else {
		g.ballVX = speed
	}
	angle := (g.rng.Float64() - 0.5) * 0.6 // -0.3 to 0.3
	g.ballVY = speed * angle
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

	if g.moveSteps > 0 {
		g.left.Y += g.moveDir * g.cfg.Physics.PaddleSpeed * g.dt
		g.moveSteps--
	}
	g.left.Y = g.clampPaddle(g.left.Y)

	g.updateCPU()

	if g.serving > 0 {
		g.serving--
		return nil
	}
	g.updateBall()
	return nil
}

// updateCPU moves the CPU paddle toward the ball while it approaches.
func (g *Game) updateCPU() {
	if g.ballVX > 0 {
		target := g.ball.Y - float64(g.paddleHeight())/2
		diff := target - g.right.Y
		move := g.cfg.Physics.PaddleSpeed * g.cfg.Gameplay.AISkill * g.dt
		if math.Abs(diff) > move {
			g.right.Y += math.Copysign(move, diff)
		}
	}
	g.right.Y = g.clampPaddle(g.right.Y)
}

// updateBall handles ball physics and collision.
func (g *Game) updateBall() {
	b := g.ball
	b.X += g.ballVX * g.dt
	b.Y += g.ballVY * g.dt

	// Bounce off top/bottom walls
	if b.Y <= 1 {
		b.Y = 1
		g.ballVY = -g.ballVY
	}
	if bottom := float64(g.height - 2); b.Y >= bottom {
		b.Y = bottom
		g.ballVY = -g.ballVY
	}

	ph := float64(g.paddleHeight())
	pw := float64(g.cfg.Paddles.Width)

	if b.X <= g.left.X+pw && g.ballVX < 0 && b.Y >= g.left.Y && b.Y <= g.left.Y+ph {
		b.X = g.left.X + pw
		g.bounce((b.Y - g.left.Y) / ph)
	}
	if b.X >= g.right.X && g.ballVX > 0 && b.Y >= g.right.Y && b.Y <= g.right.Y+ph {
		b.X = g.right.X - 1
		g.bounce((b.Y - g.right.Y) / ph)
	}

	maxSpeed := g.cfg.Physics.MaxBallSpeed
	if math.Abs(g.ballVX) > maxSpeed {
		g.ballVX = math.Copysign(maxSpeed, g.ballVX)
	}
	if math.Abs(g.ballVY) > maxSpeed/2 {
		g.ballVY = math.Copysign(maxSpeed/2, g.ballVY)
	}

	switch {
	case b.X < 0:
		g.point(2)
	case b.X > float64(g.width):
		g.point(1)
	}
}

// bounce reverses the ball and adds spin based on where it hit the paddle.
func (g *Game) bounce(hitPos float64) {
	g.ballVX = -g.ballVX * 1.02
	g.ballVY += (hitPos - 0.5) * 2 * g.cfg.Physics.SpinFactor * math.Abs(g.ballVX)
}

func (g *Game) point(scorer int) {
	if scorer == 1 {
		g.score1++
	} else {
		g.score2++
	}

	if g.score1 >= g.cfg.Gameplay.WinScore || g.score2 >= g.cfg.Gameplay.WinScore {
		g.gameOver = true
		g.winner = scorer
		return
	}
	// The player who conceded receives the serve.
	if scorer == 1 {
		g.startServe(2)
	} else {
		g.startServe(1)
	}
}

// Render draws the shown positions.
func (g *Game) Render(dst *core.Screen) error {
	dst.Clear()

	centerX := dst.Width() / 2
	dst.SetPen(core.ColorGray)
	for y := 1; y < dst.Height()-1; y += 2 {
		dst.Set(centerX, y, NetChar)
	}

	h := g.paddleHeight()
	dst.SetPen(core.ColorBrightCyan)
	g.drawPaddle(dst, g.left, h)
	dst.SetPen(core.ColorBrightRed)
	g.drawPaddle(dst, g.right, h)

	// Blink during serve
	if g.serving == 0 || (g.serving*8/max(g.runtime.UPS, 1))%2 == 0 {
		x, y := g.ball.Shown()
		dst.SetPen(core.ColorBrightYellow)
		dst.Set(core.Snap(x), core.Snap(y), BallChar)
	}

	dst.SetPen(core.ColorWhite)
	dst.DrawText(centerX-5, 0, fmt.Sprintf("%d", g.score1))
	dst.DrawText(centerX+4, 0, fmt.Sprintf("%d", g.score2))
	dst.DrawText(1, 0, "P1")
	dst.DrawText(dst.Width()-4, 0, "CPU")

	if g.gameOver {
		msg := "CPU WINS!"
		if g.winner == 1 {
			msg = "YOU WIN!"
		}
		dst.DrawMessage(msg, fmt.Sprintf("%d - %d  |  Press R to restart", g.score1, g.score2))
	}
	return nil
}

func (g *Game) drawPaddle(dst *core.Screen, p *interp.Point, height int) {
	x, y := p.Shown()
	for i := range height {
		for j := range g.cfg.Paddles.Width {
			dst.Set(core.Snap(x)+j, core.Snap(y)+i, PaddleChar)
		}
	}
}

// Register the game with the registry
func init() {
	registry.Register("pong", "Pong", func(env registry.Env) registry.Game {
		return New(env)
	})
}

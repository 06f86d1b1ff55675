package flappy

import (
	"io"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcadeloop/internal/config"
	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/interp"
)

// Pipe represents a vertical obstacle with a gap for the player to pass through.
// Pos.X is the left edge and Pos.Y the top of the gap.
type Pipe struct {
	Pos       *interp.Point
	GapHeight int  // Height of the passable gap
	Passed    bool // Whether the player has passed this pipe (for scoring)

	handle interp.Handle
}

// X returns the simulated left edge in whole cells.
func (p *Pipe) X() int {
	return core.Snap(p.Pos.X)
}

// GapY returns the top of the gap.
func (p *Pipe) GapY() int {
	return core.Snap(p.Pos.Y)
}

// TopRect returns the collision rectangle for the top portion of the pipe.
func (p *Pipe) TopRect(pipeWidth int) core.Rect {
	return core.NewRect(p.X(), 0, pipeWidth, p.GapY())
}

// BottomRect returns the collision rectangle for the bottom portion of the pipe.
func (p *Pipe) BottomRect(pipeWidth, screenH int) core.Rect {
	bottomY := p.GapY() + p.GapHeight
	return core.NewRect(p.X(), bottomY, pipeWidth, screenH-bottomY)
}

// PipeManager handles spawning, movement, and removal of pipes. Every live
// pipe is registered for interpolation and removed once off-screen.
type PipeManager struct {
	pipes      []*Pipe
	reg        *interp.Registry
	logger     *log.Logger
	rng        *rand.Rand
	screenW    int
	screenH    int
	cfg        config.FlappyConfig
	difficulty *config.Difficulty
}

// NewPipeManager creates a new pipe manager with the given RNG seed.
func NewPipeManager(reg *interp.Registry, seed int64, screenW, screenH int, cfg config.FlappyConfig) *PipeManager {
	pm := &PipeManager{
		pipes:      make([]*Pipe, 0, 8),
		reg:        reg,
		logger:     log.New(io.Discard),
		screenW:    screenW,
		screenH:    screenH,
		cfg:        cfg,
		difficulty: config.NewDifficulty(cfg.Difficulty),
	}
	pm.Reset(seed)
	return pm
}

// Reset removes all pipes and reseeds the RNG.
func (pm *PipeManager) Reset(seed int64) {
	pm.Clear()
	pm.rng = rand.New(rand.NewSource(seed))
}

// Clear deregisters and drops every pipe.
func (pm *PipeManager) Clear() {
	for _, p := range pm.pipes {
		untrack(pm.reg, pm.logger, p.handle)
	}
	pm.pipes = pm.pipes[:0]
}

// UpdateScreenSize updates the screen dimensions.
func (pm *PipeManager) UpdateScreenSize(screenW, screenH int) {
	pm.screenW = screenW
	pm.screenH = screenH
}

// Level returns the difficulty level for the given progress.
func (pm *PipeManager) Level(score, steps int) float64 {
	return pm.difficulty.Level(score, steps)
}

// Update moves pipes left by dt seconds of travel and spawns new ones as needed.
// Returns the number of pipes passed this step.
func (pm *PipeManager) Update(dt float64, playerX, score, steps int) int {
	level := pm.difficulty.Level(score, steps)
	speed := pm.difficulty.Speed(pm.cfg.Physics.BaseSpeed, level)

	for _, p := range pm.pipes {
		p.Pos.X -= speed * dt
	}

	pipeWidth := pm.cfg.Obstacles.PipeWidth
	passed := 0
	for _, p := range pm.pipes {
		if !p.Passed && p.X()+pipeWidth < playerX {
			p.Passed = true
			passed++
		}
	}

	// Remove pipes that have moved off the left side
	live := pm.pipes[:0]
	for _, p := range pm.pipes {
		if p.X()+pipeWidth > 0 {
			live = append(live, p)
			continue
		}
		untrack(pm.reg, pm.logger, p.handle)
	}
	clear(pm.pipes[len(live):])
	pm.pipes = live

	minSpacing := pipeWidth + pm.cfg.Obstacles.MinGap
	spacing := pm.difficulty.Spacing(pm.cfg.Obstacles.PipeSpacing, minSpacing, level)
	if len(pm.pipes) == 0 || pm.pipes[len(pm.pipes)-1].X() < pm.screenW-spacing {
		pm.spawnPipe(level)
	}

	return passed
}

// spawnPipe creates a new pipe at the right edge of the screen.
func (pm *PipeManager) spawnPipe(level float64) {
	minGap := pm.cfg.Obstacles.MinGap
	currentGap := pm.difficulty.Gap(pm.cfg.Obstacles.MaxGap, minGap, level)

	// Random variation in gap size (between minGap and currentGap)
	gapHeight := minGap
	if gapRange := currentGap - minGap; gapRange > 0 {
		gapHeight = minGap + pm.rng.Intn(gapRange+1)
	}

	minGapY := pm.cfg.Obstacles.TopMargin
	maxGapY := max(pm.screenH-pm.cfg.Obstacles.BottomMargin-gapHeight, minGapY)

	gapY := minGapY
	if maxGapY > minGapY {
		gapY = minGapY + pm.rng.Intn(maxGapY-minGapY+1)
	}

	p := &Pipe{
		Pos:       interp.NewPoint(float64(pm.screenW), float64(gapY)),
		GapHeight: gapHeight,
	}
	p.handle = pm.reg.Register(p.Pos)
	pm.pipes = append(pm.pipes, p)
}

// Pipes returns the current list of pipes.
func (pm *PipeManager) Pipes() []*Pipe {
	return pm.pipes
}

// CheckCollision tests if the given rectangle collides with any pipe.
func (pm *PipeManager) CheckCollision(playerRect core.Rect, screenH int) bool {
	pipeWidth := pm.cfg.Obstacles.PipeWidth
	for _, p := range pm.pipes {
		if playerRect.Intersects(p.TopRect(pipeWidth)) || playerRect.Intersects(p.BottomRect(pipeWidth, screenH)) {
			return true
		}
	}
	return false
}

// untrack removes h from reg. A failure means an object was removed twice.
func untrack(reg *interp.Registry, logger *log.Logger, h interp.Handle) {
	if err := reg.Remove(h); err != nil {
		logger.Debug("deregister failed", "handle", h, "err", err)
	}
}

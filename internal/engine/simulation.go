// Package engine runs a simulation on two decoupled activities: a fixed-rate
// update activity that steps the simulation and captures snapshots, and a
// refresh-driven presentation activity that interpolates between the two
// oldest snapshots and renders.
package engine

import (
	"time"

	"github.com/vovakirdan/arcadeloop/internal/core"
)

// Simulation is the game logic driven by a Loop.
//
// Step, Render, OnSurfaceResized and HandleInput are always invoked inside the
// loop's critical section and never concurrently with each other.
type Simulation interface {
	// Step advances the simulation by one fixed step.
	Step() error

	// Render draws the current display state into dst.
	Render(dst *core.Screen) error

	// TargetUPS is the desired number of steps per second.
	TargetUPS() int

	// OnStart is called once when the surface is ready.
	OnStart(width, height int)

	// OnStop is called once after both activities have ended.
	OnStop()

	OnSurfaceResized(newW, newH, oldW, oldH int)

	HandleInput(in core.InputFrame)
}

// Surface is the drawable target of the presentation activity.
type Surface interface {
	// BeginFrame starts a frame and returns the screen to draw into.
	BeginFrame() *core.Screen
	// EndFrame ends the frame and makes it visible.
	EndFrame()
	FrameInProgress() bool
	Dimensions() (width, height int)

	// OnReady registers fn to run once the surface is usable. fn runs
	// immediately if it already is.
	OnReady(fn func(width, height int)) (cancel func())
	OnResize(fn func(newW, newH, oldW, oldH int)) (cancel func())

	// Release frees the surface. No frame may begin afterwards.
	Release()
}

// Observer receives timing events from a running loop. Implementations must
// be safe for concurrent use and must not block.
type Observer interface {
	StepCompleted(at, took time.Duration)
	FramePainted(ratio float64, took time.Duration)
	FrameSkipped()
	FrameStarved()
	SnapshotDropped()
}

type nopObserver struct{}

func (nopObserver) StepCompleted(time.Duration, time.Duration) {}
func (nopObserver) FramePainted(float64, time.Duration)        {}
func (nopObserver) FrameSkipped()                              {}
func (nopObserver) FrameStarved()                              {}
func (nopObserver) SnapshotDropped()                           {}

package engine

import (
	"errors"
	"fmt"
)

// Usage errors. They signal a broken calling contract and are never retried.
var (
	// ErrInvalidState is returned when a control call does not apply to the
	// loop's current state.
	ErrInvalidState = errors.New("engine: invalid state")

	// ErrTransitionInFlight is returned when a control call arrives while
	// another transition has not finished.
	ErrTransitionInFlight = errors.New("engine: transition already in flight")

	// ErrSelfControl is returned when a control call is made from one of the
	// loop's own activities, e.g. from inside Simulation.Step.
	ErrSelfControl = errors.New("engine: control call from a loop activity")

	// ErrNotRestartable is returned by Start on a loop that already ran.
	ErrNotRestartable = errors.New("engine: loop cannot be restarted")

	// ErrInvalidRate is returned when the simulation reports an unusable
	// update rate.
	ErrInvalidRate = errors.New("engine: invalid update rate")

	// ErrNotPlaying is returned by Deliver when the loop is not playing.
	ErrNotPlaying = errors.New("engine: loop is not playing")

	// ErrRefresherClosed stops the loop when the refresh channel is closed
	// while the loop is running.
	ErrRefresherClosed = errors.New("engine: refresher closed")
)

// SimulationError wraps a failure raised by simulation code: starting,
// stepping, saving or loading channels, or rendering. It is fatal to the loop.
type SimulationError struct {
	Phase string // "start", "step", "save", "load" or "render"
	Err   error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("engine: simulation %s failed: %v", e.Phase, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// guard runs fn, converting a returned error or a panic into a SimulationError.
func guard(phase string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SimulationError{Phase: phase, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if ferr := fn(); ferr != nil {
		return &SimulationError{Phase: phase, Err: ferr}
	}
	return nil
}

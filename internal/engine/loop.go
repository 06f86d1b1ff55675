package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/interp"
)

// Loop drives a Simulation on a Surface.
//
// A Loop runs at most once: Stopped -> Starting -> Playing, then any number of
// Pause/Resume cycles, then Stop. Control calls never block on each other; a
// call arriving during another transition fails with ErrTransitionInFlight.
type Loop struct {
	sim      Simulation
	surface  Surface
	registry *interp.Registry
	refresh  Refresher
	mode     RatioMode
	budget   time.Duration
	logger   *log.Logger
	observer Observer
	debug    bool
	clock    playClock

	// period is set by Start before the activities launch.
	period atomic.Int64

	// mu is the critical section shared by stepping, painting, input
	// delivery and resize forwarding.
	mu    sync.Mutex
	queue snapshotQueue

	// ctlMu serializes transitions. Fields below it are guarded by it.
	ctlMu        sync.Mutex
	used         bool
	pausedAt     time.Time
	cancelReady  func()
	cancelResize func()
	cancel       context.CancelFunc

	state   atomic.Int32
	pending atomic.Pointer[rendezvous]

	updateNotify  chan struct{}
	presentNotify chan struct{}
	updateGID     atomic.Uint64
	presentGID    atomic.Uint64

	exited chan struct{} // closed once both activities returned
	runErr error         // written before exited is closed

	done   chan struct{} // closed on reaching Stopped
	errMu  sync.Mutex
	result error
}

// New creates a stopped loop.
func New(sim Simulation, surf Surface, opts Options) (*Loop, error) {
	if sim == nil {
		return nil, errors.New("engine: nil simulation")
	}
	if surf == nil {
		return nil, errors.New("engine: nil surface")
	}
	opts = opts.withDefaults()

	return &Loop{
		sim:           sim,
		surface:       surf,
		registry:      opts.Registry,
		refresh:       opts.Refresher,
		mode:          opts.Mode,
		budget:        opts.FrameBudget,
		logger:        opts.Logger,
		observer:      opts.Observer,
		debug:         opts.Debug,
		clock:         playClock{now: opts.Clock},
		updateNotify:  make(chan struct{}, 1),
		presentNotify: make(chan struct{}, 1),
		exited:        make(chan struct{}),
		done:          make(chan struct{}),
	}, nil
}

// Registry returns the registry snapshots are captured from.
func (l *Loop) Registry() *interp.Registry {
	return l.registry
}

// State returns the current controller state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// IsActive reports whether the loop has been started and not yet stopped.
func (l *Loop) IsActive() bool {
	return l.State() != StateStopped
}

// IsPlaying reports whether the loop is running and not paused.
func (l *Loop) IsPlaying() bool {
	return l.State() == StatePlaying
}

// Period returns the step period, or zero before Start.
func (l *Loop) Period() time.Duration {
	return time.Duration(l.period.Load())
}

// Done is closed when the loop reaches Stopped after a Start.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the loop is stopped and returns the failure that stopped
// it, if any.
func (l *Loop) Wait() error {
	<-l.done
	return l.Err()
}

// Err returns the simulation failure that stopped the loop, or nil.
func (l *Loop) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.result
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

// onActivity reports whether the caller runs on one of the loop's activities.
func (l *Loop) onActivity() bool {
	id := goroutineID()
	return id == l.updateGID.Load() || id == l.presentGID.Load()
}

// begin performs the checks shared by every control call and takes ctlMu.
func (l *Loop) begin(op string) error {
	if l.onActivity() {
		return fmt.Errorf("engine: %s: %w", op, ErrSelfControl)
	}
	if !l.ctlMu.TryLock() {
		return fmt.Errorf("engine: %s: %w", op, ErrTransitionInFlight)
	}
	return nil
}

// Start validates the simulation's rate and waits for the surface. The
// activities launch when the surface reports ready, possibly before Start
// returns; if OnStart then fails, Start returns that failure.
func (l *Loop) Start() error {
	if err := l.begin("start"); err != nil {
		return err
	}

	if l.used {
		l.ctlMu.Unlock()
		return fmt.Errorf("engine: start: %w", ErrNotRestartable)
	}

	ups := l.sim.TargetUPS()
	if ups <= 0 || ups > 1000 {
		l.ctlMu.Unlock()
		return fmt.Errorf("engine: start: %d updates per second: %w", ups, ErrInvalidRate)
	}
	if 1000%ups != 0 {
		l.logger.Warn("uneven cadence, 1000 is not a multiple of the update rate", "ups", ups, "period_ms", 1000/ups)
	}

	l.used = true
	l.period.Store(int64(time.Duration(1000/ups) * time.Millisecond))
	l.setState(StateStarting)
	l.logger.Info("loop starting", "ups", ups, "mode", l.mode)
	l.ctlMu.Unlock()

	// The ready callback may run synchronously and takes ctlMu itself.
	cancel := l.surface.OnReady(l.onSurfaceReady)

	l.ctlMu.Lock()
	defer l.ctlMu.Unlock()
	if l.State() == StateStopped {
		cancel()
		return l.Err()
	}
	l.cancelReady = cancel
	return nil
}

func (l *Loop) onSurfaceReady(width, height int) {
	l.ctlMu.Lock()
	defer l.ctlMu.Unlock()

	if l.State() != StateStarting {
		return
	}
	l.launch(width, height)
}

// launch calls OnStart and runs both activities. Caller holds ctlMu.
func (l *Loop) launch(width, height int) {
	err := guard("start", func() error {
		l.sim.OnStart(width, height)
		return nil
	})
	if err != nil {
		l.logger.Error("simulation failed to start", "err", err)
		l.finalize(err)
		return
	}
	l.cancelResize = l.surface.OnResize(l.onSurfaceResized)
	l.clock.start()

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)

	l.setState(StatePlaying)
	g.Go(func() error { return l.runUpdates(gctx) })
	g.Go(func() error { return l.runFrames(gctx) })
	go l.supervise(g)

	l.logger.Info("loop playing", "width", width, "height", height, "period", l.Period())
}

func (l *Loop) onSurfaceResized(newW, newH, oldW, oldH int) {
	if !l.IsActive() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sim.OnSurfaceResized(newW, newH, oldW, oldH)
}

// supervise waits for both activities and stops the loop after a failure.
func (l *Loop) supervise(g *errgroup.Group) {
	err := g.Wait()
	l.runErr = err
	close(l.exited)
	if err == nil {
		return
	}

	l.logger.Error("simulation failed, stopping loop", "err", err)

	l.ctlMu.Lock()
	defer l.ctlMu.Unlock()
	if l.State() != StateStopped {
		l.finalize(err)
	}
}

// Pause suspends both activities and returns once neither is running
// simulation code.
func (l *Loop) Pause() error {
	if err := l.begin("pause"); err != nil {
		return err
	}
	defer l.ctlMu.Unlock()

	if st := l.State(); st != StatePlaying {
		return fmt.Errorf("engine: pause from %s: %w", st, ErrInvalidState)
	}
	return l.pauseLocked()
}

func (l *Loop) pauseLocked() error {
	l.setState(StatePausing)
	rv := newRendezvous(activityCount)
	l.pending.Store(rv)
	l.wake()

	select {
	case <-rv.arrived:
	case <-l.exited:
		return fmt.Errorf("engine: pause: %w", l.runErr)
	}

	l.pausedAt = l.clock.now()
	l.setState(StatePaused)
	l.logger.Info("loop paused")
	return nil
}

// wake nudges both activities to look at the pending rendezvous.
func (l *Loop) wake() {
	for _, ch := range []chan struct{}{l.updateNotify, l.presentNotify} {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Resume releases both activities from a pause.
func (l *Loop) Resume() error {
	if err := l.begin("resume"); err != nil {
		return err
	}
	defer l.ctlMu.Unlock()

	if st := l.State(); st != StatePaused {
		return fmt.Errorf("engine: resume from %s: %w", st, ErrInvalidState)
	}

	rv := l.pending.Load()
	l.clock.addPaused(l.clock.now().Sub(l.pausedAt))
	l.pending.Store(nil)
	l.setState(StatePlaying)
	close(rv.release)

	l.logger.Info("loop resumed")
	return nil
}

// Stop ends the loop. A playing loop is paused first. Stop returns once both
// activities have ended and the surface has been released.
func (l *Loop) Stop() error {
	if err := l.begin("stop"); err != nil {
		return err
	}
	defer l.ctlMu.Unlock()

	switch st := l.State(); st {
	case StateStarting:
		return l.finalize(nil)
	case StatePlaying:
		if err := l.pauseLocked(); err != nil {
			return fmt.Errorf("engine: stop: %w", err)
		}
	case StatePaused:
	default:
		return fmt.Errorf("engine: stop from %s: %w", st, ErrInvalidState)
	}

	l.setState(StateStopping)
	rv := l.pending.Load()
	rv.stop.Store(true)
	close(rv.release)
	<-l.exited

	return l.finalize(l.runErr)
}

// finalize releases everything and enters Stopped. Caller holds ctlMu.
func (l *Loop) finalize(runErr error) error {
	l.setState(StateStopping)

	if l.cancelReady != nil {
		l.cancelReady()
	}
	if l.cancelResize != nil {
		l.cancelResize()
	}
	launched := l.cancel != nil
	if launched {
		l.cancel()
		l.sim.OnStop()
	}
	l.refresh.Stop()
	l.surface.Release()

	l.mu.Lock()
	l.queue.reset()
	l.mu.Unlock()
	l.pending.Store(nil)

	var leak error
	if l.debug {
		if err := l.registry.CheckEmpty(); err != nil {
			l.logger.Warn("objects still registered after stop", "count", l.registry.Len())
			leak = fmt.Errorf("engine: stop: %w", err)
		}
	}

	l.errMu.Lock()
	l.result = runErr
	l.errMu.Unlock()

	l.setState(StateStopped)
	close(l.done)

	if runErr != nil {
		l.logger.Info("loop stopped after failure", "err", runErr)
	} else {
		l.logger.Info("loop stopped")
	}
	return errors.Join(runErr, leak)
}

// Deliver hands an input frame to the simulation inside the critical section.
func (l *Loop) Deliver(in core.InputFrame) error {
	if l.onActivity() {
		return fmt.Errorf("engine: deliver: %w", ErrSelfControl)
	}
	if !l.IsPlaying() {
		return fmt.Errorf("engine: deliver: %w", ErrNotPlaying)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sim.HandleInput(in)
	return nil
}

// checkpoint honors a pending pause or stop. It arrives at the rendezvous,
// waits for release and reports whether the activity must exit. before runs
// ahead of arrival.
func (l *Loop) checkpoint(ctx context.Context, before func()) (exit bool) {
	rv := l.pending.Load()
	if rv == nil {
		return false
	}
	if before != nil {
		before()
	}
	rv.arrive()

	select {
	case <-rv.release:
		return rv.stop.Load()
	case <-ctx.Done():
		return true
	}
}

package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/arcadeloop/internal/core"
	"github.com/vovakirdan/arcadeloop/internal/interp"
)

// counter is a one-channel interpolatable: value is simulation state, shown
// is what the last restore loaded.
type counter struct {
	value float64
	shown float64
}

func (c *counter) Channels() int              { return 1 }
func (c *counter) SaveChannels(out []float64) { out[0] = c.value }
func (c *counter) LoadChannels(in []float64)  { c.shown = in[0] }

// vec is an N-channel interpolatable.
type vec struct {
	values []float64
	shown  []float64
}

func (v *vec) Channels() int              { return len(v.values) }
func (v *vec) SaveChannels(out []float64) { copy(out, v.values) }
func (v *vec) LoadChannels(in []float64)  { v.shown = append(v.shown[:0], in...) }

// faulty panics when its channels are saved or loaded.
type faulty struct {
	panicOnSave bool
	panicOnLoad bool
}

func (f *faulty) Channels() int { return 1 }

func (f *faulty) SaveChannels(out []float64) {
	if f.panicOnSave {
		panic("save exploded")
	}
}

func (f *faulty) LoadChannels(in []float64) {
	if f.panicOnLoad {
		panic("load exploded")
	}
}

type fakeSim struct {
	ups int
	reg *interp.Registry
	obj *counter
	h   interp.Handle

	steps    atomic.Int64
	renders  atomic.Int64
	started  atomic.Bool
	stopped  atomic.Bool
	inputs   atomic.Int64
	resizes  atomic.Int64
	lastSize atomic.Value

	// onStep runs inside Step with the step number, starting at 1.
	onStep   func(n int64) error
	onRender func(dst *core.Screen) error
	onStart  func()
}

func newFakeSim(ups int, reg *interp.Registry) *fakeSim {
	return &fakeSim{ups: ups, reg: reg, obj: &counter{}}
}

func (s *fakeSim) TargetUPS() int { return s.ups }

func (s *fakeSim) OnStart(width, height int) {
	if s.onStart != nil {
		s.onStart()
	}
	s.h = s.reg.Register(s.obj)
	s.started.Store(true)
}

func (s *fakeSim) OnStop() {
	_ = s.reg.Remove(s.h)
	s.stopped.Store(true)
}

func (s *fakeSim) Step() error {
	n := s.steps.Add(1)
	s.obj.value++
	if s.onStep != nil {
		return s.onStep(n)
	}
	return nil
}

func (s *fakeSim) Render(dst *core.Screen) error {
	s.renders.Add(1)
	if s.onRender != nil {
		return s.onRender(dst)
	}
	return nil
}

func (s *fakeSim) OnSurfaceResized(newW, newH, oldW, oldH int) {
	s.resizes.Add(1)
	s.lastSize.Store([2]int{newW, newH})
}

func (s *fakeSim) HandleInput(in core.InputFrame) {
	if in.Has(core.ActionJump) {
		s.inputs.Add(1)
	}
}

type fakeSurface struct {
	mu       sync.Mutex
	w, h     int
	ready    bool
	inFrame  bool
	frames   int
	released bool
	screen   *core.Screen
	nextID   int
	onReady  map[int]func(int, int)
	onResize map[int]func(int, int, int, int)
}

func newFakeSurface(ready bool) *fakeSurface {
	return &fakeSurface{
		w:        40,
		h:        20,
		ready:    ready,
		screen:   core.NewScreen(40, 20),
		onReady:  make(map[int]func(int, int)),
		onResize: make(map[int]func(int, int, int, int)),
	}
}

func (f *fakeSurface) BeginFrame() *core.Screen {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFrame = true
	return f.screen
}

func (f *fakeSurface) EndFrame() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFrame {
		f.inFrame = false
		f.frames++
	}
}

func (f *fakeSurface) FrameInProgress() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFrame
}

func (f *fakeSurface) Dimensions() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.w, f.h
}

func (f *fakeSurface) OnReady(fn func(int, int)) func() {
	f.mu.Lock()
	if f.ready {
		w, h := f.w, f.h
		f.mu.Unlock()
		fn(w, h)
		return func() {}
	}
	id := f.nextID
	f.nextID++
	f.onReady[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.onReady, id)
	}
}

func (f *fakeSurface) OnResize(fn func(int, int, int, int)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.onResize[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.onResize, id)
	}
}

func (f *fakeSurface) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
}

func (f *fakeSurface) makeReady() {
	f.mu.Lock()
	f.ready = true
	fns := make([]func(int, int), 0, len(f.onReady))
	for _, fn := range f.onReady {
		fns = append(fns, fn)
	}
	w, h := f.w, f.h
	f.mu.Unlock()

	for _, fn := range fns {
		fn(w, h)
	}
}

func (f *fakeSurface) resize(w, h int) {
	f.mu.Lock()
	oldW, oldH := f.w, f.h
	f.w, f.h = w, h
	fns := make([]func(int, int, int, int), 0, len(f.onResize))
	for _, fn := range f.onResize {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(w, h, oldW, oldH)
	}
}

func (f *fakeSurface) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func (f *fakeSurface) isReleased() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// manualRefresher delivers refresh signals only when told to.
type manualRefresher struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualRefresher() *manualRefresher {
	return &manualRefresher{ch: make(chan time.Time, 1)}
}

func (r *manualRefresher) Frames() <-chan time.Time { return r.ch }
func (r *manualRefresher) Interval() time.Duration  { return 16 * time.Millisecond }
func (r *manualRefresher) Stop()                    { r.stopped.Store(true) }

// tick sends a refresh signal without blocking.
func (r *manualRefresher) tick(t time.Time) {
	select {
	case r.ch <- t:
	default:
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	steps   []time.Duration
	painted int
	skipped int
	starved int
	dropped int
	ratios  []float64
}

func (o *recordingObserver) StepCompleted(at, took time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, at)
}

func (o *recordingObserver) FramePainted(ratio float64, took time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.painted++
	o.ratios = append(o.ratios, ratio)
}

func (o *recordingObserver) FrameSkipped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped++
}

func (o *recordingObserver) FrameStarved() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.starved++
}

func (o *recordingObserver) SnapshotDropped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped++
}

func (o *recordingObserver) stepTimes() []time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]time.Duration(nil), o.steps...)
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

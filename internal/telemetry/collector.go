// Package telemetry records loop timing through the engine observer hooks and
// summarizes it over rolling windows.
package telemetry

import (
	"sync"
	"time"
)

// DefaultWindow is the number of steps per window when none is configured.
const DefaultWindow = 50

// Collector implements engine.Observer. It keeps a rolling window of recent
// timings for Summary and closes a WindowSample every window steps.
type Collector struct {
	mu     sync.Mutex
	window int

	stepIntervals *ring
	stepDurations *ring
	frameTimes    *ring
	ratios        *ring

	lastStep time.Duration
	hasStep  bool
	totals   Counters
	open     Counters // counts since the last closed window
	samples  []WindowSample
}

// Counters are event totals.
type Counters struct {
	Steps   uint64
	Frames  uint64
	Skipped uint64
	Starved uint64
	Dropped uint64
}

// NewCollector creates a collector closing a sample every window steps.
func NewCollector(window int) *Collector {
	if window < 1 {
		window = DefaultWindow
	}
	return &Collector{
		window:        window,
		stepIntervals: newRing(window),
		stepDurations: newRing(window),
		frameTimes:    newRing(window),
		ratios:        newRing(window),
	}
}

func (c *Collector) StepCompleted(at, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasStep {
		c.stepIntervals.add(ms(at - c.lastStep))
	}
	c.lastStep, c.hasStep = at, true
	c.stepDurations.add(ms(took))
	c.totals.Steps++
	c.open.Steps++

	if c.open.Steps >= uint64(c.window) {
		c.closeWindow(at)
	}
}

func (c *Collector) FramePainted(ratio float64, took time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frameTimes.add(ms(took))
	c.ratios.add(ratio)
	c.totals.Frames++
	c.open.Frames++
}

func (c *Collector) FrameSkipped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals.Skipped++
	c.open.Skipped++
}

func (c *Collector) FrameStarved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals.Starved++
	c.open.Starved++
}

func (c *Collector) SnapshotDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals.Dropped++
	c.open.Dropped++
}

// closeWindow records a sample from the rolling buffers. Caller holds mu.
func (c *Collector) closeWindow(at time.Duration) {
	interval := distOf(c.stepIntervals.values())
	frame := distOf(c.frameTimes.values())

	c.samples = append(c.samples, WindowSample{
		Window:          len(c.samples),
		EndMs:           ms(at),
		Steps:           c.open.Steps,
		Frames:          c.open.Frames,
		Skipped:         c.open.Skipped,
		Starved:         c.open.Starved,
		Dropped:         c.open.Dropped,
		StepIntervalAvg: interval.Mean,
		StepIntervalStd: interval.StdDev,
		FrameTimeAvg:    frame.Mean,
		FrameTimeP95:    frame.P95,
	})
	c.open = Counters{}
}

// Totals returns event counts since the collector was created.
func (c *Collector) Totals() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// Samples returns the closed window samples.
func (c *Collector) Samples() []WindowSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]WindowSample(nil), c.samples...)
}

// Summary describes the current rolling window.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Summary{
		Counters:      c.totals,
		StepInterval:  distOf(c.stepIntervals.values()),
		StepDuration:  distOf(c.stepDurations.values()),
		FrameDuration: distOf(c.frameTimes.values()),
		Ratio:         distOf(c.ratios.values()),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ring is a fixed-size rolling buffer of float samples.
type ring struct {
	buf   []float64
	next  int
	count int
}

func newRing(size int) *ring {
	return &ring{buf: make([]float64, size)}
}

func (r *ring) add(v float64) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// values returns the samples oldest first.
func (r *ring) values() []float64 {
	out := make([]float64, 0, r.count)
	start := (r.next - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

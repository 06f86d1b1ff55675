package engine

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/arcadeloop/internal/interp"
)

// Options configures a Loop. The zero value is usable.
type Options struct {
	// Registry holds the objects captured into snapshots. A new empty
	// registry is created when nil.
	Registry *interp.Registry

	// Refresher drives the presentation activity. Defaults to a
	// TickerRefresher at DefaultRefreshHz.
	Refresher Refresher

	Mode RatioMode

	// FrameBudget overrides the presentation budget. When zero it is the
	// refresh interval rounded up to whole milliseconds.
	FrameBudget time.Duration

	Logger   *log.Logger
	Observer Observer

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Debug enables the registry leak check at shutdown.
	Debug bool
}

func (o Options) withDefaults() Options {
	if o.Registry == nil {
		o.Registry = interp.NewRegistry()
	}
	if o.Refresher == nil {
		o.Refresher = NewTickerRefresher(DefaultRefreshHz)
	}
	if o.FrameBudget <= 0 {
		o.FrameBudget = budgetFor(o.Refresher.Interval())
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// budgetFor rounds interval up to whole milliseconds.
func budgetFor(interval time.Duration) time.Duration {
	ms := math.Ceil(float64(interval) / float64(time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

package engine

import (
	"sync"
	"time"
)

// DefaultRefreshHz is used when no refresh rate is configured.
const DefaultRefreshHz = 60.0

// Refresher is the display refresh signal driving the presentation activity.
// Each value received from Frames is the time of one refresh.
type Refresher interface {
	Frames() <-chan time.Time
	Interval() time.Duration
	Stop()
}

// TickerRefresher emits refresh signals from a time.Ticker.
// The ticker starts on the first call to Frames.
type TickerRefresher struct {
	interval time.Duration

	mu     sync.Mutex
	ticker *time.Ticker
}

// NewTickerRefresher creates a refresher firing hz times per second.
// Non-positive rates fall back to DefaultRefreshHz.
func NewTickerRefresher(hz float64) *TickerRefresher {
	if hz <= 0 {
		hz = DefaultRefreshHz
	}
	return &TickerRefresher{
		interval: time.Duration(float64(time.Second) / hz),
	}
}

// Frames returns the refresh channel.
func (r *TickerRefresher) Frames() <-chan time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker == nil {
		r.ticker = time.NewTicker(r.interval)
	}
	return r.ticker.C
}

// Interval returns the nominal time between refreshes.
func (r *TickerRefresher) Interval() time.Duration {
	return r.interval
}

// Stop halts the ticker. Safe to call more than once.
func (r *TickerRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker != nil {
		r.ticker.Stop()
	}
}

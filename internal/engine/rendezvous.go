package engine

import (
	"sync/atomic"
	"time"
)

// activityCount is the number of parties meeting at a rendezvous.
const activityCount = 2

// rendezvous is a one-shot meeting point for a pause or stop request.
// Each activity arrives once and then waits for release.
type rendezvous struct {
	remaining atomic.Int32
	arrived   chan struct{} // closed when every activity arrived
	release   chan struct{} // closed on resume or stop
	stop      atomic.Bool   // set before release when the activities must exit
}

func newRendezvous(parties int) *rendezvous {
	rv := &rendezvous{
		arrived: make(chan struct{}),
		release: make(chan struct{}),
	}
	rv.remaining.Store(int32(parties))
	return rv
}

func (rv *rendezvous) arrive() {
	if rv.remaining.Add(-1) == 0 {
		close(rv.arrived)
	}
}

// playClock measures time since the loop epoch, excluding paused time.
type playClock struct {
	now    func() time.Time
	epoch  time.Time
	paused atomic.Int64
}

func (c *playClock) start() {
	c.epoch = c.now()
}

// since converts a wall time to play time.
func (c *playClock) since(t time.Time) time.Duration {
	return t.Sub(c.epoch) - time.Duration(c.paused.Load())
}

func (c *playClock) addPaused(d time.Duration) {
	if d > 0 {
		c.paused.Add(int64(d))
	}
}

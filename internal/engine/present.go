package engine

import (
	"context"
	"fmt"
	"time"
)

// presenter holds the presentation activity's private state.
type presenter struct {
	l        *Loop
	skipNext bool
	// releasedAt drops refresh signals queued while the loop was paused.
	releasedAt time.Time
}

// runFrames is the presentation activity, driven by the refresher.
func (l *Loop) runFrames(ctx context.Context) error {
	l.presentGID.Store(goroutineID())
	defer l.presentGID.Store(0)

	p := &presenter{l: l}
	frames := l.refresh.Frames()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.presentNotify:
			if p.suspend(ctx) {
				return nil
			}
		case t, ok := <-frames:
			if !ok {
				return fmt.Errorf("engine: present: %w", ErrRefresherClosed)
			}
			exit, err := p.cycle(ctx, t)
			if err != nil || exit {
				return err
			}
		}
	}
}

// suspend honors a pending pause or stop. It reports whether to exit.
func (p *presenter) suspend(ctx context.Context) bool {
	if p.l.pending.Load() == nil {
		return false
	}
	exit := p.l.checkpoint(ctx, p.l.endPendingFrame)
	p.skipNext = false
	p.releasedAt = p.l.clock.now()
	return exit
}

// cycle handles one refresh signal at wall time t.
func (p *presenter) cycle(ctx context.Context, t time.Time) (exit bool, err error) {
	l := p.l
	if t.Before(p.releasedAt) {
		return false, nil
	}

	if p.skipNext {
		p.skipNext = false
		if l.pending.Load() == nil {
			l.logger.Debug("skipping frame after overrun")
			l.observer.FrameSkipped()
			return false, nil
		}
	}
	if l.pending.Load() != nil {
		return p.suspend(ctx), nil
	}

	began := l.clock.now()
	ratio, painted, err := p.paint(l.clock.since(t))
	if l.surface.FrameInProgress() {
		l.surface.EndFrame()
	}
	if err != nil {
		return true, err
	}
	took := l.clock.now().Sub(began)

	if painted {
		l.observer.FramePainted(ratio, took)
	} else {
		l.logger.Debug("not enough snapshots to paint", "queued", p.queued())
		l.observer.FrameStarved()
	}

	if took > l.budget {
		p.skipNext = true
		l.logger.Debug("frame over budget", "took", took, "budget", l.budget)
	}
	return false, nil
}

// paint interpolates the two oldest snapshots for play time now and renders
// one frame. Snapshots the refresh has moved past are discarded. The frame is
// left in progress for the caller to end outside the critical section.
func (p *presenter) paint(now time.Duration) (ratio float64, painted bool, err error) {
	l := p.l
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.Period()
	for l.queue.len() >= 2 {
		older, newer := l.queue.pair()
		ratio = l.mode.Ratio(now, older.at, newer.at, period)
		if ratio >= 1 {
			l.queue.dropOldest()
			l.observer.SnapshotDropped()
			continue
		}

		err := guard("load", func() error {
			return restoreInterpolated(older, newer, ratio, l.registry)
		})
		if err != nil {
			return ratio, false, err
		}
		dst := l.surface.BeginFrame()
		if err := guard("render", func() error { return l.sim.Render(dst) }); err != nil {
			return ratio, false, err
		}
		return ratio, true, nil
	}
	return 0, false, nil
}

func (p *presenter) queued() int {
	p.l.mu.Lock()
	defer p.l.mu.Unlock()
	return p.l.queue.len()
}

// endPendingFrame ends a frame left in progress before suspending.
func (l *Loop) endPendingFrame() {
	if l.surface.FrameInProgress() {
		l.surface.EndFrame()
	}
}

package engine

import (
	"context"
	"time"
)

// runUpdates is the update activity. Each iteration steps the simulation,
// captures a snapshot and reschedules itself one period after the step began.
func (l *Loop) runUpdates(ctx context.Context) error {
	l.updateGID.Store(goroutineID())
	defer l.updateGID.Store(0)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	period := l.Period()
	for {
		began := l.clock.now()
		next := began.Add(period)

		if err := l.step(began); err != nil {
			return err
		}
		if exit := l.hold(ctx, &next); exit {
			return nil
		}

		for {
			wait := next.Sub(l.clock.now())
			if wait <= 0 {
				break
			}
			timer.Reset(wait)

			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			case <-l.updateNotify:
				timer.Stop()
				if l.pending.Load() == nil {
					continue
				}
				if exit := l.hold(ctx, &next); exit {
					return nil
				}
				continue
			}
			break
		}
	}
}

// hold honors a pending pause or stop and shifts next by the time spent
// suspended, so the first step after a resume keeps the cadence.
func (l *Loop) hold(ctx context.Context, next *time.Time) (exit bool) {
	if l.pending.Load() == nil {
		return false
	}
	arrived := l.clock.now()
	if l.checkpoint(ctx, nil) {
		return true
	}
	*next = next.Add(l.clock.now().Sub(arrived))
	return false
}

// step runs one simulation step and queues its snapshot.
func (l *Loop) step(began time.Time) error {
	at := l.clock.since(began)

	l.mu.Lock()
	err := guard("step", l.sim.Step)
	if err == nil {
		err = guard("save", func() error {
			snap, err := captureSnapshot(at, l.registry)
			if err != nil {
				return err
			}
			l.queue.push(snap)
			return nil
		})
	}
	l.mu.Unlock()

	if err != nil {
		return err
	}
	l.observer.StepCompleted(at, l.clock.now().Sub(began))
	return nil
}

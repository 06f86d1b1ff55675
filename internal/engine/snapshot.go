package engine

import (
	"fmt"
	"time"

	"github.com/vovakirdan/arcadeloop/internal/interp"
)

// Snapshot is an immutable capture of every registered object's channels,
// taken at the start of one update step.
type Snapshot struct {
	at     time.Duration
	order  []interp.Handle
	values map[interp.Handle]savedChannels
}

type savedChannels struct {
	obj    interp.Interpolatable
	values []float64
}

// captureSnapshot saves every registry member at play time at.
func captureSnapshot(at time.Duration, reg *interp.Registry) (*Snapshot, error) {
	s := &Snapshot{
		at:     at,
		values: make(map[interp.Handle]savedChannels, reg.Len()),
	}
	err := reg.Save(func(m interp.Member, values []float64) {
		s.order = append(s.order, m.Handle)
		s.values[m.Handle] = savedChannels{obj: m.Object, values: values}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Timestamp returns the play-clock time of the step that produced s.
func (s *Snapshot) Timestamp() time.Duration {
	return s.at
}

// Len returns the number of objects captured.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Handles returns the captured handles in capture order.
func (s *Snapshot) Handles() []interp.Handle {
	return append([]interp.Handle(nil), s.order...)
}

// Values returns a copy of the channels saved for h.
func (s *Snapshot) Values(h interp.Handle) ([]float64, bool) {
	v, ok := s.values[h]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), v.values...), true
}

// restoreInterpolated loads past*(1-ratio) + current*ratio into every object
// captured in both snapshots and still registered.
func restoreInterpolated(past, current *Snapshot, ratio float64, reg *interp.Registry) error {
	for _, h := range current.order {
		prev, ok := past.values[h]
		if !ok || !reg.Has(h) {
			continue
		}
		cur := current.values[h]

		in := make([]float64, len(cur.values))
		if err := interp.LerpInto(in, prev.values, cur.values, ratio); err != nil {
			return fmt.Errorf("engine: restore handle %d: %w", h, err)
		}
		cur.obj.LoadChannels(in)
	}
	return nil
}

// snapshotQueue is a FIFO of snapshots in timestamp order.
type snapshotQueue struct {
	items []*Snapshot
}

func (q *snapshotQueue) push(s *Snapshot) {
	q.items = append(q.items, s)
}

func (q *snapshotQueue) len() int {
	return len(q.items)
}

// pair returns the two oldest snapshots. The queue must hold at least two.
func (q *snapshotQueue) pair() (older, newer *Snapshot) {
	return q.items[0], q.items[1]
}

func (q *snapshotQueue) dropOldest() {
	q.items[0] = nil
	q.items = q.items[1:]
}

func (q *snapshotQueue) reset() {
	clear(q.items)
	q.items = q.items[:0]
}

package telemetry

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Dist summarizes a set of samples.
type Dist struct {
	N      int
	Mean   float64
	StdDev float64
	P50    float64
	P95    float64
	Max    float64
}

// Summary is a snapshot of collector state.
type Summary struct {
	Counters

	// Milliseconds between consecutive step timestamps.
	StepInterval Dist
	// Milliseconds spent per step, including lock wait.
	StepDuration Dist
	// Milliseconds per painted frame.
	FrameDuration Dist
	// Interpolation ratios of painted frames.
	Ratio Dist
}

func distOf(xs []float64) Dist {
	if len(xs) == 0 {
		return Dist{}
	}

	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	d := Dist{
		N:    len(xs),
		Mean: stat.Mean(sorted, nil),
		P50:  stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:  sorted[len(sorted)-1],
	}
	if len(xs) > 1 {
		d.StdDev = stat.StdDev(sorted, nil)
	}
	return d
}

// String formats the distribution for humans.
func (d Dist) String() string {
	if d.N == 0 {
		return "n/a"
	}
	return fmt.Sprintf("avg %.2f ±%.2f  p50 %.2f  p95 %.2f  max %.2f (n=%d)",
		d.Mean, d.StdDev, d.P50, d.P95, d.Max, d.N)
}

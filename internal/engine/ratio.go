package engine

import (
	"fmt"
	"strings"
	"time"
)

// RatioMode selects how the interpolation ratio between two snapshots is
// computed. It is fixed for the lifetime of a loop.
type RatioMode int

const (
	// FixedDuration shows every snapshot pair for exactly one step period,
	// regardless of how far apart the two snapshots were actually taken.
	// An occasional early or late update is hidden at the cost of cutting the
	// pair short or holding it longer.
	FixedDuration RatioMode = iota

	// VariedDuration stretches or shrinks the display of a pair to the real
	// gap between its snapshots. Sustained drift in update timing is followed
	// smoothly; isolated early or late updates jitter.
	VariedDuration
)

// String returns the config name of the mode.
func (m RatioMode) String() string {
	switch m {
	case FixedDuration:
		return "fixed"
	case VariedDuration:
		return "varied"
	default:
		return fmt.Sprintf("RatioMode(%d)", int(m))
	}
}

// ParseRatioMode parses "fixed" or "varied".
func ParseRatioMode(s string) (RatioMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return FixedDuration, nil
	case "varied":
		return VariedDuration, nil
	default:
		return FixedDuration, fmt.Errorf("engine: unknown ratio mode %q", s)
	}
}

// Ratio returns the position of refresh after newer, in units of the display
// duration chosen by the mode. The result is not clamped.
func (m RatioMode) Ratio(refresh, older, newer, period time.Duration) float64 {
	span := period
	if m == VariedDuration {
		if gap := newer - older; gap > 0 {
			span = gap
		}
	}
	return float64(refresh-newer) / float64(span)
}

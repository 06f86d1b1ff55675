package interp

import "fmt"

// Lerp blends past and current by ratio: past*(1-ratio) + current*ratio.
// The ratio is not clamped.
func Lerp(past, current, ratio float64) float64 {
	return past*(1-ratio) + current*ratio
}

// LerpInto writes the channel-wise blend of past and current into dst.
// All three slices must have the same length.
func LerpInto(dst, past, current []float64, ratio float64) error {
	if len(past) != len(current) || len(dst) != len(current) {
		return fmt.Errorf("interp: lerp %d/%d/%d values: %w", len(past), len(current), len(dst), ErrChannelMismatch)
	}
	for i := range current {
		dst[i] = Lerp(past[i], current[i], ratio)
	}
	return nil
}

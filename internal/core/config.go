package core

// RuntimeConfig is handed to simulations when they are created.
type RuntimeConfig struct {
	ScreenW int   // Initial width in cells; the surface reports the real size at start
	ScreenH int   // Initial height in cells
	UPS     int   // Requested simulation updates per second
	Seed    int64 // RNG seed, 0 means derive from time
}

// DefaultUPS divides 1000 evenly, giving a 20ms step.
const DefaultUPS = 50

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW: 80,
		ScreenH: 24,
		UPS:     DefaultUPS,
	}
}

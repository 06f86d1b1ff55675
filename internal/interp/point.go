package interp

// Point is a two-channel Interpolatable position. X and Y are simulation
// state; the shown position is what the last restore loaded and is what a
// renderer should draw.
type Point struct {
	X, Y float64

	shownX, shownY float64
}

// NewPoint creates a point shown where it stands.
func NewPoint(x, y float64) *Point {
	return &Point{X: x, Y: y, shownX: x, shownY: y}
}

func (p *Point) Channels() int { return 2 }

func (p *Point) SaveChannels(out []float64) {
	out[0], out[1] = p.X, p.Y
}

func (p *Point) LoadChannels(in []float64) {
	p.shownX, p.shownY = in[0], in[1]
}

// Shown returns the display position.
func (p *Point) Shown() (x, y float64) {
	return p.shownX, p.shownY
}

// Teleport moves both the simulated and the shown position.
func (p *Point) Teleport(x, y float64) {
	p.X, p.Y = x, y
	p.shownX, p.shownY = x, y
}

// Package colorize maps slope angles to colors along a three stop gradient.
package colorize

import (
	"image/color"
	"math"

	"github.com/gruppe-adler/meh-slope/internal/grid"
)

// DefaultMaxAngle is the slope in degrees that maps to the high stop.
const DefaultMaxAngle = 45.0

// Black is painted for cells without a slope value.
var Black = color.RGBA{0, 0, 0, 255}

// Default stops: green for flat, yellow for medium, red for steep terrain.
var (
	DefaultLow    = color.RGBA{R: 0, G: 160, B: 60, A: 255}
	DefaultMedium = color.RGBA{R: 255, G: 220, B: 0, A: 255}
	DefaultHigh   = color.RGBA{R: 200, G: 0, B: 0, A: 255}
)

// Colorizer interpolates slope angles through the Low, Medium and High
// stops. It is stateless; the same slope always yields the same color.
type Colorizer struct {
	Low, Medium, High color.RGBA

	// MaxAngle is the normalization ceiling in degrees.
	MaxAngle float64
}

// New returns a Colorizer with the default stops and the given ceiling.
// A non-positive maxAngle selects DefaultMaxAngle.
func New(maxAngle float64) Colorizer {
	if maxAngle <= 0 {
		maxAngle = DefaultMaxAngle
	}

	return Colorizer{
		Low:      DefaultLow,
		Medium:   DefaultMedium,
		High:     DefaultHigh,
		MaxAngle: maxAngle,
	}
}

// Normalize maps a slope in degrees to [0, 1].
func (c Colorizer) Normalize(slope float32) float64 {
	t := float64(slope) / c.MaxAngle
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Weights returns the contribution of the low, medium and high stops for a
// normalized slope t. The weights sum to 1 and at most two are non-zero.
func Weights(t float64) (low, medium, high float64) {
	if t < 0.5 {
		u := t / 0.5
		return 1 - u, u, 0
	}

	u := (t - 0.5) / 0.5
	return 0, 1 - u, u
}

// Color returns the gradient color for a slope in degrees.
// Negative slopes yield Black.
func (c Colorizer) Color(slope float32) color.RGBA {
	if slope < 0 || math.IsNaN(float64(slope)) {
		return Black
	}

	low, medium, high := Weights(c.Normalize(slope))

	return color.RGBA{
		R: channel(c.Low.R, c.Medium.R, c.High.R, low, medium, high),
		G: channel(c.Low.G, c.Medium.G, c.High.G, low, medium, high),
		B: channel(c.Low.B, c.Medium.B, c.High.B, low, medium, high),
		A: 255,
	}
}

func channel(l, m, h uint8, low, medium, high float64) uint8 {
	v := float64(l)*low + float64(m)*medium + float64(h)*high

	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

// Grid is a dense row-major grid of colors.
type Grid struct {
	Height, Width int
	Pix           []color.RGBA
}

// At returns the color at row i, column j.
func (g *Grid) At(i, j int) color.RGBA {
	return g.Pix[i*g.Width+j]
}

// Colorize maps every cell of sg to a color. Border cells carry no slope
// and are painted Black.
func (c Colorizer) Colorize(sg *grid.SlopeGrid) *Grid {
	out := &Grid{
		Height: sg.Height,
		Width:  sg.Width,
		Pix:    make([]color.RGBA, len(sg.Data)),
	}

	for i := 0; i < sg.Height; i++ {
		for j := 0; j < sg.Width; j++ {
			k := i*sg.Width + j
			if grid.IsBorder(sg.Height, sg.Width, i, j) {
				out.Pix[k] = Black
				continue
			}
			out.Pix[k] = c.Color(sg.Data[k])
		}
	}

	return out
}

// Package grid holds the dense elevation and slope grids, the metadata
// derived from the source samples and the row-band partitioner used to fit
// a grid into device memory.
package grid

import "math"

// ElevationGrid is a dense row-major grid of non-negative elevations.
type ElevationGrid struct {
	Height, Width int
	Data          []float32
}

// NewElevationGrid builds a grid from row-major data. Values below 0 and
// non-finite values are clamped to 0. The data slice is taken over, not
// copied.
func NewElevationGrid(height, width int, data []float32) (*ElevationGrid, error) {
	if height <= 0 || width <= 0 {
		return nil, Malformed("grid dimensions must be positive, got %dx%d", height, width)
	}
	if len(data) != height*width {
		return nil, Malformed("expected %d samples for a %dx%d grid, got %d", height*width, height, width, len(data))
	}

	for i, v := range data {
		if v < 0 || math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			data[i] = 0
		}
	}

	return &ElevationGrid{Height: height, Width: width, Data: data}, nil
}

// MaskNoData sets every cell holding the declared no-data value to 0 and
// returns how many cells were masked.
func (g *ElevationGrid) MaskNoData(noData float64) int {
	if math.IsNaN(noData) || noData < 0 {
		// already clamped
		return 0
	}

	v := float32(noData)
	masked := 0
	for i := range g.Data {
		if g.Data[i] == v {
			g.Data[i] = 0
			masked++
		}
	}
	return masked
}

// At returns the elevation at row i, column j.
// It will panic if i or j are out of bounds for the grid.
func (g *ElevationGrid) At(i, j int) float32 {
	return g.Data[i*g.Width+j]
}

// Row returns row i without copying.
func (g *ElevationGrid) Row(i int) []float32 {
	return g.Data[i*g.Width : (i+1)*g.Width]
}

// SlopeGrid is a dense row-major grid of slope angles in degrees.
// Border rows and columns stay 0.
type SlopeGrid struct {
	Height, Width int
	Data          []float32
}

// NewSlopeGrid allocates a zeroed slope grid.
func NewSlopeGrid(height, width int) *SlopeGrid {
	return &SlopeGrid{
		Height: height,
		Width:  width,
		Data:   make([]float32, height*width),
	}
}

// At returns the slope at row i, column j.
func (g *SlopeGrid) At(i, j int) float32 {
	return g.Data[i*g.Width+j]
}

// Rows returns the backing slice for rows [start, start+count).
func (g *SlopeGrid) Rows(start, count int) []float32 {
	return g.Data[start*g.Width : (start+count)*g.Width]
}

// IsBorder reports whether (i, j) lies on the outer ring of a height×width grid.
func IsBorder(height, width, i, j int) bool {
	return i == 0 || j == 0 || i == height-1 || j == width-1
}

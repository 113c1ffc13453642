package grid

import (
	"github.com/paulmach/orb"
)

// SpacingFactor compensates for the 2-cell wide finite difference
// denominator of the slope stencil.
const SpacingFactor = 8

// Stats is the scalar metadata derived once from the source grid.
type Stats struct {
	Height      int
	Width       int
	GridSpacing float64

	// Bound is the extent of the sampled coordinates.
	Bound orb.Bound
}

// SpacingScanner derives the grid spacing during a single linear scan over
// the source samples. It records the first two distinct consecutive X
// values and ignores the rest.
type SpacingScanner struct {
	count   int
	prevX   float64
	spacing float64
	found   bool
	bound   orb.Bound
}

// Observe feeds the next sample position in scan order.
func (s *SpacingScanner) Observe(p orb.Point) {
	if s.count == 0 {
		s.bound = p.Bound()
	} else {
		s.bound = s.bound.Extend(p)
	}

	if !s.found && s.count > 0 && p.X() != s.prevX {
		s.spacing = SpacingFactor * (p.X() - s.prevX)
		s.found = true
	}

	s.prevX = p.X()
	s.count++
}

// Count returns the number of observed samples.
func (s *SpacingScanner) Count() int {
	return s.count
}

// Spacing returns the derived grid spacing and whether it could be determined.
func (s *SpacingScanner) Spacing() (float64, bool) {
	return s.spacing, s.found
}

// Bound returns the extent of all observed samples.
func (s *SpacingScanner) Bound() orb.Bound {
	return s.bound
}

// NewStats combines the declared dimensions with the spacing found by scanner.
func NewStats(height, width int, scanner *SpacingScanner) (Stats, error) {
	if height <= 0 || width <= 0 {
		return Stats{}, Malformed("declared grid dimensions must be positive, got %dx%d", height, width)
	}
	if scanner == nil || scanner.Count() < 2 {
		return Stats{}, Malformed("at least 2 samples are needed to derive the grid spacing")
	}

	spacing, ok := scanner.Spacing()
	if !ok {
		return Stats{}, Malformed("grid spacing undeterminable: fewer than 2 distinct X samples")
	}
	if spacing < 0 {
		spacing = -spacing
	}

	return Stats{
		Height:      height,
		Width:       width,
		GridSpacing: spacing,
		Bound:       scanner.Bound(),
	}, nil
}

// NewStatsFromCellSize builds stats for sources that declare their sample
// distance directly, like ESRI ASCII grids.
func NewStatsFromCellSize(height, width int, cellSize float64, bound orb.Bound) (Stats, error) {
	if height <= 0 || width <= 0 {
		return Stats{}, Malformed("declared grid dimensions must be positive, got %dx%d", height, width)
	}
	if cellSize <= 0 {
		return Stats{}, Malformed("cell size must be greater than 0, got %f", cellSize)
	}

	return Stats{
		Height:      height,
		Width:       width,
		GridSpacing: SpacingFactor * cellSize,
		Bound:       bound,
	}, nil
}

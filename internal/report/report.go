// Package report summarizes a slope grid.
package report

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gruppe-adler/meh-slope/internal/grid"
)

// Summary holds statistics over the interior cells of a slope grid.
type Summary struct {
	Cells  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

func (s Summary) String() string {
	return fmt.Sprintf("%d cells, min %.2f°, max %.2f°, mean %.2f° (σ %.2f°), median %.2f°",
		s.Cells, s.Min, s.Max, s.Mean, s.StdDev, s.Median)
}

// interior returns the slope values of all non-border cells, skipping NaN.
func interior(sg *grid.SlopeGrid) []float64 {
	if sg.Height < 3 || sg.Width < 3 {
		return nil
	}

	values := make([]float64, 0, (sg.Height-2)*(sg.Width-2))
	for i := 1; i < sg.Height-1; i++ {
		for j := 1; j < sg.Width-1; j++ {
			v := float64(sg.At(i, j))
			if math.IsNaN(v) {
				continue
			}
			values = append(values, v)
		}
	}
	return values
}

// Summarize computes statistics over the interior cells of sg.
func Summarize(sg *grid.SlopeGrid) Summary {
	values := interior(sg)
	if len(values) == 0 {
		return Summary{}
	}

	mean, std := stat.MeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Summary{
		Cells:  len(values),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
	}
}

// WriteHistogram draws the distribution of interior slope values into a
// PNG at filePath.
func WriteHistogram(sg *grid.SlopeGrid, filePath string, bins int) error {
	values := interior(sg)
	if len(values) == 0 {
		return fmt.Errorf("report: slope grid %dx%d has no interior cells", sg.Height, sg.Width)
	}
	if bins <= 0 {
		bins = 45
	}

	p := plot.New()
	p.Title.Text = "Slope distribution"
	p.X.Label.Text = "slope (°)"
	p.Y.Label.Text = "cells"

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return fmt.Errorf("report: histogram: %w", err)
	}
	h.FillColor = color.RGBA{R: 200, G: 80, B: 0, A: 255}
	p.Add(h)

	return p.Save(8*vg.Inch, 4*vg.Inch, filePath)
}

// Package render hands colorized slope grids to the image encoders.
package render

import (
	"fmt"
	"image"

	"github.com/gruppe-adler/meh-slope/internal/colorize"
	"github.com/gruppe-adler/meh-slope/internal/logger"
)

// ExportRangeError reports a grid cell that falls outside the target
// raster. The pixel is skipped; the export continues.
type ExportRangeError struct {
	X, Y   int
	Bounds image.Rectangle
}

func (e *ExportRangeError) Error() string {
	return fmt.Sprintf("render: pixel (%d,%d) outside raster bounds %v", e.X, e.Y, e.Bounds)
}

// Encode writes cg into a new raster with the given bounds. Column j, row i
// of the grid becomes pixel (Min.X+j, Min.Y+i). Cells that fall outside
// bounds are logged and skipped; their number is returned.
func Encode(cg *colorize.Grid, bounds image.Rectangle) (*image.RGBA, int) {
	img := image.NewRGBA(bounds)
	skipped := 0

	for i := 0; i < cg.Height; i++ {
		for j := 0; j < cg.Width; j++ {
			p := image.Point{X: bounds.Min.X + j, Y: bounds.Min.Y + i}

			if !p.In(bounds) {
				if skipped == 0 {
					logger.Logger().Warn("render: skipping pixel", "err", &ExportRangeError{X: p.X, Y: p.Y, Bounds: bounds})
				}
				skipped++
				continue
			}

			img.SetRGBA(p.X, p.Y, cg.At(i, j))
		}
	}

	if skipped > 0 {
		logger.Logger().Warn("render: pixels outside raster bounds", "skipped", skipped, "bounds", bounds)
	}

	return img, skipped
}

// Image encodes cg into a raster of exactly its own size.
func Image(cg *colorize.Grid) *image.RGBA {
	img, _ := Encode(cg, image.Rect(0, 0, cg.Width, cg.Height))
	return img
}

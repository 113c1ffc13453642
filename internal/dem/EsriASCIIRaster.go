package dem

import (
	"github.com/paulmach/orb"

	"github.com/gruppe-adler/meh-slope/internal/grid"
)

// EsriASCIIRaster represents a ESRI ASCII Grid
type EsriASCIIRaster struct {
	Ncols, Nrows     uint
	Xcenter, Ycenter *float64
	Xcorner, Ycorner *float64
	CellSize         float64
	NoDataValue      *float64
	Data             [][]float64
}

// Dims returns the dimensions of the grid.
func (raster EsriASCIIRaster) Dims() (c, r uint) {
	return raster.Ncols, raster.Nrows
}

// Bound returns the extent covered by the raster cells.
func (raster EsriASCIIRaster) Bound() orb.Bound {
	var minX, minY float64

	switch {
	case raster.Xcorner != nil && raster.Ycorner != nil:
		minX, minY = *raster.Xcorner, *raster.Ycorner
	case raster.Xcenter != nil && raster.Ycenter != nil:
		minX, minY = *raster.Xcenter-raster.CellSize/2, *raster.Ycenter-raster.CellSize/2
	}

	return orb.Bound{
		Min: orb.Point{minX, minY},
		Max: orb.Point{minX + float64(raster.Ncols)*raster.CellSize, minY + float64(raster.Nrows)*raster.CellSize},
	}
}

// Grid converts the raster into an elevation grid and its stats.
// Cells holding the NODATA value and negative or NaN elevations become 0.
func (raster EsriASCIIRaster) Grid() (*grid.ElevationGrid, grid.Stats, error) {
	h, w := int(raster.Nrows), int(raster.Ncols)

	stats, err := grid.NewStatsFromCellSize(h, w, raster.CellSize, raster.Bound())
	if err != nil {
		return nil, grid.Stats{}, err
	}
	if len(raster.Data) != h {
		return nil, grid.Stats{}, grid.Malformed("raster declares %d rows but has %d", h, len(raster.Data))
	}

	data := make([]float32, 0, h*w)
	for _, row := range raster.Data {
		for _, v := range row {
			if raster.NoDataValue != nil && v == *raster.NoDataValue {
				v = 0
			}
			data = append(data, float32(v))
		}
	}

	g, err := grid.NewElevationGrid(h, w, data)
	if err != nil {
		return nil, grid.Stats{}, err
	}

	return g, stats, nil
}

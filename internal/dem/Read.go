package dem

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gruppe-adler/meh-slope/internal/grid"
	"github.com/gruppe-adler/meh-slope/internal/logger"
)

// Format is a supported elevation input format.
type Format int

const (
	// FormatUnknown is anything not handled natively.
	FormatUnknown Format = iota
	// FormatEsriASCII is an ESRI ASCII grid (.asc).
	FormatEsriASCII
	// FormatXYZ is a GDAL XYZ point list (.xyz).
	FormatXYZ
)

// DetectFormat guesses the format from the file name. A trailing .gz is ignored.
func DetectFormat(path string) Format {
	name := strings.TrimSuffix(strings.ToLower(path), ".gz")

	switch {
	case strings.HasSuffix(name, ".asc"):
		return FormatEsriASCII
	case strings.HasSuffix(name, ".xyz"), strings.HasSuffix(name, ".txt"):
		return FormatXYZ
	}
	return FormatUnknown
}

// Dims are the declared dimensions of an XYZ source. NoData, if set, is
// the source's no-data value; matching samples become 0.
type Dims struct {
	Height, Width int
	NoData        *float64
}

// Read loads a digital elevation model from path. Gzipped files are
// decompressed on the fly. dims is required for XYZ input.
func Read(path string, dims *Dims) (*grid.ElevationGrid, grid.Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, grid.Stats{}, err
	}
	defer file.Close()

	var reader io.Reader = file

	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, grid.Stats{}, err
		}
		defer gz.Close()

		reader = gz
	}

	switch DetectFormat(path) {
	case FormatEsriASCII:
		raster, err := ParseEsriASCIIRaster(reader)
		if err != nil {
			return nil, grid.Stats{}, err
		}
		return raster.Grid()

	case FormatXYZ:
		if dims == nil {
			return nil, grid.Stats{}, grid.Malformed("XYZ input %s needs declared height and width", path)
		}
		g, stats, err := ParseXYZ(reader, dims.Height, dims.Width)
		if err != nil {
			return nil, grid.Stats{}, err
		}
		if dims.NoData != nil {
			masked := g.MaskNoData(*dims.NoData)
			logger.Logger().Debug("dem: masked no-data samples", "path", path, "noData", *dims.NoData, "cells", masked)
		}
		return g, stats, nil
	}

	return nil, grid.Stats{}, fmt.Errorf("unsupported DEM format: %s", path)
}

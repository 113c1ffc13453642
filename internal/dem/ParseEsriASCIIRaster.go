package dem

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

const maxLineLength = 64 * 1024 * 1024

// mandatory header keywords; NODATA_VALUE is optional and either the
// CENTER or the CORNER pair is needed, not both
var mandatoryHeaders = []string{"NCOLS", "NROWS", "XLLCENTER", "XLLCORNER", "YLLCENTER", "YLLCORNER", "CELLSIZE"}

// ParseEsriASCIIRaster parses an ESRI ASCII grid with its header.
func ParseEsriASCIIRaster(reader io.Reader) (EsriASCIIRaster, error) {

	raster := EsriASCIIRaster{}
	remainingHeaders := slices.Clone(mandatoryHeaders)
	seenHeaders := map[string]bool{}
	rowIndex := uint(0)
	var esriData [][]float64

	scanner := bufio.NewScanner(reader)
	// data rows of large maps easily exceed the default token size
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineLength)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		keyword := strings.ToUpper(fields[0])

		if esriData == nil && isHeaderKeyword(keyword) {
			if seenHeaders[keyword] {
				return raster, fmt.Errorf("duplicate header: %s", fields[0])
			}
			seenHeaders[keyword] = true

			remainingHeaders = slices.DeleteFunc(remainingHeaders, func(h string) bool {
				return h == keyword || h == alternativeHeader(keyword)
			})

			if err := parseHeaderLine(fields, &raster); err != nil {
				return raster, err
			}
			continue
		}

		// first data line
		if esriData == nil {
			if len(remainingHeaders) > 0 {
				return raster, fmt.Errorf("DEM doesn't include all mandatory headers: %s", strings.Join(remainingHeaders, ", "))
			}
			if raster.Nrows == 0 || raster.Ncols == 0 {
				return raster, fmt.Errorf("DEM must have at least one row and column")
			}

			esriData = make([][]float64, raster.Nrows)
		}

		if rowIndex >= raster.Nrows {
			return raster, fmt.Errorf("DEM has more data rows than the declared %d", raster.Nrows)
		}

		row, err := parseDataLine(fields, raster.Ncols)
		if err != nil {
			return raster, fmt.Errorf("data row %d: %w", rowIndex+1, err)
		}

		esriData[rowIndex] = row
		rowIndex++
	}

	if err := scanner.Err(); err != nil {
		return raster, err
	}
	if rowIndex < raster.Nrows {
		return raster, fmt.Errorf("DEM has %d data rows, header declares %d", rowIndex, raster.Nrows)
	}

	raster.Data = esriData

	return raster, nil
}

func isHeaderKeyword(keyword string) bool {
	return keyword == "NODATA_VALUE" || slices.Contains(mandatoryHeaders, keyword)
}

// alternativeHeader returns the keyword made redundant by keyword, as a
// lower left corner can be given by its center or its corner.
func alternativeHeader(keyword string) string {
	switch keyword {
	case "XLLCENTER":
		return "XLLCORNER"
	case "XLLCORNER":
		return "XLLCENTER"
	case "YLLCENTER":
		return "YLLCORNER"
	case "YLLCORNER":
		return "YLLCENTER"
	}
	return ""
}

func parseHeaderLine(fields []string, raster *EsriASCIIRaster) error {
	if len(fields) != 2 {
		return fmt.Errorf("header line must have exactly two fields")
	}

	keyword := strings.ToUpper(fields[0])

	switch keyword {
	case "NCOLS", "NROWS":
		i, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", fields[0], err)
		}
		if keyword == "NCOLS" {
			raster.Ncols = uint(i)
		} else {
			raster.Nrows = uint(i)
		}
		return nil
	}

	f, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("%s: %w", fields[0], err)
	}

	switch keyword {
	case "XLLCENTER":
		raster.Xcenter = &f
	case "XLLCORNER":
		raster.Xcorner = &f
	case "YLLCENTER":
		raster.Ycenter = &f
	case "YLLCORNER":
		raster.Ycorner = &f
	case "CELLSIZE":
		if f <= 0.0 {
			return fmt.Errorf("CELLSIZE must be greater than 0")
		}
		raster.CellSize = f
	case "NODATA_VALUE":
		raster.NoDataValue = &f
	default:
		return fmt.Errorf("unknown header keyword: %s", fields[0])
	}

	return nil
}

func parseDataLine(fields []string, cols uint) ([]float64, error) {
	if uint(len(fields)) < cols {
		return nil, fmt.Errorf("expected %d values, got %d", cols, len(fields))
	}

	row := make([]float64, cols)
	for i := range row {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		row[i] = f
	}

	return row, nil
}

package dem

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/gruppe-adler/meh-slope/internal/grid"
)

// ParseXYZ reads "X Y Z" sample lines in scan order (row-major, by Y then
// X) into a height×width elevation grid. The dimensions are declared by the
// caller; the grid spacing is derived from the samples while reading.
func ParseXYZ(reader io.Reader, height, width int) (*grid.ElevationGrid, grid.Stats, error) {
	if height <= 0 || width <= 0 {
		return nil, grid.Stats{}, grid.Malformed("declared grid dimensions must be positive, got %dx%d", height, width)
	}

	data := make([]float32, 0, height*width)
	scanner := &grid.SpacingScanner{}
	lines := bufio.NewScanner(reader)
	lineNo := 0

	for lines.Scan() {
		lineNo++
		fields := strings.Fields(strings.ReplaceAll(lines.Text(), ",", " "))
		if len(fields) == 0 {
			continue
		}

		x, y, z, err := parseSample(fields)
		if err != nil {
			// optional "X Y Z" header line
			if len(data) == 0 && scanner.Count() == 0 && lineNo == 1 {
				continue
			}
			return nil, grid.Stats{}, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if len(data) == height*width {
			return nil, grid.Stats{}, grid.Malformed("more than the declared %d samples", height*width)
		}

		scanner.Observe(orb.Point{x, y})
		data = append(data, float32(z))
	}

	if err := lines.Err(); err != nil {
		return nil, grid.Stats{}, err
	}

	stats, err := grid.NewStats(height, width, scanner)
	if err != nil {
		return nil, grid.Stats{}, err
	}

	g, err := grid.NewElevationGrid(height, width, data)
	if err != nil {
		return nil, grid.Stats{}, err
	}

	return g, stats, nil
}

func parseSample(fields []string) (x, y, z float64, err error) {
	if len(fields) < 3 {
		return 0, 0, 0, fmt.Errorf("sample must have 3 fields, got %d", len(fields))
	}

	if x, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return
	}
	if y, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return
	}
	z, err = strconv.ParseFloat(fields[2], 64)
	return
}

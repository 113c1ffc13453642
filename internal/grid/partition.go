package grid

import "math"

// DefaultCellsPerGB is the number of grid cells a device can hold per GiB
// of memory while the elevation and the slope buffer are resident at the
// same time (2 × float32 per cell, ~10% headroom).
const DefaultCellsPerGB = 120_000_000

const bytesPerGB = 1 << 30

// Partition is a contiguous row band of an ElevationGrid.
//
// Data holds Rows×Width values. Local rows [HaloTop, Rows-HaloBottom) are
// owned by this partition; halo rows only provide stencil context.
type Partition struct {
	RowStart int
	Rows     int
	Width    int
	Data     []float32

	// HaloTop and HaloBottom are the number of context rows borrowed from
	// the neighbouring bands. Both are 0 unless built by PartitionWithHalo.
	HaloTop, HaloBottom int
}

// OwnedRows returns the absolute row range [start, end) this partition writes.
func (p Partition) OwnedRows() (start, end int) {
	return p.RowStart + p.HaloTop, p.RowStart + p.Rows - p.HaloBottom
}

// RowBudget returns the maximum number of rows of the given width that fit
// into budgetBytes of device memory.
func RowBudget(budgetBytes uint64, width int, cellsPerGB float64) int {
	if width <= 0 {
		return 0
	}
	if cellsPerGB <= 0 {
		cellsPerGB = DefaultCellsPerGB
	}

	gb := float64(budgetBytes) / bytesPerGB

	return int(math.Floor(cellsPerGB * gb / float64(width)))
}

// Partition splits g into ordered row bands of at most rowBudget rows.
// If the whole grid fits, or rowBudget is not positive (no limit), the single
// returned partition aliases g.Data.
func (g *ElevationGrid) Partition(rowBudget int) []Partition {
	if rowBudget >= g.Height || rowBudget <= 0 {
		return []Partition{{RowStart: 0, Rows: g.Height, Width: g.Width, Data: g.Data}}
	}

	partitions := make([]Partition, 0, (g.Height+rowBudget-1)/rowBudget)

	for start := 0; start < g.Height; start += rowBudget {
		rows := rowBudget
		if start+rows > g.Height {
			rows = g.Height - start
		}

		partitions = append(partitions, g.band(start, rows, 0, 0))
	}

	return partitions
}

// PartitionWithHalo works like Partition but extends every band by one row
// of context on each inner seam, so rows at a seam see their true
// neighbourhood. Each partition still owns at most rowBudget-2 rows.
func (g *ElevationGrid) PartitionWithHalo(rowBudget int) []Partition {
	if rowBudget >= g.Height || rowBudget <= 2 {
		return g.Partition(rowBudget)
	}

	owned := rowBudget - 2
	partitions := make([]Partition, 0, (g.Height+owned-1)/owned)

	for start := 0; start < g.Height; start += owned {
		end := start + owned
		if end > g.Height {
			end = g.Height
		}

		top, bottom := 0, 0
		if start > 0 {
			top = 1
		}
		if end < g.Height {
			bottom = 1
		}

		partitions = append(partitions, g.band(start-top, end-start+top+bottom, top, bottom))
	}

	return partitions
}

// PartitionCount returns how many partitions Partition (or
// PartitionWithHalo if halo is set) would produce for a grid of the given
// height, without copying any rows.
func PartitionCount(height, rowBudget int, halo bool) int {
	if rowBudget >= height || rowBudget <= 0 {
		return 1
	}

	step := rowBudget
	if halo && rowBudget > 2 {
		step = rowBudget - 2
	}

	return (height + step - 1) / step
}

func (g *ElevationGrid) band(start, rows, haloTop, haloBottom int) Partition {
	data := make([]float32, rows*g.Width)
	copy(data, g.Data[start*g.Width:(start+rows)*g.Width])

	return Partition{
		RowStart:   start,
		Rows:       rows,
		Width:      g.Width,
		Data:       data,
		HaloTop:    haloTop,
		HaloBottom: haloBottom,
	}
}

// Package slope computes per-cell terrain slope from an elevation grid,
// either on the host with one goroutine per static row band or offloaded
// to an accelerator one memory-bounded partition at a time.
package slope

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gruppe-adler/meh-slope/internal/accel"
	"github.com/gruppe-adler/meh-slope/internal/grid"
	"github.com/gruppe-adler/meh-slope/internal/logger"
)

// Mode selects the execution path.
type Mode string

const (
	// ModeCPU computes on the host across all CPU cores.
	ModeCPU Mode = "cpu"
	// ModeAccelerator offloads the computation to an accel.Device.
	ModeAccelerator Mode = "accelerator"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCPU:
		return ModeCPU, nil
	case ModeAccelerator:
		return ModeAccelerator, nil
	}
	return "", fmt.Errorf("unknown execution mode %q, expected %q or %q", s, ModeCPU, ModeAccelerator)
}

// Config configures an Engine.
type Config struct {
	Mode Mode

	// Workers is the number of host goroutines. Defaults to runtime.NumCPU().
	Workers int

	// DeviceMemoryBudgetBytes caps the device memory used per partition.
	// Zero uses the device's total memory.
	DeviceMemoryBudgetBytes uint64

	// CellsPerGB is the cell allowance per GiB of device memory.
	// Defaults to grid.DefaultCellsPerGB.
	CellsPerGB float64

	// SeamOverlap gives every partition one row of context from its
	// neighbours. Off by default, in which case rows at a partition seam are
	// treated as stencil borders and may differ from a single-shot run.
	SeamOverlap bool
}

// Engine runs the slope kernel over whole grids.
type Engine struct {
	cfg    Config
	device accel.Device
}

// NewEngine creates an engine. device is required for ModeAccelerator and
// ignored otherwise.
func NewEngine(cfg Config, device accel.Device) (*Engine, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeCPU
	}
	if _, err := ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.CellsPerGB <= 0 {
		cfg.CellsPerGB = grid.DefaultCellsPerGB
	}
	if cfg.Mode == ModeAccelerator && device == nil {
		return nil, fmt.Errorf("slope: %s mode needs a device", ModeAccelerator)
	}

	return &Engine{cfg: cfg, device: device}, nil
}

// Mode returns the engine's execution path.
func (e *Engine) Mode() Mode {
	return e.cfg.Mode
}

// Compute returns the slope grid of g using the configured path.
// g is only read.
func (e *Engine) Compute(g *grid.ElevationGrid, spacing float64) (*grid.SlopeGrid, error) {
	if spacing <= 0 {
		return nil, grid.Malformed("grid spacing must be greater than 0, got %f", spacing)
	}

	if e.cfg.Mode == ModeAccelerator {
		return e.computeOffloaded(g, float32(spacing))
	}
	return e.computeHost(g, float32(spacing))
}

// band is the static row range [start, end) a host worker owns.
type band struct {
	start, end int
}

// hostBands splits the interior rows 1..height-2 into at most n contiguous bands.
func hostBands(height, n int) []band {
	interior := height - 2
	if interior <= 0 {
		return nil
	}
	if n > interior {
		n = interior
	}

	bands := make([]band, 0, n)
	size, rest := interior/n, interior%n
	start := 1

	for k := 0; k < n; k++ {
		end := start + size
		// distribute remaining rows to the first bands
		if k < rest {
			end++
		}
		bands = append(bands, band{start: start, end: end})
		start = end
	}

	return bands
}

func (e *Engine) computeHost(g *grid.ElevationGrid, spacing float32) (*grid.SlopeGrid, error) {
	out := grid.NewSlopeGrid(g.Height, g.Width)
	if g.Width < 3 {
		return out, nil
	}

	bands := hostBands(g.Height, e.cfg.Workers)
	logger.Logger().Info("slope: host path", "workers", len(bands), "rows", g.Height, "cols", g.Width)

	var eg errgroup.Group
	for _, b := range bands {
		eg.Go(func() error {
			computeRows(g.Data, out.Data, g.Width, b, spacing)
			return nil
		})
	}

	return out, eg.Wait()
}

// computeRows evaluates the kernel for the interior cells of rows b and
// writes only into those rows of dst.
func computeRows(src, dst []float32, width int, b band, spacing float32) {
	for i := b.start; i < b.end; i++ {
		row := dst[i*width : (i+1)*width]
		for j := 1; j < width-1; j++ {
			row[j] = At(src, width, i, j, spacing)
		}
	}
}

// RowBudget returns the number of grid rows of the given width that fit
// into the device memory budget.
func (e *Engine) RowBudget(width int) int {
	budget := e.cfg.DeviceMemoryBudgetBytes
	if budget == 0 && e.device != nil {
		budget = e.device.TotalMemory()
	}

	return grid.RowBudget(budget, width, e.cfg.CellsPerGB)
}

// Partitions returns the partitions the offloaded path would process g in.
func (e *Engine) Partitions(g *grid.ElevationGrid) ([]grid.Partition, error) {
	rowBudget, err := e.checkedRowBudget(g.Height, g.Width)
	if err != nil {
		return nil, err
	}

	if e.cfg.SeamOverlap {
		return g.PartitionWithHalo(rowBudget), nil
	}
	return g.Partition(rowBudget), nil
}

// PartitionCount returns how many partitions the offloaded path would use
// for a grid of the given size, without copying it.
func (e *Engine) PartitionCount(height, width int) (int, error) {
	rowBudget, err := e.checkedRowBudget(height, width)
	if err != nil {
		return 0, err
	}

	return grid.PartitionCount(height, rowBudget, e.cfg.SeamOverlap), nil
}

func (e *Engine) checkedRowBudget(height, width int) (int, error) {
	// a partition needs at least one interior row to make progress
	const minRows = 3

	rowBudget := e.RowBudget(width)
	if rowBudget < height && rowBudget < minRows {
		return 0, fmt.Errorf("slope: device memory budget fits %d rows of width %d, need at least %d", rowBudget, width, minRows)
	}
	return rowBudget, nil
}

func (e *Engine) computeOffloaded(g *grid.ElevationGrid, spacing float32) (*grid.SlopeGrid, error) {
	partitions, err := e.Partitions(g)
	if err != nil {
		return nil, err
	}

	logger.Logger().Info("slope: offloaded path",
		"device", e.device.Name(),
		"partitions", len(partitions),
		"rowBudget", e.RowBudget(g.Width),
		"seamOverlap", e.cfg.SeamOverlap)

	out := grid.NewSlopeGrid(g.Height, g.Width)

	for _, p := range partitions {
		rows, err := e.computePartition(p, spacing)
		if err != nil {
			return nil, fmt.Errorf("slope: partition at row %d: %w", p.RowStart, err)
		}

		stitch(out, p, rows)
	}

	return out, nil
}

// computePartition runs one partition on the device and returns its slope
// rows in host memory. Device buffers are released before it returns.
func (e *Engine) computePartition(p grid.Partition, spacing float32) ([]float32, error) {
	dev := e.device

	in, err := dev.Alloc(p.Rows, p.Width)
	if err != nil {
		return nil, err
	}
	defer dev.Free(in)

	res, err := dev.Alloc(p.Rows, p.Width)
	if err != nil {
		return nil, err
	}
	defer dev.Free(res)

	if err := dev.Upload(in, p.Data); err != nil {
		return nil, err
	}

	src, dst, width := in.Data(), res.Data(), p.Width

	err = dev.Launch(p.Rows-2, p.Width-2, func(i, j int) {
		dst[(i+1)*width+j+1] = At(src, width, i+1, j+1, spacing)
	})
	if err != nil {
		return nil, err
	}

	host := make([]float32, p.Rows*p.Width)
	if err := dev.Download(host, res); err != nil {
		return nil, err
	}

	logger.Logger().Debug("slope: partition done", "rowStart", p.RowStart, "rows", p.Rows, "device", dev.Stats().String())

	return host, nil
}

// stitch copies the rows a partition owns into their absolute position in out.
func stitch(out *grid.SlopeGrid, p grid.Partition, rows []float32) {
	start, end := p.OwnedRows()
	local := start - p.RowStart

	copy(out.Rows(start, end-start), rows[local*p.Width:(local+end-start)*p.Width])
}

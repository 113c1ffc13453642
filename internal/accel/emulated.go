package accel

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gruppe-adler/meh-slope/internal/logger"
)

// DefaultEmulatedMemory is the memory size of an emulated device when none
// is given (1 GiB).
const DefaultEmulatedMemory = 1 << 30

// Emulated is a Device backed by host memory. It enforces its memory size
// like real device memory, so partitioning and allocation failures behave
// the same as on hardware.
//
// Emulated is safe for concurrent use.
type Emulated struct {
	mu sync.Mutex

	total   uint64
	used    uint64
	peak    uint64
	buffers int
	allocs  uint64

	workers int
}

var _ Device = (*Emulated)(nil)

// NewEmulated creates an emulated device with totalBytes of memory that
// executes launches on up to workers goroutines. Zero values select
// DefaultEmulatedMemory and runtime.NumCPU().
func NewEmulated(totalBytes uint64, workers int) *Emulated {
	if totalBytes == 0 {
		totalBytes = DefaultEmulatedMemory
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Emulated{total: totalBytes, workers: workers}
}

func (d *Emulated) Name() string { return "emulated" }

func (d *Emulated) TotalMemory() uint64 { return d.total }

func (d *Emulated) Alloc(rows, cols int) (*Buffer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("accel: invalid buffer shape %dx%d", rows, cols)
	}

	size := bufferBytes(rows, cols)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.used+size > d.total {
		return nil, &AllocationError{Device: d.Name(), Bytes: size, Available: d.total - d.used}
	}

	d.used += size
	d.buffers++
	d.allocs++
	if d.used > d.peak {
		d.peak = d.used
	}

	logger.Logger().Debug("accel: alloc", "rows", rows, "cols", cols, "bytes", size, "used", d.used)

	return &Buffer{Rows: rows, Cols: cols, data: make([]float32, rows*cols)}, nil
}

func (d *Emulated) Free(buf *Buffer) {
	if buf == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if buf.freed {
		return
	}

	buf.freed = true
	buf.data = nil
	d.used -= buf.Bytes()
	d.buffers--
}

// Upload copies src into buf. Transfers are serialized, like a single copy
// queue.
func (d *Emulated) Upload(buf *Buffer, src []float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if buf.freed {
		return ErrBufferFreed
	}
	if len(src) != len(buf.data) {
		return fmt.Errorf("accel: upload of %d values into %dx%d buffer", len(src), buf.Rows, buf.Cols)
	}

	copy(buf.data, src)
	return nil
}

func (d *Emulated) Download(dst []float32, buf *Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if buf.freed {
		return ErrBufferFreed
	}
	if len(dst) != len(buf.data) {
		return fmt.Errorf("accel: download of %dx%d buffer into %d values", buf.Rows, buf.Cols, len(dst))
	}

	copy(dst, buf.data)
	return nil
}

// Launch splits the index range into row blocks, one per worker.
func (d *Emulated) Launch(rows, cols int, fn func(i, j int)) error {
	if rows <= 0 || cols <= 0 {
		return nil
	}

	block := (rows + d.workers - 1) / d.workers

	var g errgroup.Group
	g.SetLimit(d.workers)

	for start := 0; start < rows; start += block {
		end := start + block
		if end > rows {
			end = rows
		}

		g.Go(func() error {
			for i := start; i < end; i++ {
				for j := 0; j < cols; j++ {
					fn(i, j)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func (d *Emulated) Stats() MemoryStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	return MemoryStats{
		TotalBytes:  d.total,
		UsedBytes:   d.used,
		PeakBytes:   d.peak,
		Buffers:     d.buffers,
		Allocations: d.allocs,
	}
}

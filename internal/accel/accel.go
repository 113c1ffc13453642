// Package accel describes the accelerator the offloaded slope path runs on.
//
// A Device exposes the four capabilities the slope engine needs: querying
// total memory, allocating and freeing 2-D float32 buffers, launching an
// elementwise kernel over a rectangular index range and copying buffers
// between host and device. All operations are synchronous.
package accel

import (
	"errors"
	"fmt"
)

// ErrBufferFreed is returned when a buffer is used after Free.
var ErrBufferFreed = errors.New("accel: buffer already freed")

// AllocationError is returned when a device buffer cannot be allocated.
// It is fatal for the current run.
type AllocationError struct {
	Device    string
	Bytes     uint64
	Available uint64
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("accel: %s: cannot allocate %d bytes, %d available", e.Device, e.Bytes, e.Available)
}

// Buffer is a rows×cols float32 buffer resident on a device.
type Buffer struct {
	Rows, Cols int

	data  []float32
	freed bool
}

// Bytes returns the device memory taken by the buffer.
func (b *Buffer) Bytes() uint64 {
	return bufferBytes(b.Rows, b.Cols)
}

// Data returns the device-side view of the buffer. It must only be touched
// from inside a kernel launched on the owning device.
func (b *Buffer) Data() []float32 {
	return b.data
}

func bufferBytes(rows, cols int) uint64 {
	//nolint:gosec // dimensions are validated by Alloc
	return uint64(rows) * uint64(cols) * 4
}

// Device is a synchronous accelerator.
type Device interface {
	// Name returns a human readable device name.
	Name() string

	// TotalMemory returns the total device memory in bytes.
	TotalMemory() uint64

	// Alloc allocates a zeroed rows×cols buffer.
	// Returns *AllocationError if the device cannot hold it.
	Alloc(rows, cols int) (*Buffer, error)

	// Free releases a buffer. Freeing twice is a no-op.
	Free(buf *Buffer)

	// Upload copies src from host memory into buf.
	Upload(buf *Buffer, src []float32) error

	// Launch runs fn once for every (i, j) with 0 ≤ i < rows, 0 ≤ j < cols
	// and blocks until all invocations have finished. Invocations run in
	// parallel and in no particular order.
	Launch(rows, cols int, fn func(i, j int)) error

	// Download copies buf back into dst in host memory.
	Download(dst []float32, buf *Buffer) error

	// Stats returns the current memory usage.
	Stats() MemoryStats
}

// MemoryStats contains device memory usage statistics.
type MemoryStats struct {
	TotalBytes  uint64
	UsedBytes   uint64
	PeakBytes   uint64
	Buffers     int
	Allocations uint64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%d/%d MB used, peak %d MB, %d buffers, %d allocations]",
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.PeakBytes/(1024*1024),
		s.Buffers,
		s.Allocations)
}

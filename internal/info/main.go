package info

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gruppe-adler/meh-slope/internal/accel"
	"github.com/gruppe-adler/meh-slope/internal/grid"
	"github.com/gruppe-adler/meh-slope/internal/pipeline"
	"github.com/gruppe-adler/meh-slope/internal/slope"
	"github.com/gruppe-adler/meh-slope/internal/validate"
)

// Describe prints the grid stats and how engine would partition the grid.
func Describe(stats grid.Stats, engine *slope.Engine) string {
	s := fmt.Sprintf("ℹ️  Size:      %d x %d\n", stats.Width, stats.Height)
	s += fmt.Sprintf("ℹ️  Spacing:   %g\n", stats.GridSpacing)
	s += fmt.Sprintf("ℹ️  Bounds:    %v - %v\n", stats.Bound.Min, stats.Bound.Max)

	rowBudget := engine.RowBudget(stats.Width)
	partitions, err := engine.PartitionCount(stats.Height, stats.Width)
	if err != nil {
		s += fmt.Sprintf("⚠️  Row budget: %v\n", err)
		return s
	}
	s += fmt.Sprintf("ℹ️  Row budget: %d rows per partition (%d partition(s))\n", rowBudget, partitions)

	return s
}

// NewEngine returns an accelerator engine backed by an emulated device of
// deviceMemory bytes.
func NewEngine(deviceMemory uint64, cellsPerGB float64, seamOverlap bool) (*slope.Engine, error) {
	return slope.NewEngine(slope.Config{
		Mode:                    slope.ModeAccelerator,
		DeviceMemoryBudgetBytes: deviceMemory,
		CellsPerGB:              cellsPerGB,
		SeamOverlap:             seamOverlap,
	}, accel.NewEmulated(deviceMemory, 1))
}

// Run is the program's entrypoint
func Run(flagSet *flag.FlagSet) {

	start := time.Now()

	inputPtr := flagSet.String("in", "", "Path to DEM (.asc, .asc.gz or .xyz)")
	metaPtr := flagSet.String("meta", "", "Path to gdalinfo -json output (required for .xyz)")
	memoryPtr := flagSet.Uint64("device-memory", accel.DefaultEmulatedMemory, "Device memory in bytes to compute the row budget for")
	cellsPerGBPtr := flagSet.Float64("cells-per-gb", grid.DefaultCellsPerGB, "Grid cells a device holds per GiB of memory")
	seamOverlapPtr := flagSet.Bool("seam-overlap", false, "Overlap device partitions by one row")

	flagSet.Parse(os.Args[2:])

	if *inputPtr == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if err := validate.InputFile(*inputPtr, false); err != nil {
		log.Fatal(err)
	}
	if err := validate.MetaFile(*metaPtr, *inputPtr); err != nil {
		log.Fatal(err)
	}

	cfg := pipeline.DefaultConfig()
	cfg.InputPath = *inputPtr
	cfg.MetaPath = *metaPtr
	cfg.OutputDir = os.TempDir()

	run, err := pipeline.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("▶️  Loading DEM")
	if err := run.Load(context.Background()); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Loaded DEM in", time.Since(start).String())

	engine, err := NewEngine(*memoryPtr, *cellsPerGBPtr, *seamOverlapPtr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(Describe(run.Stats, engine))
}

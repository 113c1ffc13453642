package slopemap

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/gruppe-adler/meh-slope/internal/accel"
	"github.com/gruppe-adler/meh-slope/internal/grid"
	"github.com/gruppe-adler/meh-slope/internal/logger"
	"github.com/gruppe-adler/meh-slope/internal/pipeline"
	"github.com/gruppe-adler/meh-slope/internal/slope"
	"github.com/gruppe-adler/meh-slope/internal/validate"
)

// Flags registers the slope map flags on flagSet and returns the config
// they fill in, the verbose switch and the raw execution mode.
func Flags(flagSet *flag.FlagSet) (*pipeline.Config, *bool, *string) {
	cfg := pipeline.DefaultConfig()

	flagSet.StringVar(&cfg.InputPath, "in", "", "Path to DEM (.asc, .asc.gz, .xyz or any GDAL raster with -gdal)")
	flagSet.StringVar(&cfg.MetaPath, "meta", "", "Path to gdalinfo -json output (required for .xyz)")
	flagSet.StringVar(&cfg.OutputDir, "out", "", "Path to output directory")
	flagSet.BoolVar(&cfg.UseGDAL, "gdal", false, "Convert other raster formats with gdal_translate")
	mode := flagSet.String("mode", string(slope.ModeCPU), "Execution mode: cpu or accelerator")
	flagSet.IntVar(&cfg.Engine.Workers, "workers", runtime.NumCPU(), "Number of worker goroutines")
	flagSet.Uint64Var(&cfg.Engine.DeviceMemoryBudgetBytes, "device-memory", 0, "Device memory budget in bytes (0 = query device)")
	flagSet.Uint64Var(&cfg.EmulatedMemoryBytes, "emulated-memory", accel.DefaultEmulatedMemory, "Memory size of the emulated accelerator in bytes")
	flagSet.Float64Var(&cfg.Engine.CellsPerGB, "cells-per-gb", grid.DefaultCellsPerGB, "Grid cells a device holds per GiB of memory")
	flagSet.BoolVar(&cfg.Engine.SeamOverlap, "seam-overlap", false, "Overlap device partitions by one row")
	flagSet.Float64Var(&cfg.MaxAngle, "max-angle", cfg.MaxAngle, "Slope in degrees mapped to the steepest color")
	flagSet.BoolVar(&cfg.Tiles, "tiles", cfg.Tiles, "Build a tile pyramid")
	flagSet.BoolVar(&cfg.Previews, "previews", cfg.Previews, "Build preview images")
	flagSet.BoolVar(&cfg.Histogram, "histogram", cfg.Histogram, "Draw a slope histogram")
	verbose := flagSet.Bool("v", false, "Verbose logging")

	return &cfg, verbose, mode
}

// Run is the program's entrypoint
func Run(flagSet *flag.FlagSet) {

	var timer time.Time
	start := time.Now()

	cfg, verbose, mode := Flags(flagSet)

	flagSet.Parse(os.Args[2:])

	// make sure both flags are present
	if cfg.OutputDir == "" || cfg.InputPath == "" {
		flagSet.PrintDefaults()
		os.Exit(1)
	}

	if *verbose {
		logger.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	m, err := slope.ParseMode(*mode)
	if err != nil {
		log.Fatal(err)
	}
	cfg.Engine.Mode = m

	if err := validate.OutputDirectory(cfg.OutputDir); err != nil {
		log.Fatal(err)
	}
	if err := validate.InputFile(cfg.InputPath, cfg.UseGDAL); err != nil {
		log.Fatal(err)
	}
	if err := validate.MetaFile(cfg.MetaPath, cfg.InputPath); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Validated input")

	run, err := pipeline.New(*cfg)
	if err != nil {
		log.Fatal(err)
	}

	// load DEM
	timer = time.Now()
	fmt.Println("▶️  Loading DEM")
	if err := run.Load(context.Background()); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Loaded DEM in", time.Since(timer).String())
	fmt.Printf("ℹ️  Grid: %dx%d, spacing %g\n", run.Stats.Width, run.Stats.Height, run.Stats.GridSpacing)

	// calculate slope
	timer = time.Now()
	fmt.Printf("▶️  Calculating slope (%s)\n", run.Engine().Mode())
	if run.Engine().Mode() == slope.ModeAccelerator {
		partitions, err := run.Engine().PartitionCount(run.Elevation.Height, run.Elevation.Width)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("ℹ️  Device %s: %d partition(s) of up to %d rows\n", run.Device().Name(), partitions, run.Engine().RowBudget(run.Elevation.Width))
	}
	if err := run.Compute(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Calculated slope in", time.Since(timer).String())
	fmt.Println("ℹ️  Slope:", run.Summary().String())

	// colorize
	timer = time.Now()
	fmt.Println("▶️  Colorizing slope")
	if err := run.Colorize(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("✔️  Colorized slope in", time.Since(timer).String())

	// write outputs
	timer = time.Now()
	fmt.Println("▶️  Writing outputs")
	outputs, err := run.Export()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("    ✔️  Wrote", outputs.Image)
	for _, p := range outputs.Previews {
		fmt.Println("    ✔️  Wrote", p)
	}
	if cfg.Tiles {
		fmt.Printf("    ✔️  Wrote %d tiles up to LOD %d\n", outputs.Tiles, outputs.MaxLod)
	}
	if outputs.Histogram != "" {
		fmt.Println("    ✔️  Wrote", outputs.Histogram)
	}
	fmt.Println("✔️  Wrote outputs in", time.Since(timer).String())

	fmt.Printf("\n    🎉  Finished in %s\n", time.Since(start).String())
}

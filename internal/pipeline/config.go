package pipeline

import (
	"errors"
	"fmt"

	"github.com/gruppe-adler/meh-slope/internal/colorize"
	"github.com/gruppe-adler/meh-slope/internal/slope"
)

// Config holds everything a run needs. It is filled from command line flags.
type Config struct {
	InputPath string
	MetaPath  string
	OutputDir string

	// UseGDAL converts inputs in other raster formats with the GDAL tools.
	UseGDAL bool

	Engine slope.Config

	// EmulatedMemoryBytes is the memory size of the emulated accelerator.
	EmulatedMemoryBytes uint64

	MaxAngle float64

	Tiles     bool
	Previews  bool
	Histogram bool
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Engine:    slope.Config{Mode: slope.ModeCPU},
		MaxAngle:  colorize.DefaultMaxAngle,
		Tiles:     true,
		Previews:  true,
		Histogram: true,
	}
}

// Validate checks the configuration before any input is touched.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path is required")
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if _, err := slope.ParseMode(string(c.Engine.Mode)); err != nil {
		return err
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Engine.Workers)
	}
	if c.MaxAngle < 0 {
		return fmt.Errorf("max angle must not be negative, got %f", c.MaxAngle)
	}
	return nil
}

// Package pipeline threads one slope map run through its stages:
// loading the elevation grid, computing slope, colorizing and exporting.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gruppe-adler/meh-slope/internal/accel"
	"github.com/gruppe-adler/meh-slope/internal/colorize"
	"github.com/gruppe-adler/meh-slope/internal/dem"
	"github.com/gruppe-adler/meh-slope/internal/gdal"
	"github.com/gruppe-adler/meh-slope/internal/grid"
	"github.com/gruppe-adler/meh-slope/internal/logger"
	"github.com/gruppe-adler/meh-slope/internal/metajson"
	"github.com/gruppe-adler/meh-slope/internal/render"
	"github.com/gruppe-adler/meh-slope/internal/report"
	"github.com/gruppe-adler/meh-slope/internal/slope"
	"github.com/gruppe-adler/meh-slope/internal/tilejson"
	"github.com/gruppe-adler/meh-slope/internal/utils"
)

// Context carries the state of a single run from stage to stage. Each
// stage fills in its own fields; nothing outlives the run.
type Context struct {
	Config Config

	Stats     grid.Stats
	Elevation *grid.ElevationGrid
	Slope     *grid.SlopeGrid
	Colors    *colorize.Grid
	Image     *image.RGBA

	engine *slope.Engine
	device accel.Device
}

// New prepares a run. The accelerator is only created in accelerator mode.
func New(cfg Config) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var device accel.Device
	if cfg.Engine.Mode == slope.ModeAccelerator {
		device = accel.NewEmulated(cfg.EmulatedMemoryBytes, cfg.Engine.Workers)
	}

	return NewWithDevice(cfg, device)
}

// NewWithDevice prepares a run on a caller provided device.
func NewWithDevice(cfg Config, device accel.Device) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, err := slope.NewEngine(cfg.Engine, device)
	if err != nil {
		return nil, err
	}

	return &Context{Config: cfg, engine: engine, device: device}, nil
}

// Engine returns the slope engine of the run.
func (c *Context) Engine() *slope.Engine {
	return c.engine
}

// Device returns the accelerator of the run, or nil on the host path.
func (c *Context) Device() accel.Device {
	return c.device
}

// Load reads the elevation grid from the configured input.
func (c *Context) Load(ctx context.Context) error {
	input := c.Config.InputPath

	var info *metajson.GDALInfo

	switch dem.DetectFormat(input) {
	case dem.FormatXYZ:
		meta, err := metajson.ReadGDALInfo(c.Config.MetaPath)
		if err != nil {
			return err
		}
		info = &meta

	case dem.FormatUnknown:
		if !c.Config.UseGDAL {
			return fmt.Errorf("unsupported DEM format: %s", input)
		}

		converted, meta, err := convert(ctx, input)
		if err != nil {
			return err
		}
		defer os.Remove(converted)

		input = converted
		info = &meta
	}

	var dims *dem.Dims
	if info != nil {
		dims = &dem.Dims{Height: info.Height(), Width: info.Width()}
		if noData, ok := info.NoDataValue(); ok {
			dims.NoData = &noData
		}
	}

	g, stats, err := dem.Read(input, dims)
	if err != nil {
		return err
	}
	if info != nil {
		checkSpacing(stats, *info)
	}

	c.SetElevation(g, stats)
	return nil
}

// checkSpacing warns when the spacing derived from the samples disagrees
// with the pixel size declared by gdalinfo. It reports whether they agree.
func checkSpacing(stats grid.Stats, info metajson.GDALInfo) bool {
	pixel := math.Abs(info.PixelSize())
	if pixel == 0 {
		return true
	}

	declared := pixel * grid.SpacingFactor
	if math.Abs(declared-stats.GridSpacing) <= 1e-6*declared {
		return true
	}

	logger.Logger().Warn("pipeline: grid spacing differs from declared pixel size",
		"spacing", stats.GridSpacing,
		"declared", declared)
	return false
}

// convert turns any GDAL readable raster into a temporary XYZ file.
func convert(ctx context.Context, src string) (string, metajson.GDALInfo, error) {
	if err := gdal.RequireTools(); err != nil {
		return "", metajson.GDALInfo{}, err
	}

	info, err := gdal.Info(ctx, src)
	if err != nil {
		return "", info, err
	}

	tmp, err := os.CreateTemp("", "meh-slope-*.xyz")
	if err != nil {
		return "", info, err
	}
	tmp.Close()

	if err := gdal.TranslateXYZ(ctx, src, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", info, err
	}

	return tmp.Name(), info, nil
}

// SetElevation installs an already built grid, bypassing Load.
func (c *Context) SetElevation(g *grid.ElevationGrid, stats grid.Stats) {
	c.Elevation = g
	c.Stats = stats
}

// Compute runs the slope engine over the loaded grid.
func (c *Context) Compute() error {
	if c.Elevation == nil {
		return fmt.Errorf("pipeline: no elevation grid loaded")
	}

	sg, err := c.engine.Compute(c.Elevation, c.Stats.GridSpacing)
	if err != nil {
		return err
	}

	c.Slope = sg
	return nil
}

// Colorize maps the slope grid to colors and encodes the raster.
func (c *Context) Colorize() error {
	if c.Slope == nil {
		return fmt.Errorf("pipeline: no slope grid computed")
	}

	c.Colors = colorize.New(c.Config.MaxAngle).Colorize(c.Slope)
	c.Image = render.Image(c.Colors)
	return nil
}

// Outputs lists the files written by Export.
type Outputs struct {
	Image     string
	Previews  []string
	Tiles     int
	MaxLod    uint8
	Histogram string
}

// Name returns the map name derived from the input file.
func (c *Context) Name() string {
	base := filepath.Base(c.Config.InputPath)
	for ext := filepath.Ext(base); ext != ""; ext = filepath.Ext(base) {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Export writes the slope raster and the optional derived outputs.
func (c *Context) Export() (Outputs, error) {
	var out Outputs
	if c.Image == nil {
		return out, fmt.Errorf("pipeline: nothing to export")
	}

	dir := c.Config.OutputDir

	out.Image = path.Join(dir, "slope.png")
	if err := render.WritePNG(out.Image, c.Image); err != nil {
		return out, err
	}

	if c.Config.Previews {
		previews, err := render.WritePreviews(dir, c.Image)
		if err != nil {
			return out, err
		}
		out.Previews = previews
	}

	if c.Config.Tiles {
		tileDir := path.Join(dir, "tiles")
		if err := utils.EnsureDirectory(tileDir); err != nil {
			return out, err
		}

		out.MaxLod = utils.CalcMaxLodFromImage(c.Image)
		for lod := uint8(0); lod <= out.MaxLod; lod++ {
			n, err := utils.BuildTileSet(lod, c.Image, tileDir)
			out.Tiles += n
			if err != nil {
				return out, err
			}
			logger.Logger().Debug("pipeline: tiles", "lod", lod, "count", n)
		}

		legend := &tilejson.Legend{
			MaxAngle: colorize.New(c.Config.MaxAngle).MaxAngle,
			Stops:    []string{hex(colorize.DefaultLow), hex(colorize.DefaultMedium), hex(colorize.DefaultHigh)},
		}
		if err := tilejson.Write(tileDir, tilejson.New(c.Name(), out.MaxLod, c.Stats.Bound, legend)); err != nil {
			return out, err
		}
	}

	if c.Config.Histogram && c.Slope.Height > 2 && c.Slope.Width > 2 {
		histogram := path.Join(dir, "slope_histogram.png")
		if err := report.WriteHistogram(c.Slope, histogram, 0); err != nil {
			// the chart is auxiliary, the slope raster is already written
			logger.Logger().Warn("pipeline: skipping histogram", "path", histogram, "err", err)
		} else {
			out.Histogram = histogram
		}
	}

	return out, nil
}

// Summary returns statistics over the computed slope grid.
func (c *Context) Summary() report.Summary {
	if c.Slope == nil {
		return report.Summary{}
	}
	return report.Summarize(c.Slope)
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruppe-adler/meh-slope/internal/accel"
	"github.com/gruppe-adler/meh-slope/internal/colorize"
	"github.com/gruppe-adler/meh-slope/internal/gdal"
	"github.com/gruppe-adler/meh-slope/internal/grid"
	"github.com/gruppe-adler/meh-slope/internal/metajson"
	"github.com/gruppe-adler/meh-slope/internal/slope"
	"github.com/gruppe-adler/meh-slope/internal/utils"
)

// writeHill writes an ESRI ASCII grid with a cone shaped hill.
func writeHill(t *testing.T, dir string, size int) string {
	t.Helper()

	var b strings.Builder
	fmt.Fprintf(&b, "ncols %d\nnrows %d\nxllcorner 0\nyllcorner 0\ncellsize 10\nNODATA_value -9999\n", size, size)

	c := float64(size) / 2
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			d := (float64(i)-c)*(float64(i)-c) + (float64(j)-c)*(float64(j)-c)
			fmt.Fprintf(&b, "%.2f ", 500-d)
		}
		b.WriteString("\n")
	}

	p := filepath.Join(dir, "hill.asc")
	require.NoError(t, os.WriteFile(p, []byte(b.String()), 0o644))
	return p
}

func testConfig(input, out string) Config {
	cfg := DefaultConfig()
	cfg.InputPath = input
	cfg.OutputDir = out
	cfg.Previews = false
	cfg.Tiles = false
	cfg.Histogram = false
	return cfg
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig("in.asc", "out")
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.InputPath = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.OutputDir = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Engine.Mode = "quantum"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Engine.Workers = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxAngle = -5
	assert.Error(t, bad.Validate())
}

func TestRunHostAndAccelerator(t *testing.T) {
	dir := t.TempDir()
	input := writeHill(t, dir, 40)

	results := map[slope.Mode]*grid.SlopeGrid{}

	for _, mode := range []slope.Mode{slope.ModeCPU, slope.ModeAccelerator} {
		cfg := testConfig(input, dir)
		cfg.Engine.Mode = mode

		run, err := New(cfg)
		require.NoError(t, err)

		require.NoError(t, run.Load(context.Background()))
		assert.Equal(t, 80.0, run.Stats.GridSpacing)
		assert.Equal(t, 40, run.Stats.Height)

		require.NoError(t, run.Compute())
		require.NoError(t, run.Colorize())

		assert.Equal(t, colorize.Black, run.Colors.At(0, 0))
		assert.Equal(t, 40, run.Image.Bounds().Dx())

		results[mode] = run.Slope
	}

	host, dev := results[slope.ModeCPU], results[slope.ModeAccelerator]
	for k := range host.Data {
		assert.InDelta(t, host.Data[k], dev.Data[k], 1e-4)
	}
}

func TestRunAllocationFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(writeHill(t, dir, 20), dir)
	cfg.Engine.Mode = slope.ModeAccelerator
	cfg.Engine.DeviceMemoryBudgetBytes = 1 << 30

	run, err := NewWithDevice(cfg, accel.NewEmulated(64, 1))
	require.NoError(t, err)
	require.NoError(t, run.Load(context.Background()))

	err = run.Compute()
	var allocErr *accel.AllocationError
	assert.ErrorAs(t, err, &allocErr)
	assert.Nil(t, run.Slope)
}

func TestLoadXYZ(t *testing.T) {
	dir := t.TempDir()

	xyz := filepath.Join(dir, "dem.xyz")
	require.NoError(t, os.WriteFile(xyz, []byte("0 0 1\n2 0 1\n4 0 1\n0 2 1\n2 2 1\n4 2 1\n0 4 1\n2 4 1\n4 4 1\n"), 0o644))
	meta := filepath.Join(dir, "dem.json")
	require.NoError(t, os.WriteFile(meta, []byte(`{"size": [3, 3]}`), 0o644))

	cfg := testConfig(xyz, dir)
	cfg.MetaPath = meta

	run, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, run.Load(context.Background()))
	assert.Equal(t, 16.0, run.Stats.GridSpacing)

	require.NoError(t, run.Compute())
	assert.Equal(t, make([]float32, 9), run.Slope.Data)
}

func TestLoadXYZNoDataAndNaN(t *testing.T) {
	dir := t.TempDir()

	// 4x4 grid, one NaN sample and two cells with the declared no-data value
	var b strings.Builder
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			z := fmt.Sprintf("%d", 10+i+j)
			switch {
			case i == 1 && j == 2:
				z = "nan"
			case i == 2 && (j == 1 || j == 3):
				z = "32767"
			}
			fmt.Fprintf(&b, "%d %d %s\n", j*2, 6-i*2, z)
		}
	}

	xyz := filepath.Join(dir, "dem.xyz")
	require.NoError(t, os.WriteFile(xyz, []byte(b.String()), 0o644))
	meta := filepath.Join(dir, "dem.json")
	require.NoError(t, os.WriteFile(meta, []byte(`{"size": [4, 4], "geoTransform": [0, 2, 0, 6, 0, -2], "bands": [{"band": 1, "noDataValue": 32767}]}`), 0o644))

	cfg := testConfig(xyz, dir)
	cfg.MetaPath = meta
	cfg.Histogram = true

	run, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, run.Load(context.Background()))

	assert.Equal(t, float32(0), run.Elevation.At(1, 2))
	assert.Equal(t, float32(0), run.Elevation.At(2, 1))
	assert.Equal(t, float32(0), run.Elevation.At(2, 3))
	assert.Equal(t, float32(12), run.Elevation.At(1, 1))

	require.NoError(t, run.Compute())
	for i, v := range run.Slope.Data {
		assert.False(t, math.IsNaN(float64(v)), "cell %d", i)
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(90))
	}

	require.NoError(t, run.Colorize())
	out, err := run.Export()
	require.NoError(t, err)
	assert.True(t, utils.IsFile(out.Histogram))
	assert.False(t, math.IsNaN(run.Summary().Mean))
}

func TestCheckSpacing(t *testing.T) {
	stats := grid.Stats{GridSpacing: 16}

	assert.True(t, checkSpacing(stats, metajson.GDALInfo{}))
	assert.True(t, checkSpacing(stats, metajson.GDALInfo{GeoTransform: []float64{0, 2, 0, 0, 0, -2}}))
	assert.True(t, checkSpacing(stats, metajson.GDALInfo{GeoTransform: []float64{0, -2, 0, 0, 0, 2}}))
	assert.False(t, checkSpacing(stats, metajson.GDALInfo{GeoTransform: []float64{0, 5, 0, 0, 0, -5}}))
}

func TestLoadGDALToolsMissing(t *testing.T) {
	orig := gdal.InfoCommand
	t.Cleanup(func() { gdal.InfoCommand = orig })
	gdal.InfoCommand = "gdalinfo-does-not-exist"

	dir := t.TempDir()
	tif := filepath.Join(dir, "dem.tif")
	require.NoError(t, os.WriteFile(tif, nil, 0o644))

	cfg := testConfig(tif, dir)
	cfg.UseGDAL = true

	run, err := New(cfg)
	require.NoError(t, err)
	assert.ErrorContains(t, run.Load(context.Background()), "not found on PATH")
}

func TestLoadMalformedMeta(t *testing.T) {
	dir := t.TempDir()

	xyz := filepath.Join(dir, "dem.xyz")
	require.NoError(t, os.WriteFile(xyz, []byte("0 0 1\n2 0 1\n"), 0o644))
	meta := filepath.Join(dir, "dem.json")
	require.NoError(t, os.WriteFile(meta, []byte(`{"size": "big"}`), 0o644))

	cfg := testConfig(xyz, dir)
	cfg.MetaPath = meta

	run, err := New(cfg)
	require.NoError(t, err)

	var malformed *grid.MalformedInputError
	assert.ErrorAs(t, run.Load(context.Background()), &malformed)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	tif := filepath.Join(dir, "dem.tif")
	require.NoError(t, os.WriteFile(tif, nil, 0o644))

	run, err := New(testConfig(tif, dir))
	require.NoError(t, err)
	assert.Error(t, run.Load(context.Background()))
}

func TestStagesNeedInput(t *testing.T) {
	run, err := New(testConfig("in.asc", t.TempDir()))
	require.NoError(t, err)

	assert.Error(t, run.Compute())
	assert.Error(t, run.Colorize())
	_, err = run.Export()
	assert.Error(t, err)
	assert.Equal(t, 0, run.Summary().Cells)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(out, 0o755))

	cfg := testConfig(writeHill(t, dir, 30), out)
	cfg.Tiles = true
	cfg.Histogram = true

	run, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, run.Load(context.Background()))
	require.NoError(t, run.Compute())
	require.NoError(t, run.Colorize())

	outputs, err := run.Export()
	require.NoError(t, err)

	assert.True(t, utils.IsFile(outputs.Image))
	assert.True(t, utils.IsFile(outputs.Histogram))
	assert.Equal(t, uint8(0), outputs.MaxLod)
	assert.Equal(t, 1, outputs.Tiles)
	assert.True(t, utils.IsFile(filepath.Join(out, "tiles", "0", "0", "0.png")))
	assert.True(t, utils.IsFile(filepath.Join(out, "tiles", "tile.json")))
	assert.Equal(t, "hill", run.Name())

	s := run.Summary()
	assert.Equal(t, 28*28, s.Cells)
	assert.Greater(t, s.Max, 0.0)
}

func runGrid(t *testing.T, height, width int, data []float32, spacing float64) *Context {
	t.Helper()

	g, err := grid.NewElevationGrid(height, width, data)
	require.NoError(t, err)

	run, err := New(testConfig("grid.asc", t.TempDir()))
	require.NoError(t, err)

	run.SetElevation(g, grid.Stats{Height: height, Width: width, GridSpacing: spacing})
	require.NoError(t, run.Compute())
	require.NoError(t, run.Colorize())
	return run
}

func TestFlatGridExample(t *testing.T) {
	data := make([]float32, 25)
	for i := range data {
		data[i] = 100
	}

	run := runGrid(t, 5, 5, data, 1)

	assert.Equal(t, make([]float32, 25), run.Slope.Data)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			want := colorize.DefaultLow
			if grid.IsBorder(5, 5, i, j) {
				want = colorize.Black
			}
			assert.Equal(t, want, run.Colors.At(i, j), "cell (%d,%d)", i, j)
		}
	}
}

func TestRampExample(t *testing.T) {
	// uniform east-west ramp of 1 m per cell, falling towards the east
	const size = 6
	data := make([]float32, size*size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			data[i*size+j] = float32(size - j)
		}
	}

	run := runGrid(t, size, size, data, 1)

	first := run.Slope.At(1, 1)
	assert.Greater(t, first, float32(45))
	for i := 1; i < size-1; i++ {
		for j := 1; j < size-1; j++ {
			assert.Equal(t, first, run.Slope.At(i, j))
			assert.Equal(t, colorize.DefaultHigh, run.Colors.At(i, j))
		}
	}
}

func TestExportHistogramFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	// a directory in the way of the chart file
	require.NoError(t, os.Mkdir(filepath.Join(dir, "slope_histogram.png"), 0o755))

	cfg := testConfig(writeHill(t, dir, 12), dir)
	cfg.Histogram = true

	run, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, run.Load(context.Background()))
	require.NoError(t, run.Compute())
	require.NoError(t, run.Colorize())

	out, err := run.Export()
	require.NoError(t, err)
	assert.Empty(t, out.Histogram)
	assert.True(t, utils.IsFile(out.Image))
}

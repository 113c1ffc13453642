package metajson

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruppe-adler/meh-slope/internal/grid"
)

const gdalinfoSample = `{
  "description": "dem.tif",
  "driverShortName": "GTiff",
  "size": [512, 256],
  "geoTransform": [200000.0, 30.0, 0.0, 5000000.0, 0.0, -30.0],
  "bands": [{"band": 1, "type": "Float32", "noDataValue": -32768}],
  "metadata": {"": {"AREA_OR_POINT": "Area"}}
}`

func TestDecodeGDALInfo(t *testing.T) {
	info, err := DecodeGDALInfo(strings.NewReader(gdalinfoSample))
	require.NoError(t, err)

	assert.Equal(t, 512, info.Width())
	assert.Equal(t, 256, info.Height())
	assert.Equal(t, 30.0, info.PixelSize())
	assert.Equal(t, "GTiff", info.DriverShortName)

	nodata, ok := info.NoDataValue()
	assert.True(t, ok)
	assert.Equal(t, -32768.0, nodata)
}

func TestDecodeGDALInfoMalformed(t *testing.T) {
	tests := map[string]string{
		"missing size":   `{"driverShortName": "GTiff"}`,
		"size wrong len": `{"size": [1, 2, 3]}`,
		"size not ints":  `{"size": "512x256"}`,
		"negative size":  `{"size": [-1, 4]}`,
		"bad transform":  `{"size": [1, 1], "geoTransform": [1, 2]}`,
		"not json":       `size=1`,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeGDALInfo(strings.NewReader(input))

			var malformed *grid.MalformedInputError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestReadGDALInfo(t *testing.T) {
	p := filepath.Join(t.TempDir(), "info.json")
	require.NoError(t, os.WriteFile(p, []byte(gdalinfoSample), 0o644))

	info, err := ReadGDALInfo(p)
	require.NoError(t, err)
	assert.Equal(t, 256, info.Height())

	_, err = ReadGDALInfo(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNoDataValueAbsent(t *testing.T) {
	_, ok := GDALInfo{}.NoDataValue()
	assert.False(t, ok)
	assert.Equal(t, 0.0, GDALInfo{}.PixelSize())
}

package metajson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gruppe-adler/meh-slope/internal/grid"
)

// Band is the subset of a gdalinfo band description we use.
type Band struct {
	Band        int      `json:"band"`
	Type        string   `json:"type"`
	NoDataValue *float64 `json:"noDataValue"`
}

// GDALInfo represents the known subset of the JSON printed by `gdalinfo -json`.
type GDALInfo struct {
	Description     string    `json:"description"`
	DriverShortName string    `json:"driverShortName"`
	Size            []int     `json:"size"`
	GeoTransform    []float64 `json:"geoTransform"`
	Bands           []Band    `json:"bands"`
}

// Width returns the raster width in pixels.
func (info GDALInfo) Width() int { return info.Size[0] }

// Height returns the raster height in pixels.
func (info GDALInfo) Height() int { return info.Size[1] }

// PixelSize returns the pixel width from the geo transform, or 0 if absent.
func (info GDALInfo) PixelSize() float64 {
	if len(info.GeoTransform) != 6 {
		return 0
	}
	return info.GeoTransform[1]
}

// NoDataValue returns the no-data value of the first band, if declared.
func (info GDALInfo) NoDataValue() (float64, bool) {
	if len(info.Bands) == 0 || info.Bands[0].NoDataValue == nil {
		return 0, false
	}
	return *info.Bands[0].NoDataValue, true
}

// Validate checks the fields the slope pipeline depends on.
func (info GDALInfo) Validate() error {
	if len(info.Size) != 2 {
		return grid.Malformed("gdalinfo: size must be [width, height], got %v", info.Size)
	}
	if info.Size[0] <= 0 || info.Size[1] <= 0 {
		return grid.Malformed("gdalinfo: size must be positive, got %v", info.Size)
	}
	if info.GeoTransform != nil && len(info.GeoTransform) != 6 {
		return grid.Malformed("gdalinfo: geoTransform must have 6 coefficients, got %d", len(info.GeoTransform))
	}
	return nil
}

// DecodeGDALInfo decodes and validates gdalinfo JSON. Fields of the wrong
// shape and a missing size are reported as *grid.MalformedInputError.
func DecodeGDALInfo(r io.Reader) (GDALInfo, error) {
	var info GDALInfo

	if err := json.NewDecoder(r).Decode(&info); err != nil {
		return info, grid.Malformed("gdalinfo: %v", err)
	}

	return info, info.Validate()
}

// ReadGDALInfo reads gdalinfo JSON from given path
func ReadGDALInfo(path string) (GDALInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return GDALInfo{}, err
	}
	defer file.Close()

	info, err := DecodeGDALInfo(file)
	if err != nil {
		return info, fmt.Errorf("%s: %w", path, err)
	}

	return info, nil
}

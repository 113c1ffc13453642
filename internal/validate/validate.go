package validate

import (
	"fmt"

	"github.com/gruppe-adler/meh-slope/internal/dem"
	"github.com/gruppe-adler/meh-slope/internal/utils"
)

// InputFile validates that given path is a DEM the pipeline can read. Inputs
// in other formats are accepted only if they can be converted with GDAL.
func InputFile(demPath string, gdalAllowed bool) error {
	if !utils.IsFile(demPath) {
		return fmt.Errorf("%s does not exist or is no file", demPath)
	}

	if dem.DetectFormat(demPath) == dem.FormatUnknown && !gdalAllowed {
		return fmt.Errorf("%s is neither .asc nor .xyz; use -gdal to convert it", demPath)
	}

	return nil
}

// MetaFile validates the optional gdalinfo JSON path. XYZ input needs one to
// declare the grid dimensions.
func MetaFile(metaPath string, demPath string) error {
	if metaPath == "" {
		if dem.DetectFormat(demPath) == dem.FormatXYZ {
			return fmt.Errorf("%s is XYZ input and needs -meta with gdalinfo -json output", demPath)
		}
		return nil
	}

	if !utils.IsFile(metaPath) {
		return fmt.Errorf("%s does not exist or is no file", metaPath)
	}

	return nil
}

// OutputDirectory validates that given path is an existing directory.
func OutputDirectory(outPath string) error {
	if !utils.IsDirectory(outPath) {
		return fmt.Errorf("output directory %s doesn't exist", outPath)
	}
	return nil
}

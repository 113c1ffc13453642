// Package gdal runs the GDAL command line tools that turn arbitrary raster
// formats into inputs the slope pipeline reads natively.
package gdal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gruppe-adler/meh-slope/internal/logger"
	"github.com/gruppe-adler/meh-slope/internal/metajson"
)

// Tool names, overridable for non-standard installations.
var (
	InfoCommand      = "gdalinfo"
	TranslateCommand = "gdal_translate"
)

// RequireTools returns an error naming the first GDAL tool missing from PATH.
func RequireTools() error {
	for _, name := range []string{InfoCommand, TranslateCommand} {
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("gdal: %s not found on PATH: %w", name, err)
		}
	}
	return nil
}

// Info runs `gdalinfo -json` on src and decodes its output.
func Info(ctx context.Context, src string) (metajson.GDALInfo, error) {
	out, err := run(ctx, InfoCommand, "-json", src)
	if err != nil {
		return metajson.GDALInfo{}, err
	}

	return metajson.DecodeGDALInfo(bytes.NewReader(out))
}

// TranslateXYZ converts src into a GDAL XYZ point list at dst.
func TranslateXYZ(ctx context.Context, src, dst string) error {
	_, err := run(ctx, TranslateCommand, "-of", "XYZ", src, dst)
	return err
}

func run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Logger().Debug("gdal: exec", "cmd", name, "args", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

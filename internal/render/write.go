package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path"

	"github.com/nfnt/resize"
)

// PreviewSizes are the preview heights in pixels.
var PreviewSizes = []uint{128, 256, 512, 1024}

// WritePNG encodes img as PNG to filePath.
func WritePNG(filePath string, img image.Image) error {
	out, err := os.Create(filePath)
	if err != nil {
		return err
	}

	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// WritePreviews writes preview_<size>.png into outputDirectory for every
// preview size, keeping the aspect ratio of img.
func WritePreviews(outputDirectory string, img image.Image) ([]string, error) {
	h := img.Bounds().Dy()
	w := img.Bounds().Dx()
	if h == 0 || w == 0 {
		return nil, fmt.Errorf("render: empty image")
	}

	paths := make([]string, 0, len(PreviewSizes))

	for _, size := range PreviewSizes {
		factor := float64(size) / float64(h)
		width := uint(float64(w) * factor)
		if width == 0 {
			width = 1
		}

		preview := resize.Resize(width, size, img, resize.MitchellNetravali)

		p := path.Join(outputDirectory, fmt.Sprintf("preview_%d.png", size))
		if err := WritePNG(p, preview); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}

	return paths, nil
}

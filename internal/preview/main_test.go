package preview

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gruppe-adler/meh-slope/internal/render"
)

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "slope.png")
	require.NoError(t, render.WritePNG(p, image.NewRGBA(image.Rect(0, 0, 7, 3))))

	img, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 7, img.Bounds().Dx())

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

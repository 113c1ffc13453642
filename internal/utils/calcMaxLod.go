package utils

import (
	"image"
	"math"
)

// CalcMaxLodFromImage calculates the maximum LOD at which a tile still
// covers at least one source pixel, based on the larger image side.
func CalcMaxLodFromImage(img image.Image) uint8 {
	w := float64(max(img.Bounds().Dx(), img.Bounds().Dy()))

	tilesPerRowCol := math.Ceil(w / TileSize)
	if tilesPerRowCol <= 1 {
		return 0
	}

	return uint8(math.Ceil(math.Log2(tilesPerRowCol)))
}

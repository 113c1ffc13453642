package utils

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path"
	"runtime"
	"sync"

	"github.com/nfnt/resize"
	"golang.org/x/sync/semaphore"
)

// TileSize is the edge length of a tile in pixels.
const TileSize = 256

var sem = semaphore.NewWeighted(int64(runtime.NumCPU()))

// BuildTileSet builds the tiles for given LOD from img into
// outputDirectory/<lod>/<col>/<row>.png. It returns the number of tiles
// written and the first error encountered.
func BuildTileSet(lod uint8, img image.Image, outputDirectory string) (int, error) {
	outputDirectory = path.Join(outputDirectory, fmt.Sprintf("%d", lod))

	tilesPerRowCol := int(math.Pow(2, float64(lod)))

	// make col directories
	for col := 0; col < tilesPerRowCol; col++ {
		dirPath := path.Join(outputDirectory, fmt.Sprintf("%d", col))
		if !IsDirectory(dirPath) {
			if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
				return 0, err
			}
		}
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	tileWidth := width / tilesPerRowCol
	tileHeight := height / tilesPerRowCol

	// remaining pixels
	widthRemainder := width % tilesPerRowCol
	heightRemainder := height % tilesPerRowCol

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		written  int
	)

	for col := 0; col < tilesPerRowCol; col++ {
		for row := 0; row < tilesPerRowCol; row++ {
			// remaining pixels are distributed to the first rows / cols
			x := tileWidth*col + min(col, widthRemainder)
			y := tileHeight*row + min(row, heightRemainder)
			w := tileWidth
			h := tileHeight
			if col < widthRemainder {
				w++
			}
			if row < heightRemainder {
				h++
			}

			rect := image.Rect(x, y, x+w, y+h).Add(bounds.Min)
			tilePath := path.Join(outputDirectory, fmt.Sprintf("%d", col), fmt.Sprintf("%d.png", row))

			wg.Add(1)
			go func() {
				defer wg.Done()

				err := createTile(img, rect, tilePath)

				mu.Lock()
				defer mu.Unlock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				if err == nil {
					written++
				}
			}()
		}
	}

	wg.Wait()

	return written, firstErr
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func createTile(img image.Image, rect image.Rectangle, tilePath string) error {
	if err := sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer sem.Release(1)

	var tile image.Image = image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	if !rect.Empty() {
		sub, ok := img.(subImager)
		if !ok {
			return fmt.Errorf("tiles: image type %T cannot be cropped", img)
		}
		tile = resize.Resize(TileSize, TileSize, sub.SubImage(rect), resize.MitchellNetravali)
	}

	out, err := os.Create(tilePath)
	if err != nil {
		return err
	}

	if err := png.Encode(out, tile); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

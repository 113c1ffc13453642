package tilejson

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/paulmach/orb"
)

// TileJSON represents a tile.json
type TileJSON struct {
	TileJSON    string    `json:"tilejson"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Scheme      string    `json:"scheme"`
	Tiles       []string  `json:"tiles"`
	Minzoom     uint8     `json:"minzoom"`
	Maxzoom     uint8     `json:"maxzoom"`
	Bounds      []float64 `json:"bounds,omitempty"`
	Legend      *Legend   `json:"legend,omitempty"`
}

// Legend describes how slope maps to the tile colors.
type Legend struct {
	MaxAngle float64  `json:"max_angle"`
	Stops    []string `json:"stops"`
}

// New builds the tile.json for a slope tile pyramid.
// A zero or empty bound is left out.
func New(name string, maxLod uint8, bound orb.Bound, legend *Legend) TileJSON {
	obj := TileJSON{
		TileJSON:    "2.2.0",
		Name:        fmt.Sprintf("%s Slope Tiles", name),
		Description: fmt.Sprintf("Terrain slope of '%s'", name),
		Scheme:      "xyz",
		Tiles:       []string{"{z}/{x}/{y}.png"},
		Minzoom:     0,
		Maxzoom:     maxLod,
		Legend:      legend,
	}

	if !bound.IsZero() && !bound.IsEmpty() {
		obj.Bounds = []float64{bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y()}
	}

	return obj
}

// Write writes obj as tile.json into outputDirectory.
func Write(outputDirectory string, obj TileJSON) error {
	bytes, err := json.MarshalIndent(obj, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(path.Join(outputDirectory, "tile.json"), bytes, 0o644)
}

package slope

import "math"

const rad2deg = 180 / math.Pi

// At returns the slope in degrees of the interior cell (i, j) of the
// row-major grid e with the given row width. The caller guarantees
// 1 ≤ i < height-1 and 1 ≤ j < width-1.
//
// The stencil is a weighted central difference over the 8-neighbourhood.
// All arithmetic is float32 with a fixed term order, so every execution
// path produces the same bits for the same input.
func At(e []float32, width, i, j int, spacing float32) float32 {
	up := (i - 1) * width
	mid := i * width
	down := (i + 1) * width

	nw, n, ne := e[up+j-1], e[up+j], e[up+j+1]
	w, east := e[mid+j-1], e[mid+j+1]
	sw, s, se := e[down+j-1], e[down+j], e[down+j+1]

	sew := ((nw + 2*w + east) - (ne + 2*east + se)) / spacing
	sns := ((nw + 2*n + ne) - (sw + 2*s + se)) / spacing

	magnitude := float32(math.Sqrt(float64(sew*sew + sns*sns)))

	return float32(math.Atan(float64(magnitude))) * rad2deg
}

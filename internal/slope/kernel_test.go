package slope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func flat(height, width int, v float32) []float32 {
	e := make([]float32, height*width)
	for i := range e {
		e[i] = v
	}
	return e
}

func TestAtFlatIsZero(t *testing.T) {
	e := flat(5, 5, 100)

	for i := 1; i < 4; i++ {
		for j := 1; j < 4; j++ {
			assert.Equal(t, float32(0), At(e, 5, i, j, 1), "cell (%d,%d)", i, j)
		}
	}
}

func TestAtNorthSouthRamp(t *testing.T) {
	// elevation rises by 1 per row: Sns = -8/spacing, Sew = -1/spacing
	const width = 4
	e := make([]float32, 4*width)
	for i := 0; i < 4; i++ {
		for j := 0; j < width; j++ {
			e[i*width+j] = float32(i)
		}
	}

	got := At(e, width, 1, 1, 8)
	assert.InDelta(t, math.Atan(math.Sqrt(65)/8)*180/math.Pi, got, 1e-4)

	got = At(e, width, 2, 2, 16)
	assert.InDelta(t, math.Atan(math.Sqrt(65)/16)*180/math.Pi, got, 1e-4)
}

func TestAtEastWestRamp(t *testing.T) {
	// elevation rises by 1 per column
	const width = 5
	e := make([]float32, 5*width)
	for i := 0; i < 5; i++ {
		for j := 0; j < width; j++ {
			e[i*width+j] = float32(j)
		}
	}

	// Sew = ((j-1) + 2(j-1) + (j+1)) - ((j+1) + 2(j+1) + (j+1)) = -6
	want := math.Atan(6) * 180 / math.Pi
	for i := 1; i < 4; i++ {
		for j := 1; j < 4; j++ {
			assert.InDelta(t, want, At(e, width, i, j, 1), 1e-4)
		}
	}
}

func TestAtRange(t *testing.T) {
	e := []float32{
		0, 500, 0,
		900, 0, 0,
		0, 0, 1000,
	}

	got := At(e, 3, 1, 1, 1)
	assert.GreaterOrEqual(t, got, float32(0))
	assert.Less(t, got, float32(90))
}

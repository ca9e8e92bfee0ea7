package rustic

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrayscaleImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 255, B: 0, A: 255})
	src.SetNRGBA(0, 1, color.NRGBA{R: 0, G: 0, B: 255, A: 255})
	src.SetNRGBA(1, 1, color.NRGBA{R: 128, G: 128, B: 128, A: 0})

	dst := grayscaleImage(src)
	require.Equal(t, src.Bounds(), dst.Bounds())

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			px := dst.NRGBAAt(x, y)
			assert.Equal(t, px.R, px.G, "pixel (%d,%d)", x, y)
			assert.Equal(t, px.G, px.B, "pixel (%d,%d)", x, y)
		}
	}

	// alpha is preserved
	assert.EqualValues(t, 255, dst.NRGBAAt(0, 0).A)
	assert.EqualValues(t, 0, dst.NRGBAAt(1, 1).A)

	// luma ordering: green reads brighter than red, red brighter than blue
	red := dst.NRGBAAt(0, 0).R
	green := dst.NRGBAAt(1, 0).R
	blue := dst.NRGBAAt(0, 1).R
	assert.Greater(t, green, red)
	assert.Greater(t, red, blue)
}

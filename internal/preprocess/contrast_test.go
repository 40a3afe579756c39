package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

// rampGray fills rows with values from lo to hi inclusive.
func rampGray(w int, lo, hi uint8) *image.Gray {
	h := int(hi-lo) + 1
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			g.SetGray(x, y, color.Gray{Y: lo + uint8(y)})
		}
	}
	return g
}

func TestNormalizeContrast_DegenerateIsNoOp(t *testing.T) {
	for _, v := range []uint8{0, 17, 128, 255} {
		in := uniformGray(16, 9, v)
		out := NormalizeContrast(in, DefaultClipPercent)
		require.Equal(t, in.Bounds(), out.Bounds())
		assert.Equal(t, in.Pix, out.Pix, "value %d", v)
		assert.NotSame(t, in, out)
	}
}

func TestNormalizeContrast_Stretches(t *testing.T) {
	in := rampGray(10, 100, 150)
	out := NormalizeContrast(in, 1)

	lo, hi := ClipRange(Histogram(in), 1)
	assert.Equal(t, 100, lo)
	assert.Equal(t, 149, hi)

	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), out.GrayAt(0, 49).Y)
	assert.Equal(t, uint8(255), out.GrayAt(0, 50).Y, "values above hi saturate")

	for y := 1; y < 50; y++ {
		assert.GreaterOrEqual(t, out.GrayAt(0, y).Y, out.GrayAt(0, y-1).Y)
	}
}

func TestClipRange_ClipsTails(t *testing.T) {
	var hist [256]int
	hist[0] = 1
	hist[100] = 98
	hist[200] = 98
	hist[255] = 1
	lo, hi := ClipRange(hist, 3)
	assert.Equal(t, 100, lo)
	assert.Equal(t, 199, hi)
}

func TestNormalizeContrast_KeepsOrigin(t *testing.T) {
	in := rampGray(4, 10, 20)
	sub := in.SubImage(image.Rect(0, 2, 4, 8)).(*image.Gray)
	out := NormalizeContrast(sub, DefaultClipPercent)
	assert.Equal(t, sub.Bounds(), out.Bounds())
}

func TestAutoContrast(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			v := uint8(96 + 8*x)
			src.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	out := AutoContrast(src, 1)
	assert.Equal(t, uint8(0), out.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), out.GrayAt(7, 0).Y)
}

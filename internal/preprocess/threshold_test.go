package preprocess

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOtsuThreshold_Bimodal(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range g.Pix {
		if i%2 == 0 {
			g.Pix[i] = 30
		} else {
			g.Pix[i] = 220
		}
	}
	th := OtsuThreshold(g)
	assert.GreaterOrEqual(t, th, uint8(30))
	assert.Less(t, th, uint8(220))

	m := Binarize(g, th)
	assert.Equal(t, 200, m.Count())
	assert.False(t, m.At(0, 0))
	assert.True(t, m.At(1, 0))
	assert.False(t, m.At(-1, 0))
	assert.False(t, m.At(0, 20))
}

func TestOtsuThreshold_Empty(t *testing.T) {
	assert.Equal(t, uint8(0), OtsuThreshold(image.NewGray(image.Rectangle{})))
}

func TestOtsuBinarize_BrightRectangle(t *testing.T) {
	g := uniformGray(60, 40, 10)
	for y := 10; y < 30; y++ {
		for x := 15; x < 45; x++ {
			g.Pix[y*g.Stride+x] = 240
		}
	}
	m, th := OtsuBinarize(g, DefaultBlurSigma)
	assert.Greater(t, th, uint8(10))
	assert.True(t, m.At(30, 20))
	assert.False(t, m.At(2, 2))
	assert.InDelta(t, 600, m.Count(), 80)
}

func TestBlur_ZeroSigmaIsIdentity(t *testing.T) {
	g := uniformGray(5, 5, 77)
	assert.Same(t, g, Blur(g, 0))
}

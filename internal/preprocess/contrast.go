// Package preprocess holds the pixel-level operations applied before
// receipt localisation: contrast normalisation, blurring and binarisation.
package preprocess

import (
	"image"
	"math"

	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// DefaultClipPercent is the share of the histogram clipped from both tails.
const DefaultClipPercent = 3.0

// Histogram returns the 256-bin intensity histogram of gray.
func Histogram(gray *image.Gray) [256]int {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := gray.PixOffset(b.Min.X, y)
		for _, v := range gray.Pix[off : off+b.Dx()] {
			hist[v]++
		}
	}
	return hist
}

// ClipRange returns the intensity window [lo, hi] that remains after
// clipping clipPercent/2 percent of the pixel mass from each end of the
// histogram.
func ClipRange(hist [256]int, clipPercent float64) (lo, hi int) {
	var cum [256]float64
	cum[0] = float64(hist[0])
	for i := 1; i < 256; i++ {
		cum[i] = cum[i-1] + float64(hist[i])
	}
	total := cum[255]
	clip := total * (clipPercent / 100) / 2

	for lo < 255 && cum[lo] < clip {
		lo++
	}
	hi = 255
	for hi > 0 && cum[hi] >= total-clip {
		hi--
	}
	return lo, hi
}

// NormalizeContrast stretches the clipped intensity window of gray onto
// the full 0..255 range with a linear gain and bias. When the window is
// empty the image is returned unchanged (as a copy).
func NormalizeContrast(gray *image.Gray, clipPercent float64) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		copy(out.Pix[out.PixOffset(b.Min.X, y):], gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)])
	}
	if b.Empty() {
		return out
	}

	lo, hi := ClipRange(Histogram(gray), clipPercent)
	if hi <= lo {
		return out
	}

	alpha := 255 / float64(hi-lo)
	beta := -float64(lo) * alpha

	var lut [256]uint8
	for v := range lut {
		lut[v] = clampByte(float64(v)*alpha + beta)
	}
	for i, v := range out.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// AutoContrast converts img to grayscale and normalizes its contrast.
func AutoContrast(img image.Image, clipPercent float64) *image.Gray {
	return NormalizeContrast(utils.ToGray(img), clipPercent)
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

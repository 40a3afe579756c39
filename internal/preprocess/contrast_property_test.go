package preprocess

import (
	"image"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genGray generates a small grayscale image from random pixel values.
func genGray() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(1, 24),
		gen.IntRange(1, 24),
		gen.SliceOfN(24*24, gen.UInt8()),
	).Map(func(vals []interface{}) *image.Gray {
		w, h := vals[0].(int), vals[1].(int)
		pix := vals[2].([]uint8)
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, pix[:w*h])
		return img
	})
}

// TestNormalizeContrast_PreservesOrder verifies the stretch never swaps
// the relative brightness of two pixels.
func TestNormalizeContrast_PreservesOrder(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("darker pixels stay darker or equal", prop.ForAll(
		func(img *image.Gray, clip float64) bool {
			out := NormalizeContrast(img, clip)
			for i := range img.Pix {
				for j := range img.Pix {
					if img.Pix[i] < img.Pix[j] && out.Pix[i] > out.Pix[j] {
						return false
					}
				}
			}
			return true
		},
		genGray(),
		gen.Float64Range(0, 20),
	))

	properties.TestingRun(t)
}

// TestNormalizeContrast_KeepsGeometry verifies bounds and input are untouched.
func TestNormalizeContrast_KeepsGeometry(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("same bounds, input not modified", prop.ForAll(
		func(img *image.Gray, clip float64) bool {
			before := append([]uint8(nil), img.Pix...)
			out := NormalizeContrast(img, clip)
			if out.Bounds() != img.Bounds() {
				return false
			}
			for i := range before {
				if before[i] != img.Pix[i] {
					return false
				}
			}
			return true
		},
		genGray(),
		gen.Float64Range(0, 20),
	))

	properties.TestingRun(t)
}

// TestClipRange_WithinHistogram verifies the window stays inside 0..255.
func TestClipRange_WithinHistogram(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("0 <= lo <= 255 and 0 <= hi <= 255", prop.ForAll(
		func(img *image.Gray, clip float64) bool {
			lo, hi := ClipRange(Histogram(img), clip)
			return lo >= 0 && lo <= 255 && hi >= 0 && hi <= 255
		},
		genGray(),
		gen.Float64Range(0, 99),
	))

	properties.TestingRun(t)
}

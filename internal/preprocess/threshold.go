package preprocess

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// DefaultBlurSigma matches a 5x5 Gaussian kernel.
const DefaultBlurSigma = 1.1

// Blur applies a Gaussian blur and returns the result as grayscale.
func Blur(gray *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return gray
	}
	return utils.ToGray(imaging.Blur(gray, sigma))
}

// OtsuThreshold returns the intensity that maximizes the between-class
// variance of the histogram of gray.
func OtsuThreshold(gray *image.Gray) uint8 {
	hist := Histogram(gray)
	total := 0
	var sum float64
	for i, c := range hist {
		total += c
		sum += float64(i) * float64(c)
	}
	if total == 0 {
		return 0
	}

	var sumB, maxVariance float64
	best := 0
	wB := 0
	for t := range 256 {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		meanB := sumB / float64(wB)
		meanF := (sum - sumB) / float64(wF)
		variance := float64(wB) * float64(wF) * (meanB - meanF) * (meanB - meanF)
		if variance > maxVariance {
			maxVariance = variance
			best = t
		}
	}
	return uint8(best)
}

// Mask is a row-major binary image.
type Mask struct {
	W, H int
	Pix  []bool
}

// At reports whether (x, y) is foreground; out-of-range reads are background.
func (m Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Pix[y*m.W+x]
}

// Count returns the number of foreground pixels.
func (m Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Binarize marks pixels strictly brighter than t as foreground.
func Binarize(gray *image.Gray, t uint8) Mask {
	b := gray.Bounds()
	m := Mask{W: b.Dx(), H: b.Dy(), Pix: make([]bool, b.Dx()*b.Dy())}
	for y := range m.H {
		off := gray.PixOffset(b.Min.X, b.Min.Y+y)
		for x, v := range gray.Pix[off : off+m.W] {
			m.Pix[y*m.W+x] = v > t
		}
	}
	return m
}

// OtsuBinarize blurs gray and binarizes it at its Otsu threshold.
func OtsuBinarize(gray *image.Gray, sigma float64) (Mask, uint8) {
	blurred := Blur(gray, sigma)
	t := OtsuThreshold(blurred)
	return Binarize(blurred, t), t
}

package rectify

import (
	"math"

	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// homography is a row-major 3x3 projective matrix with h[8] fixed to 1.
type homography [9]float64

// computeHomography returns the transform mapping src[i] onto dst[i].
func computeHomography(src, dst [4]utils.Point) (homography, bool) {
	// augmented system for h00..h21, one pair of rows per correspondence
	var m [8][9]float64
	for i := range 4 {
		X, Y := src[i].X, src[i].Y
		x, y := dst[i].X, dst[i].Y
		m[2*i] = [9]float64{X, Y, 1, 0, 0, 0, -X * x, -Y * x, x}
		m[2*i+1] = [9]float64{0, 0, 0, X, Y, 1, -X * y, -Y * y, y}
	}

	sol, ok := gaussJordan(m)
	if !ok {
		return homography{}, false
	}
	return homography{sol[0], sol[1], sol[2], sol[3], sol[4], sol[5], sol[6], sol[7], 1}, true
}

// gaussJordan solves the 8x8 system in m with partial pivoting.
func gaussJordan(m [8][9]float64) ([8]float64, bool) {
	for col := range 8 {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return [8]float64{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		div := m[col][col]
		for c := col; c < 9; c++ {
			m[col][c] /= div
		}
		for r := range 8 {
			if r == col || m[r][col] == 0 {
				continue
			}
			f := m[r][col]
			for c := col; c < 9; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	var x [8]float64
	for i := range 8 {
		x[i] = m[i][8]
	}
	return x, true
}

// apply maps (x, y) through h. Points at infinity map far outside any image.
func (h homography) apply(x, y float64) (float64, float64) {
	den := h[6]*x + h[7]*y + h[8]
	if den == 0 {
		return -1e9, -1e9
	}
	return (h[0]*x + h[1]*y + h[2]) / den, (h[3]*x + h[4]*y + h[5]) / den
}

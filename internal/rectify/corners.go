package rectify

import (
	"errors"
	"math"
	"sort"

	"github.com/MeKo-Tech/scontrino/internal/utils"
)

var (
	errNoContour          = errors.New("no contour found")
	errTooFewPoints       = errors.New("approximated contour has fewer than 4 points")
	errCornersNotSpread   = errors.New("no well separated corner pair")
	errDegenerateQuad     = errors.New("corner quad is degenerate")
	errHomographySingular = errors.New("perspective transform is singular")
)

// Quad is a quadrilateral ordered top-left, top-right, bottom-right, bottom-left.
type Quad [4]utils.Point

// Points returns the corners as a slice, in order.
func (q Quad) Points() []utils.Point { return q[:] }

// Scale multiplies every corner by f.
func (q Quad) Scale(f float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = utils.Point{X: p.X * f, Y: p.Y * f}
	}
	return out
}

// Area returns the enclosed area.
func (q Quad) Area() float64 { return utils.PolygonArea(q[:]) }

// IsConvex reports whether the corners form a strictly convex polygon in
// their cyclic order.
func (q Quad) IsConvex() bool {
	sign := 0.0
	for i := range 4 {
		c := utils.Cross(q[i], q[(i+1)%4], q[(i+2)%4])
		if c == 0 {
			return false
		}
		if sign == 0 {
			sign = c
		} else if (c > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

// Size returns the output rectangle for the quad: the longer of the two
// horizontal sides by the longer of the two vertical sides.
func (q Quad) Size() (int, int) {
	w := math.Max(utils.Distance(q[0], q[1]), utils.Distance(q[3], q[2]))
	h := math.Max(utils.Distance(q[0], q[3]), utils.Distance(q[1], q[2]))
	return int(math.Round(w)), int(math.Round(h))
}

// selectCorners picks the four receipt corners from an approximated
// contour. With more than four vertices the topmost and bottommost points
// anchor each pair and the partner is the next vertex, scanning inward by
// height, that lies at least minDist away.
func selectCorners(poly []utils.Point, minDist float64) (Quad, error) {
	pts := append([]utils.Point(nil), poly...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Y < pts[j].Y })

	n := len(pts)
	if n < 4 {
		return Quad{}, errTooFewPoints
	}
	if n == 4 {
		return orderCorners([2]utils.Point{pts[0], pts[1]}, [2]utils.Point{pts[2], pts[3]}), nil
	}

	ti := -1
	for i := 1; i < n; i++ {
		if utils.Distance(pts[i], pts[0]) >= minDist {
			ti = i
			break
		}
	}
	bi := -1
	for i := n - 2; i >= 0; i-- {
		if utils.Distance(pts[i], pts[n-1]) >= minDist {
			bi = i
			break
		}
	}
	if ti < 0 || bi < 0 || ti == n-1 || bi == 0 || ti == bi {
		return Quad{}, errCornersNotSpread
	}
	return orderCorners([2]utils.Point{pts[0], pts[ti]}, [2]utils.Point{pts[bi], pts[n-1]}), nil
}

// orderCorners assigns left and right within the top and bottom pairs.
func orderCorners(top, bottom [2]utils.Point) Quad {
	if top[1].X < top[0].X {
		top[0], top[1] = top[1], top[0]
	}
	if bottom[1].X < bottom[0].X {
		bottom[0], bottom[1] = bottom[1], bottom[0]
	}
	return Quad{top[0], top[1], bottom[1], bottom[0]}
}

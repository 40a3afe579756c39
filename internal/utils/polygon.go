package utils

import "math"

// SimplifyPolygon reduces the number of points in a closed contour using the
// Douglas-Peucker algorithm with tolerance epsilon. The contour is split at
// two extreme points, the vertex farthest from the first point and the
// vertex farthest from that one, and both chains are simplified
// independently, so where the trace started does not decide which corners
// survive. The result keeps the input order.
func SimplifyPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	n := len(pts)
	a := farthestFrom(pts, 0)
	b := farthestFrom(pts, a)

	// closed copy rotated to start at a, first point repeated at the end
	ring := make([]Point, n+1)
	for i := range n {
		ring[i] = pts[(a+i)%n]
	}
	ring[n] = ring[0]
	split := (b - a + n) % n

	keep := make([]bool, n+1)
	keep[0] = true
	keep[split] = true
	dpSimplify(ring, 0, split, epsilon, keep)
	dpSimplify(ring, split, n, epsilon, keep)

	out := make([]Point, 0, n)
	for i := range n {
		if keep[(i-a+n)%n] {
			out = append(out, pts[i])
		}
	}
	return out
}

// farthestFrom returns the index of the point farthest from pts[from].
func farthestFrom(pts []Point, from int) int {
	best, idx := -1.0, -1
	for i, p := range pts {
		if i == from {
			continue
		}
		if d := Distance(pts[from], p); d > best {
			best, idx = d, i
		}
	}
	return idx
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		keep[index] = true
		dpSimplify(pts, start, index, eps, keep)
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	return num / math.Hypot(vx, vy)
}

// Perimeter returns the length of the closed polygon through pts.
func Perimeter(pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	var total float64
	for i := range pts {
		total += Distance(pts[i], pts[(i+1)%len(pts)])
	}
	return total
}

// PolygonArea returns the absolute enclosed area (shoelace formula).
func PolygonArea(pts []Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var s float64
	for i := range pts {
		j := (i + 1) % len(pts)
		s += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(s) * 0.5
}

// Cross returns the z component of (a-o) x (b-o).
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

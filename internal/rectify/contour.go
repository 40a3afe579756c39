package rectify

import (
	"sort"

	"github.com/MeKo-Tech/scontrino/internal/preprocess"
	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// component describes one 4-connected foreground region.
type component struct {
	label int
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

func (c component) boxArea() float64 {
	return float64(c.maxX-c.minX+1) * float64(c.maxY-c.minY+1)
}

// labelComponents assigns a label (starting at 1) to every foreground pixel.
func labelComponents(m preprocess.Mask) ([]component, []int) {
	labels := make([]int, m.W*m.H)
	var comps []component
	queue := make([]int, 0, 256)
	next := 1

	for start, fg := range m.Pix {
		if !fg || labels[start] != 0 {
			continue
		}
		c := component{label: next, minX: start % m.W, minY: start / m.W, maxX: start % m.W, maxY: start / m.W}
		labels[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%m.W, i/m.W
			c.count++
			c.minX, c.maxX = min(c.minX, x), max(c.maxX, x)
			c.minY, c.maxY = min(c.minY, y), max(c.maxY, y)
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if !m.At(nx, ny) {
					continue
				}
				ni := ny*m.W + nx
				if labels[ni] == 0 {
					labels[ni] = next
					queue = append(queue, ni)
				}
			}
		}
		comps = append(comps, c)
		next++
	}
	return comps, labels
}

// largestContour returns the outer boundary with the largest enclosed area,
// or nil when the mask has no foreground.
func largestContour(m preprocess.Mask) []utils.Point {
	comps, labels := labelComponents(m)
	if len(comps) == 0 {
		return nil
	}
	// enclosed area never exceeds the bounding box area
	sort.Slice(comps, func(i, j int) bool { return comps[i].boxArea() > comps[j].boxArea() })

	var best []utils.Point
	bestArea := -1.0
	for _, c := range comps {
		if c.boxArea() <= bestArea {
			break
		}
		pts := traceOuterBoundary(labels, m.W, m.H, c)
		if a := utils.PolygonArea(pts); a > bestArea {
			best, bestArea = pts, a
		}
	}
	return best
}

// 8-neighbourhood in clockwise order: E, SE, S, SW, W, NW, N, NE.
var (
	mooreDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	mooreDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// traceOuterBoundary follows the outer boundary of a labelled component with
// Moore-neighbour tracing. It stops when the start pixel is about to be left
// along the first edge again. Collinear runs are collapsed so only direction
// changes remain.
func traceOuterBoundary(labels []int, w, h int, c component) []utils.Point {
	isLabel := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < w && y < h && labels[y*w+x] == c.label
	}

	// the first pixel in raster order always lies on the outer boundary
	sx, sy := -1, -1
	for x := c.minX; x <= c.maxX; x++ {
		if isLabel(x, c.minY) {
			sx, sy = x, c.minY
			break
		}
	}
	if sx < 0 {
		return nil
	}

	pts := []utils.Point{{X: float64(sx), Y: float64(sy)}}
	add := func(x, y int) {
		p := utils.Point{X: float64(x), Y: float64(y)}
		if n := len(pts); n >= 2 && utils.Cross(pts[n-2], pts[n-1], p) == 0 {
			pts[n-1] = p
			return
		}
		pts = append(pts, p)
	}

	fx, fy, fbx, fby, ok := mooreStep(isLabel, sx, sy, sx-1, sy)
	if !ok {
		return pts
	}
	cx, cy, bx, by := fx, fy, fbx, fby
	for steps := 0; steps < 4*w*h+8; steps++ {
		nx, ny, nbx, nby, _ := mooreStep(isLabel, cx, cy, bx, by)
		if cx == sx && cy == sy && nx == fx && ny == fy {
			break
		}
		add(cx, cy)
		cx, cy, bx, by = nx, ny, nbx, nby
	}

	// close the loop without redundant vertices at the seam
	if n := len(pts); n >= 3 && utils.Cross(pts[n-2], pts[n-1], pts[0]) == 0 {
		pts = pts[:n-1]
	}
	if n := len(pts); n >= 3 && utils.Cross(pts[n-1], pts[0], pts[1]) == 0 {
		pts = pts[1:]
	}
	return pts
}

// mooreStep scans the neighbourhood of (cx, cy) clockwise, starting after the
// backtrack pixel, and returns the next boundary pixel and its new backtrack.
func mooreStep(isLabel func(x, y int) bool, cx, cy, bx, by int) (int, int, int, int, bool) {
	start := 0
	for i := range 8 {
		if mooreDX[i] == bx-cx && mooreDY[i] == by-cy {
			start = (i + 1) % 8
			break
		}
	}
	px, py := bx, by
	for k := range 8 {
		i := (start + k) % 8
		tx, ty := cx+mooreDX[i], cy+mooreDY[i]
		if isLabel(tx, ty) {
			return tx, ty, px, py, true
		}
		px, py = tx, ty
	}
	return 0, 0, 0, 0, false
}

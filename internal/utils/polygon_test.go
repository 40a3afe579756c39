package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyPolygon(t *testing.T) {
	tests := []struct {
		name    string
		points  []Point
		epsilon float64
		wantLen int
	}{
		{
			name:    "empty polygon",
			points:  []Point{},
			epsilon: 1.0,
			wantLen: 0,
		},
		{
			name:    "triangle is kept",
			points:  []Point{{0, 0}, {10, 0}, {5, 10}},
			epsilon: 1.0,
			wantLen: 3,
		},
		{
			name: "square with edge midpoints",
			points: []Point{
				{0, 0}, {5, 0}, {10, 0},
				{10, 5}, {10, 10},
				{5, 10}, {0, 10},
				{0, 5},
			},
			epsilon: 0.5,
			wantLen: 4,
		},
		{
			name:    "zero epsilon keeps everything",
			points:  []Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}},
			epsilon: 0.0,
			wantLen: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimplifyPolygon(tt.points, tt.epsilon)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestSimplifyPolygon_KeepsCorners(t *testing.T) {
	// dense contour around a 40x20 rectangle, starting mid-edge
	var pts []Point
	for x := 20.0; x <= 40; x++ {
		pts = append(pts, Point{x, 0})
	}
	for y := 1.0; y <= 20; y++ {
		pts = append(pts, Point{40, y})
	}
	for x := 39.0; x >= 0; x-- {
		pts = append(pts, Point{x, 20})
	}
	for y := 19.0; y >= 0; y-- {
		pts = append(pts, Point{0, y})
	}
	for x := 1.0; x < 20; x++ {
		pts = append(pts, Point{x, 0})
	}

	got := SimplifyPolygon(pts, 0.01*Perimeter(pts))
	require.Len(t, got, 4, "the mid-edge start point is not a corner: %v", got)
	for _, c := range []Point{{0, 0}, {40, 0}, {40, 20}, {0, 20}} {
		assert.Contains(t, got, c)
	}
}

func TestSimplifyPolygon_StartOnSlopedEdge(t *testing.T) {
	// staircase outline of a rectangle tilted by about two degrees, traced
	// from the left end of its top row like a raster scan would
	corners := []Point{{100, 0}, {0, 4}, {-8, 204}, {92, 200}}
	var pts []Point
	for i := range corners {
		a, b := corners[i], corners[(i+1)%4]
		steps := int(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y)))
		for s := 0; s < steps; s++ {
			f := float64(s) / float64(steps)
			pts = append(pts, Point{math.Round(a.X + f*(b.X-a.X)), math.Round(a.Y + f*(b.Y-a.Y))})
		}
	}
	// start at the leftmost pixel of the top row, 12 px from the corner
	start := 12
	pts = append(append([]Point(nil), pts[start:]...), pts[:start]...)
	require.Equal(t, Point{88, 0}, pts[0])

	got := SimplifyPolygon(pts, 0.01*Perimeter(pts))
	require.Len(t, got, 4, "%v", got)
	for _, c := range corners {
		assert.Contains(t, got, c)
	}
}

func TestSimplifyPolygon_KeepsInputOrder(t *testing.T) {
	pts := []Point{{0, 0}, {5, 0}, {10, 0}, {10, 10}, {0, 10}}
	got := SimplifyPolygon(pts, 0.5)
	assert.Equal(t, []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, got)
}

func TestPerimeterAndArea(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.InDelta(t, 40.0, Perimeter(square), 1e-9)
	assert.InDelta(t, 100.0, PolygonArea(square), 1e-9)

	// orientation does not change the area sign
	reversed := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	assert.InDelta(t, 100.0, PolygonArea(reversed), 1e-9)

	assert.Zero(t, PolygonArea(square[:2]))
	assert.Zero(t, Perimeter(square[:1]))
}

func TestCross(t *testing.T) {
	assert.Positive(t, Cross(Point{0, 0}, Point{1, 0}, Point{0, 1}))
	assert.Negative(t, Cross(Point{0, 0}, Point{0, 1}, Point{1, 0}))
	assert.Zero(t, Cross(Point{0, 0}, Point{1, 1}, Point{2, 2}))
}

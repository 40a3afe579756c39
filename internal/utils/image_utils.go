package utils

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Scale returns the box with every coordinate multiplied by f.
func (b Box) Scale(f float64) Box {
	return Box{MinX: b.MinX * f, MinY: b.MinY * f, MaxX: b.MaxX * f, MaxY: b.MaxY * f}
}

// ToRect converts a Box to an image.Rectangle, clamped to image bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(math.Floor(b.MinY)), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(math.Ceil(b.MaxX)), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(math.Ceil(b.MaxY)), bounds.Min.Y, bounds.Max.Y)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ScalePoints returns a copy of pts multiplied by f.
func ScalePoints(pts []Point, f float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X * f, Y: p.Y * f}
	}
	return out
}

// BoundingBox returns the axis-aligned bounding box for a set of points.
// Points are pixel centres, so the box extends one pixel past the maximum.
func BoundingBox(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{MinX: minX, MinY: minY, MaxX: maxX + 1, MaxY: maxY + 1}
}

// CropImageRect crops an image to the given rectangle. The result is anchored
// at (0,0); grayscale input stays grayscale.
func CropImageRect(img image.Image, rect image.Rectangle) image.Image {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return imaging.New(0, 0, color.Black)
	}
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		for y := range rect.Dy() {
			off := g.PixOffset(rect.Min.X, rect.Min.Y+y)
			copy(out.Pix[y*out.Stride:], g.Pix[off:off+rect.Dx()])
		}
		return out
	}
	return imaging.Crop(img, rect)
}

// IsEmpty reports whether img is nil or has no pixels.
func IsEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}

// Rotate90 rotates the image 90 degrees counter-clockwise.
func Rotate90(img image.Image) image.Image { return imaging.Rotate90(img) }

// Rotate180 rotates the image 180 degrees.
func Rotate180(img image.Image) image.Image { return imaging.Rotate180(img) }

// DrawPolygon draws connected line segments and closes the polygon.
func DrawPolygon(dst *image.RGBA, pts []Point, col color.Color, thickness int) {
	if len(pts) < 2 {
		return
	}
	ip := make([]image.Point, len(pts))
	for i, p := range pts {
		ip[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	for i := range ip {
		drawLine(dst, ip[i], ip[(i+1)%len(ip)], col, thickness)
	}
}

// drawLine draws a line between two points using Bresenham.
func drawLine(dst *image.RGBA, a, b image.Point, col color.Color, thickness int) {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		drawThickPoint(dst, x0, y0, col, thickness)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawThickPoint(dst *image.RGBA, x, y int, col color.Color, thickness int) {
	r := max(thickness-1, 0) / 2
	for yy := y - r; yy <= y+r; yy++ {
		for xx := x - r; xx <= x+r; xx++ {
			if image.Pt(xx, yy).In(dst.Bounds()) {
				dst.Set(xx, yy, col)
			}
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

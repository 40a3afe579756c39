package rectify

import (
	"image"
	"image/color"

	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// warpPerspective maps the quadrilateral q of src onto a dstW x dstH
// rectangle using the inverse homography and bilinear sampling. Samples
// falling outside src are black.
func warpPerspective(src image.Image, q Quad, dstW, dstH int) (image.Image, bool) {
	if dstW <= 0 || dstH <= 0 {
		return nil, false
	}
	rect := [4]utils.Point{
		{X: 0, Y: 0},
		{X: float64(dstW - 1), Y: 0},
		{X: float64(dstW - 1), Y: float64(dstH - 1)},
		{X: 0, Y: float64(dstH - 1)},
	}
	h, ok := computeHomography(rect, q)
	if !ok {
		return nil, false
	}

	if g, isGray := src.(*image.Gray); isGray {
		return warpGray(g, h, dstW, dstH), true
	}

	out := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for y := range dstH {
		for x := range dstW {
			sx, sy := h.apply(float64(x), float64(y))
			out.SetRGBA(x, y, bilinearRGBA(src, sx, sy))
		}
	}
	return out, true
}

func warpGray(src *image.Gray, h homography, dstW, dstH int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, dstW, dstH))
	b := src.Bounds()
	for y := range dstH {
		for x := range dstW {
			sx, sy := h.apply(float64(x), float64(y))
			sx += float64(b.Min.X)
			sy += float64(b.Min.Y)
			if sx < float64(b.Min.X) || sy < float64(b.Min.Y) || sx > float64(b.Max.X-1) || sy > float64(b.Max.Y-1) {
				continue
			}
			x0, y0 := int(sx), int(sy)
			x1, y1 := min(x0+1, b.Max.X-1), min(y0+1, b.Max.Y-1)
			fx, fy := sx-float64(x0), sy-float64(y0)
			top := lerp(float64(src.GrayAt(x0, y0).Y), float64(src.GrayAt(x1, y0).Y), fx)
			bot := lerp(float64(src.GrayAt(x0, y1).Y), float64(src.GrayAt(x1, y1).Y), fx)
			out.Pix[y*out.Stride+x] = uint8(lerp(top, bot, fy) + 0.5)
		}
	}
	return out
}

func bilinearRGBA(src image.Image, x, y float64) color.RGBA {
	b := src.Bounds()
	x += float64(b.Min.X)
	y += float64(b.Min.Y)
	if x < float64(b.Min.X) || y < float64(b.Min.Y) || x > float64(b.Max.X-1) || y > float64(b.Max.Y-1) {
		return color.RGBA{A: 255}
	}
	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, b.Max.X-1), min(y0+1, b.Max.Y-1)
	fx, fy := x-float64(x0), y-float64(y0)
	c00, c10 := toRGBA(src.At(x0, y0)), toRGBA(src.At(x1, y0))
	c01, c11 := toRGBA(src.At(x0, y1)), toRGBA(src.At(x1, y1))
	var out [4]uint8
	for i := range out {
		v := lerp(lerp(c00[i], c10[i], fx), lerp(c01[i], c11[i], fx), fy)
		out[i] = uint8(v + 0.5)
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}

func toRGBA(c color.Color) [4]float64 {
	r, g, b, a := c.RGBA()
	return [4]float64{float64(r >> 8), float64(g >> 8), float64(b >> 8), float64(a >> 8)}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

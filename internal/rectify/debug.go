package rectify

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// dumpDebug writes an overlay of the contour, fallback box and quad on the
// input, plus the rectified crop when there is one.
func dumpDebug(dir string, src image.Image, res Result) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	ts := time.Now().UnixNano()

	b := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Src)

	if res.Ratio > 0 && len(res.Contour) > 0 {
		utils.DrawPolygon(canvas, utils.ScalePoints(res.Contour, 1/res.Ratio), color.RGBA{0, 0, 255, 255}, 1)
	}
	if !res.FallbackRect.Empty() {
		fb := res.FallbackRect.Sub(b.Min)
		utils.DrawPolygon(canvas, []utils.Point{
			{X: float64(fb.Min.X), Y: float64(fb.Min.Y)},
			{X: float64(fb.Max.X - 1), Y: float64(fb.Min.Y)},
			{X: float64(fb.Max.X - 1), Y: float64(fb.Max.Y - 1)},
			{X: float64(fb.Min.X), Y: float64(fb.Max.Y - 1)},
		}, color.RGBA{0, 255, 0, 255}, 2)
	}
	if res.OK() {
		utils.DrawPolygon(canvas, res.Quad.Points(), color.RGBA{255, 0, 0, 255}, 3)
	}
	if err := writePNG(filepath.Join(dir, fmt.Sprintf("rect_overlay_%d.png", ts)), canvas); err != nil {
		return err
	}

	if res.OK() {
		return writePNG(filepath.Join(dir, fmt.Sprintf("rect_output_%d.png", ts)), res.Rectified)
	}
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is constructed from timestamp in debug directory
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

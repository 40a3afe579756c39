// Package testutil renders synthetic receipt photographs for tests.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// ReceiptScene describes a light paper rectangle photographed on a dark table.
type ReceiptScene struct {
	Width, Height     int     // frame size
	PaperW, PaperH    int     // receipt size before rotation
	Angle             float64 // counter-clockwise rotation in degrees
	Background, Paper uint8
	Lines             []string // printed text, top to bottom
}

// DefaultReceiptScene returns a portrait receipt centred in a 640x480 frame.
func DefaultReceiptScene() ReceiptScene {
	return ReceiptScene{
		Width:      480,
		Height:     640,
		PaperW:     200,
		PaperH:     400,
		Background: 20,
		Paper:      235,
	}
}

// RenderReceipt draws the scene and returns the frame together with the
// true paper corners (top-left, top-right, bottom-right, bottom-left).
func RenderReceipt(s ReceiptScene) (*image.Gray, [4]utils.Point) {
	paper := image.NewGray(image.Rect(0, 0, s.PaperW, s.PaperH))
	draw.Draw(paper, paper.Bounds(), image.NewUniform(color.Gray{Y: s.Paper}), image.Point{}, draw.Src)
	drawLines(paper, s.Lines)

	frame := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.Gray{Y: s.Background}), image.Point{}, draw.Src)

	cx, cy := float64(s.Width)/2, float64(s.Height)/2
	pcx, pcy := float64(s.PaperW)/2, float64(s.PaperH)/2
	rad := s.Angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	for y := range s.Height {
		for x := range s.Width {
			// inverse rotation of the frame pixel into paper coordinates
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			px := cos*dx - sin*dy + pcx
			py := sin*dx + cos*dy + pcy
			if px < 0 || py < 0 || px >= float64(s.PaperW) || py >= float64(s.PaperH) {
				continue
			}
			frame.Pix[y*frame.Stride+x] = paper.Pix[int(py)*paper.Stride+int(px)]
		}
	}

	var corners [4]utils.Point
	for i, c := range [4][2]float64{{0, 0}, {float64(s.PaperW), 0}, {float64(s.PaperW), float64(s.PaperH)}, {0, float64(s.PaperH)}} {
		dx, dy := c[0]-pcx, c[1]-pcy
		corners[i] = utils.Point{X: cos*dx + sin*dy + cx, Y: -sin*dx + cos*dy + cy}
	}
	return frame, corners
}

func drawLines(dst *image.Gray, lines []string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(color.Gray{Y: 0}), Face: face}
	lineHeight := face.Metrics().Height.Ceil() + 4
	for i, line := range lines {
		d.Dot = fixed.P(10, 20+i*lineHeight)
		d.DrawString(line)
	}
}

// Uniform returns a w x h grayscale image filled with v.
func Uniform(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBox(t *testing.T) {
	assert.Equal(t, Box{}, BoundingBox(nil))

	b := BoundingBox([]Point{{3, 4}, {10, 2}, {5, 9}})
	assert.Equal(t, Box{MinX: 3, MinY: 2, MaxX: 11, MaxY: 10}, b)
	assert.InDelta(t, 8.0, b.Width(), 1e-9)
	assert.InDelta(t, 8.0, b.Height(), 1e-9)
}

func TestBoxToRectClamps(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 50)
	r := Box{MinX: -5, MinY: 10.2, MaxX: 120, MaxY: 40.7}.ToRect(bounds)
	assert.Equal(t, image.Rect(0, 10, 100, 41), r)

	scaled := Box{MinX: 1, MinY: 2, MaxX: 3, MaxY: 4}.Scale(2)
	assert.Equal(t, Box{MinX: 2, MinY: 4, MaxX: 6, MaxY: 8}, scaled)
}

func TestCropImageRect(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 10))
	img.SetGray(5, 5, color.Gray{Y: 200})

	out := CropImageRect(img, image.Rect(5, 5, 15, 10))
	require.Equal(t, image.Rect(0, 0, 10, 5), out.Bounds())
	r, _, _, _ := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(200), r>>8)

	empty := CropImageRect(img, image.Rect(50, 50, 60, 60))
	assert.True(t, IsEmpty(empty))
}

func TestRotations(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 30, 10))
	assert.Equal(t, image.Rect(0, 0, 10, 30), Rotate90(img).Bounds())
	assert.Equal(t, image.Rect(0, 0, 30, 10), Rotate180(img).Bounds())
}

func TestResizeLongSide(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1000, 400))
	out, r, err := ResizeLongSide(img, 500)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r, 1e-9)
	assert.Equal(t, 500, out.Bounds().Dx())
	assert.Equal(t, 200, out.Bounds().Dy())

	_, _, err = ResizeLongSide(nil, 500)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "resize", ipe.Operation)
}

func TestToGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	g := ToGray(src)
	require.Equal(t, image.Rect(0, 0, 4, 4), g.Bounds())
	assert.Equal(t, uint8(255), g.GrayAt(2, 2).Y)

	already := image.NewGray(image.Rect(0, 0, 2, 2))
	assert.Same(t, already, ToGray(already))
}

func TestDrawPolygon(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	red := color.RGBA{R: 255, A: 255}
	DrawPolygon(dst, []Point{{2, 2}, {17, 2}, {17, 17}, {2, 17}}, red, 1)
	assert.Equal(t, red, dst.RGBAAt(10, 2))
	assert.Equal(t, red, dst.RGBAAt(2, 10))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(10, 10))
}

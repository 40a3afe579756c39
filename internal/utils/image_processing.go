package utils

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ResizeLongSide scales img so that its longer side equals size, preserving the
// aspect ratio. It returns the resized image and the ratio new/old.
func ResizeLongSide(img image.Image, size int) (image.Image, float64, error) {
	if IsEmpty(img) {
		return nil, 0, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is empty")}
	}
	if size <= 0 {
		return nil, 0, &ImageProcessingError{Operation: "resize", Err: fmt.Errorf("invalid target size %d", size)}
	}
	b := img.Bounds()
	long := max(b.Dx(), b.Dy())
	r := float64(size) / float64(long)
	w := max(1, int(math.Round(float64(b.Dx())*r)))
	h := max(1, int(math.Round(float64(b.Dy())*r)))
	return imaging.Resize(img, w, h, imaging.Lanczos), r, nil
}

// ToGray returns img as an *image.Gray anchored at the origin.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	src := imaging.Grayscale(img)
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = row[x*4]
		}
	}
	return out
}

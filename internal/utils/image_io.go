package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/heic"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp", ".heic", ".heif",
}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// LoadImage opens and decodes an image file, returning the image, its raw
// bytes and metadata. The raw bytes are used for content addressing.
func LoadImage(path string) (image.Image, []byte, ImageMetadata, error) {
	if path == "" {
		return nil, nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		err := &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
		return nil, nil, ImageMetadata{}, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-provided image path is expected
	if err != nil {
		return nil, nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: err}
	}

	img, format, err := DecodeImage(data)
	if err != nil {
		return nil, nil, ImageMetadata{}, err
	}

	b := img.Bounds()
	meta := ImageMetadata{
		Path:      path,
		Format:    format,
		SizeBytes: int64(len(data)),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	return img, data, meta, nil
}

// DecodeImage decodes raw bytes in any supported format. HEIC/HEIF input,
// as produced by phone cameras, is detected by its ftyp brand.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: errors.New("empty image data")}
	}
	if IsHEIC(data) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, "", &ImageProcessingError{Operation: "decode", Err: fmt.Errorf("heic: %w", err)}
		}
		return img, "heic", nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: err}
	}
	return img, format, nil
}

// IsHEIC reports whether data starts with an ISO-BMFF ftyp box of a HEIF brand.
func IsHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

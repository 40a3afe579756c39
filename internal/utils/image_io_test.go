package utils

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	for _, p := range []string{"a.jpg", "b.JPEG", "c.png", "d.heic", "e.HEIF", "f.webp", "g.tiff"} {
		assert.True(t, IsSupportedImage(p), p)
	}
	for _, p := range []string{"a.pdf", "b", "c.txt"} {
		assert.False(t, IsSupportedImage(p), p)
	}
}

func TestIsHEIC(t *testing.T) {
	hdr := []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c'}
	assert.True(t, IsHEIC(hdr))
	assert.False(t, IsHEIC([]byte("\x89PNG\r\n\x1a\n0000")))
	assert.False(t, IsHEIC([]byte("short")))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "receipt.png")

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 12, 7))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	img, data, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
	assert.Equal(t, buf.Bytes(), data)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 7, meta.Height)
	assert.Equal(t, int64(buf.Len()), meta.SizeBytes)
}

func TestLoadImage_Errors(t *testing.T) {
	_, _, _, err := LoadImage("")
	require.Error(t, err)

	_, _, _, err = LoadImage("scan.pdf")
	require.ErrorContains(t, err, "unsupported format")

	_, _, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, _, err = DecodeImage([]byte("not an image"))
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

package recognizer

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_ReturnsCopy(t *testing.T) {
	s := Static{Tokens: []string{"totale", "12,50"}}
	got, err := s.Recognize(context.Background(), nil)
	require.NoError(t, err)
	got[0] = "changed"

	again, err := s.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"totale", "12,50"}, again)
}

func TestStatic_ErrorAndContext(t *testing.T) {
	boom := errors.New("boom")
	_, err := Static{Err: boom}.Recognize(context.Background(), nil)
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Static{Tokens: []string{"x"}}.Recognize(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFunc(t *testing.T) {
	var seen image.Image
	f := Func(func(_ context.Context, img image.Image) ([]string, error) {
		seen = img
		return []string{"ok"}, nil
	})
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	got, err := f.Recognize(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
	assert.Same(t, img, seen)
}

func TestSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.tokens")
	require.NoError(t, os.WriteFile(path, []byte("REPARTO 1\n\n  quantità \n2\nTOTALE\n12,50 €\n|||\n"), 0o644))

	s := NewSidecar(path, DefaultCleanOptions())
	got, err := s.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"REPARTO 1", "quantità", "2", "TOTALE", "12,50"}, got)

	_, err = NewSidecar(filepath.Join(dir, "missing"), DefaultCleanOptions()).Recognize(context.Background(), nil)
	require.Error(t, err)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend(" Tesseract ")
	require.NoError(t, err)
	assert.Equal(t, BackendTesseract, b)

	b, err = ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendTesseract, b)

	_, err = ParseBackend("gemini")
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.TokenMode = "sentence"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Language = " "
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Backend = BackendSidecar
	require.Error(t, cfg.Validate())
	cfg.SidecarPath = "tokens.txt"
	require.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxPixels = -1
	require.Error(t, cfg.Validate())
}

func TestConfig_CheckPixels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPixels = 100
	require.NoError(t, cfg.CheckPixels(10, 10))
	err := cfg.CheckPixels(11, 10)
	require.ErrorIs(t, err, ErrResourceExhausted)
	assert.True(t, strings.Contains(err.Error(), "110"))

	cfg.MaxPixels = 0
	require.NoError(t, cfg.CheckPixels(10_000, 10_000))
	assert.Positive(t, cfg.Slots())
}

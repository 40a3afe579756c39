package recognizer

import (
	"context"
	"fmt"
	"image"
	"os"
)

// Sidecar replays a token file captured earlier, one token per line. The
// image is ignored, so every attempt sees the same stream.
type Sidecar struct {
	Path  string
	Clean CleanOptions
}

// NewSidecar returns a sidecar backend reading path.
func NewSidecar(path string, clean CleanOptions) *Sidecar {
	return &Sidecar{Path: path, Clean: clean}
}

// Recognize reads the token file.
func (s *Sidecar) Recognize(ctx context.Context, _ image.Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	tokens, err := ReadTokens(f)
	if err != nil {
		return nil, err
	}
	return CleanTokens(tokens, s.Clean), nil
}

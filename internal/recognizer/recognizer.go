// Package recognizer defines the collaborator that turns a receipt image
// into an ordered list of text tokens, plus the backends that ship with
// scontrino.
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrResourceExhausted is wrapped by backends that refuse or abort work
// because of memory pressure. Callers may retry later.
var ErrResourceExhausted = errors.New("recognizer: resource exhausted")

// Recognizer reads the text on an image. Tokens come back in reading
// order; an image without text yields an empty slice and no error.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]string, error)
}

// Func adapts a plain function to the Recognizer interface.
type Func func(ctx context.Context, img image.Image) ([]string, error)

// Recognize calls f.
func (f Func) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	return f(ctx, img)
}

// Backend names a recognizer implementation.
type Backend string

const (
	BackendTesseract Backend = "tesseract"
	BackendSidecar   Backend = "sidecar"
)

// ParseBackend accepts a backend name case-insensitively.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendTesseract, BackendSidecar:
		return b, nil
	case "":
		return BackendTesseract, nil
	}
	return "", fmt.Errorf("unknown recognizer backend %q", s)
}

// Static always returns the same tokens. It is used when the token
// stream is already known, for instance when re-parsing.
type Static struct {
	Tokens []string
	Err    error
}

// Recognize returns a copy of s.Tokens, or s.Err when set.
func (s Static) Recognize(ctx context.Context, _ image.Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]string, len(s.Tokens))
	copy(out, s.Tokens)
	return out, nil
}

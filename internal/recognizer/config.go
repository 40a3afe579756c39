package recognizer

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// TokenMode controls how recognised text is cut into tokens.
type TokenMode string

const (
	// TokenModeLine emits one token per text line.
	TokenModeLine TokenMode = "line"
	// TokenModePhrase splits lines on runs of two or more spaces, which is
	// how receipt columns come out of the engine.
	TokenModePhrase TokenMode = "phrase"
	// TokenModeWord emits every whitespace separated word.
	TokenModeWord TokenMode = "word"
)

// ParseTokenMode accepts a token mode name case-insensitively.
func ParseTokenMode(s string) (TokenMode, error) {
	switch m := TokenMode(strings.ToLower(strings.TrimSpace(s))); m {
	case TokenModeLine, TokenModePhrase, TokenModeWord:
		return m, nil
	case "":
		return TokenModePhrase, nil
	}
	return "", fmt.Errorf("unknown token mode %q (want line, phrase or word)", s)
}

// Config holds configuration for the recognizer backends.
type Config struct {
	Backend        Backend
	Language       string    // Tesseract language code(s), e.g. "ita" or "ita+eng"
	TokenMode      TokenMode // How engine output is split into tokens
	MaxConcurrent  int       // Number of engine instances (0 = NumCPU)
	MaxPixels      int       // Images above this many pixels are refused (0 = no limit)
	Whitelist      string    // Optional character whitelist
	TessdataPrefix string    // Optional tessdata directory
	SidecarPath    string    // Token file replayed by the sidecar backend
	Clean          CleanOptions
}

// DefaultConfig returns a default recognizer configuration.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendTesseract,
		Language:      "ita",
		TokenMode:     TokenModePhrase,
		MaxConcurrent: runtime.NumCPU(),
		MaxPixels:     40_000_000,
		Clean:         DefaultCleanOptions(),
	}
}

// Validate checks the configuration for obvious mistakes.
func (c Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if _, err := ParseTokenMode(string(c.TokenMode)); err != nil {
		return err
	}
	if c.MaxConcurrent < 0 {
		return errors.New("max concurrent must not be negative")
	}
	if c.MaxPixels < 0 {
		return errors.New("max pixels must not be negative")
	}
	if c.Backend == BackendTesseract && strings.TrimSpace(c.Language) == "" {
		return errors.New("tesseract backend needs a language")
	}
	if c.Backend == BackendSidecar && c.SidecarPath == "" {
		return errors.New("sidecar backend needs a token file")
	}
	return nil
}

// Slots returns the effective number of concurrent engine instances.
func (c Config) Slots() int {
	if c.MaxConcurrent <= 0 {
		return runtime.NumCPU()
	}
	return c.MaxConcurrent
}

// CheckPixels returns ErrResourceExhausted when a w×h image exceeds the
// configured pixel budget.
func (c Config) CheckPixels(w, h int) error {
	if c.MaxPixels > 0 && w*h > c.MaxPixels {
		return fmt.Errorf("%w: image has %d pixels, limit is %d", ErrResourceExhausted, w*h, c.MaxPixels)
	}
	return nil
}

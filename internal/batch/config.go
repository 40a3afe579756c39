package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultDebounce is how long a new file must stay quiet before the watcher
// hands it to the scanner.
const DefaultDebounce = 500 * time.Millisecond

// Config holds all configuration for batch processing.
type Config struct {
	Workers int

	// File discovery
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// ContinueOnError keeps the remaining files running after a failure.
	ContinueOnError bool

	Progress ProgressCallback
}

// DefaultConfig returns a config with one worker per CPU.
func DefaultConfig() Config {
	return Config{
		Workers:         runtime.NumCPU(),
		ContinueOnError: true,
	}
}

// Validate checks worker count and glob syntax.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	for _, p := range append(append([]string{}, c.IncludePatterns...), c.ExcludePatterns...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}
	return nil
}

func (c Config) progress() ProgressCallback {
	if c.Progress == nil {
		return NoOpProgressCallback{}
	}
	return c.Progress
}

// ErrNoImages is returned when discovery finds nothing to process.
var ErrNoImages = errors.New("no image files found")

// Package pipeline turns a photographed receipt into a field record:
// contrast normalization, rectification, recognition with orientation
// retries, and parsing.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MeKo-Tech/scontrino/internal/preprocess"
	"github.com/MeKo-Tech/scontrino/internal/receipt"
	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/rectify"
)

// DefaultMinFields is the record size below which another crop or
// orientation is tried.
const DefaultMinFields = 6

// Config holds configuration for the pipeline and its components.
type Config struct {
	ClipPercent   float64
	Rectification rectify.Config
	Parser        receipt.ParserConfig
	MinFields     int
	RetryAfter    time.Duration // advertised on ErrRecognitionResourceExhausted
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		ClipPercent:   preprocess.DefaultClipPercent,
		Rectification: rectify.DefaultConfig(),
		Parser:        receipt.DefaultParserConfig(),
		MinFields:     DefaultMinFields,
		RetryAfter:    30 * time.Second,
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.ClipPercent < 0 || c.ClipPercent >= 100 {
		return fmt.Errorf("clip percent must be in [0, 100), got %v", c.ClipPercent)
	}
	if c.MinFields < 0 {
		return errors.New("min fields must not be negative")
	}
	if c.Parser.FuzzyThreshold <= 0 || c.Parser.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold must be in (0, 1], got %v", c.Parser.FuzzyThreshold)
	}
	if c.RetryAfter < 0 {
		return errors.New("retry after must not be negative")
	}
	return c.Rectification.Validate()
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
	rec recognizer.Recognizer
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithRecognizer sets the recognition collaborator. It is required.
func (b *Builder) WithRecognizer(r recognizer.Recognizer) *Builder {
	b.rec = r
	return b
}

// WithClipPercent sets the histogram clip used by contrast normalization.
func (b *Builder) WithClipPercent(p float64) *Builder {
	b.cfg.ClipPercent = p
	return b
}

// WithMinFields sets the retry threshold.
func (b *Builder) WithMinFields(n int) *Builder {
	b.cfg.MinFields = n
	return b
}

// WithDepartmentPolicy selects what happens to the department after its total.
func (b *Builder) WithDepartmentPolicy(p receipt.DepartmentPolicy) *Builder {
	b.cfg.Parser.Policy = p
	return b
}

// WithFuzzyThreshold sets the keyword similarity threshold.
func (b *Builder) WithFuzzyThreshold(th float64) *Builder {
	if th > 0 {
		b.cfg.Parser.FuzzyThreshold = th
	}
	return b
}

// WithRectification replaces the rectifier settings.
func (b *Builder) WithRectification(cfg rectify.Config) *Builder {
	b.cfg.Rectification = cfg
	return b
}

// WithRectifyDebugDir sets a directory for rectification debug images.
func (b *Builder) WithRectifyDebugDir(dir string) *Builder {
	b.cfg.Rectification.DebugDir = dir
	return b
}

// WithRetryAfter sets the hint attached to resource exhaustion errors.
func (b *Builder) WithRetryAfter(d time.Duration) *Builder {
	b.cfg.RetryAfter = d
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Build validates the configuration and creates the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.rec == nil {
		return nil, errors.New("pipeline needs a recognizer")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	rect, err := rectify.New(b.cfg.Rectification)
	if err != nil {
		return nil, fmt.Errorf("init rectifier: %w", err)
	}
	return &Pipeline{
		cfg:        b.cfg,
		Recognizer: b.rec,
		Rectifier:  rect,
		Parser:     receipt.NewParser(b.cfg.Parser),
	}, nil
}

// Pipeline wires together rectifier, recognizer and parser. It is safe
// for concurrent use when its recognizer is.
type Pipeline struct {
	cfg        Config
	Recognizer recognizer.Recognizer
	Rectifier  *rectify.Rectifier
	Parser     *receipt.Parser
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// ParseTokens parses an already recognised token stream.
func (p *Pipeline) ParseTokens(tokens []string) receipt.Record {
	return p.Parser.Parse(tokens)
}

// Close releases the recognizer when it holds resources.
func (p *Pipeline) Close() error {
	if c, ok := p.Recognizer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

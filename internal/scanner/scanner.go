// Package scanner is the entry point shared by the CLI, the batch runner
// and the HTTP server: it decodes image bytes, consults the record cache,
// runs the pipeline and applies the consistency check.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/scontrino/internal/cache"
	"github.com/MeKo-Tech/scontrino/internal/pipeline"
	"github.com/MeKo-Tech/scontrino/internal/receipt"
	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// ErrInvalidImage is returned for input that cannot be decoded.
var ErrInvalidImage = errors.New("invalid image")

// Outcome is what a scan reports for one image or token stream.
type Outcome struct {
	Source    string             `json:"source,omitempty"`
	Record    receipt.Record     `json:"record"`
	Rectified bool               `json:"rectified"`
	Cached    bool               `json:"cached"`
	Issues    []receipt.Issue    `json:"issues,omitempty"`
	Attempts  []pipeline.Attempt `json:"attempts,omitempty"`
	Duration  time.Duration      `json:"duration_ns"`
}

// Scanner wraps a pipeline with caching and validation.
type Scanner struct {
	pipeline *pipeline.Pipeline
	cache    *cache.Store
	validate bool
	now      func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithCache enables the record cache.
func WithCache(c *cache.Store) Option { return func(s *Scanner) { s.cache = c } }

// WithValidation attaches consistency issues to every outcome.
func WithValidation(enabled bool) Option { return func(s *Scanner) { s.validate = enabled } }

// WithClock replaces time.Now for the future-date check.
func WithClock(now func() time.Time) Option { return func(s *Scanner) { s.now = now } }

// New creates a scanner around p.
func New(p *pipeline.Pipeline, opts ...Option) *Scanner {
	s := &Scanner{pipeline: p, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Pipeline returns the wrapped pipeline.
func (s *Scanner) Pipeline() *pipeline.Pipeline { return s.pipeline }

// ScanFile loads and scans an image file.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*Outcome, error) {
	img, data, meta, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	slog.Debug("loaded image", "path", path, "format", meta.Format, "width", meta.Width, "height", meta.Height)
	out, err := s.scan(ctx, img, data)
	if err != nil {
		return nil, err
	}
	out.Source = path
	return out, nil
}

// ScanBytes decodes and scans raw image bytes.
func (s *Scanner) ScanBytes(ctx context.Context, data []byte) (*Outcome, error) {
	img, _, err := utils.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return s.scan(ctx, img, data)
}

// ScanImage scans an already decoded image. The cache is not consulted.
func (s *Scanner) ScanImage(ctx context.Context, img image.Image) (*Outcome, error) {
	return s.scan(ctx, img, nil)
}

// ParseTokens parses a token stream without an image.
func (s *Scanner) ParseTokens(tokens []string) *Outcome {
	start := time.Now()
	out := &Outcome{Record: s.pipeline.ParseTokens(tokens)}
	s.finish(out, start)
	return out
}

func (s *Scanner) scan(ctx context.Context, img image.Image, data []byte) (*Outcome, error) {
	start := time.Now()
	if s.cache != nil && data != nil {
		entry, found, err := s.cache.Get(data)
		if err != nil {
			slog.Warn("cache lookup failed", "error", err)
		} else if found {
			out := &Outcome{Record: entry.Record, Rectified: entry.Rectified, Cached: true}
			s.finish(out, start)
			return out, nil
		}
	}

	res, err := s.pipeline.Process(ctx, img)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Record: res.Record, Rectified: res.Rectified, Attempts: res.Attempts}

	if s.cache != nil && data != nil {
		if err := s.cache.Put(data, cache.Entry{Record: res.Record, Rectified: res.Rectified}); err != nil {
			slog.Warn("cache store failed", "error", err)
		}
	}
	s.finish(out, start)
	return out, nil
}

func (s *Scanner) finish(out *Outcome, start time.Time) {
	if s.validate {
		out.Issues = receipt.Validate(out.Record, s.now())
	}
	out.Duration = time.Since(start)
}

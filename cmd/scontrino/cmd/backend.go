package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/scontrino/internal/cache"
	"github.com/MeKo-Tech/scontrino/internal/pipeline"
	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/scanner"
)

// newRecognizer builds the configured recognition backend.
func (a *app) newRecognizer() (recognizer.Recognizer, error) {
	rc := a.cfg.ToRecognizerConfig()
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("recognizer configuration: %w", err)
	}
	switch rc.Backend {
	case recognizer.BackendSidecar:
		return recognizer.NewSidecar(rc.SidecarPath, rc.Clean), nil
	default:
		return newTesseract(rc)
	}
}

// newPipeline builds a pipeline around r from the loaded configuration.
func (a *app) newPipeline(r recognizer.Recognizer) (*pipeline.Pipeline, error) {
	p, err := pipeline.NewBuilder().
		WithConfig(a.cfg.ToPipelineConfig()).
		WithRecognizer(r).
		Build()
	if err != nil {
		if c, ok := r.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return p, nil
}

// newScanner wires recognizer, pipeline and the optional cache. The
// returned cleanup releases all of them.
func (a *app) newScanner(validate bool) (*scanner.Scanner, func(), error) {
	r, err := a.newRecognizer()
	if err != nil {
		return nil, nil, err
	}
	p, err := a.newPipeline(r)
	if err != nil {
		return nil, nil, err
	}

	closers := []func() error{p.Close}
	opts := []scanner.Option{scanner.WithValidation(validate)}
	if a.cfg.Cache.Enabled {
		store, err := cache.Open(a.cfg.CachePath(), a.cfg.Fingerprint())
		if err != nil {
			_ = p.Close()
			return nil, nil, fmt.Errorf("open cache: %w", err)
		}
		if n, err := store.Prune(); err == nil && n > 0 {
			slog.Info("pruned stale cache entries", "count", n)
		}
		closers = append(closers, store.Close)
		opts = append(opts, scanner.WithCache(store))
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("cleanup failed", "error", err)
			}
		}
	}
	return scanner.New(p, opts...), cleanup, nil
}

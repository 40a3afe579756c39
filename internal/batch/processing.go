package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/MeKo-Tech/scontrino/internal/scanner"
)

// Item is the outcome for one file. Exactly one of Outcome and Err is set,
// unless the run was stopped before the file was reached.
type Item struct {
	Path    string
	Outcome *scanner.Outcome
	Err     error
}

// Result holds the result of batch processing.
type Result struct {
	Items       []Item
	Duration    time.Duration
	WorkerCount int
}

// Succeeded counts files that produced an outcome.
func (r *Result) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome != nil {
			n++
		}
	}
	return n
}

// Failed counts files that produced an error.
func (r *Result) Failed() int {
	n := 0
	for _, it := range r.Items {
		if it.Err != nil {
			n++
		}
	}
	return n
}

// ProcessBatch discovers images under paths and scans them concurrently.
// Items keep discovery order regardless of completion order.
func ProcessBatch(ctx context.Context, s *scanner.Scanner, paths []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	files, err := DiscoverImageFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	return ProcessFiles(ctx, s, files, cfg)
}

// ProcessFiles scans an explicit file list with a bounded worker pool.
func ProcessFiles(ctx context.Context, s *scanner.Scanner, files []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	progress := cfg.progress()
	items := make([]Item, len(files))
	for i, f := range files {
		items[i].Path = f
	}

	var (
		mu   sync.Mutex
		done int
	)
	start := time.Now()
	progress.OnStart(len(files))

	p := pool.New().WithMaxGoroutines(cfg.Workers).WithContext(ctx)
	if !cfg.ContinueOnError {
		p = p.WithCancelOnError().WithFirstError()
	}
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := s.ScanFile(ctx, path)

			mu.Lock()
			done++
			current := done
			if err != nil {
				items[i].Err = err
			} else {
				items[i].Outcome = out
			}
			mu.Unlock()

			if err != nil {
				slog.Warn("batch item failed", "file", path, "error", err)
				progress.OnError(current, fmt.Errorf("%s: %w", path, err))
				if cfg.ContinueOnError {
					return nil
				}
				return fmt.Errorf("%s: %w", path, err)
			}
			progress.OnProgress(current, len(files))
			return nil
		})
	}
	err := p.Wait()
	progress.OnComplete()

	res := &Result{Items: items, Duration: time.Since(start), WorkerCount: cfg.Workers}
	if err != nil {
		return res, fmt.Errorf("batch processing failed: %w", err)
	}
	return res, nil
}

package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc/pool"

	"github.com/MeKo-Tech/scontrino/internal/scanner"
	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// RecordSuffix is appended to the image base name for watcher output.
const RecordSuffix = ".record.json"

// Handler is invoked for every image that settled in the watched directory.
type Handler func(ctx context.Context, path string)

// Watcher turns create and write events in a directory into debounced
// handler calls. A file is handed over once it has seen no event for the
// debounce interval.
type Watcher struct {
	dir             string
	debounce        time.Duration
	workers         int
	includePatterns []string
	excludePatterns []string
	handle          Handler
}

// NewWatcher watches dir and calls handle for each settled image.
func NewWatcher(dir string, handle Handler) *Watcher {
	return &Watcher{dir: dir, debounce: DefaultDebounce, workers: 1, handle: handle}
}

// WithDebounce sets the quiet period; non-positive values keep the default.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// WithWorkers bounds concurrent handler calls.
func (w *Watcher) WithWorkers(n int) *Watcher {
	if n > 0 {
		w.workers = n
	}
	return w
}

// WithPatterns filters file names with include and exclude globs.
func (w *Watcher) WithPatterns(include, exclude []string) *Watcher {
	w.includePatterns = include
	w.excludePatterns = exclude
	return w
}

// Run blocks until ctx is done or the underlying watcher fails to start.
// Settled images wait in a queue while every worker is busy, so events are
// still consumed; images still queued when ctx ends are not handled.
// Handlers already running are waited for before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	slog.Info("watching directory", "dir", w.dir, "debounce", w.debounce)

	jobs := make(chan string)
	workers := pool.New().WithMaxGoroutines(w.workers)
	for range w.workers {
		workers.Go(func() {
			for name := range jobs {
				w.handle(ctx, name)
			}
		})
	}
	defer workers.Wait()
	defer close(jobs)

	pending := make(map[string]time.Time)
	var ready []string
	tick := w.debounce / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		// sending on a nil channel blocks, which disables that case
		var (
			out  chan<- string
			next string
		)
		if len(ready) > 0 {
			out, next = jobs, ready[0]
		}

		select {
		case <-ctx.Done():
			if len(ready) > 0 {
				slog.Info("watcher stopped with images queued", "queued", len(ready))
			}
			return nil
		case out <- next:
			ready = ready[1:]
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !w.accepts(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			var settled []string
			for name, last := range pending {
				if now.Sub(last) < w.debounce {
					continue
				}
				delete(pending, name)
				if !slices.Contains(ready, name) {
					settled = append(settled, name)
				}
			}
			slices.Sort(settled)
			ready = append(ready, settled...)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) accepts(path string) bool {
	if strings.HasSuffix(path, RecordSuffix) || !utils.IsSupportedImage(path) {
		return false
	}
	return shouldIncludeFile(path, w.includePatterns, w.excludePatterns)
}

// RecordPath returns where the watcher stores the record for an image:
// receipt.jpg becomes receipt.record.json in the same directory.
func RecordPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + RecordSuffix
}

// WriteRecordFile stores an outcome as indented JSON next to its image.
func WriteRecordFile(imagePath string, out *scanner.Outcome) error {
	doc := *out
	doc.Source = imagePath
	bts, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(RecordPath(imagePath), append(bts, '\n'), 0o600)
}

// ScanHandler scans each settled image and writes its record file.
// Failures are logged and do not stop the watcher.
func ScanHandler(s *scanner.Scanner) Handler {
	return func(ctx context.Context, path string) {
		out, err := s.ScanFile(ctx, path)
		if err != nil {
			slog.Error("scan failed", "file", path, "error", err)
			return
		}
		if err := WriteRecordFile(path, out); err != nil {
			slog.Error("write record failed", "file", path, "error", err)
			return
		}
		slog.Info("record written", "file", RecordPath(path), "fields", out.Record.Len())
	}
}

package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives progress events during batch processing.
// Implementations must be safe for concurrent use.
type ProgressCallback interface {
	// OnStart is called once with the number of files.
	OnStart(total int)
	// OnProgress is called after each successful file.
	OnProgress(current, total int)
	// OnComplete is called once when the run finishes.
	OnComplete()
	// OnError is called after each failed file.
	OnError(current int, err error)
}

// NoOpProgressCallback discards all events.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnComplete()         {}
func (NoOpProgressCallback) OnError(int, error)  {}

// ConsoleProgressCallback draws a progress bar.
type ConsoleProgressCallback struct {
	writer         io.Writer
	prefix         string
	width          int
	updateInterval time.Duration
	showRate       bool

	mutex      sync.Mutex
	lastUpdate time.Time
	startTime  time.Time
}

// NewConsoleProgressCallback creates a console reporter; nil writer means stderr.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         writer,
		prefix:         prefix,
		width:          40,
		updateInterval: 100 * time.Millisecond,
		showRate:       true,
	}
}

// WithWidth sets the bar width in cells.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	c.width = width
	return c
}

// WithUpdateInterval limits how often the bar is redrawn.
func (c *ConsoleProgressCallback) WithUpdateInterval(interval time.Duration) *ConsoleProgressCallback {
	c.updateInterval = interval
	return c
}

// WithRate toggles the receipts-per-second suffix.
func (c *ConsoleProgressCallback) WithRate(show bool) *ConsoleProgressCallback {
	c.showRate = show
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.startTime = time.Now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.writer, "%s0/%d (0.0%%)\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && current < total {
		return
	}
	c.lastUpdate = now
	c.draw(current, total, now)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%sCompleted in %v\n", c.prefix, time.Since(c.startTime).Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) OnError(current int, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, _ = fmt.Fprintf(c.writer, "\n%sError at item %d: %v\n", c.prefix, current, err)
}

func (c *ConsoleProgressCallback) draw(current, total int, now time.Time) {
	if total <= 0 {
		return
	}
	if current > total {
		current = total
	}
	percent := float64(current) / float64(total) * 100.0
	filled := c.width * current / total
	bar := strings.Repeat("#", filled) + strings.Repeat(".", c.width-filled)
	status := fmt.Sprintf("\r%s[%s] %d/%d (%.1f%%)", c.prefix, bar, current, total, percent)

	if elapsed := now.Sub(c.startTime); c.showRate && elapsed > 0 && current > 0 {
		status += fmt.Sprintf(" %.1f/s", float64(current)/elapsed.Seconds())
	}
	_, _ = fmt.Fprint(c.writer, status)
}

// LogProgressCallback reports progress through slog every interval files.
type LogProgressCallback struct {
	logger   *slog.Logger
	level    slog.Level
	interval int

	mu        sync.Mutex
	lastLog   int
	startTime time.Time
}

// NewLogProgressCallback creates a log reporter; nil logger means slog.Default().
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level, interval: 10}
}

// WithInterval sets how many files pass between log lines.
func (l *LogProgressCallback) WithInterval(interval int) *LogProgressCallback {
	if interval < 1 {
		interval = 1
	}
	l.interval = interval
	return l
}

func (l *LogProgressCallback) OnStart(total int) {
	l.mu.Lock()
	l.startTime = time.Now()
	l.lastLog = 0
	l.mu.Unlock()
	l.logger.Log(context.Background(), l.level, "batch started", "total", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	l.mu.Lock()
	if current-l.lastLog < l.interval && current != total {
		l.mu.Unlock()
		return
	}
	l.lastLog = current
	elapsed := time.Since(l.startTime)
	l.mu.Unlock()

	l.logger.Log(context.Background(), l.level, "batch progress",
		"current", current,
		"total", total,
		"elapsed", elapsed.Round(time.Millisecond),
	)
}

func (l *LogProgressCallback) OnComplete() {
	l.mu.Lock()
	elapsed := time.Since(l.startTime)
	l.mu.Unlock()
	l.logger.Log(context.Background(), l.level, "batch completed", "elapsed", elapsed.Round(time.Millisecond))
}

func (l *LogProgressCallback) OnError(current int, err error) {
	l.logger.Log(context.Background(), slog.LevelError, "batch item failed", "current", current, "error", err)
}

// MultiProgressCallback fans events out to several callbacks.
type MultiProgressCallback struct {
	callbacks []ProgressCallback
}

// NewMultiProgressCallback combines callbacks.
func NewMultiProgressCallback(callbacks ...ProgressCallback) *MultiProgressCallback {
	return &MultiProgressCallback{callbacks: callbacks}
}

func (m *MultiProgressCallback) OnStart(total int) {
	for _, cb := range m.callbacks {
		cb.OnStart(total)
	}
}

func (m *MultiProgressCallback) OnProgress(current, total int) {
	for _, cb := range m.callbacks {
		cb.OnProgress(current, total)
	}
}

func (m *MultiProgressCallback) OnComplete() {
	for _, cb := range m.callbacks {
		cb.OnComplete()
	}
}

func (m *MultiProgressCallback) OnError(current int, err error) {
	for _, cb := range m.callbacks {
		cb.OnError(current, err)
	}
}

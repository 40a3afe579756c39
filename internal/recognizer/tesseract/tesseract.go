//go:build !notesseract

// Package tesseract is the Tesseract backed recognizer. It needs the
// tesseract and leptonica libraries at build time (cgo).
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// ErrClosed is returned by Recognize after Close.
var ErrClosed = errors.New("tesseract: recognizer closed")

// Recognizer keeps a fixed pool of engine clients. Each client serves one
// image at a time; callers beyond the pool size wait for a free slot.
type Recognizer struct {
	config  recognizer.Config
	clients chan *gosseract.Client
	all     []*gosseract.Client

	mu     sync.RWMutex
	closed bool
	done   chan struct{} // closed by Close; releases callers waiting for a client
}

// New creates the client pool for config.
func New(config recognizer.Config) (*Recognizer, error) {
	config.Backend = recognizer.BackendTesseract
	if err := config.Validate(); err != nil {
		return nil, err
	}

	n := config.Slots()
	r := &Recognizer{
		config:  config,
		clients: make(chan *gosseract.Client, n),
		done:    make(chan struct{}),
	}
	for range n {
		c, err := newClient(config)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.all = append(r.all, c)
		r.clients <- c
	}
	slog.Debug("Tesseract pool ready", "clients", n, "language", config.Language, "token_mode", config.TokenMode)
	return r, nil
}

func newClient(config recognizer.Config) (*gosseract.Client, error) {
	c := gosseract.NewClient()
	if config.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(config.TessdataPrefix); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(strings.Split(config.Language, "+")...); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("set language %q: %w", config.Language, err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	// column layout matters more than dictionary words on a receipt
	if err := c.SetVariable("preserve_interword_spaces", "1"); err != nil {
		slog.Warn("Tesseract ignored preserve_interword_spaces", "error", err)
	}
	if config.Whitelist != "" {
		if err := c.SetWhitelist(config.Whitelist); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}
	return c, nil
}

// Config returns the configuration the pool was built with.
func (r *Recognizer) Config() recognizer.Config { return r.config }

// Recognize reads img and returns its cleaned tokens. The engine call
// itself cannot be interrupted; on cancellation Recognize returns early
// and the client goes back to the pool once the engine finishes.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) ([]string, error) {
	if utils.IsEmpty(img) {
		return nil, errors.New("input image is empty")
	}
	b := img.Bounds()
	if err := r.config.CheckPixels(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}

	var client *gosseract.Client
	select {
	case client = <-r.clients:
	case <-r.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		defer func() { r.clients <- client }()
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			done <- outcome{err: classify(err)}
			return
		}
		text, err := client.Text()
		done <- outcome{text: text, err: classify(err)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		tokens := recognizer.CleanTokens(recognizer.SplitText(res.text, r.config.TokenMode), r.config.Clean)
		slog.Debug("Tesseract recognised image",
			"width", b.Dx(), "height", b.Dy(), "tokens", len(tokens), "duration", time.Since(start))
		return tokens, nil
	}
}

// classify maps allocation failures reported by the engine to
// recognizer.ErrResourceExhausted.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "alloc") || strings.Contains(msg, "out of memory") {
		return fmt.Errorf("%w: %w", recognizer.ErrResourceExhausted, err)
	}
	return fmt.Errorf("tesseract: %w", err)
}

// Close releases every engine client. In-flight calls finish first.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	var errs []error
	for range r.all {
		c := <-r.clients
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

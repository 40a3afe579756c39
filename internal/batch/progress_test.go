package batch

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgressCallback(&buf, "scan: ").WithWidth(10).WithUpdateInterval(0).WithRate(false)

	cb.OnStart(4)
	cb.OnProgress(2, 4)
	cb.OnError(3, errors.New("bad image"))
	cb.OnProgress(4, 4)
	cb.OnComplete()

	out := buf.String()
	assert.Contains(t, out, "scan: 0/4 (0.0%)")
	assert.Contains(t, out, "[#####.....] 2/4 (50.0%)")
	assert.Contains(t, out, "Error at item 3: bad image")
	assert.Contains(t, out, "[##########] 4/4 (100.0%)")
	assert.Contains(t, out, "Completed in")
}

func TestConsoleProgressCallback_Throttles(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgressCallback(&buf, "").WithUpdateInterval(1 << 62)

	cb.OnStart(3)
	cb.OnProgress(1, 3)
	cb.OnProgress(2, 3)
	cb.OnProgress(3, 3)

	assert.Equal(t, 2, strings.Count(buf.String(), "\r"), "first and final updates only")
}

func TestLogProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cb := NewLogProgressCallback(logger, slog.LevelInfo).WithInterval(2)

	cb.OnStart(3)
	cb.OnProgress(1, 3)
	cb.OnProgress(2, 3)
	cb.OnProgress(3, 3)
	cb.OnError(3, errors.New("boom"))
	cb.OnComplete()

	out := buf.String()
	assert.Contains(t, out, "batch started")
	assert.Equal(t, 2, strings.Count(out, "batch progress"))
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "batch completed")
}

func TestMultiProgressCallback(t *testing.T) {
	a, b := &recordingProgress{}, &recordingProgress{}
	m := NewMultiProgressCallback(a, b, NoOpProgressCallback{})

	m.OnStart(2)
	m.OnProgress(1, 2)
	m.OnError(2, errors.New("x"))
	m.OnComplete()

	for _, r := range []*recordingProgress{a, b} {
		assert.Equal(t, 2, r.started)
		assert.Equal(t, 1, r.progress)
		assert.Equal(t, 1, r.errors)
		assert.True(t, r.complete)
	}
}

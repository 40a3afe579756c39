package scanner

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/scontrino/internal/cache"
	"github.com/MeKo-Tech/scontrino/internal/pipeline"
	"github.com/MeKo-Tech/scontrino/internal/receipt"
	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/testutil"
)

var tokens = []string{
	"REPARTO 1", "QUANTITA", "2", "TOTALE", "4,50",
	"REPARTO 2", "QUANTITA", "1", "TOTALE", "8,00",
	"REPARTO TOTALE", "12,50",
	"PEZZI", "3",
	"07-03-2024",
}

func newScanner(t *testing.T, calls *atomic.Int32, opts ...Option) *Scanner {
	t.Helper()
	rec := recognizer.Func(func(_ context.Context, _ image.Image) ([]string, error) {
		calls.Add(1)
		return tokens, nil
	})
	p, err := pipeline.NewBuilder().WithRecognizer(rec).Build()
	require.NoError(t, err)
	return New(p, opts...)
}

func photo(t *testing.T) []byte {
	t.Helper()
	img, _ := testutil.RenderReceipt(testutil.DefaultReceiptScene())
	return testutil.EncodePNG(t, img)
}

func TestScanBytes(t *testing.T) {
	var calls atomic.Int32
	s := newScanner(t, &calls, WithValidation(true))

	out, err := s.ScanBytes(context.Background(), photo(t))
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.True(t, out.Rectified)
	assert.Equal(t, 7, out.Record.Len())
	assert.NotEmpty(t, out.Attempts)
	assert.Empty(t, out.Issues)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScanBytes_InvalidImage(t *testing.T) {
	var calls atomic.Int32
	s := newScanner(t, &calls)

	_, err := s.ScanBytes(context.Background(), []byte("not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Zero(t, calls.Load())
}

func TestScanBytes_PipelineErrorNotCached(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "records.db"), "fp")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p, err := pipeline.NewBuilder().
		WithRecognizer(recognizer.Static{Err: errors.New("engine crashed")}).
		Build()
	require.NoError(t, err)
	s := New(p, WithCache(store))

	_, err = s.ScanBytes(context.Background(), photo(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrRecognitionFailure)

	n, err := store.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScanBytes_CacheHit(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "records.db"), "fp")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var calls atomic.Int32
	s := newScanner(t, &calls, WithCache(store))
	data := photo(t)

	first, err := s.ScanBytes(context.Background(), data)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.ScanBytes(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Empty(t, second.Attempts)
	assert.True(t, first.Record.Equal(second.Record))
	assert.Equal(t, first.Rectified, second.Rectified)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScanBytes_CacheKeepsUnreadableTotal(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "records.db"), "fp")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p, err := pipeline.NewBuilder().
		WithRecognizer(recognizer.Static{Tokens: []string{"reparto 1", "quantita", "2", "totale", "4,50", "reparto totale", "xx"}}).
		Build()
	require.NoError(t, err)
	s := New(p, WithCache(store), WithValidation(true))
	data := photo(t)

	fresh, err := s.ScanBytes(context.Background(), data)
	require.NoError(t, err)
	require.False(t, fresh.Cached)
	assert.True(t, fresh.Record.Has(receipt.FieldTotal))
	assert.False(t, fresh.Record.Readable(receipt.FieldTotal))

	cached, err := s.ScanBytes(context.Background(), data)
	require.NoError(t, err)
	require.True(t, cached.Cached)
	assert.False(t, cached.Record.Readable(receipt.FieldTotal))
	assert.True(t, fresh.Record.Equal(cached.Record))
	assert.Equal(t, fresh.Issues, cached.Issues)
	require.Len(t, cached.Issues, 1)
	assert.Equal(t, "totale: value could not be read", cached.Issues[0].String())
}

func TestScanFile(t *testing.T) {
	var calls atomic.Int32
	s := newScanner(t, &calls)
	img, _ := testutil.RenderReceipt(testutil.DefaultReceiptScene())
	path := testutil.WritePNG(t, t.TempDir(), "receipt.png", img)

	out, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, out.Source)
	assert.Equal(t, 7, out.Record.Len())

	_, err = s.ScanFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestParseTokens_FutureDate(t *testing.T) {
	var calls atomic.Int32
	clock := func() time.Time { return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC) }
	s := newScanner(t, &calls, WithValidation(true), WithClock(clock))

	out := s.ParseTokens(tokens)
	assert.Equal(t, 7, out.Record.Len())
	require.Len(t, out.Issues, 1)
	assert.Equal(t, receipt.FieldDate, out.Issues[0].Field)
	assert.Zero(t, calls.Load())
}

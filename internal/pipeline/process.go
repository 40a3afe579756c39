package pipeline

import (
	"context"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/MeKo-Tech/scontrino/internal/preprocess"
	"github.com/MeKo-Tech/scontrino/internal/receipt"
	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// Process reads one receipt image. The rectified crop is read first; when
// it is missing or yields fewer than MinFields fields, the fallback crop
// is read too and its values take precedence. An image with no readable
// fields gives an empty record, not an error.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Result, error) {
	start := time.Now()
	res, err := p.process(ctx, img)
	elapsed := time.Since(start)

	receiptsProcessed.WithLabelValues(outcomeLabel(err)).Inc()
	processingDuration.Observe(elapsed.Seconds())
	if err != nil {
		slog.Debug("receipt processing failed", "error", err, "duration", elapsed)
		return nil, err
	}
	res.Duration = elapsed
	recordFields.Observe(float64(res.Record.Len()))
	slog.Debug("receipt processed",
		"fields", res.Record.Len(), "rectified", res.Rectified, "attempts", len(res.Attempts), "duration", elapsed)
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, img image.Image) (*Result, error) {
	if utils.IsEmpty(img) {
		return nil, ErrNoReceiptDetected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := preprocess.AutoContrast(img, p.cfg.ClipPercent)
	rect := p.Rectifier.Rectify(normalized)
	if rect.Fallback == nil {
		return nil, ErrNoReceiptDetected
	}

	res := &Result{Rectified: rect.OK(), RectifyReason: rect.Reason}
	if rect.OK() {
		rectifications.WithLabelValues("rectified").Inc()
	} else {
		rectifications.WithLabelValues("fallback").Inc()
	}

	var primary receipt.Record
	if rect.OK() {
		rec, attempts, err := p.readImage(ctx, CandidateRectified, rect.Rectified)
		res.Attempts = append(res.Attempts, attempts...)
		if err != nil {
			return nil, err
		}
		primary = rec
	}

	var fallback receipt.Record
	if !rect.OK() || primary.Len() < p.cfg.MinFields {
		rec, attempts, err := p.readImage(ctx, CandidateFallback, rect.Fallback)
		res.Attempts = append(res.Attempts, attempts...)
		if err != nil {
			return nil, err
		}
		fallback = rec
	}

	res.Record = receipt.Merge(primary, fallback)
	return res, nil
}

// readImage recognises one crop. Landscape crops are turned upright
// first; a result below MinFields is retried upside down and the larger
// of the two records is kept, the first one on a tie.
func (p *Pipeline) readImage(ctx context.Context, cand Candidate, img image.Image) (receipt.Record, []Attempt, error) {
	rotation := 0
	if b := img.Bounds(); b.Dx() > b.Dy() {
		img = utils.Rotate90(img)
		rotation = 90
	}

	first, a, err := p.attempt(ctx, cand, img, rotation)
	if err != nil {
		return receipt.Record{}, nil, err
	}
	if first.Len() >= p.cfg.MinFields {
		a.Kept = true
		return first, []Attempt{a}, nil
	}

	second, b, err := p.attempt(ctx, cand, utils.Rotate180(img), rotation+180)
	if err != nil {
		return receipt.Record{}, []Attempt{a}, err
	}
	if second.Len() > first.Len() {
		b.Kept = true
		return second, []Attempt{a, b}, nil
	}
	a.Kept = true
	return first, []Attempt{a, b}, nil
}

func (p *Pipeline) attempt(ctx context.Context, cand Candidate, img image.Image, rotation int) (receipt.Record, Attempt, error) {
	recognitionAttempts.WithLabelValues(string(cand), strconv.Itoa(rotation)).Inc()
	tokens, err := p.Recognizer.Recognize(ctx, img)
	if err != nil {
		return receipt.Record{}, Attempt{}, classifyRecognitionError(err, p.cfg.RetryAfter)
	}
	rec := p.Parser.Parse(tokens)
	slog.Debug("recognition attempt", "candidate", cand, "rotation", rotation, "tokens", len(tokens), "fields", rec.Len())
	return rec, Attempt{Candidate: cand, Rotation: rotation, Tokens: tokens, Fields: rec.Len()}, nil
}

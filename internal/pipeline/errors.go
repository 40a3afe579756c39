package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/scontrino/internal/recognizer"
)

var (
	// ErrNoReceiptDetected is returned when the input has nothing to read.
	ErrNoReceiptDetected = errors.New("no receipt detected")
	// ErrRecognitionResourceExhausted is the kind of a RecognitionError
	// raised under memory pressure. The request may be retried.
	ErrRecognitionResourceExhausted = errors.New("recognition resources exhausted")
	// ErrRecognitionFailure is the kind of any other RecognitionError.
	ErrRecognitionFailure = errors.New("recognition failed")
)

// RecognitionError wraps a recognizer failure with its kind. Both the kind
// and the underlying error match errors.Is.
type RecognitionError struct {
	Kind       error
	RetryAfter time.Duration // set for ErrRecognitionResourceExhausted
	Err        error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *RecognitionError) Unwrap() []error { return []error{e.Kind, e.Err} }

// classifyRecognitionError maps a recognizer error to the pipeline's
// error kinds. Context errors pass through unchanged.
func classifyRecognitionError(err error, retryAfter time.Duration) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, recognizer.ErrResourceExhausted):
		return &RecognitionError{Kind: ErrRecognitionResourceExhausted, RetryAfter: retryAfter, Err: err}
	default:
		return &RecognitionError{Kind: ErrRecognitionFailure, Err: err}
	}
}

// outcomeLabel names the outcome of Process for metrics and logs.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoReceiptDetected):
		return "no_receipt"
	case errors.Is(err, ErrRecognitionResourceExhausted):
		return "exhausted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "failure"
	}
}

package pipeline

import (
	"time"

	"github.com/MeKo-Tech/scontrino/internal/receipt"
)

// Candidate names the crop an attempt was run on.
type Candidate string

const (
	CandidateRectified Candidate = "rectified"
	CandidateFallback  Candidate = "fallback"
)

// Attempt is one recognizer call. Attempts describe how a record was
// produced and are never persisted with it.
type Attempt struct {
	Candidate Candidate `json:"candidate" yaml:"candidate"`
	Rotation  int       `json:"rotation" yaml:"rotation"` // degrees applied before recognition
	Tokens    []string  `json:"tokens" yaml:"tokens"`
	Fields    int       `json:"fields" yaml:"fields"`
	Kept      bool      `json:"kept" yaml:"kept"`
}

// Result is the outcome of processing one receipt image.
type Result struct {
	Record        receipt.Record `json:"record"`
	Attempts      []Attempt      `json:"attempts,omitempty"`
	Rectified     bool           `json:"rectified"`
	RectifyReason string         `json:"rectify_reason,omitempty"`
	Duration      time.Duration  `json:"duration_ns"`
}

//go:build notesseract

package cmd

import (
	"errors"

	"github.com/MeKo-Tech/scontrino/internal/recognizer"
)

func newTesseract(recognizer.Config) (recognizer.Recognizer, error) {
	return nil, errors.New("built without tesseract support (notesseract tag); use --backend sidecar")
}

//go:build !notesseract

package cmd

import (
	"github.com/MeKo-Tech/scontrino/internal/recognizer"
	"github.com/MeKo-Tech/scontrino/internal/recognizer/tesseract"
)

func newTesseract(cfg recognizer.Config) (recognizer.Recognizer, error) {
	r, err := tesseract.New(cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

package rectify

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/scontrino/internal/preprocess"
)

// Config holds configuration for receipt localisation and unwarping.
type Config struct {
	WorkingSize      int     // long side of the downscaled working image in pixels
	BlurSigma        float64 // Gaussian sigma applied before Otsu binarisation
	EpsilonRatio     float64 // polygon approximation tolerance as a share of the contour perimeter
	CornerSeparation float64 // minimum corner distance as a share of the working width
	MinAreaRatio     float64 // minimum quad area as a share of the working image area
	DebugDir         string  // if non-empty, writes overlay and rectified PNGs here
}

// DefaultConfig returns the defaults used for phone photos of thermal receipts.
func DefaultConfig() Config {
	return Config{
		WorkingSize:      500,
		BlurSigma:        preprocess.DefaultBlurSigma,
		EpsilonRatio:     0.01,
		CornerSeparation: 1.0 / 3.0,
		MinAreaRatio:     0.01,
	}
}

// Validate reports invalid settings.
func (c Config) Validate() error {
	if c.WorkingSize < 16 {
		return fmt.Errorf("working size must be at least 16, got %d", c.WorkingSize)
	}
	if c.BlurSigma < 0 {
		return errors.New("blur sigma must not be negative")
	}
	if c.EpsilonRatio <= 0 || c.EpsilonRatio >= 1 {
		return fmt.Errorf("epsilon ratio must be in (0,1), got %g", c.EpsilonRatio)
	}
	if c.CornerSeparation <= 0 || c.CornerSeparation >= 1 {
		return fmt.Errorf("corner separation must be in (0,1), got %g", c.CornerSeparation)
	}
	if c.MinAreaRatio < 0 || c.MinAreaRatio >= 1 {
		return fmt.Errorf("min area ratio must be in [0,1), got %g", c.MinAreaRatio)
	}
	return nil
}

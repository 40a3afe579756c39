// Package rectify locates a receipt in a photograph and unwarps it to a
// fronto-parallel crop.
package rectify

import (
	"image"
	"log/slog"

	"github.com/MeKo-Tech/scontrino/internal/preprocess"
	"github.com/MeKo-Tech/scontrino/internal/utils"
)

// Result is the outcome of one rectification. Rectified is nil when no
// usable quadrilateral was found; Fallback is always set for non-empty input.
type Result struct {
	Rectified    image.Image
	Fallback     image.Image
	Quad         Quad            // corners at input resolution, valid when Rectified != nil
	FallbackRect image.Rectangle // region of the input covered by Fallback
	Contour      []utils.Point   // receipt contour in working coordinates
	Ratio        float64         // working size / input size
	Reason       string          // why Rectified is nil
}

// OK reports whether a perspective-corrected crop was produced.
func (r Result) OK() bool { return r.Rectified != nil }

// Rectifier finds the receipt outline and produces the crops.
type Rectifier struct {
	cfg Config
}

// New creates a rectifier.
func New(cfg Config) (*Rectifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Rectifier{cfg: cfg}, nil
}

// Config returns the rectifier settings.
func (r *Rectifier) Config() Config { return r.cfg }

// Rectify never fails: every problem degrades to "fallback crop only".
// An empty input yields an empty Result.
func (r *Rectifier) Rectify(img image.Image) Result {
	if utils.IsEmpty(img) {
		return Result{Reason: "empty image"}
	}
	bounds := img.Bounds()

	work, ratio, err := utils.ResizeLongSide(img, r.cfg.WorkingSize)
	if err != nil {
		return r.fallbackOnly(img, Result{Ratio: ratio}, err)
	}
	gray := utils.ToGray(work)
	mask, _ := preprocess.OtsuBinarize(gray, r.cfg.BlurSigma)

	res := Result{Ratio: ratio}
	res.Contour = largestContour(mask)
	if len(res.Contour) == 0 {
		return r.fallbackOnly(img, res, errNoContour)
	}

	box := utils.BoundingBox(res.Contour).Scale(1 / ratio)
	res.FallbackRect = box.ToRect(image.Rect(0, 0, bounds.Dx(), bounds.Dy())).Add(bounds.Min)
	res.Fallback = utils.CropImageRect(img, res.FallbackRect)

	poly := utils.SimplifyPolygon(res.Contour, r.cfg.EpsilonRatio*utils.Perimeter(res.Contour))
	workQuad, err := selectCorners(poly, float64(gray.Bounds().Dx())*r.cfg.CornerSeparation)
	if err != nil {
		return r.finish(img, res, err)
	}
	workArea := float64(gray.Bounds().Dx() * gray.Bounds().Dy())
	if !workQuad.IsConvex() || workQuad.Area() < r.cfg.MinAreaRatio*workArea {
		return r.finish(img, res, errDegenerateQuad)
	}

	res.Quad = workQuad.Scale(1 / ratio)
	w, h := res.Quad.Size()
	out, ok := warpPerspective(img, res.Quad, w, h)
	if !ok {
		res.Quad = Quad{}
		return r.finish(img, res, errHomographySingular)
	}
	res.Rectified = out
	return r.finish(img, res, nil)
}

// fallbackOnly returns the whole image as the fallback crop.
func (r *Rectifier) fallbackOnly(img image.Image, res Result, cause error) Result {
	b := img.Bounds()
	res.FallbackRect = b
	res.Fallback = utils.CropImageRect(img, b)
	return r.finish(img, res, cause)
}

func (r *Rectifier) finish(img image.Image, res Result, cause error) Result {
	if cause != nil {
		res.Reason = cause.Error()
		slog.Debug("rectification fell back", "reason", res.Reason, "fallback", res.FallbackRect)
	} else {
		slog.Debug("rectified receipt", "quad", res.Quad, "size", res.Rectified.Bounds().Size())
	}
	if r.cfg.DebugDir != "" {
		if err := dumpDebug(r.cfg.DebugDir, img, res); err != nil {
			slog.Warn("failed to write rectification debug images", "dir", r.cfg.DebugDir, "error", err)
		}
	}
	return res
}

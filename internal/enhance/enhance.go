// Package enhance prepares rendered invoice pages for OCR. Every stage
// defaults to its least destructive variant: OCR engines tolerate residual
// noise better than lost glyph strokes.
package enhance

import (
	"fmt"
	"image"
	"log/slog"
	"math"
)

// Options tune the preprocessing pipeline. Zero values select the
// conservative defaults; Aggressive is a secondary knob for pages already
// known to be low quality, never the default path.
type Options struct {
	Aggressive     bool
	ScaleFactor    float64 // 0 -> 1.5 (2.0 when aggressive)
	MinRotationDeg float64 // 0 -> 2.0; smaller skews are left alone
	CropPadding    int     // 0 -> 20px around the detected content box
}

type Enhancer struct {
	opts   Options
	logger *slog.Logger
}

func NewEnhancer(opts Options, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ScaleFactor <= 0 {
		if opts.Aggressive {
			opts.ScaleFactor = 2.0
		} else {
			opts.ScaleFactor = 1.5
		}
	}
	if opts.MinRotationDeg <= 0 {
		opts.MinRotationDeg = 2.0
	}
	if opts.CropPadding <= 0 {
		opts.CropPadding = 20
	}
	return &Enhancer{opts: opts, logger: logger}
}

// Enhance runs the advanced preprocessing tier: deskew, content crop, cubic
// upscale, local contrast equalization, edge-preserving denoise and Otsu
// binarization. Morphology runs only in aggressive mode.
func (e *Enhancer) Enhance(img image.Image) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("enhance: empty image")
	}
	gray := toGrayscale(img)

	// deskew
	bin := binarize(gray, otsuThreshold(gray))
	if comp, ok := largestComponent(dilate(bin, 2)); ok {
		angle := comp.orientationDeg()
		if angle < -45 {
			angle += 90
		}
		if math.Abs(angle) > e.opts.MinRotationDeg {
			gray = rotateGray(gray, -angle)
			e.logger.Debug("enhance.deskew", "angle_deg", angle)
		}
	}

	// content crop with padding, after speckle removal
	bin = binarize(gray, otsuThreshold(gray))
	if comp, ok := largestComponent(closeOpen(bin, 1)); ok {
		rect := padRect(comp.bounds, e.opts.CropPadding, gray.Bounds())
		if !rect.Empty() {
			gray = cropGray(gray, rect)
		}
	}

	gray = scaleGray(gray, e.opts.ScaleFactor)

	tiles, clip := 8, 2.0
	if e.opts.Aggressive {
		tiles, clip = 4, 3.0
	}
	gray = equalizeTiles(gray, tiles, clip)
	gray = bilateralFilter(gray, 2, 2.0, 25.0)

	out := binarize(gray, otsuThreshold(gray))
	if e.opts.Aggressive {
		// open removes residual speckle at the cost of thin strokes
		out = dilate(erode(out, 1), 1)
	}
	return out, nil
}

// Fallback is the basic preprocessing tier: x1.5 resize, grayscale, median
// denoise, contrast stretch and a fixed binarization threshold.
func (e *Enhancer) Fallback(img image.Image) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("enhance: empty image")
	}
	gray := toGrayscale(img)
	gray = scaleGray(gray, 1.5)
	gray = median3(gray)
	gray = stretchContrast(gray)
	return binarize(gray, 128), nil
}

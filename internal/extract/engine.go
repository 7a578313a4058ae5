package extract

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/facturascl/extractor/constants"
	"github.com/facturascl/extractor/internal/common"
	"github.com/facturascl/extractor/internal/ocr"
)

// Engine implements TextExtractor: digital documents go through the embedded
// text layer, scanned ones through a two-tier OCR ladder with quality-scored
// fallback. Rasterized page images live in a per-invocation temp dir removed
// on every exit path.
type Engine struct {
	classifier DocClassifier
	recognizer PageRecognizer
	enhancer   PageEnhancer
	threshold  float64
	logger     *slog.Logger
}

func NewEngine(classifier DocClassifier, recognizer PageRecognizer, enhancer PageEnhancer, cfg common.PipelineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.QualityFallbackThreshold
	if threshold <= 0 {
		threshold = 0.2
	}
	return &Engine{
		classifier: classifier,
		recognizer: recognizer,
		enhancer:   enhancer,
		threshold:  threshold,
		logger:     logger,
	}
}

func (e *Engine) Extract(ctx context.Context, data []byte) (Result, error) {
	if e.classifier.Classify(data) == constants.DocTypeDigital {
		text, pages, err := extractDigital(data)
		if err == nil && strings.TrimSpace(text) != "" {
			e.logger.Info("extract.digital.ok", "pages", pages, "bytes", len(text))
			return Result{Text: text, Method: MethodStructured, Quality: 1.0, Pages: pages}, nil
		}
		// The classifier can be wrong: an empty or failing text layer means
		// the document is effectively scanned.
		e.logger.Warn("extract.digital.empty", "error", err)
	}
	return e.extractScanned(ctx, data)
}

func (e *Engine) extractScanned(ctx context.Context, data []byte) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "factura-ocr-*")
	if err != nil {
		return Result{}, common.NewAppError("EXTRACTION_FAILED", "create temp dir", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("extract.tmpdir.cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return Result{}, common.NewAppError("EXTRACTION_FAILED", "write temp PDF", err)
	}

	images, err := e.recognizer.RenderPages(ctx, pdfPath, tmpDir)
	if err != nil {
		return Result{}, common.NewAppError("EXTRACTION_FAILED", "rasterize PDF", fmt.Errorf("%w: %w", common.ErrExtraction, err))
	}

	var parts []string
	best := 0.0
	advanced := true
	for i, imgPath := range images {
		pageNum := i + 1
		att := e.recognizePage(ctx, imgPath, tmpDir, pageNum)
		if att.err != nil {
			return Result{}, common.NewAppError("EXTRACTION_FAILED",
				fmt.Sprintf("OCR failed on page %d of %d", pageNum, len(images)),
				fmt.Errorf("%w: %w", common.ErrExtraction, att.err))
		}
		parts = append(parts, att.text)
		if att.quality > best {
			best = att.quality
		}
		if att.method != MethodOCRAdvanced {
			advanced = false
		}
		e.logger.Info("extract.ocr.page",
			"page", pageNum, "method", att.method, "quality", att.quality, "bytes", len(att.text))
	}

	method := MethodOCRBasic
	if advanced {
		method = MethodOCRAdvanced
	}
	return Result{
		Text:    strings.Join(parts, "\n\n"),
		Method:  method,
		Quality: best,
		Pages:   len(images),
	}, nil
}

// attempt is the outcome of one OCR try on one page.
type attempt struct {
	text    string
	quality float64
	method  Method
	err     error
}

// recognizePage runs the two preprocessing tiers on a rendered page. Tier 1
// (advanced enhancement) wins unless it errors or scores below the fallback
// threshold, in which case tier 2 (basic preprocessing) is used. Only when
// both tiers fail does the page fail.
func (e *Engine) recognizePage(ctx context.Context, imgPath, dir string, page int) attempt {
	src, err := loadImage(imgPath)
	if err != nil {
		return attempt{err: fmt.Errorf("decode page image: %w", err)}
	}

	tier1 := e.tryTier(ctx, src, dir, page, true)
	if tier1.err == nil && tier1.quality >= e.threshold {
		return tier1
	}
	if tier1.err != nil {
		e.logger.Warn("extract.ocr.tier1_failed", "page", page, "error", tier1.err)
	} else {
		e.logger.Info("extract.ocr.tier1_low_quality", "page", page, "quality", tier1.quality, "threshold", e.threshold)
	}

	tier2 := e.tryTier(ctx, src, dir, page, false)
	if tier2.err == nil {
		return tier2
	}
	if tier1.err == nil {
		// tier 1 produced text, just below threshold; better than failing
		return tier1
	}
	return attempt{err: fmt.Errorf("tier1: %v; tier2: %w", tier1.err, tier2.err)}
}

func (e *Engine) tryTier(ctx context.Context, src image.Image, dir string, page int, advanced bool) attempt {
	var (
		prepped image.Image
		err     error
		suffix  string
		method  Method
	)
	if advanced {
		prepped, err = e.enhancer.Enhance(src)
		suffix, method = "enh", MethodOCRAdvanced
	} else {
		prepped, err = e.enhancer.Fallback(src)
		suffix, method = "basic", MethodOCRBasic
	}
	if err != nil {
		return attempt{err: fmt.Errorf("preprocess: %w", err), method: method}
	}

	path := filepath.Join(dir, fmt.Sprintf("page-%d.%s.png", page, suffix))
	if err := writePNG(path, prepped); err != nil {
		return attempt{err: fmt.Errorf("write page image: %w", err), method: method}
	}

	text, err := e.recognizer.Recognize(ctx, path)
	if err != nil {
		return attempt{err: err, method: method}
	}
	return attempt{text: text, quality: ocr.EstimateQuality(text), method: method}
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

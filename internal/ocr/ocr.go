// Package ocr wraps the external rasterization and text-recognition tools
// used for scanned invoices.
package ocr

import (
	"log/slog"

	"github.com/facturascl/extractor/internal/common"
)

// OCR invokes pdftoppm and tesseract through a Runner.
type OCR struct {
	cfg    common.OCRConfig
	runner Runner
	logger *slog.Logger
}

func NewOCR(cfg common.OCRConfig, logger *slog.Logger) *OCR {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "spa"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &OCR{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

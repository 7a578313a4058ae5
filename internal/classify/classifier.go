// Package classify decides whether an invoice PDF carries an embedded text
// layer (digital) or is a raster scan that needs OCR.
package classify

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/facturascl/extractor/constants"
)

const defaultMinTextChars = 10

// Classifier inspects the first page's text layer. Any decode failure maps to
// SCANNED: OCR is the more expensive but more universally applicable path.
type Classifier struct {
	minTextChars int
	logger       *slog.Logger
}

func NewClassifier(minTextChars int, logger *slog.Logger) *Classifier {
	if minTextChars <= 0 {
		minTextChars = defaultMinTextChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{minTextChars: minTextChars, logger: logger}
}

// Classify returns DIGITAL when page 1 yields at least minTextChars of
// trimmed text, SCANNED otherwise.
func (c *Classifier) Classify(data []byte) constants.DocType {
	text, err := firstPageText(data)
	if err != nil {
		c.logger.Warn("classify.decode_failed", "error", err)
		return constants.DocTypeScanned
	}

	chars := pageChars(text)
	if chars < c.minTextChars {
		c.logger.Info("classify.scanned", "page1_chars", chars)
		return constants.DocTypeScanned
	}
	c.logger.Info("classify.digital", "page1_chars", chars)
	return constants.DocTypeDigital
}

// pageChars counts characters, not bytes; accented Spanish would otherwise
// inflate the count against the threshold.
func pageChars(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// firstPageText extracts the embedded text of page 1.
func firstPageText(data []byte) (text string, err error) {
	// The reader panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic decoding PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	if r.NumPage() < 1 {
		return "", nil
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

package extract

import (
	"context"
	"image"

	"github.com/facturascl/extractor/constants"
)

// Method records how the text of a document was obtained.
type Method string

const (
	MethodStructured  Method = "structured"   // embedded text layer
	MethodOCRBasic    Method = "ocr_basic"    // basic preprocessing tier
	MethodOCRAdvanced Method = "ocr_advanced" // advanced preprocessing tier
)

// DocType maps an extraction method back to the document classification.
func (m Method) DocType() constants.DocType {
	if m == MethodStructured {
		return constants.DocTypeDigital
	}
	return constants.DocTypeScanned
}

// Result is the outcome of text extraction for one document. It is owned by
// a single pipeline invocation and never shared.
type Result struct {
	Text    string
	Method  Method
	Quality float64 // [0,1]; max per-page score for OCR, 1 for structured
	Pages   int
}

// TextExtractor turns a PDF byte buffer into raw text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (Result, error)
}

// DocClassifier decides whether a document is digital or scanned.
type DocClassifier interface {
	Classify(data []byte) constants.DocType
}

// PageRecognizer rasterizes a PDF and recognizes text on page images.
type PageRecognizer interface {
	RenderPages(ctx context.Context, pdfPath, dir string) ([]string, error)
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// PageEnhancer provides the two preprocessing tiers applied before OCR.
type PageEnhancer interface {
	Enhance(img image.Image) (image.Image, error)
	Fallback(img image.Image) (image.Image, error)
}

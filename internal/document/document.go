// Package document provides structural access to an uploaded invoice PDF.
package document

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/facturascl/extractor/internal/common"
)

// Document is the immutable byte buffer flowing through one pipeline
// invocation, plus its page count. It is never persisted.
type Document struct {
	Data  []byte
	Pages int
}

// Read validates the PDF structure and counts pages.
func Read(data []byte) (doc *Document, err error) {
	// pdfcpu can panic on malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = common.NewAppError("PDF_READ_PANIC", fmt.Sprintf("panic reading PDF: %v", r), common.ErrInvalidInput)
		}
	}()

	if len(data) == 0 {
		return nil, common.NewAppError("PDF_EMPTY", "empty PDF buffer", common.ErrInvalidInput)
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, common.WrapError(err, "read PDF")
	}
	return &Document{Data: data, Pages: ctx.PageCount}, nil
}

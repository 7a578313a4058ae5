// Package pipeline wires classification, text extraction, field extraction
// and validation into a single synchronous pass over one PDF buffer.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/facturascl/extractor/constants"
	"github.com/facturascl/extractor/internal/ai"
	"github.com/facturascl/extractor/internal/document"
	"github.com/facturascl/extractor/internal/entity"
	"github.com/facturascl/extractor/internal/extract"
	"github.com/facturascl/extractor/internal/fields"
	"github.com/facturascl/extractor/internal/validate"
)

// FieldRefiner is the optional second-pass field extractor. Satisfied by
// ai.Extractor; nil disables refinement.
type FieldRefiner interface {
	Extract(ctx context.Context, text string) (entity.Factura, error)
}

// Result is everything one invocation produced. JobID ties log lines and
// output records together; nothing is persisted.
type Result struct {
	JobID      uuid.UUID         `json:"job_id"`
	DocType    constants.DocType `json:"doc_type"`
	Extraction extract.Result    `json:"extraction"`
	Factura    entity.Factura    `json:"factura"`
	Validation validate.Outcome  `json:"validation"`
}

// Processor coordinates text extraction, then field extraction, then
// validation. It holds no per-document state and is safe for concurrent use.
type Processor struct {
	logger    *slog.Logger
	engine    extract.TextExtractor
	fields    *fields.Extractor
	validator *validate.Validator
	refiner   FieldRefiner
}

func NewProcessor(
	logger *slog.Logger,
	engine extract.TextExtractor,
	fieldExtractor *fields.Extractor,
	validator *validate.Validator,
	refiner FieldRefiner,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		engine:    engine,
		fields:    fieldExtractor,
		validator: validator,
		refiner:   refiner,
	}
}

// Process runs one PDF buffer through the full pipeline. opts carries the
// caller-supplied external facts (previous invoice number, standard rate).
func (p *Processor) Process(ctx context.Context, data []byte, opts validate.Options) (Result, error) {
	jobID := uuid.New()

	// structural page count is advisory; OCR rasterization has its own view
	if doc, err := document.Read(data); err != nil {
		p.logger.Warn("processor.document.unreadable", "job_id", jobID, "error", err)
	} else {
		p.logger.Debug("processor.document.ok", "job_id", jobID, "pages", doc.Pages, "bytes", len(doc.Data))
	}

	res, err := p.engine.Extract(ctx, data)
	if err != nil {
		p.logger.Error("processor.extract.failed", "job_id", jobID, "error", err)
		return Result{JobID: jobID}, err
	}
	p.logger.Info("processor.extract.ok",
		"job_id", jobID,
		"method", res.Method,
		"pages", res.Pages,
		"quality", res.Quality,
		"bytes", len(res.Text),
	)

	factura := p.fields.Extract(res.Text)

	if p.refiner != nil {
		refined, err := p.refiner.Extract(ctx, res.Text)
		if err != nil {
			// refinement is best effort; the pattern result stands alone
			p.logger.Warn("processor.refine.failed", "job_id", jobID, "error", err)
		} else {
			factura = ai.Merge(factura, refined)
			p.logger.Info("processor.refine.ok", "job_id", jobID)
		}
	}

	outcome := p.validator.Validate(factura, opts)
	p.logger.Info("processor.validate.done",
		"job_id", jobID,
		"valid", outcome.Valid,
		"errors", len(outcome.Errors),
	)

	return Result{
		JobID:      jobID,
		DocType:    res.Method.DocType(),
		Extraction: res,
		Factura:    factura,
		Validation: outcome,
	}, nil
}

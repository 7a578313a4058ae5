package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/facturascl/extractor/internal/ai"
	"github.com/facturascl/extractor/internal/classify"
	"github.com/facturascl/extractor/internal/common"
	"github.com/facturascl/extractor/internal/enhance"
	"github.com/facturascl/extractor/internal/extract"
	"github.com/facturascl/extractor/internal/fields"
	"github.com/facturascl/extractor/internal/ocr"
	"github.com/facturascl/extractor/internal/pipeline"
	"github.com/facturascl/extractor/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// fileResult is one JSON line on stdout per input file.
type fileResult struct {
	File   string           `json:"file"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func main() {
	var (
		file        = flag.String("file", "", "single PDF to process")
		dir         = flag.String("dir", "", "directory to process PDFs from")
		concurrency = flag.Int("concurrency", 4, "max PDFs processed in parallel")
		prev        = flag.Int("prev", 0, "previous invoice number for correlative check (single file only)")
		pretty      = flag.Bool("pretty", false, "print a human-readable invoice summary instead of JSON (single file only)")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if (*file == "") == (*dir == "") {
		printError("Error: exactly one of --file or --dir is required\n")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	// results go to stdout, logs to stderr
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	processor := buildProcessor(*cfg, logger)

	opts := validate.Options{IVARate: cfg.Pipeline.IVARate}
	if *prev > 0 {
		opts.PreviousInvoiceNum = prev
	}

	ctx := context.Background()

	if *file != "" {
		if err := processOne(ctx, processor, *file, opts, *pretty); err != nil {
			logger.Error("processing failed", "file", *file, "error", err)
			os.Exit(1)
		}
		return
	}

	pdfs, err := collectPDFs(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(pdfs) == 0 {
		printError("Error: no PDF files under %s\n", *dir)
		os.Exit(1)
	}
	logger.Info("starting batch", "dir", *dir, "files", len(pdfs), "concurrency", *concurrency)

	var (
		mu       sync.Mutex
		enc      = json.NewEncoder(os.Stdout)
		failures int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	for _, path := range pdfs {
		path := path
		g.Go(func() error {
			out := fileResult{File: path}
			data, err := os.ReadFile(path)
			if err == nil {
				var res pipeline.Result
				// correlative checks need caller-ordered sequencing; skip in batch
				res, err = processor.Process(gctx, data, validate.Options{IVARate: cfg.Pipeline.IVARate})
				if err == nil {
					out.Result = &res
				}
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Error = err.Error()
				failures++
			}
			return enc.Encode(out)
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("batch aborted", "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete", "files", len(pdfs), "failures", failures)
	if failures == len(pdfs) {
		os.Exit(1)
	}
}

func buildProcessor(cfg common.Config, logger *slog.Logger) *pipeline.Processor {
	classifier := classify.NewClassifier(cfg.Pipeline.MinTextChars, logger)
	recognizer := ocr.NewOCR(cfg.OCR, logger)
	enhancer := enhance.NewEnhancer(enhance.Options{Aggressive: cfg.Pipeline.AggressiveEnhance}, logger)
	engine := extract.NewEngine(classifier, recognizer, enhancer, cfg.Pipeline, logger)

	var refiner pipeline.FieldRefiner
	if cfg.AI.APIKey != "" {
		refiner = ai.NewExtractor(ai.NewClient(cfg.AI, logger), logger)
		logger.Info("AI refinement enabled", "model", cfg.AI.Model)
	} else {
		logger.Warn("AI API key not configured, field refinement will be skipped")
	}

	return pipeline.NewProcessor(logger, engine, fields.NewExtractor(logger), validate.NewValidator(logger), refiner)
}

func processOne(ctx context.Context, p *pipeline.Processor, path string, opts validate.Options, pretty bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	res, err := p.Process(ctx, data, opts)
	if err != nil {
		return err
	}
	if pretty {
		fmt.Println(res.Factura.String())
		if !res.Validation.Valid {
			for field, reason := range res.Validation.Errors {
				fmt.Printf("  ! %s: %s\n", field, reason)
			}
		}
		return nil
	}
	return json.NewEncoder(os.Stdout).Encode(fileResult{File: path, Result: &res})
}

func collectPDFs(dir string) ([]string, error) {
	var pdfs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(pdfs)
	return pdfs, nil
}

package blockstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/blockstream/docx"
	"github.com/tsawler/blockstream/format"
	"github.com/tsawler/blockstream/htmldoc"
	"github.com/tsawler/blockstream/model"
	"github.com/tsawler/blockstream/ocr"
	"github.com/tsawler/blockstream/pdf"
	"github.com/tsawler/blockstream/rtf"
	"github.com/tsawler/blockstream/staging"
	"github.com/tsawler/blockstream/text"
)

// FormatExtractor produces the blocks of one document.
type FormatExtractor interface {
	Extract(ctx context.Context, path string) ([]model.Block, error)
}

// Dispatcher routes files to extractors by extension.
// It is safe for concurrent use.
type Dispatcher struct {
	cfg        Config
	logger     *slog.Logger
	extractors map[format.Format]FormatExtractor
}

// NewDispatcher builds the extractor table for cfg. Unset fields of cfg
// take their defaults.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	cfg.defaults()
	logger := cfg.logger()

	if cfg.StagingDir != "" {
		if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create staging dir: %w", err)
		}
	}

	adapter := ocr.NewAdapter(cfg.Engine, cfg.OCR, logger)
	mgr := staging.NewManager(cfg.StagingDir)

	docxExt := docx.NewExtractor(adapter, mgr)
	docxExt.Concurrency = cfg.OCRConcurrency

	pdfExt := pdf.NewExtractor(adapter, mgr).WithLogger(logger)
	pdfExt.Concurrency = cfg.OCRConcurrency

	zipExt := htmldoc.NewExtractor(adapter, mgr).WithLogger(logger)
	zipExt.Concurrency = cfg.OCRConcurrency

	return &Dispatcher{
		cfg:    cfg,
		logger: logger,
		extractors: map[format.Format]FormatExtractor{
			format.DOCX: docxExt,
			format.PDF:  pdfExt,
			format.RTF:  rtf.NewExtractor(),
			format.TXT:  text.NewExtractor(),
			format.ZIP:  zipExt,
		},
	}, nil
}

// Config returns the effective configuration.
func (d *Dispatcher) Config() Config {
	return d.cfg
}

// Lookup returns the extractor for path's extension.
func (d *Dispatcher) Lookup(path string) (FormatExtractor, format.Format, error) {
	f := format.Detect(path)
	x, ok := d.extractors[f]
	if !ok {
		ext := filepath.Ext(path)
		if ext == "" {
			ext = "(none)"
		}
		return nil, f, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return x, f, nil
}

// Extract extracts a single file. The record's source is the file's base
// name.
func (d *Dispatcher) Extract(ctx context.Context, path string) (*model.Record, error) {
	return d.ExtractAs(ctx, path, filepath.Base(path))
}

// ExtractAs extracts path and records source as its origin. Routing uses
// the extension of source when it has one, so uploads staged under a
// temporary name keep their format.
func (d *Dispatcher) ExtractAs(ctx context.Context, path, source string) (*model.Record, error) {
	if path == "" {
		return nil, ErrNoInput
	}

	x, f, err := d.Lookup(route(path, source))
	if err != nil {
		return nil, err
	}

	if err := d.checkSize(path); err != nil {
		return nil, &ExtractionError{Path: path, Format: f, Err: err}
	}

	start := time.Now()
	d.logger.Debug("extracting document", "path", path, "format", f.String())

	blocks, err := safeExtract(ctx, x, path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Format: f, Err: err}
	}

	rec := model.NewRecord(source, blocks)
	d.logger.Debug("extracted document",
		"path", path,
		"format", f.String(),
		"blocks", len(rec.Blocks),
		"elapsed", time.Since(start),
	)
	return rec, nil
}

// route returns the name whose extension selects the extractor.
func route(path, source string) string {
	if filepath.Ext(source) == "" {
		return path
	}
	return source
}

// safeExtract runs x, turning a panic on malformed input into an error so
// it only fails this document.
func safeExtract(ctx context.Context, x FormatExtractor, path string) (blocks []model.Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			blocks, err = nil, fmt.Errorf("%w: %v", ErrExtractorPanic, r)
		}
	}()
	return x.Extract(ctx, path)
}

func (d *Dispatcher) checkSize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if d.cfg.MaxFileSize > 0 && info.Size() > d.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, info.Size(), d.cfg.MaxFileSize)
	}
	return nil
}

// Input is one file of a batch. Source defaults to the base name of Path.
type Input struct {
	Path   string
	Source string
}

// ExtractBatch extracts paths with up to Config.Workers documents at once.
// Records come back in input order. Unsupported files and failed
// extractions are reported as warnings and never abort the batch.
func (d *Dispatcher) ExtractBatch(ctx context.Context, paths []string) ([]*model.Record, []Warning) {
	inputs := make([]Input, len(paths))
	for i, p := range paths {
		inputs[i] = Input{Path: p}
	}
	return d.ExtractInputs(ctx, inputs)
}

// ExtractInputs is ExtractBatch with explicit source names.
func (d *Dispatcher) ExtractInputs(ctx context.Context, inputs []Input) ([]*model.Record, []Warning) {
	records := make([]*model.Record, len(inputs))
	warnings := make([]*Warning, len(inputs))

	var g errgroup.Group
	g.SetLimit(d.cfg.Workers)

	for i, in := range inputs {
		source := in.Source
		if source == "" {
			source = filepath.Base(in.Path)
		}

		if _, _, err := d.Lookup(route(in.Path, source)); err != nil {
			d.logger.Warn("skipping unsupported file", "path", in.Path, "error", err)
			warnings[i] = &Warning{Kind: WarningSkipped, Path: in.Path, Message: err.Error(), Err: err}
			continue
		}

		i, in := i, in
		g.Go(func() error {
			rec, err := d.ExtractAs(ctx, in.Path, source)
			if err != nil {
				d.logger.Warn("extraction failed", "path", in.Path, "error", err)
				warnings[i] = &Warning{Kind: WarningFailed, Path: in.Path, Message: err.Error(), Err: err}
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	var (
		out  []*model.Record
		warn []Warning
	)
	for i := range inputs {
		if records[i] != nil {
			out = append(out, records[i])
			warn = append(warn, ocrWarnings(inputs[i].Path, records[i])...)
		}
		if warnings[i] != nil {
			warn = append(warn, *warnings[i])
		}
	}
	return out, warn
}

// ocrWarnings reports each image of rec whose recognition failed.
func ocrWarnings(path string, rec *model.Record) []Warning {
	var warnings []Warning
	for _, img := range rec.OCRFailures() {
		warnings = append(warnings, Warning{
			Kind:    WarningOCR,
			Path:    path,
			Message: fmt.Sprintf("%s: %s", img.Filename, img.Content),
		})
	}
	return warnings
}

// IsSkip reports whether err means the file was not a supported format.
func IsSkip(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}

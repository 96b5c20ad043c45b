package blockstream

import (
	"context"
	"log/slog"

	"github.com/tsawler/blockstream/export"
	"github.com/tsawler/blockstream/model"
	"github.com/tsawler/blockstream/ocr"
)

// Extractor provides a fluent interface for extracting one document.
// Each configuration method returns a new Extractor instance, making it
// safe for concurrent use and allowing method chaining.
type Extractor struct {
	filename string
	source   string
	cfg      Config
}

// clone creates a copy of the Extractor with its own OCR language list.
func (e *Extractor) clone() *Extractor {
	newExt := *e
	newExt.cfg.OCR.Languages = append([]string(nil), e.cfg.OCR.Languages...)
	return &newExt
}

// WithConfig replaces the configuration.
func (e *Extractor) WithConfig(cfg Config) *Extractor {
	newExt := e.clone()
	cfg.defaults()
	newExt.cfg = cfg
	return newExt
}

// WithOCR recognizes images with engine instead of the default.
func (e *Extractor) WithOCR(engine ocr.Engine) *Extractor {
	newExt := e.clone()
	newExt.cfg.Engine = engine
	return newExt
}

// Languages sets the OCR languages, e.g. "eng", "deu".
func (e *Extractor) Languages(langs ...string) *Extractor {
	newExt := e.clone()
	newExt.cfg.OCR.Languages = append([]string(nil), langs...)
	newExt.cfg.OCR = newExt.cfg.OCR.WithDefaults()
	return newExt
}

// OCRConcurrency sets how many images are recognized at once.
func (e *Extractor) OCRConcurrency(n int) *Extractor {
	newExt := e.clone()
	newExt.cfg.OCRConcurrency = n
	newExt.cfg.defaults()
	return newExt
}

// StagingDir sets where scratch directories are created.
func (e *Extractor) StagingDir(dir string) *Extractor {
	newExt := e.clone()
	newExt.cfg.StagingDir = dir
	return newExt
}

// Source sets the name recorded as the document's origin. It also decides
// the format when it has an extension.
func (e *Extractor) Source(name string) *Extractor {
	newExt := e.clone()
	newExt.source = name
	return newExt
}

// WithLogger sets the logger.
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	newExt := e.clone()
	newExt.cfg.Logger = logger
	return newExt
}

// Record extracts the document. The warnings list the images whose
// recognition failed; those images remain in the record with a failure
// marker.
//
// Example:
//
//	rec, warnings, err := blockstream.Open("scan.pdf").Record(ctx)
func (e *Extractor) Record(ctx context.Context) (*model.Record, []Warning, error) {
	if e.filename == "" {
		return nil, nil, ErrNoInput
	}

	d, err := NewDispatcher(e.cfg)
	if err != nil {
		return nil, nil, err
	}

	var rec *model.Record
	if e.source != "" {
		rec, err = d.ExtractAs(ctx, e.filename, e.source)
	} else {
		rec, err = d.Extract(ctx, e.filename)
	}
	if err != nil {
		return nil, nil, err
	}
	return rec, ocrWarnings(e.filename, rec), nil
}

// Blocks extracts the document and returns only its blocks.
func (e *Extractor) Blocks(ctx context.Context) ([]model.Block, []Warning, error) {
	rec, warnings, err := e.Record(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rec.Blocks, warnings, nil
}

// Text extracts the document and flattens it, one block per paragraph.
//
// Example:
//
//	text, _, err := blockstream.Open("archive.zip").Text(ctx)
func (e *Extractor) Text(ctx context.Context) (string, []Warning, error) {
	rec, warnings, err := e.Record(ctx)
	if err != nil {
		return "", nil, err
	}
	return export.Text(rec), warnings, nil
}

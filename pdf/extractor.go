package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tsawler/blockstream/internal/blockseq"
	"github.com/tsawler/blockstream/model"
	"github.com/tsawler/blockstream/ocr"
	"github.com/tsawler/blockstream/staging"
)

// ErrInvalidPDF is returned for files pdfcpu cannot read or validate.
var ErrInvalidPDF = errors.New("invalid PDF")

// Extractor turns PDF files into blocks.
type Extractor struct {
	ocr     *ocr.Adapter
	staging *staging.Manager
	logger  *slog.Logger

	// Concurrency is the number of images recognized at once.
	Concurrency int
}

// NewExtractor returns an extractor that recognizes images with adapter
// and stages them under mgr.
func NewExtractor(adapter *ocr.Adapter, mgr *staging.Manager) *Extractor {
	if adapter == nil {
		adapter = ocr.NewAdapter(nil, ocr.Config{}, nil)
	}
	return &Extractor{ocr: adapter, staging: mgr, logger: slog.Default()}
}

// WithLogger sets the logger used for pages that cannot be read.
func (e *Extractor) WithLogger(logger *slog.Logger) *Extractor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Extract reads the PDF at filename and returns its blocks page by page.
func (e *Extractor) Extract(ctx context.Context, filename string) ([]model.Block, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	doc, err := openDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return e.extract(ctx, doc)
}

func (e *Extractor) extract(ctx context.Context, src source) ([]model.Block, error) {
	area, err := e.staging.Acquire("pdf")
	if err != nil {
		return nil, err
	}
	defer area.Release()

	var seq blockseq.Sequence
	counter := 0
	for n := 1; n <= src.pageCount(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := src.page(n)
		if err != nil {
			e.logger.Warn("skipping unreadable page", slog.Int("page", n), slog.String("error", err.Error()))
			continue
		}
		items, err := walkPage(page)
		if err != nil {
			e.logger.Warn("skipping unparsable page", slog.Int("page", n), slog.String("error", err.Error()))
			continue
		}

		for _, it := range items {
			if !it.image {
				seq.AddText(it.text)
				continue
			}
			counter++
			e.addImage(&seq, area, src, n, counter, it)
		}
	}

	e.logger.Debug("recognizing images", slog.Int("images", seq.Images()), slog.Int("concurrency", e.Concurrency))
	return seq.Resolve(ctx, e.Concurrency)
}

// addImage resolves an image's bytes in walk order and reserves its slot.
// Recognition itself is deferred to Resolve.
func (e *Extractor) addImage(seq *blockseq.Sequence, area *staging.Area, src source, page, counter int, it item) {
	data, ext, err := imageBytes(src, page, it)
	if err != nil {
		name := fmt.Sprintf("pdf_img_%d", counter)
		e.logger.Warn("image data unavailable", slog.Int("page", page), slog.String("image", name), slog.String("error", err.Error()))
		seq.AddImage(name, func(context.Context) string {
			return ocr.FailureMarker(ocr.ErrImageUnavailable)
		})
		return
	}

	name := fmt.Sprintf("pdf_img_%d.%s", counter, ext)
	seq.AddImage(name, func(ctx context.Context) string {
		return e.ocr.RecognizeBytes(ctx, area, name, data)
	})
}

// imageBytes prefers the cross-reference image and falls back to the
// inline image carried by the item.
func imageBytes(src source, page int, it item) ([]byte, string, error) {
	if it.objNr > 0 {
		data, ext, err := src.image(page, it.objNr)
		if err == nil {
			return data, ext, nil
		}
		if it.inline == nil {
			return nil, "", err
		}
	}
	if it.inline != nil {
		return it.inline.encode()
	}
	if it.err != nil {
		return nil, "", it.err
	}
	return nil, "", errUnsupportedImage
}

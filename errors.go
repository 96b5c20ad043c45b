package blockstream

import (
	"errors"
	"fmt"

	"github.com/tsawler/blockstream/format"
)

var (
	// ErrUnsupportedFormat is returned in single mode for files whose
	// extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrFileTooLarge is returned for files above Config.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNoInput is returned when no file was given.
	ErrNoInput = errors.New("no input file")
	// ErrExtractorPanic wraps a panic raised while extracting a document.
	ErrExtractorPanic = errors.New("extractor panicked")
)

// ExtractionError records which document and format an extractor failed
// on. It wraps the extractor's error.
type ExtractionError struct {
	Path   string
	Format format.Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

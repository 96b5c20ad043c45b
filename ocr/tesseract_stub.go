//go:build !ocr

package ocr

import (
	"context"
)

type stubEngine struct{}

// NewTesseract returns an engine that fails every call with
// ErrOCRNotEnabled.
func NewTesseract(cfg Config) Engine {
	return stubEngine{}
}

// Enabled reports whether a real OCR engine was compiled in.
func Enabled() bool { return false }

func (stubEngine) Recognize(ctx context.Context, path string) (string, error) {
	return "", ErrOCRNotEnabled
}

// Version returns an empty string when OCR is not compiled in.
func Version() string { return "" }

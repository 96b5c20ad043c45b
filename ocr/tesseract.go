//go:build ocr

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes images with a local Tesseract installation.
type Tesseract struct {
	cfg Config
}

// NewTesseract returns a Tesseract engine configured by cfg.
func NewTesseract(cfg Config) Engine {
	return &Tesseract{cfg: cfg.WithDefaults()}
}

// Enabled reports whether a real OCR engine was compiled in.
func Enabled() bool { return true }

// Recognize runs Tesseract on the image at path. A client is created per
// call and always closed, so no handle to the image outlives the call.
func (t *Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.cfg.Languages...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(t.cfg.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Version returns the Tesseract library version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

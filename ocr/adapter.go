package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/blockstream/model"
	"github.com/tsawler/blockstream/staging"
)

// Engine recognizes the text in one image file.
type Engine interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, path string) (string, error)

// Recognize calls f.
func (f EngineFunc) Recognize(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

var (
	// ErrEmptyImage is reported for zero-length image files.
	ErrEmptyImage = errors.New("empty image")
	// ErrImageUnavailable is reported when an extractor could not obtain
	// the bytes of an image it found in the document.
	ErrImageUnavailable = errors.New("image data unavailable")
)

// jp2Signature is the JPEG 2000 file signature box. Go has no JPEG 2000
// decoder, so these files skip the pre-check and go straight to the engine.
var jp2Signature = []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' '}

// Adapter wraps an Engine with the failure-marker policy.
// It is safe for concurrent use if the Engine is.
type Adapter struct {
	engine  Engine
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter returns an adapter around engine. A nil engine uses
// NewTesseract(cfg); a nil logger uses slog.Default().
func NewAdapter(engine Engine, cfg Config, logger *slog.Logger) *Adapter {
	cfg = cfg.WithDefaults()
	if engine == nil {
		engine = NewTesseract(cfg)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{engine: engine, timeout: cfg.Timeout, logger: logger}
}

// FailureMarker returns the marker text recorded for a failed image.
func FailureMarker(err error) string {
	return model.OCRFailure(err.Error())
}

// Recognize returns the trimmed text of the image at path, or a failure
// marker. It never returns an error.
func (a *Adapter) Recognize(ctx context.Context, path string) string {
	text, err := a.recognize(ctx, path)
	if err != nil {
		a.logger.Warn("ocr failed", slog.String("image", filepath.Base(path)), slog.String("error", err.Error()))
		return FailureMarker(err)
	}
	return text
}

// RecognizeBytes stages data under name in area, recognizes it, and
// removes the staged file before returning.
func (a *Adapter) RecognizeBytes(ctx context.Context, area *staging.Area, name string, data []byte) string {
	path, err := area.Write(name, data)
	if err != nil {
		a.logger.Warn("ocr staging failed", slog.String("image", name), slog.String("error", err.Error()))
		return FailureMarker(err)
	}
	defer area.Remove(path)
	return a.Recognize(ctx, path)
}

// RecognizeFile copies the file at src into area as name, recognizes the
// copy, and removes it before returning. An empty name uses the base name
// of src.
func (a *Adapter) RecognizeFile(ctx context.Context, area *staging.Area, name, src string) string {
	if name == "" {
		name = filepath.Base(src)
	}
	path, err := area.Copy(name, src)
	if err != nil {
		a.logger.Warn("ocr staging failed", slog.String("image", name), slog.String("error", err.Error()))
		return FailureMarker(err)
	}
	defer area.Remove(path)
	return a.Recognize(ctx, path)
}

func (a *Adapter) recognize(ctx context.Context, path string) (string, error) {
	if err := checkImage(path); err != nil {
		return "", err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	// The engine may block in C code that cannot observe ctx, so the call
	// runs on its own goroutine and is abandoned on timeout.
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("engine panic: %v", r)}
			}
		}()
		text, err := a.engine.Recognize(ctx, path)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return strings.TrimSpace(r.text), nil
	}
}

// checkImage decodes the image header so corrupt or unsupported files
// fail before reaching the engine.
func checkImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, len(jp2Signature))
	n, err := f.Read(head)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return ErrEmptyImage
		}
		return err
	}
	if bytes.Equal(head[:n], jp2Signature) {
		return nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return nil
}

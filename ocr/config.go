package ocr

import (
	"errors"
	"time"
)

// ErrOCRNotEnabled is returned when OCR is requested but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// PageSegMode represents page segmentation modes for OCR.
// These control how Tesseract analyzes the page layout.
type PageSegMode int

// Page segmentation modes, numbered as Tesseract numbers them.
// PSM_OSD_ONLY is the zero value, so Config treats it as unset; it detects
// orientation without recognizing text and has no use in extraction.
const (
	PSM_OSD_ONLY               PageSegMode = 0  // Orientation and script detection only
	PSM_AUTO_OSD               PageSegMode = 1  // Automatic with OSD
	PSM_AUTO_ONLY              PageSegMode = 2  // Automatic, no OSD or OCR
	PSM_AUTO                   PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_COLUMN          PageSegMode = 4  // Single column of variable sizes
	PSM_SINGLE_BLOCK_VERT_TEXT PageSegMode = 5  // Single uniform block of vertically aligned text
	PSM_SINGLE_BLOCK           PageSegMode = 6  // Single uniform block of text
	PSM_SINGLE_LINE            PageSegMode = 7  // Single text line
	PSM_SINGLE_WORD            PageSegMode = 8  // Single word
	PSM_CIRCLE_WORD            PageSegMode = 9  // Single word in a circle
	PSM_SINGLE_CHAR            PageSegMode = 10 // Single character
	PSM_SPARSE_TEXT            PageSegMode = 11 // Find as much text as possible
	PSM_SPARSE_TEXT_OSD        PageSegMode = 12 // Sparse text with OSD
	PSM_RAW_LINE               PageSegMode = 13 // Treat image as single text line
)

// DefaultTimeout bounds a single recognition call.
const DefaultTimeout = 60 * time.Second

// Config is the engine configuration. It is passed explicitly to the
// engine and adapter; nothing here is read from package state.
type Config struct {
	// Languages are Tesseract language codes, e.g. "eng", "deu".
	Languages []string `yaml:"languages"`
	// TessdataPrefix overrides the language data directory.
	TessdataPrefix string `yaml:"tessdata_prefix"`
	// PageSegMode is passed to Tesseract unchanged. Zero, which is
	// PSM_OSD_ONLY, selects PSM_AUTO.
	PageSegMode PageSegMode `yaml:"page_seg_mode"`
	// Timeout bounds each recognition call. Zero uses DefaultTimeout;
	// a negative value disables the bound.
	Timeout time.Duration `yaml:"timeout"`
}

// WithDefaults returns a copy of c with unset fields filled in.
func (c Config) WithDefaults() Config {
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng"}
	} else {
		c.Languages = append([]string(nil), c.Languages...)
	}
	if c.PageSegMode == 0 {
		c.PageSegMode = PSM_AUTO
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

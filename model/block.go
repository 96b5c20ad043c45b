package model

import (
	"strings"
)

// Kind identifies the variant of a Block.
type Kind int

const (
	KindText Kind = iota
	KindTable
	KindImageOCR
	KindMeta
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTable:
		return "table"
	case KindImageOCR:
		return "image_ocr"
	case KindMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// Block is one unit of normalized document content.
type Block interface {
	Kind() Kind
	// String renders the block as flat text.
	String() string
}

// Text is a piece of whitespace-trimmed prose.
type Text struct {
	Content string
}

// NewText trims s and reports whether anything remains.
func NewText(s string) (Text, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Text{}, false
	}
	return Text{Content: s}, true
}

func (t Text) Kind() Kind { return KindText }
func (t Text) String() string { return t.Content }

// Table holds cell text in row-major order. Rows are not required to
// have equal length.
type Table struct {
	Rows [][]string
}

func (t Table) Kind() Kind { return KindTable }

// String joins cells with tabs and rows with newlines.
func (t Table) String() string {
	var sb strings.Builder
	for i, row := range t.Rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Join(row, "\t"))
	}
	return sb.String()
}

// ImageOCR carries the recognized text of an embedded image. Filename is
// for traceability only and is not guaranteed to be unique.
type ImageOCR struct {
	Filename string
	Content  string
}

func (i ImageOCR) Kind() Kind { return KindImageOCR }

func (i ImageOCR) String() string {
	return "[" + i.Filename + "] " + i.Content
}

// Failed reports whether recognition failed for this image.
func (i ImageOCR) Failed() bool { return IsOCRFailure(i.Content) }

// Meta is a marker emitted by an extractor, such as the start of a new
// file inside an archive.
type Meta struct {
	Content string
}

func (m Meta) Kind() Kind { return KindMeta }
func (m Meta) String() string { return m.Content }

// OCRFailurePrefix starts every failure marker placed in ImageOCR.Content.
const OCRFailurePrefix = "[OCR FAILED: "

// OCRFailure formats the failure marker for reason.
func OCRFailure(reason string) string {
	return OCRFailurePrefix + reason + "]"
}

// IsOCRFailure reports whether content is a failure marker.
func IsOCRFailure(content string) bool {
	return strings.HasPrefix(content, OCRFailurePrefix) && strings.HasSuffix(content, "]")
}

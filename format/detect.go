// Package format maps file names to the document formats blockstream
// can extract.
//
// Detection is by extension only. File contents are never sniffed, so a
// mislabelled file is routed by its name and fails inside the extractor.
package format

import (
	"path/filepath"
	"strings"
)

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unsupported extension.
	Unknown Format = iota
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// PDF indicates a PDF document.
	PDF
	// RTF indicates a Rich Text Format document.
	RTF
	// TXT indicates a plain text file.
	TXT
	// ZIP indicates an archive of HTML pages and their images.
	ZIP
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case PDF:
		return "PDF"
	case RTF:
		return "RTF"
	case TXT:
		return "TXT"
	case ZIP:
		return "ZIP"
	default:
		return "Unknown"
	}
}

// Extension returns the canonical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case DOCX:
		return ".docx"
	case PDF:
		return ".pdf"
	case RTF:
		return ".rtf"
	case TXT:
		return ".txt"
	case ZIP:
		return ".zip"
	default:
		return ""
	}
}

// Detect determines the format from the file name's extension,
// ignoring case.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return DOCX
	case ".pdf":
		return PDF
	case ".rtf":
		return RTF
	case ".txt":
		return TXT
	case ".zip":
		return ZIP
	default:
		return Unknown
	}
}

// Supported reports whether filename has an extension blockstream can
// extract.
func Supported(filename string) bool {
	return Detect(filename) != Unknown
}

// All returns every supported format in a stable order.
func All() []Format {
	return []Format{DOCX, PDF, RTF, TXT, ZIP}
}

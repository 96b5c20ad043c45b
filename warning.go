package blockstream

import (
	"fmt"
	"strings"
)

// WarningKind classifies a Warning.
type WarningKind int

const (
	// WarningSkipped marks a batch input with an unsupported extension.
	WarningSkipped WarningKind = iota
	// WarningFailed marks a batch input whose extraction failed.
	WarningFailed
	// WarningOCR marks an image whose recognition failed. The image is
	// still present in the record, carrying a failure marker.
	WarningOCR
)

func (k WarningKind) String() string {
	switch k {
	case WarningSkipped:
		return "skipped"
	case WarningFailed:
		return "failed"
	case WarningOCR:
		return "ocr"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal problem observed while extracting.
type Warning struct {
	Kind    WarningKind
	Path    string
	Message string
	Err     error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Path, w.Message)
}

// FormatWarnings renders warnings one per line.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// CountWarnings returns how many warnings have kind k.
func CountWarnings(warnings []Warning, k WarningKind) int {
	n := 0
	for _, w := range warnings {
		if w.Kind == k {
			n++
		}
	}
	return n
}

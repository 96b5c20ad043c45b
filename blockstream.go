// Package blockstream extracts an ordered stream of typed blocks from
// DOCX, PDF, RTF, TXT, and ZIP-of-HTML files. Embedded images are replaced
// in place by their OCR text.
//
// Basic usage:
//
//	rec, warnings, err := blockstream.Open("report.docx").Record(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", blockstream.FormatWarnings(warnings))
//	}
//
// With options:
//
//	text, _, err := blockstream.Open("/tmp/upload-1234.pdf").
//	    Source("quarterly.pdf").
//	    StagingDir("/var/tmp/blockstream").
//	    Text(ctx)
//
// Batch extraction over many files goes through a [Dispatcher], which
// skips unsupported files instead of failing.
package blockstream

// Open returns an Extractor for filename configured with DefaultConfig.
// Nothing is read until a terminal operation such as Record is called.
//
// Example:
//
//	blocks, warnings, err := blockstream.Open("notes.rtf").Blocks(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		cfg:      DefaultConfig(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	cfg := blockstream.Must(blockstream.LoadConfig("blockstream.yaml"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustText is a helper that wraps a call to Record, Blocks, or Text and
// panics if the error is non-nil. It discards warnings and returns just the
// value.
//
// Example:
//
//	text := blockstream.MustText(blockstream.Open("memo.txt").Text(ctx))
func MustText[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

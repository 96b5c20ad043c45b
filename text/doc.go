// Package text provides tolerant text decoding and the plain-text
// extractor.
//
// [Decode] never fails: byte order marks select UTF-8 or UTF-16, and bytes
// that are not valid UTF-8 are dropped. [Lines] splits decoded text into
// trimmed, non-blank lines. Both are shared with the RTF extractor.
//
//	blocks, err := text.NewExtractor().Extract(ctx, "notes.txt")
//
// Every surviving line becomes one [model.Text] block.
package text

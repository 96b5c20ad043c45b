// Package model provides the normalized representation of extracted
// document content.
//
// Every format extractor produces the same vocabulary: an ordered
// sequence of [Block] values wrapped in a [Record]. Consumers may assume
// that no block kinds other than the four defined here ever appear.
//
// # Blocks
//
// The concrete block types are:
//
//   - [Text] - one trimmed, non-empty piece of prose
//   - [Table] - row-major cell text
//   - [ImageOCR] - recognized text of an embedded image, or a failure marker
//   - [Meta] - extractor markers such as archive file boundaries
//
// Use a type switch to consume them:
//
//	for _, b := range rec.Blocks {
//	    switch v := b.(type) {
//	    case model.Text:
//	        fmt.Println(v.Content)
//	    case model.ImageOCR:
//	        fmt.Printf("[%s] %s\n", v.Filename, v.Content)
//	    }
//	}
//
// # Records
//
// A [Record] is the unit handed to callers: an opaque identifier, the
// source file name, and the blocks in reading order. Records are built
// once by [NewRecord] and are not modified afterwards.
package model

package model

import (
	"github.com/google/uuid"
)

// Record is the finished output for one document.
type Record struct {
	ID     string
	Source string
	Blocks []Block
}

// NewRecord assembles a record with a fresh random identifier. The block
// slice is copied so the record never aliases the extractor's buffer.
func NewRecord(source string, blocks []Block) *Record {
	owned := make([]Block, len(blocks))
	copy(owned, blocks)
	return &Record{
		ID:     uuid.NewString(),
		Source: source,
		Blocks: owned,
	}
}

// Counts returns the number of blocks of each kind.
func (r *Record) Counts() map[Kind]int {
	counts := make(map[Kind]int, 4)
	for _, b := range r.Blocks {
		counts[b.Kind()]++
	}
	return counts
}

// OCRFailures returns the image blocks whose recognition failed.
func (r *Record) OCRFailures() []ImageOCR {
	var failed []ImageOCR
	for _, b := range r.Blocks {
		if img, ok := b.(ImageOCR); ok && img.Failed() {
			failed = append(failed, img)
		}
	}
	return failed
}

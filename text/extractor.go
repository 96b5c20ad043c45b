package text

import (
	"context"
	"fmt"
	"os"

	"github.com/tsawler/blockstream/model"
)

// Extractor emits one Text block per non-blank line of a plain text file.
type Extractor struct{}

// NewExtractor returns a plain text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and splits it into blocks.
func (e *Extractor) Extract(ctx context.Context, path string) ([]model.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LineBlocks(Decode(data)), nil
}

// LineBlocks converts each line of s into a Text block.
func LineBlocks(s string) []model.Block {
	lines := Lines(s)
	blocks := make([]model.Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, model.Text{Content: line})
	}
	return blocks
}

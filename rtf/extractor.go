package rtf

import (
	"context"
	"fmt"
	"os"

	"github.com/tsawler/blockstream/model"
	"github.com/tsawler/blockstream/text"
)

// Extractor emits one Text block per non-blank line of an RTF document's
// visible text.
type Extractor struct{}

// NewExtractor returns an RTF extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reduces the RTF file at path to text and splits it into blocks.
func (e *Extractor) Extract(ctx context.Context, path string) ([]model.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rtf file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return text.LineBlocks(ToText(data)), nil
}

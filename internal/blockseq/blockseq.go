// Package blockseq accumulates an extractor's blocks in document order
// while deferring image recognition.
//
// Extractors append text, tables and markers as they walk a document and
// reserve a slot for every image. [Sequence.Resolve] then recognizes the
// images, optionally several at once, and writes each result into its
// reserved slot, so the emitted order is always the walk order.
package blockseq

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/blockstream/model"
)

// RecognizeFunc produces the OCR text, or failure marker, for one image.
type RecognizeFunc func(ctx context.Context) string

type job struct {
	slot      int
	filename  string
	recognize RecognizeFunc
}

// Sequence is an ordered block buffer. It is not safe for concurrent use
// while blocks are being added.
type Sequence struct {
	blocks []model.Block
	jobs   []job
}

// Add appends a block.
func (s *Sequence) Add(b model.Block) {
	s.blocks = append(s.blocks, b)
}

// AddText appends a Text block if content is not blank.
func (s *Sequence) AddText(content string) bool {
	t, ok := model.NewText(content)
	if ok {
		s.blocks = append(s.blocks, t)
	}
	return ok
}

// AddImage reserves the next slot for an image whose text is produced
// later by recognize.
func (s *Sequence) AddImage(filename string, recognize RecognizeFunc) {
	s.jobs = append(s.jobs, job{slot: len(s.blocks), filename: filename, recognize: recognize})
	s.blocks = append(s.blocks, model.ImageOCR{Filename: filename})
}

// Len returns the number of blocks and reserved slots.
func (s *Sequence) Len() int {
	return len(s.blocks)
}

// Images returns the number of reserved image slots.
func (s *Sequence) Images() int {
	return len(s.jobs)
}

// Resolve runs every pending recognition with at most concurrency calls
// in flight and returns the completed blocks. A concurrency below 2 runs
// them one at a time in document order. The returned error is non-nil
// only when ctx ends before all images are done.
func (s *Sequence) Resolve(ctx context.Context, concurrency int) ([]model.Block, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, j := range s.jobs {
		if gctx.Err() != nil {
			break
		}
		j := j
		g.Go(func() error {
			s.blocks[j.slot] = model.ImageOCR{
				Filename: j.filename,
				Content:  j.recognize(gctx),
			}
			return nil
		})
	}
	_ = g.Wait()
	s.jobs = nil

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.blocks, nil
}

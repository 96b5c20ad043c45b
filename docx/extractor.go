package docx

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/tsawler/blockstream/internal/blockseq"
	"github.com/tsawler/blockstream/model"
	"github.com/tsawler/blockstream/ocr"
	"github.com/tsawler/blockstream/staging"
)

// maxMediaSize caps how much of one embedded image is staged.
const maxMediaSize = 64 << 20

// Extractor turns DOCX files into blocks.
type Extractor struct {
	ocr     *ocr.Adapter
	staging *staging.Manager

	// Concurrency is the number of images recognized at once.
	// Values below 2 recognize one image at a time.
	Concurrency int
}

// NewExtractor returns an extractor that recognizes images with adapter
// and stages them under mgr.
func NewExtractor(adapter *ocr.Adapter, mgr *staging.Manager) *Extractor {
	if adapter == nil {
		adapter = ocr.NewAdapter(nil, ocr.Config{}, nil)
	}
	return &Extractor{ocr: adapter, staging: mgr}
}

// stagedImage is one media part written to the staging area.
type stagedImage struct {
	entry string // archive path
	name  string // staged file name
	path  string // staged file path
	used  bool
}

// Extract walks the document body and returns its blocks in order.
func (e *Extractor) Extract(ctx context.Context, filename string) ([]model.Block, error) {
	rd, err := Open(filename)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	area, err := e.staging.Acquire("docx")
	if err != nil {
		return nil, err
	}
	defer area.Release()

	images, err := rd.stageMedia(area)
	if err != nil {
		return nil, err
	}

	elements, err := rd.body()
	if err != nil {
		return nil, err
	}

	p := &pairer{reader: rd, images: images}
	var seq blockseq.Sequence
	for _, el := range elements {
		switch {
		case el.paragraph != nil:
			e.addParagraph(&seq, p, el.paragraph)
		case el.table != nil:
			seq.Add(model.Table{Rows: el.table.grid()})
		}
	}

	return seq.Resolve(ctx, e.Concurrency)
}

// addParagraph emits pending text whenever a drawing run interrupts it,
// followed by the drawing's images.
func (e *Extractor) addParagraph(seq *blockseq.Sequence, p *pairer, para *paragraph) {
	var pending strings.Builder
	for _, r := range para.runs {
		if !r.drawing {
			pending.WriteString(r.text)
			continue
		}

		seq.AddText(pending.String())
		pending.Reset()

		for _, img := range p.match(r.images) {
			if img == nil {
				seq.AddImage("missing", func(context.Context) string {
					return ocr.FailureMarker(ocr.ErrImageUnavailable)
				})
				continue
			}
			stagedPath := img.path
			seq.AddImage(img.name, func(ctx context.Context) string {
				return e.ocr.Recognize(ctx, stagedPath)
			})
		}
	}
	seq.AddText(pending.String())
}

// stageMedia writes every embedded media part into area in archive order.
func (r *Reader) stageMedia(area *staging.Area) ([]*stagedImage, error) {
	images := make([]*stagedImage, 0, len(r.media))
	seen := make(map[string]bool, len(r.media))

	for i, f := range r.media {
		name := path.Base(f.Name)
		if seen[name] {
			name = strconv.Itoa(i) + "_" + name
		}
		seen[name] = true

		p, err := stageEntry(area, name, f)
		if err != nil {
			return nil, fmt.Errorf("staging %s: %w", f.Name, err)
		}
		images = append(images, &stagedImage{entry: f.Name, name: name, path: p})
	}
	return images, nil
}

// stageEntry copies one media part into area. A part that cannot be read
// is still staged, possibly empty, so the failure surfaces as an OCR
// failure marker at the drawing's position instead of aborting.
func stageEntry(area *staging.Area, name string, f *zip.File) (string, error) {
	out, err := area.Create(name)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if rc, err := f.Open(); err == nil {
		_, _ = io.Copy(out, io.LimitReader(rc, maxMediaSize))
		rc.Close()
	}
	return out.Name(), nil
}

// pairer assigns staged images to drawings.
type pairer struct {
	reader *Reader
	images []*stagedImage
	next   int
}

// match returns one image per reference. References that resolve to a
// staged media part use it directly; the rest take the next image not yet
// used in archive order. A nil entry means no image was left.
func (p *pairer) match(ids []string) []*stagedImage {
	out := make([]*stagedImage, 0, len(ids))
	for _, id := range ids {
		if entry, ok := p.reader.resolveImage(id); ok {
			if img := p.byEntry(entry); img != nil {
				img.used = true
				out = append(out, img)
				continue
			}
		}
		out = append(out, p.nextUnused())
	}
	return out
}

func (p *pairer) byEntry(entry string) *stagedImage {
	for _, img := range p.images {
		if img.entry == entry {
			return img
		}
	}
	return nil
}

func (p *pairer) nextUnused() *stagedImage {
	for p.next < len(p.images) {
		img := p.images[p.next]
		p.next++
		if !img.used {
			img.used = true
			return img
		}
	}
	return nil
}
